package controller

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/edulms/admin-console/internal/api"
	"github.com/edulms/admin-console/internal/notify"
	"github.com/edulms/admin-console/internal/validation"
	apperrors "github.com/edulms/admin-console/pkg/errors"
)

// Endpoints names the CRUD endpoint family of one resource kind. Update and
// Delete are fmt templates taking the resource id.
type Endpoints struct {
	List   string
	Create string
	Update string
	Delete string
}

// ConfirmFunc asks the operator to approve a destructive call. Returning
// false aborts the operation before any request is issued.
type ConfirmFunc func(prompt string) bool

// Config assembles one resource controller. R is the record type the list
// endpoint returns, F the form payload for create and update.
type Config[R any, F any] struct {
	// Name and Plural label the resource in notifications ("user",
	// "users").
	Name   string
	Plural string

	Endpoints Endpoints
	API       *api.Client
	Notifier  *notify.Notifier
	Logger    *zap.Logger

	// Validate runs the pure client-side check for the form shape.
	Validate func(form F, editing bool) validation.Result
	// ID extracts the server-assigned identifier of a record.
	ID func(R) int
	// EmptyForm produces the initial form shape ResetForm returns to.
	EmptyForm func() F
	// FormOf seeds the form from an existing record when editing starts.
	FormOf func(R) F
	// DeletePrompt builds the confirmation text; it must name the
	// server-side cascade the deletion triggers.
	DeletePrompt func(R) string
	// Guard, when set, may reject a removal locally before confirmation
	// and before any network call.
	Guard func(R) error
	// Decorate, when set, enriches a freshly loaded list with data from
	// further sequential calls. Decoration failures are non-fatal.
	Decorate func(ctx context.Context, items []R) []R

	Confirm ConfirmFunc
	// OnChange is invoked after every visible state mutation, the
	// explicit replacement for reactive re-rendering.
	OnChange func()
}

// Controller drives list-load, create, edit and delete for one resource
// kind. At most one Load/Submit/Remove is in flight at a time, tracked by
// the busy flag; there is no request cancellation.
type Controller[R any, F any] struct {
	cfg Config[R, F]

	mu          sync.Mutex
	busy        bool
	items       []R
	form        F
	formOpen    bool
	editing     *R
	fieldErrors map[string]string
}

// New builds a controller from its configuration.
func New[R any, F any](cfg Config[R, F]) *Controller[R, F] {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Confirm == nil {
		cfg.Confirm = func(string) bool { return false }
	}
	c := &Controller[R, F]{cfg: cfg}
	if cfg.EmptyForm != nil {
		c.form = cfg.EmptyForm()
	}
	return c
}

// Load fetches the resource list. On failure the previous list stays
// untouched and an error notification is raised.
func (c *Controller[R, F]) Load(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	return c.reload(ctx)
}

// reload fetches without touching the busy flag; the caller already holds
// it.
func (c *Controller[R, F]) reload(ctx context.Context) error {
	var items []R
	if err := c.cfg.API.Get(ctx, c.cfg.Endpoints.List, &items); err != nil {
		appErr := apperrors.FromError(err)
		c.cfg.Logger.Warn("list load failed",
			zap.String("resource", c.cfg.Name),
			zap.Error(err),
		)
		c.notifyError(fmt.Sprintf("Failed to load %s", c.cfg.Plural), appErr)
		return err
	}

	if c.cfg.Decorate != nil {
		items = c.cfg.Decorate(ctx, items)
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	c.changed()
	return nil
}

// Items returns a snapshot of the loaded list.
func (c *Controller[R, F]) Items() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]R, len(c.items))
	copy(snapshot, c.items)
	return snapshot
}

// Find locates a loaded record by its server-assigned identifier.
func (c *Controller[R, F]) Find(id int) (R, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if c.cfg.ID(item) == id {
			return item, true
		}
	}
	var zero R
	return zero, false
}

// Busy reports whether a Load, Submit or Remove is in flight; the UI must
// disable the triggering control while it is set.
func (c *Controller[R, F]) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// OpenCreate opens an empty form with no editing target.
func (c *Controller[R, F]) OpenCreate() {
	c.mu.Lock()
	c.editing = nil
	c.form = c.cfg.EmptyForm()
	c.fieldErrors = nil
	c.formOpen = true
	c.mu.Unlock()
	c.changed()
}

// OpenEdit opens the form seeded from an existing record.
func (c *Controller[R, F]) OpenEdit(target R) {
	c.mu.Lock()
	c.editing = &target
	if c.cfg.FormOf != nil {
		c.form = c.cfg.FormOf(target)
	}
	c.fieldErrors = nil
	c.formOpen = true
	c.mu.Unlock()
	c.changed()
}

// CloseForm hides the form and resets it to the empty shape.
func (c *Controller[R, F]) CloseForm() {
	c.mu.Lock()
	c.formOpen = false
	c.editing = nil
	c.form = c.cfg.EmptyForm()
	c.fieldErrors = nil
	c.mu.Unlock()
	c.changed()
}

// ResetForm restores the initial empty form shape without closing.
func (c *Controller[R, F]) ResetForm() {
	c.mu.Lock()
	c.form = c.cfg.EmptyForm()
	c.fieldErrors = nil
	c.mu.Unlock()
	c.changed()
}

// Form returns the current form value.
func (c *Controller[R, F]) Form() F {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// SetForm replaces the form value, typically after operator input.
func (c *Controller[R, F]) SetForm(form F) {
	c.mu.Lock()
	c.form = form
	c.mu.Unlock()
	c.changed()
}

// FormOpen reports whether the form is visible.
func (c *Controller[R, F]) FormOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formOpen
}

// Editing returns the record the form currently edits, if any.
func (c *Controller[R, F]) Editing() *R {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing
}

// Validate runs the pure form check. The field error map is replaced on
// every pass, so errors from a previous pass never linger.
func (c *Controller[R, F]) Validate() validation.Result {
	c.mu.Lock()
	form := c.form
	editing := c.editing != nil
	c.mu.Unlock()

	result := c.cfg.Validate(form, editing)

	c.mu.Lock()
	c.fieldErrors = result.FieldErrors
	c.mu.Unlock()
	c.changed()
	return result
}

// FieldErrors returns the violations of the latest validation pass, keyed
// by wire field name.
func (c *Controller[R, F]) FieldErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make(map[string]string, len(c.fieldErrors))
	for field, message := range c.fieldErrors {
		snapshot[field] = message
	}
	return snapshot
}

// Submit validates the form, then issues a create when no editing target is
// set or an update to the target's identifier otherwise — never both. On
// success the form closes and resets and the list reloads exactly once; on
// failure the form keeps its entered values so the operator can retry.
func (c *Controller[R, F]) Submit(ctx context.Context) (R, error) {
	var zero R

	if result := c.Validate(); !result.OK {
		return zero, apperrors.Clone(apperrors.ErrValidation, "")
	}

	if err := c.begin(); err != nil {
		return zero, err
	}
	defer c.end()

	c.mu.Lock()
	form := c.form
	editing := c.editing
	c.mu.Unlock()

	var saved R
	var err error
	if editing == nil {
		err = c.cfg.API.Post(ctx, c.cfg.Endpoints.Create, form, &saved)
	} else {
		path := fmt.Sprintf(c.cfg.Endpoints.Update, c.cfg.ID(*editing))
		err = c.cfg.API.Put(ctx, path, form, &saved)
	}

	if err != nil {
		appErr := apperrors.FromError(err)
		c.notifyError(fmt.Sprintf("Failed to save %s", c.cfg.Name), appErr)
		return zero, err
	}

	verb := "created"
	if editing != nil {
		verb = "updated"
	}

	c.CloseForm()
	if err := c.reload(ctx); err != nil {
		return saved, err
	}

	c.cfg.Notifier.Success(fmt.Sprintf("%s %s", titled(c.cfg.Name), verb))
	return saved, nil
}

// Remove deletes a record after the local guard and an explicit
// confirmation naming the server-side cascade. A declined confirmation
// aborts silently; a guard rejection raises a warning and never touches
// the network.
func (c *Controller[R, F]) Remove(ctx context.Context, target R) error {
	if c.cfg.Guard != nil {
		if err := c.cfg.Guard(target); err != nil {
			c.cfg.Notifier.Warning(err.Error())
			return err
		}
	}

	if !c.cfg.Confirm(c.cfg.DeletePrompt(target)) {
		return nil
	}

	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	path := fmt.Sprintf(c.cfg.Endpoints.Delete, c.cfg.ID(target))
	if err := c.cfg.API.Delete(ctx, path); err != nil {
		appErr := apperrors.FromError(err)
		c.notifyError(fmt.Sprintf("Failed to delete %s", c.cfg.Name), appErr)
		return err
	}

	if err := c.reload(ctx); err != nil {
		return err
	}

	c.cfg.Notifier.Success(fmt.Sprintf("%s deleted", titled(c.cfg.Name)))
	return nil
}

func (c *Controller[R, F]) begin() error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return apperrors.ErrBusy
	}
	c.busy = true
	c.mu.Unlock()
	c.changed()
	return nil
}

func (c *Controller[R, F]) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
	c.changed()
}

func (c *Controller[R, F]) changed() {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange()
	}
}

// notifyError surfaces the server-provided detail when present, falling
// back to the generic message.
func (c *Controller[R, F]) notifyError(fallback string, appErr *apperrors.Error) {
	message := fallback
	if appErr != nil && appErr.Message != "" && appErr.Message != apperrors.ErrRequestFailed.Message {
		message = appErr.Message
	}
	c.cfg.Notifier.Error(message)
}

func titled(name string) string {
	if name == "" {
		return name
	}
	return string(name[0]-'a'+'A') + name[1:]
}
