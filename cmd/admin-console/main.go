package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/edulms/admin-console/internal/api"
	"github.com/edulms/admin-console/internal/controller"
	"github.com/edulms/admin-console/internal/models"
	"github.com/edulms/admin-console/internal/notify"
	"github.com/edulms/admin-console/internal/service"
	"github.com/edulms/admin-console/internal/session"
	"github.com/edulms/admin-console/internal/validation"
	"github.com/edulms/admin-console/pkg/config"
	apperrors "github.com/edulms/admin-console/pkg/errors"
	"github.com/edulms/admin-console/pkg/logger"
	"github.com/edulms/admin-console/pkg/storage"
)

const usage = `admin-console — LMS administration client

Usage:
  admin-console login -login <login> -password <password>
  admin-console register -username <u> -email <e> -fullname <n> -password <p> -confirm <p>
  admin-console whoami
  admin-console logout
  admin-console dashboard
  admin-console users    list|create|update|delete [flags]
  admin-console groups   list|create|update|delete [flags]
  admin-console tests    list|create|update|delete [flags]
  admin-console courses  list|create|update|delete [flags]
  admin-console report   course-stats -course <id> [-format csv|pdf]
  admin-console report   my-results [-format csv|pdf]
`

type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	notifier  *notify.Notifier
	client    *api.Client
	manager   *session.Manager
	validator *validation.FormValidator
	deps      controller.Deps
	profile   *models.UserProfile
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	a, cleanup, err := newApp(cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("startup failed", "error", err)
	}
	defer cleanup()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := a.run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		if apperrors.IsAuth(err) {
			fmt.Fprintln(os.Stderr, "Not authenticated. Run: admin-console login")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, logr *zap.Logger) (*app, func(), error) {
	cleanup := func() {}

	var store session.TokenStore
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		redisStore, err := session.NewRedisStore(cfg.Redis)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect session redis: %w", err)
		}
		store = redisStore
		cleanup = func() { _ = redisStore.Close() }
	default:
		store = session.NewFileStore(cfg.Session.File)
	}

	notifier := notify.New(logr, printNotification)

	metrics := api.NewMetrics()
	client := api.NewClient(cfg.API.BaseURL, session.NewTokenSource(store),
		api.WithLogger(logr),
		api.WithMetrics(metrics),
		api.WithTimeout(cfg.API.Timeout),
	)

	if cfg.Metrics.Port > 0 {
		go serveMetrics(cfg.Metrics.Port, metrics, logr)
	}

	a := &app{
		cfg:       cfg,
		logger:    logr,
		notifier:  notifier,
		client:    client,
		manager:   session.NewManager(client, store, logr),
		validator: validation.New(),
	}
	a.deps = controller.Deps{
		API:       client,
		Notifier:  notifier,
		Validator: a.validator,
		Logger:    logr,
		Confirm:   confirmOnTerminal,
		Profile:   func() *models.UserProfile { return a.profile },
	}
	return a, cleanup, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "whoami":
		return a.whoami(ctx)
	case "logout":
		a.manager.Release()
		fmt.Println("Signed out.")
		return nil
	case "dashboard":
		return a.dashboard(ctx)
	case "users":
		return a.users(ctx, args)
	case "groups":
		return a.groups(ctx, args)
	case "tests":
		return a.tests(ctx, args)
	case "courses":
		return a.courses(ctx, args)
	case "report":
		return a.report(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	login := fs.String("login", "", "login or email")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)

	form := models.LoginForm{Login: *login, Password: *password}
	if result := a.validator.Login(form); !result.OK {
		printFieldErrors(result.FieldErrors)
		return apperrors.Clone(apperrors.ErrValidation, "")
	}

	sess, err := a.manager.Acquire(ctx, models.Credentials{Login: form.Login, Password: form.Password})
	if err != nil {
		a.notifier.Error(apperrors.FromError(err).Message)
		return err
	}

	a.notifier.Success("Signed in successfully")
	if sess.Email != "" {
		fmt.Printf("Signed in as %s\n", sess.Email)
	}
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "login, latin letters, digits and underscores")
	email := fs.String("email", "", "email address")
	fullname := fs.String("fullname", "", "full name")
	password := fs.String("password", "", "password, at least 8 characters")
	confirm := fs.String("confirm", "", "password confirmation")
	_ = fs.Parse(args)

	form := models.RegistrationForm{
		Username:        *username,
		Email:           *email,
		FullName:        *fullname,
		Password:        *password,
		ConfirmPassword: *confirm,
	}
	if result := a.validator.Registration(form); !result.OK {
		printFieldErrors(result.FieldErrors)
		return apperrors.Clone(apperrors.ErrValidation, "")
	}

	if err := a.manager.Register(ctx, form); err != nil {
		a.notifier.Error(apperrors.FromError(err).Message)
		return err
	}

	a.notifier.Success("Registration successful. Check your inbox to confirm the account.")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	profile, err := a.verify(ctx)
	if err != nil {
		return err
	}
	groupName := "-"
	if profile.Group != nil {
		groupName = profile.Group.Name
	}
	fmt.Printf("%s <%s> role=%s group=%s\n", profile.FIO, profile.Email, profile.Role, groupName)
	return nil
}

// verify replays the stored token before any protected command, the exact
// analogue of the per-screen mount check.
func (a *app) verify(ctx context.Context) (*models.UserProfile, error) {
	profile, err := a.manager.Verify(ctx)
	if err != nil {
		return nil, err
	}
	a.profile = profile
	return profile, nil
}

func (a *app) dashboard(ctx context.Context) error {
	profile, err := a.verify(ctx)
	if err != nil {
		return err
	}

	dash := service.NewDashboardService(a.client, a.notifier, a.validator, a.logger, nil)
	if err := dash.LoadAll(ctx, profile); err != nil {
		return err
	}

	fmt.Printf("Dashboard for %s (%s)\n\n", profile.FIO, profile.Role)
	fmt.Println("Courses:")
	for _, course := range dash.Courses() {
		fmt.Printf("  #%d %s (tests: %d)\n", course.ID, course.Name, course.TotalTests)
	}

	switch profile.Role {
	case models.RoleStudent:
		if stats := dash.StudentStats(); stats != nil {
			fmt.Printf("\nCompleted %d of %d tests (%.1f%%), average score %.1f\n",
				stats.CompletedTestsCount, stats.TotalTestsCount, stats.CompletionPercentage, stats.AverageScore)
		}
	case models.RoleTeacher:
		if stats := dash.TeacherStats(); stats != nil {
			fmt.Printf("\nCourses: %d, groups: %d, students: %d\n",
				stats.CourseCount, stats.GroupCount, stats.StudentCount)
		}
	case models.RoleAdmin:
		if stats := dash.AdminStats(); stats != nil {
			fmt.Printf("\nCourses: %d, users: %d, groups: %d\n",
				stats.CourseCount, stats.UserCount, stats.GroupCount)
		}
	}
	return nil
}

func (a *app) users(ctx context.Context, args []string) error {
	if _, err := a.verify(ctx); err != nil {
		return err
	}
	ctrl := controller.NewUsers(a.deps)

	verb, rest := splitVerb(args)
	switch verb {
	case "list":
		if err := ctrl.Load(ctx); err != nil {
			return err
		}
		for _, user := range ctrl.Items() {
			groupName := "-"
			if user.Group != nil {
				groupName = user.Group.Name
			}
			fmt.Printf("#%d %s (%s) role=%s group=%s\n", user.ID, user.FIO, user.Login, user.Role, groupName)
		}
		return nil
	case "create", "update":
		fs := flag.NewFlagSet("users "+verb, flag.ExitOnError)
		id := fs.Int("id", 0, "user id (update only)")
		fio := fs.String("fio", "", "full name")
		login := fs.String("login", "", "login")
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		role := fs.String("role", string(models.RoleStudent), "student|teacher|admin")
		group := fs.Int("group", 0, "group id, 0 for none")
		_ = fs.Parse(rest)

		form := models.UserForm{
			FIO:      *fio,
			Login:    *login,
			Email:    *email,
			Password: *password,
			Role:     models.UserRole(*role),
		}
		if *group > 0 {
			form.GroupID = group
		}
		target, err := targetID(verb, *id)
		if err != nil {
			return err
		}
		return runSubmit(ctx, ctrl, target, form)
	case "delete":
		fs := flag.NewFlagSet("users delete", flag.ExitOnError)
		id := fs.Int("id", 0, "user id")
		_ = fs.Parse(rest)
		return runRemove(ctx, ctrl, *id)
	default:
		return fmt.Errorf("users: unknown subcommand %q", verb)
	}
}

func (a *app) groups(ctx context.Context, args []string) error {
	if _, err := a.verify(ctx); err != nil {
		return err
	}
	ctrl := controller.NewGroups(a.deps)

	verb, rest := splitVerb(args)
	switch verb {
	case "list":
		if err := ctrl.Load(ctx); err != nil {
			return err
		}
		for _, group := range ctrl.Items() {
			fmt.Printf("#%d %s\n", group.ID, group.Name)
		}
		return nil
	case "create", "update":
		fs := flag.NewFlagSet("groups "+verb, flag.ExitOnError)
		id := fs.Int("id", 0, "group id (update only)")
		name := fs.String("name", "", "group name")
		_ = fs.Parse(rest)
		target, err := targetID(verb, *id)
		if err != nil {
			return err
		}
		return runSubmit(ctx, ctrl, target, models.GroupForm{Name: *name})
	case "delete":
		fs := flag.NewFlagSet("groups delete", flag.ExitOnError)
		id := fs.Int("id", 0, "group id")
		_ = fs.Parse(rest)
		return runRemove(ctx, ctrl, *id)
	default:
		return fmt.Errorf("groups: unknown subcommand %q", verb)
	}
}

func (a *app) tests(ctx context.Context, args []string) error {
	if _, err := a.verify(ctx); err != nil {
		return err
	}
	ctrl := controller.NewTests(a.deps)

	verb, rest := splitVerb(args)
	switch verb {
	case "list":
		if err := ctrl.Load(ctx); err != nil {
			return err
		}
		for _, test := range ctrl.Items() {
			courseName := "-"
			if test.Course != nil {
				courseName = test.Course.Name
			}
			fmt.Printf("#%d %s course=%s\n", test.ID, test.Name, courseName)
		}
		return nil
	case "create", "update":
		fs := flag.NewFlagSet("tests "+verb, flag.ExitOnError)
		id := fs.Int("id", 0, "test id (update only)")
		name := fs.String("name", "", "test name")
		course := fs.Int("course", 0, "course id")
		_ = fs.Parse(rest)

		form := models.TestForm{Name: *name}
		if *course > 0 {
			form.CourseID = course
		}
		target, err := targetID(verb, *id)
		if err != nil {
			return err
		}
		return runSubmit(ctx, ctrl, target, form)
	case "delete":
		fs := flag.NewFlagSet("tests delete", flag.ExitOnError)
		id := fs.Int("id", 0, "test id")
		_ = fs.Parse(rest)
		return runRemove(ctx, ctrl, *id)
	default:
		return fmt.Errorf("tests: unknown subcommand %q", verb)
	}
}

func (a *app) courses(ctx context.Context, args []string) error {
	if _, err := a.verify(ctx); err != nil {
		return err
	}
	ctrl := controller.NewCourses(a.deps)

	verb, rest := splitVerb(args)
	switch verb {
	case "list":
		if err := ctrl.Load(ctx); err != nil {
			return err
		}
		for _, course := range ctrl.Items() {
			teacherName, groupName := "-", "-"
			if course.Teacher != nil {
				teacherName = course.Teacher.FIO
			}
			if course.Group != nil {
				groupName = course.Group.Name
			}
			fmt.Printf("#%d %s teacher=%s group=%s\n", course.ID, course.Name, teacherName, groupName)
		}
		return nil
	case "create", "update":
		fs := flag.NewFlagSet("courses "+verb, flag.ExitOnError)
		id := fs.Int("id", 0, "course id (update only)")
		name := fs.String("name", "", "course name")
		teacher := fs.Int("teacher", 0, "teacher user id")
		group := fs.Int("group", 0, "group id")
		_ = fs.Parse(rest)

		form := models.CourseForm{Name: *name}
		if *teacher > 0 {
			form.TeacherID = teacher
		}
		if *group > 0 {
			form.GroupID = group
		}
		target, err := targetID(verb, *id)
		if err != nil {
			return err
		}
		return runSubmit(ctx, ctrl, target, form)
	case "delete":
		fs := flag.NewFlagSet("courses delete", flag.ExitOnError)
		id := fs.Int("id", 0, "course id")
		_ = fs.Parse(rest)
		return runRemove(ctx, ctrl, *id)
	default:
		return fmt.Errorf("courses: unknown subcommand %q", verb)
	}
}

func (a *app) report(ctx context.Context, args []string) error {
	if _, err := a.verify(ctx); err != nil {
		return err
	}

	store, err := storage.NewLocalStorage(a.cfg.Exports.Dir)
	if err != nil {
		return err
	}
	reports := service.NewReportService(a.client, store, a.logger)

	verb, rest := splitVerb(args)
	fs := flag.NewFlagSet("report "+verb, flag.ExitOnError)
	course := fs.Int("course", 0, "course id")
	format := fs.String("format", service.FormatCSV, "csv|pdf")
	_ = fs.Parse(rest)

	var path string
	switch verb {
	case "course-stats":
		if *course <= 0 {
			return fmt.Errorf("report course-stats: -course is required")
		}
		path, err = reports.ExportCourseStatistics(ctx, *course, *format)
	case "my-results":
		path, err = reports.ExportStudentResults(ctx, *format)
	default:
		return fmt.Errorf("report: unknown subcommand %q", verb)
	}
	if err != nil {
		return err
	}

	fmt.Println("Report written to", path)
	return nil
}

// runSubmit drives a controller through the shared create/update path:
// for updates the target is located among the loaded records and seeded
// into the form state before the submit.
func runSubmit[R any, F any](ctx context.Context, ctrl *controller.Controller[R, F], id int, form F) error {
	if id > 0 {
		if err := ctrl.Load(ctx); err != nil {
			return err
		}
		target, ok := ctrl.Find(id)
		if !ok {
			return fmt.Errorf("no record with id %d", id)
		}
		ctrl.OpenEdit(target)
	} else {
		ctrl.OpenCreate()
	}
	ctrl.SetForm(form)

	if _, err := ctrl.Submit(ctx); err != nil {
		if apperrors.FromError(err).Kind == apperrors.KindValidation {
			printFieldErrors(ctrl.FieldErrors())
		}
		return err
	}
	return nil
}

func runRemove[R any, F any](ctx context.Context, ctrl *controller.Controller[R, F], id int) error {
	if id <= 0 {
		return fmt.Errorf("-id is required")
	}
	if err := ctrl.Load(ctx); err != nil {
		return err
	}
	target, ok := ctrl.Find(id)
	if !ok {
		return fmt.Errorf("no record with id %d", id)
	}
	return ctrl.Remove(ctx, target)
}

// targetID resolves the editing target for the shared create/update
// dispatch: updates require -id, creates ignore it.
func targetID(verb string, id int) (int, error) {
	if verb == "create" {
		return 0, nil
	}
	if id <= 0 {
		return 0, fmt.Errorf("%s: -id is required", verb)
	}
	return id, nil
}

func splitVerb(args []string) (string, []string) {
	if len(args) == 0 {
		return "list", nil
	}
	return args[0], args[1:]
}

func printFieldErrors(fieldErrors map[string]string) {
	for field, message := range fieldErrors {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", field, message)
	}
}

func printNotification(n notify.Notification) {
	fmt.Printf("[%s] %s: %s\n", strings.ToUpper(string(n.Kind)), n.Title, n.Message)
}

func confirmOnTerminal(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func serveMetrics(port int, metrics *api.Metrics, logr *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	addr := fmt.Sprintf(":%d", port)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logr.Warn("metrics listener stopped", zap.Error(err))
	}
}
