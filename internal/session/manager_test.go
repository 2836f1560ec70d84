package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulms/admin-console/internal/api"
	"github.com/edulms/admin-console/internal/models"
	apperrors "github.com/edulms/admin-console/pkg/errors"
)

func signedToken(t *testing.T, email string, role models.UserRole) string {
	t.Helper()
	claims := models.TokenClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newManagerWithServer(t *testing.T, register func(*gin.Engine)) (*Manager, *FileStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	client := api.NewClient(srv.URL, NewTokenSource(store))
	return NewManager(client, store, zap.NewNop()), store
}

func TestAcquireStoresTokenAndEmail(t *testing.T) {
	token := signedToken(t, "admin@example.com", models.RoleAdmin)
	manager, store := newManagerWithServer(t, func(r *gin.Engine) {
		r.POST("/auth/login", func(c *gin.Context) {
			var creds models.Credentials
			require.NoError(t, c.ShouldBindJSON(&creds))
			assert.Equal(t, "admin", creds.Login)
			c.JSON(http.StatusOK, gin.H{"access_token": token})
		})
	})

	sess, err := manager.Acquire(context.Background(), models.Credentials{Login: "admin", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, token, sess.Token)
	assert.Equal(t, "admin@example.com", sess.Email)
	assert.Equal(t, models.RoleAdmin, sess.Role)
	assert.Equal(t, StateAuthenticated, manager.State())

	storedToken, storedEmail, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, token, storedToken)
	assert.Equal(t, "admin@example.com", storedEmail)
}

func TestAcquireRejectedCredentials(t *testing.T) {
	manager, store := newManagerWithServer(t, func(r *gin.Engine) {
		r.POST("/auth/login", func(c *gin.Context) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect login or password"})
		})
	})

	_, err := manager.Acquire(context.Background(), models.Credentials{Login: "admin", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
	assert.Equal(t, "Incorrect login or password", apperrors.FromError(err).Message)

	_, _, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestAcquireUnreachableServer(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	client := api.NewClient("http://127.0.0.1:1", NewTokenSource(store))
	manager := NewManager(client, store, zap.NewNop())

	_, err := manager.Acquire(context.Background(), models.Credentials{Login: "admin", Password: "longenough"})
	require.Error(t, err)

	appErr := apperrors.FromError(err)
	assert.Equal(t, apperrors.KindAuth, appErr.Kind)
	assert.Equal(t, apperrors.ErrConnection.Message, appErr.Message)
}

func TestVerifyReturnsProfile(t *testing.T) {
	token := signedToken(t, "teacher@example.com", models.RoleTeacher)
	var gotAuth string
	manager, store := newManagerWithServer(t, func(r *gin.Engine) {
		r.GET("/auth/me", func(c *gin.Context) {
			gotAuth = c.GetHeader("Authorization")
			c.JSON(http.StatusOK, models.UserProfile{
				ID:    7,
				Email: "teacher@example.com",
				Login: "teacher",
				FIO:   "Olga Ivanova",
				Role:  models.RoleTeacher,
			})
		})
	})
	require.NoError(t, store.Save(token, "teacher@example.com"))

	profile, err := manager.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+token, gotAuth)
	assert.Equal(t, 7, profile.ID)
	assert.Equal(t, models.RoleTeacher, profile.Role)
	assert.Equal(t, StateAuthenticated, manager.State())
	assert.Equal(t, profile, manager.Profile())
}

func TestVerifyWithoutStoredToken(t *testing.T) {
	manager, _ := newManagerWithServer(t, func(r *gin.Engine) {})

	_, err := manager.Verify(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
	assert.Equal(t, StateUnauthenticated, manager.State())
}

func TestVerifyRejectedTokenClearsStore(t *testing.T) {
	manager, store := newManagerWithServer(t, func(r *gin.Engine) {
		r.GET("/auth/me", func(c *gin.Context) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		})
	})
	require.NoError(t, store.Save("stale-token", "old@example.com"))

	_, err := manager.Verify(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthenticated.Message, apperrors.FromError(err).Message)
	assert.Equal(t, StateUnauthenticated, manager.State())

	_, _, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestReleaseIsIdempotent(t *testing.T) {
	manager, store := newManagerWithServer(t, func(r *gin.Engine) {})
	require.NoError(t, store.Save("tok", "a@b.c"))

	manager.Release()
	manager.Release()

	assert.Equal(t, StateUnauthenticated, manager.State())
	assert.Nil(t, manager.Profile())
	_, _, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRegisterMapsServerDetail(t *testing.T) {
	manager, _ := newManagerWithServer(t, func(r *gin.Engine) {
		r.POST("/auth/register", func(c *gin.Context) {
			c.JSON(http.StatusConflict, gin.H{"detail": "Login already registered"})
		})
	})

	err := manager.Register(context.Background(), models.RegistrationForm{Username: "dup"})
	require.Error(t, err)

	appErr := apperrors.FromError(err)
	assert.Equal(t, apperrors.KindAuth, appErr.Kind)
	assert.Equal(t, "Login already registered", appErr.Message)
}

func TestRegisterSuccess(t *testing.T) {
	manager, _ := newManagerWithServer(t, func(r *gin.Engine) {
		r.POST("/auth/register", func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{"id": 1})
		})
	})

	assert.NoError(t, manager.Register(context.Background(), models.RegistrationForm{Username: "fresh"}))
}

func TestAcquireTokenWithOpaquePayload(t *testing.T) {
	manager, _ := newManagerWithServer(t, func(r *gin.Engine) {
		r.POST("/auth/login", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"access_token": "not-a-jwt"})
		})
	})

	sess, err := manager.Acquire(context.Background(), models.Credentials{Login: "admin", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "not-a-jwt", sess.Token)
	assert.Empty(t, sess.Email)
}
