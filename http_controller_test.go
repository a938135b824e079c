package authkit_test

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-authkit"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type controllerFixture struct {
	*authFixture
	controller *authkit.AuthController
	route      *authkit.RouteAuthenticator
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	cfg := newTestConfig()
	fx := newAuthFixture(cfg)

	route, err := authkit.NewHTTPAuthenticator(fx.auther, cfg)
	require.NoError(t, err)

	controller := authkit.NewAuthController(
		authkit.WithAuthenticator(fx.auther),
		authkit.WithHTTPAuthenticator(route),
	)

	return &controllerFixture{
		authFixture: fx,
		controller:  controller,
		route:       route,
	}
}

func TestNewAuthController(t *testing.T) {
	t.Run("panics without an authenticator", func(t *testing.T) {
		assert.Panics(t, func() {
			authkit.NewAuthController()
		})
	})

	t.Run("uses default routes", func(t *testing.T) {
		fx := newControllerFixture(t)
		assert.Equal(t, "/register", fx.controller.Routes.Register)
		assert.Equal(t, "/login", fx.controller.Routes.Login)
		assert.Equal(t, "/refresh", fx.controller.Routes.Refresh)
		assert.Equal(t, "/logout", fx.controller.Routes.Logout)
	})
}

func TestAuthController_RegisterPost(t *testing.T) {
	t.Run("creates the principal and sets the refresh cookie", func(t *testing.T) {
		fx := newControllerFixture(t)

		ctx := &MockContext{}
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*authkit.RegisterPayload)
			payload.Email = "alice@example.com"
			payload.Password = "hunter2hunter2"
		}).Return(nil)
		ctx.On("Context").Return(context.Background())

		var cookie *router.Cookie
		ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
			cookie = args.Get(0).(*router.Cookie)
		})

		var body any
		ctx.On("JSON", fiber.StatusCreated, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1)
		}).Return(nil)

		err := fx.controller.RegisterPost(ctx)
		require.NoError(t, err)

		require.NotNil(t, cookie)
		assert.Equal(t, authkit.RefreshCookieName, cookie.Name)
		assert.True(t, cookie.HTTPOnly)
		assert.Equal(t, "Strict", cookie.SameSite)
		assert.NotEmpty(t, cookie.Value)

		response, ok := body.(authkit.AuthResponse)
		require.True(t, ok)
		assert.Equal(t, "alice@example.com", response.User.Email)
		assert.Equal(t, authkit.RoleUser, response.User.Role)
		assert.NotEmpty(t, response.AccessToken)

		// the cookie value must be the tracked refresh token
		exists, err := fx.sessions.Exists(context.Background(), cookie.Value)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("rejects invalid payloads with 400", func(t *testing.T) {
		fx := newControllerFixture(t)

		ctx := &MockContext{}
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*authkit.RegisterPayload)
			payload.Email = "not-an-email"
			payload.Password = "short"
		}).Return(nil)
		ctx.On("JSON", fiber.StatusBadRequest, mock.Anything).Return(nil)

		err := fx.controller.RegisterPost(ctx)
		require.NoError(t, err)

		ctx.AssertCalled(t, "JSON", fiber.StatusBadRequest, mock.Anything)
		assert.Equal(t, 0, fx.sessions.Len())
	})
}

func TestAuthController_LoginPost(t *testing.T) {
	t.Run("valid credentials return 200 with cookie", func(t *testing.T) {
		fx := newControllerFixture(t)
		_, err := fx.auther.Register(context.Background(), "alice@example.com", "hunter2hunter2", "")
		require.NoError(t, err)

		ctx := &MockContext{}
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*authkit.LoginPayload)
			payload.Email = "alice@example.com"
			payload.Password = "hunter2hunter2"
		}).Return(nil)
		ctx.On("Context").Return(context.Background())
		ctx.On("Cookie", mock.Anything)
		ctx.On("JSON", fiber.StatusOK, mock.Anything).Return(nil)

		err = fx.controller.LoginPost(ctx)
		require.NoError(t, err)

		ctx.AssertCalled(t, "Cookie", mock.Anything)
		ctx.AssertCalled(t, "JSON", fiber.StatusOK, mock.Anything)
	})

	t.Run("wrong password renders AuthenticationError", func(t *testing.T) {
		fx := newControllerFixture(t)
		_, err := fx.auther.Register(context.Background(), "alice@example.com", "hunter2hunter2", "")
		require.NoError(t, err)

		ctx := &MockContext{}
		ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			payload := args.Get(0).(*authkit.LoginPayload)
			payload.Email = "alice@example.com"
			payload.Password = "wrong-password"
		}).Return(nil)
		ctx.On("Context").Return(context.Background())

		var body any
		ctx.On("JSON", fiber.StatusUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1)
		}).Return(nil)

		err = fx.controller.LoginPost(ctx)
		require.NoError(t, err)

		require.NotNil(t, body)
	})
}

func TestAuthController_RefreshPost(t *testing.T) {
	t.Run("live cookie yields a new access token", func(t *testing.T) {
		fx := newControllerFixture(t)
		creds, err := fx.auther.Register(context.Background(), "alice@example.com", "hunter2hunter2", "")
		require.NoError(t, err)

		ctx := &MockContext{}
		ctx.On("Cookies", authkit.RefreshCookieName).Return(creds.RefreshToken)
		ctx.On("Context").Return(context.Background())

		var body any
		ctx.On("JSON", fiber.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1)
		}).Return(nil)

		err = fx.controller.RefreshPost(ctx)
		require.NoError(t, err)

		response, ok := body.(*authkit.RefreshResponse)
		require.True(t, ok)
		assert.NotEmpty(t, response.AccessToken)

		// never touches the cookie on success
		ctx.AssertNotCalled(t, "Cookie", mock.Anything)
	})

	t.Run("revoked cookie is cleared", func(t *testing.T) {
		fx := newControllerFixture(t)
		creds, err := fx.auther.Register(context.Background(), "alice@example.com", "hunter2hunter2", "")
		require.NoError(t, err)
		require.NoError(t, fx.auther.Logout(context.Background(), creds.RefreshToken, ""))

		ctx := &MockContext{}
		ctx.On("Cookies", authkit.RefreshCookieName).Return(creds.RefreshToken)
		ctx.On("Context").Return(context.Background())

		var cleared *router.Cookie
		ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
			cleared = args.Get(0).(*router.Cookie)
		})
		ctx.On("JSON", fiber.StatusUnauthorized, mock.Anything).Return(nil)

		err = fx.controller.RefreshPost(ctx)
		require.NoError(t, err)

		require.NotNil(t, cleared)
		assert.Equal(t, authkit.RefreshCookieName, cleared.Name)
		assert.Empty(t, cleared.Value)
	})
}

func TestAuthController_LogoutPost(t *testing.T) {
	t.Run("revokes the presented session", func(t *testing.T) {
		fx := newControllerFixture(t)
		creds, err := fx.auther.Register(context.Background(), "alice@example.com", "hunter2hunter2", "")
		require.NoError(t, err)

		ctx := &MockContext{}
		ctx.On("Cookies", authkit.RefreshCookieName).Return(creds.RefreshToken)
		ctx.On("Locals", "principal").Return(nil)
		ctx.On("Context").Return(context.Background())
		ctx.On("Cookie", mock.Anything)
		ctx.On("Status", fiber.StatusNoContent)
		ctx.On("SendString", "").Return(nil)

		err = fx.controller.LogoutPost(ctx)
		require.NoError(t, err)

		ctx.AssertCalled(t, "Status", fiber.StatusNoContent)

		exists, err := fx.sessions.Exists(context.Background(), creds.RefreshToken)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("reads the principal under the configured context key", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.ContextKey = "currentUser"

		fx := newAuthFixture(cfg)
		route, err := authkit.NewHTTPAuthenticator(fx.auther, cfg)
		require.NoError(t, err)

		controller := authkit.NewAuthController(
			authkit.WithAuthenticator(fx.auther),
			authkit.WithHTTPAuthenticator(route),
		)

		creds, err := fx.auther.Register(context.Background(), "alice@example.com", "hunter2hunter2", "")
		require.NoError(t, err)

		// Only the configured key is mocked, a lookup under the default key
		// would fail the test.
		ctx := &MockContext{}
		ctx.On("Cookies", authkit.RefreshCookieName).Return(creds.RefreshToken)
		ctx.On("Locals", "currentUser").Return("some-principal-id")
		ctx.On("Context").Return(context.Background())
		ctx.On("Cookie", mock.Anything)
		ctx.On("Status", fiber.StatusNoContent)
		ctx.On("SendString", "").Return(nil)

		err = controller.LogoutPost(ctx)
		require.NoError(t, err)

		exists, err := fx.sessions.Exists(context.Background(), creds.RefreshToken)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
