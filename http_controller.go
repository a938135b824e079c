package authkit

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts the credential endpoints on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.
		Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register")

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.
		Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh")

	app.
		Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("auth.logout")
}

type AuthControllerRoutes struct {
	Register string
	Login    string
	Refresh  string
	Logout   string
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Auth   Authenticator
	Auther *RouteAuthenticator
	Routes *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func (a *AuthController) ensureRoutes() {
	if a.Routes == nil {
		a.Routes = &AuthControllerRoutes{
			Register: "/register",
			Login:    "/login",
			Refresh:  "/refresh",
			Logout:   "/logout",
		}
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	c.ensureRoutes()

	if c.Auth == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithAuthenticator(auth Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auth = auth
		return c
	}
}

func WithHTTPAuthenticator(auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Routes = routes
		return c
	}
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Role     string `form:"role" json:"role"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			validation.Length(0, 50),
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 72),
		),
		validation.Field(
			&r.Role,
			validation.In(string(RoleUser), string(RoleAdmin)),
		),
	)
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: ", "error", err)
		return a.Auther.ErrorHandler(ctx, ErrUnprocessableBody)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload: ", "error", err)
		return a.Auther.ErrorHandler(ctx, formatValidationError(err))
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	creds, err := a.Auth.Register(ctx.Context(), payload.Email, payload.Password, Role(payload.Role))
	if err != nil {
		return a.Auther.ErrorHandler(ctx, err)
	}

	a.Auther.SetRefreshCookie(ctx, creds.RefreshToken)

	return ctx.JSON(fiber.StatusCreated, creds.Response)
}

// LoginPayload is the login body
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return a.Auther.ErrorHandler(ctx, ErrUnprocessableBody)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload: ", "error", err)
		return a.Auther.ErrorHandler(ctx, formatValidationError(err))
	}

	creds, err := a.Auth.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.Auther.ErrorHandler(ctx, err)
	}

	a.Auther.SetRefreshCookie(ctx, creds.RefreshToken)

	return ctx.JSON(fiber.StatusOK, creds.Response)
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	refreshToken := a.Auther.RefreshTokenFromRequest(ctx)

	res, err := a.Auth.RefreshAccessToken(ctx.Context(), refreshToken)
	if err != nil {
		// A dead refresh token is useless to the client, take the cookie too.
		if IsAuthenticationError(err) {
			a.Auther.ClearRefreshCookie(ctx)
		}
		return a.Auther.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, res)
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	refreshToken := a.Auther.RefreshTokenFromRequest(ctx)
	principalID, _ := RouterPrincipalID(ctx, a.Auther.cfg.GetContextKey())

	if err := a.Auth.Logout(ctx.Context(), refreshToken, principalID); err != nil {
		return a.Auther.ErrorHandler(ctx, err)
	}

	a.Auther.ClearRefreshCookie(ctx)

	return ctx.Status(fiber.StatusNoContent).SendString("")
}
