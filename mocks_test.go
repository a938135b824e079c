package authkit_test

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-authkit"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// testConfig implements authkit.Config with direct field access
type testConfig struct {
	AccessKey   string
	RefreshKey  string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	Issuer      string
	Audience    []string
	Whitelist   []string
	Environment string
	TokenLookup string
	AuthScheme  string
	ContextKey  string
}

func newTestConfig() *testConfig {
	return &testConfig{
		AccessKey:   "access-secret-for-tests",
		RefreshKey:  "refresh-secret-for-tests",
		AccessTTL:   15 * time.Minute,
		RefreshTTL:  7 * 24 * time.Hour,
		Issuer:      "authkit-test",
		Audience:    []string{"authkit-test"},
		Whitelist:   []string{"root@example.com"},
		Environment: "test",
		TokenLookup: "header:Authorization",
		AuthScheme:  "Bearer",
		ContextKey:  "principal",
	}
}

func (c *testConfig) GetAccessSigningKey() string       { return c.AccessKey }
func (c *testConfig) GetRefreshSigningKey() string      { return c.RefreshKey }
func (c *testConfig) GetAccessTokenTTL() time.Duration  { return c.AccessTTL }
func (c *testConfig) GetRefreshTokenTTL() time.Duration { return c.RefreshTTL }
func (c *testConfig) GetIssuer() string                 { return c.Issuer }
func (c *testConfig) GetAudience() []string             { return c.Audience }
func (c *testConfig) GetAdminWhitelist() []string       { return c.Whitelist }
func (c *testConfig) GetEnvironment() string            { return c.Environment }
func (c *testConfig) GetTokenLookup() string            { return c.TokenLookup }
func (c *testConfig) GetAuthScheme() string             { return c.AuthScheme }
func (c *testConfig) GetContextKey() string             { return c.ContextKey }

// memDirectory is an in-memory PrincipalDirectory plus AccountRegistrar.
type memDirectory struct {
	mu      sync.RWMutex
	byEmail map[string]*authkit.Principal
	byID    map[string]*authkit.Principal
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		byEmail: map[string]*authkit.Principal{},
		byID:    map[string]*authkit.Principal{},
	}
}

func (d *memDirectory) FindByEmail(_ context.Context, email string) (*authkit.Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byEmail[email]
	if !ok {
		return nil, authkit.ErrPrincipalNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *memDirectory) FindByID(_ context.Context, id string) (*authkit.Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byID[id]
	if !ok {
		return nil, authkit.ErrPrincipalNotFound
	}
	cp := *p
	cp.PasswordHash = ""
	return &cp, nil
}

func (d *memDirectory) Exists(_ context.Context, id string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byID[id]
	return ok, nil
}

func (d *memDirectory) RegisterAccount(_ context.Context, account *authkit.Principal) (*authkit.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byEmail[account.Email]; ok {
		return nil, authkit.ErrDuplicateEmail
	}
	cp := *account
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	d.byEmail[cp.Email] = &cp
	d.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (d *memDirectory) setRole(id string, role authkit.Role) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.byID[id]; ok {
		p.Role = role
	}
}

func (d *memDirectory) remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.byID[id]; ok {
		delete(d.byEmail, p.Email)
		delete(d.byID, id)
	}
}

// MockLogger implements authkit.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) { m.Called(format, args) }
func (m *MockLogger) Info(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Warn(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Error(format string, args ...any) { m.Called(format, args) }

// MockContext mocks the router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
