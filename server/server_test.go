package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/jobboard-auth/auth"
	"github.com/jrsteele09/jobboard-auth/internal/config"
	"github.com/jrsteele09/jobboard-auth/metrics"
	"github.com/jrsteele09/jobboard-auth/ratelimit"
	fakerolerepo "github.com/jrsteele09/jobboard-auth/roles/repofake"
	"github.com/jrsteele09/jobboard-auth/server"
	"github.com/jrsteele09/jobboard-auth/token"
	"github.com/jrsteele09/jobboard-auth/users"
	fakeuserrepo "github.com/jrsteele09/jobboard-auth/users/repofake"
)

const initPassword = "init-pass"

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

type loginData struct {
	AccessToken string         `json:"accessToken"`
	User        auth.Principal `json:"user"`
}

// testFixture holds all test dependencies
type testFixture struct {
	userRepo *fakeuserrepo.FakeUserRepo
	roleRepo *fakerolerepo.FakeRoleRepo
	metrics  *metrics.Metrics
	server   *server.Server
}

// setupTestFixture builds a server over seeded in-memory repositories. The seed
// creates admin@gmail.com (all permissions) and user@gmail.com (none), and the
// fixture adds a@x.com/p1 with the default role.
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	return setupTestFixtureWithLimiter(t, nil)
}

// setupTestFixtureWithLimiter is setupTestFixture with a replacement login
// limiter; nil keeps the in-memory one.
func setupTestFixtureWithLimiter(t *testing.T, limiter ratelimit.Limiter) *testFixture {
	t.Helper()
	ctx := context.Background()

	v := config.Defaults()
	v.Token.AccessSecret = "access-secret"
	v.Token.RefreshSecret = "refresh-secret"
	v.Storage.InitPassword = initPassword
	v.Cors.AllowedOrigins = []string{"http://localhost:3000"}
	cfg := config.New(v)

	codec, err := token.NewCodec(cfg)
	require.NoError(t, err)

	ur := fakeuserrepo.NewFakeUserRepo()
	rr := fakerolerepo.NewFakeRoleRepo()
	repos := auth.Repos{Users: ur, Roles: rr}
	hasher := users.NewBcryptHasher(bcrypt.MinCost)

	_, err = server.InitialiseSystem(ctx, repos, hasher, cfg)
	require.NoError(t, err)

	service := auth.NewAuthService(repos, codec, hasher, cfg)
	_, err = service.Register(ctx, auth.RegisterInput{
		Name: "A", Email: "a@x.com", Password: "p1", Age: 30, Gender: "female", Address: "1 Main St",
	})
	require.NoError(t, err)

	m := metrics.New()
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(cfg.GetLoginAttempts(), cfg.GetLoginWindow())
	}

	return &testFixture{
		userRepo: ur,
		roleRepo: rr,
		metrics:  m,
		server:   server.New(cfg, service, limiter, m),
	}
}

func (f *testFixture) do(t *testing.T, req *http.Request) (*http.Response, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	res := rec.Result()

	var env envelope
	if strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	}
	return res, env
}

func jsonRequest(method, path string, body any) *http.Request {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (f *testFixture) login(t *testing.T, username, password string) (*http.Response, envelope) {
	t.Helper()
	return f.do(t, jsonRequest(http.MethodPost, server.RouteAuthLogin, map[string]string{
		"username": username,
		"password": password,
	}))
}

func (f *testFixture) loginOK(t *testing.T, username, password string) (loginData, *http.Cookie) {
	t.Helper()
	res, env := f.login(t, username, password)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var data loginData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data, refreshCookie(res)
}

func refreshCookie(res *http.Response) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == server.RefreshCookieName {
			return c
		}
	}
	return nil
}

func withCookie(req *http.Request, c *http.Cookie) *http.Request {
	req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	return req
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t)

	data, cookie := f.loginOK(t, "a@x.com", "p1")
	require.NotEmpty(t, data.AccessToken)
	require.Equal(t, "a@x.com", data.User.Email)
	require.Equal(t, "NORMAL_USER", data.User.Role.Name)
	require.NotNil(t, data.User.Permissions)

	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, "/", cookie.Path)
	require.Equal(t, 7*24*60*60, cookie.MaxAge)
	require.False(t, cookie.Secure)

	stored, err := f.userRepo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.Equal(t, stored.RefreshToken, cookie.Value)

	t.Run("wrong password", func(t *testing.T) {
		res, env := f.login(t, "a@x.com", "wrong")
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		require.Nil(t, refreshCookie(res))
		require.Equal(t, "invalid username or password", env.Message)
	})

	t.Run("unknown user gets the same answer", func(t *testing.T) {
		res, env := f.login(t, "nobody@x.com", "p1")
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		require.Equal(t, "invalid username or password", env.Message)
	})
}

func TestLogin_MalformedBody(t *testing.T) {
	f := setupTestFixture(t)
	req := httptest.NewRequest(http.MethodPost, server.RouteAuthLogin, strings.NewReader("{"))
	res, env := f.do(t, req)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, http.StatusBadRequest, env.StatusCode)
}

func TestLogin_RateLimited(t *testing.T) {
	f := setupTestFixture(t)

	for range 3 {
		res, _ := f.login(t, "a@x.com", "wrong")
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	}

	res, env := f.login(t, "a@x.com", "p1")
	require.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	require.Nil(t, refreshCookie(res))
	require.Equal(t, "Too Many Requests", env.Error)
}

type unavailableLimiter struct{}

func (unavailableLimiter) Allow(context.Context, string) error {
	return ratelimit.ErrLimiterUnavailable
}

func TestLogin_LimiterUnavailableFailsOpen(t *testing.T) {
	f := setupTestFixtureWithLimiter(t, unavailableLimiter{})

	for range 5 {
		res, _ := f.login(t, "a@x.com", "p1")
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.NotNil(t, refreshCookie(res))
	}
}

func TestRefresh(t *testing.T) {
	f := setupTestFixture(t)
	first, firstCookie := f.loginOK(t, "a@x.com", "p1")

	req := withCookie(httptest.NewRequest(http.MethodGet, server.RouteAuthRefresh, nil), firstCookie)
	res, env := f.do(t, req)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var second loginData
	require.NoError(t, json.Unmarshal(env.Data, &second))
	require.NotEqual(t, first.AccessToken, second.AccessToken)
	require.Equal(t, "a@x.com", second.User.Email)

	secondCookie := refreshCookie(res)
	require.NotNil(t, secondCookie)
	require.NotEqual(t, firstCookie.Value, secondCookie.Value)

	t.Run("replayed cookie is rejected and cleared", func(t *testing.T) {
		req := withCookie(httptest.NewRequest(http.MethodGet, server.RouteAuthRefresh, nil), firstCookie)
		res, env := f.do(t, req)
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.Equal(t, "invalid session, please log in again", env.Message)

		cleared := refreshCookie(res)
		require.NotNil(t, cleared)
		require.Empty(t, cleared.Value)
		require.Negative(t, cleared.MaxAge)
	})

	t.Run("missing cookie", func(t *testing.T) {
		res, _ := f.do(t, httptest.NewRequest(http.MethodGet, server.RouteAuthRefresh, nil))
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	_, cookie := f.loginOK(t, "a@x.com", "p1")

	req := withCookie(httptest.NewRequest(http.MethodPost, server.RouteAuthLogout, nil), cookie)
	res, env := f.do(t, req)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var ack string
	require.NoError(t, json.Unmarshal(env.Data, &ack))
	require.Equal(t, "Logout successfully", ack)
	require.Negative(t, refreshCookie(res).MaxAge)

	t.Run("refresh after logout fails", func(t *testing.T) {
		req := withCookie(httptest.NewRequest(http.MethodGet, server.RouteAuthRefresh, nil), cookie)
		res, _ := f.do(t, req)
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("logout without a session still succeeds", func(t *testing.T) {
		res, _ := f.do(t, httptest.NewRequest(http.MethodPost, server.RouteAuthLogout, nil))
		require.Equal(t, http.StatusOK, res.StatusCode)
	})
}

func TestAccount(t *testing.T) {
	f := setupTestFixture(t)
	data, _ := f.loginOK(t, server.DefaultAdminEmail, initPassword)

	req := withBearer(httptest.NewRequest(http.MethodGet, server.RouteAuthAccount, nil), data.AccessToken)
	res, env := f.do(t, req)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var account struct {
		User auth.Principal `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &account))
	require.Equal(t, server.DefaultAdminEmail, account.User.Email)
	require.Equal(t, "SUPER_ADMIN", account.User.Role.Name)
	require.Len(t, account.User.Permissions, len(server.InitialPermissions))

	tests := []struct {
		name   string
		header string
	}{
		{"missing token", ""},
		{"wrong scheme", "Basic " + data.AccessToken},
		{"garbage token", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, server.RouteAuthAccount, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			res, _ := f.do(t, req)
			require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		})
	}
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)
	body := map[string]any{
		"name": "B", "email": "b@x.com", "password": "p2", "age": 22, "gender": "male", "address": "2 Main St",
	}

	res, env := f.do(t, jsonRequest(http.MethodPost, server.RouteAuthRegister, body))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Nil(t, refreshCookie(res))

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.ID)

	t.Run("duplicate email", func(t *testing.T) {
		res, env := f.do(t, jsonRequest(http.MethodPost, server.RouteAuthRegister, body))
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.Contains(t, env.Message, "b@x.com")
	})

	t.Run("invalid body", func(t *testing.T) {
		res, env := f.do(t, jsonRequest(http.MethodPost, server.RouteAuthRegister, map[string]any{"email": "c@x.com"}))
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.Contains(t, env.Message, "name must not be empty")
	})

	t.Run("password longer than 72 bytes", func(t *testing.T) {
		long := map[string]any{
			"name": "C", "email": "c@x.com", "password": strings.Repeat("a", 80), "age": 22, "gender": "male", "address": "3 Main St",
		}
		res, env := f.do(t, jsonRequest(http.MethodPost, server.RouteAuthRegister, long))
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.Contains(t, env.Message, "password must be at most 72 bytes")
	})
}

func TestCreateUser_Policy(t *testing.T) {
	f := setupTestFixture(t)
	admin, _ := f.loginOK(t, server.DefaultAdminEmail, initPassword)
	user, _ := f.loginOK(t, "a@x.com", "p1")

	body := map[string]any{
		"name": "HR", "email": "hr@x.com", "password": "p3", "age": 40, "gender": "female", "address": "3 Main St",
		"role":    admin.User.Role.ID,
		"company": map[string]string{"id": "c1", "name": "Acme"},
	}

	t.Run("no token", func(t *testing.T) {
		res, _ := f.do(t, jsonRequest(http.MethodPost, server.RouteUsers, body))
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("role without the permission", func(t *testing.T) {
		res, _ := f.do(t, withBearer(jsonRequest(http.MethodPost, server.RouteUsers, body), user.AccessToken))
		require.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("admin", func(t *testing.T) {
		res, _ := f.do(t, withBearer(jsonRequest(http.MethodPost, server.RouteUsers, body), admin.AccessToken))
		require.Equal(t, http.StatusCreated, res.StatusCode)

		created, err := f.userRepo.GetByEmail(context.Background(), "hr@x.com")
		require.NoError(t, err)
		require.Equal(t, "Acme", created.Company.Name)
	})
}

func TestCors(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodOptions, server.RouteAuthLogin, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	res, _ := f.do(t, req)
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Equal(t, "http://localhost:3000", res.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", res.Header.Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, server.RouteAuthLogin, nil)
	req.Header.Set("Origin", "http://evil.example")
	res, _ = f.do(t, req)
	require.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealthzAndMetrics(t *testing.T) {
	f := setupTestFixture(t)
	f.loginOK(t, "a@x.com", "p1")

	res, env := f.do(t, httptest.NewRequest(http.MethodGet, server.RouteHealthz, nil))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "SAMEORIGIN", res.Header.Get("X-Frame-Options"))
	require.Equal(t, http.StatusOK, env.StatusCode)

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.RouteMetrics, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `auth_operations_total{operation="login",outcome="success"} 1`)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRecoverMiddleware(t *testing.T) {
	f := setupTestFixture(t)
	handler := server.ChainMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, f.server.RecoverMiddleware)

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "boom")
}
