package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medrex/portal-gate/internal/access"
	"github.com/medrex/portal-gate/internal/logout"
	"github.com/medrex/portal-gate/internal/session"
	"github.com/medrex/portal-gate/internal/wallet"
	"github.com/medrex/portal-gate/pkg/config"
	"github.com/medrex/portal-gate/pkg/monitoring"
	"github.com/medrex/portal-gate/pkg/types"
)

// MockWallet is a mock implementation of Wallet
type MockWallet struct {
	mock.Mock
}

func (m *MockWallet) EnsureConnected(ctx context.Context) (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockWallet) ActiveAddress(ctx context.Context) (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// MockOracle is a mock implementation of Oracle
type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) RoleRecordFor(ctx context.Context, address string, role types.Role) (types.RoleRecord, error) {
	args := m.Called(address, role)
	return args.Get(0).(types.RoleRecord), args.Error(1)
}

func (m *MockOracle) IsAdmin(ctx context.Context, address string) (bool, error) {
	args := m.Called(address)
	return args.Bool(0), args.Error(1)
}

func (m *MockOracle) NotifyLogout(ctx context.Context, address string, role types.Role) error {
	args := m.Called(address, role)
	return args.Error(0)
}

func (m *MockOracle) AgentName(ctx context.Context, address string) string {
	args := m.Called(address)
	return args.String(0)
}

// downBackend is a session backend whose ping fails
type downBackend struct {
	*session.MemoryBackend
}

func (downBackend) Ping(context.Context) error {
	return errors.New("connection refused")
}

const (
	profile = "profile-1"
	addr    = "0x00000000000000000000000000000000000000ee"
)

type harness struct {
	backend *session.MemoryBackend
	wallet  *MockWallet
	oracle  *MockOracle
	server  *Server
}

func testConfig() *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{EntryPage: "/"},
		Session:    config.SessionConfig{ProfileCookie: "portal_profile", TTL: 3600},
		Monitoring: config.MonitoringConfig{Enabled: true, MetricsPath: "/metrics"},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		backend: session.NewMemoryBackend(),
		wallet:  new(MockWallet),
		oracle:  new(MockOracle),
	}
	h.server = NewServer(Options{
		Config:   testConfig(),
		Sessions: h.backend,
		Wallets:  h.bind,
		Oracle:   h.oracle,
		Metrics:  monitoring.NewCollector("test"),
	})
	return h
}

func (h *harness) bind(string, []string) Wallet {
	return h.wallet
}

// newBrowserHarness serves with wallets bound from the request's own accounts header
func newBrowserHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{backend: session.NewMemoryBackend(), oracle: new(MockOracle)}
	h.server = NewServer(Options{
		Config:   testConfig(),
		Sessions: h.backend,
		Oracle:   h.oracle,
	})
	return h
}

func (h *harness) doAs(method, path, profileID, accounts string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.AddCookie(&http.Cookie{Name: "portal_profile", Value: profileID})
	if accounts != "" {
		req.Header.Set(wallet.AccountsHeader, accounts)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)
	return w
}

func (h *harness) seed(t *testing.T, role types.Role) {
	t.Helper()
	require.NoError(t, h.backend.ForProfile(profile).Write(context.Background(), types.Session{
		Token: "tok", Role: role, Address: addr,
	}))
}

func (h *harness) do(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.AddCookie(&http.Cookie{Name: "portal_profile", Value: profile})
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func flashFrom(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == flashCookie {
			return c
		}
	}
	return nil
}

func TestRolePage_Authorized(t *testing.T) {
	h := newHarness(t)
	h.seed(t, types.RoleDoctor)
	h.wallet.On("EnsureConnected").Return(addr, nil)
	h.oracle.On("RoleRecordFor", addr, types.RoleDoctor).Return(types.DoctorRecord(types.Profile{Name: "Dr", Age: 50}), nil)

	w := h.do(http.MethodGet, "/doctor", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "doctor", body["page"])
	assert.Equal(t, addr, body["address"])
}

func TestRolePage_NoSessionRedirectsWithNotice(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/admin", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	h.wallet.AssertNotCalled(t, "EnsureConnected")

	cookie := flashFrom(w)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	entry := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(entry, req)

	body := decode(t, entry)
	assert.Equal(t, []interface{}{access.NoticeNoSession}, body["notices"])
}

func TestRolePage_AddressMismatchClearsSession(t *testing.T) {
	h := newHarness(t)
	h.seed(t, types.RolePatient)
	h.wallet.On("EnsureConnected").Return("0x00000000000000000000000000000000000000ff", nil)

	w := h.do(http.MethodGet, "/patient", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	current, err := h.backend.ForProfile(profile).Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestAccessGuard(t *testing.T) {
	h := newHarness(t)
	h.seed(t, types.RolePatient)
	h.wallet.On("EnsureConnected").Return(addr, nil)

	w := h.do(http.MethodGet, "/api/access/doctor", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, "/", body["redirect"])
	assert.Equal(t, []interface{}{access.NoticeRoleMismatch}, body["notices"])
	h.oracle.AssertNotCalled(t, "RoleRecordFor", mock.Anything, mock.Anything)

	w = h.do(http.MethodGet, "/api/access/nurse", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout_Success(t *testing.T) {
	h := newHarness(t)
	h.seed(t, types.RoleAdmin)
	h.wallet.On("ActiveAddress").Return(addr, nil)
	h.oracle.On("IsAdmin", addr).Return(true, nil)
	h.oracle.On("NotifyLogout", addr, types.RoleAdmin).Return(nil)

	w := h.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.NotNil(t, flashFrom(w))

	current, err := h.backend.ForProfile(profile).Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestLogout_Errors(t *testing.T) {
	t.Run("no wallet account", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, types.RoleAdmin)
		h.wallet.On("ActiveAddress").Return("", nil)

		w := h.do(http.MethodPost, "/logout", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("unrecognized role", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, types.RolePatient)
		h.wallet.On("ActiveAddress").Return(addr, nil)
		h.oracle.On("IsAdmin", addr).Return(false, nil)
		h.oracle.On("RoleRecordFor", addr, mock.Anything).Return(types.NoRecord, nil)

		w := h.do(http.MethodPost, "/logout", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, []interface{}{logout.NoticeUnrecognizedRole}, decode(t, w)["notices"])

		current, err := h.backend.ForProfile(profile).Read(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, current)
	})
}

func TestWriteSession(t *testing.T) {
	h := newHarness(t)
	h.wallet.On("EnsureConnected").Return(addr, nil)

	w := h.do(http.MethodPost, "/session", []byte(`{"token":"t1","role":"Doctor","address":"0x00000000000000000000000000000000000000EE"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	current, err := h.backend.ForProfile(profile).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &types.Session{Token: "t1", Role: types.RoleDoctor, Address: addr}, current)

	tests := []struct {
		name string
		body string
	}{
		{"missing token", `{"role":"doctor","address":"` + addr + `"}`},
		{"unknown role", `{"token":"t","role":"nurse","address":"` + addr + `"}`},
		{"bad address", `{"token":"t","role":"doctor","address":"0x12"}`},
		{"not json", `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/session", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestWriteSession_AddressMustMatchConnectedWallet(t *testing.T) {
	h := newHarness(t)
	h.wallet.On("EnsureConnected").Return("0x00000000000000000000000000000000000000ff", nil)

	w := h.do(http.MethodPost, "/session", []byte(`{"token":"t1","role":"admin","address":"`+addr+`"}`))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, types.ErrCodeAddressMismatch, decode(t, w)["code"])

	current, err := h.backend.ForProfile(profile).Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestUnboundProfileCannotReachRolePage(t *testing.T) {
	h := newBrowserHarness(t)
	h.oracle.On("IsAdmin", addr).Return(true, nil)

	w := h.doAs(http.MethodPost, "/session", "anonymous-visitor", "",
		[]byte(`{"token":"anything","role":"admin","address":"`+addr+`"}`))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	current, err := h.backend.ForProfile("anonymous-visitor").Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)

	// Even with a planted session, a profile reporting no account is turned away
	require.NoError(t, h.backend.ForProfile("anonymous-visitor").Write(context.Background(), types.Session{
		Token: "anything", Role: types.RoleAdmin, Address: addr,
	}))
	w = h.doAs(http.MethodGet, "/admin", "anonymous-visitor", "", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	h.oracle.AssertNotCalled(t, "IsAdmin", mock.Anything)
}

func TestBrowserBoundProfile(t *testing.T) {
	h := newBrowserHarness(t)
	h.oracle.On("IsAdmin", addr).Return(true, nil)

	w := h.doAs(http.MethodPost, "/session", "visitor", addr,
		[]byte(`{"token":"t1","role":"admin","address":"`+addr+`"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = h.doAs(http.MethodGet, "/admin", "visitor", addr, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, addr, decode(t, w)["address"])

	// A different browser account on the same profile clears the session
	w = h.doAs(http.MethodGet, "/admin", "visitor", "0x00000000000000000000000000000000000000ff", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	current, err := h.backend.ForProfile("visitor").Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
	h.oracle.AssertNumberOfCalls(t, "IsAdmin", 1)
}

func TestAgentName(t *testing.T) {
	h := newHarness(t)
	h.oracle.On("AgentName", addr).Return("Dr. Grey")

	w := h.do(http.MethodGet, "/agents/"+addr+"/name", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dr. Grey", decode(t, w)["name"])
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	gin.SetMode(gin.TestMode)
	down := NewServer(Options{
		Config:   testConfig(),
		Sessions: downBackend{session.NewMemoryBackend()},
		Oracle:   new(MockOracle),
	})
	rec := httptest.NewRecorder()
	down.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/health", nil)

	w := h.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))
}

func TestProfileCookieIssued(t *testing.T) {
	h := newHarness(t)
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "portal_profile" {
			found = true
			assert.NotEmpty(t, c.Value)
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestLogout_Throttled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.Server.RateLimit = 1

	h := &harness{backend: session.NewMemoryBackend(), wallet: new(MockWallet), oracle: new(MockOracle)}
	h.server = NewServer(Options{Config: cfg, Sessions: h.backend, Wallets: h.bind, Oracle: h.oracle})
	h.wallet.On("ActiveAddress").Return("", nil)

	first := h.do(http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusServiceUnavailable, first.Code)

	second := h.do(http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	h.wallet.AssertNumberOfCalls(t, "ActiveAddress", 1)
}
