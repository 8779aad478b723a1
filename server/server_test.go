package server_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JoshuaLakeSexton/Reeflux/checkout"
	"github.com/JoshuaLakeSexton/Reeflux/checkout/providerfake"
	"github.com/JoshuaLakeSexton/Reeflux/internal/config"
	"github.com/JoshuaLakeSexton/Reeflux/pass"
	"github.com/JoshuaLakeSexton/Reeflux/presence"
	"github.com/JoshuaLakeSexton/Reeflux/presence/memstore"
	"github.com/JoshuaLakeSexton/Reeflux/server"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "reef-secret-0123456789abcdef-0123"
	testSiteURL = "https://reeflux.example"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testFixture holds all test dependencies
type testFixture struct {
	now      time.Time
	provider *providerfake.FakeProvider
	codec    *pass.Codec
	store    *memstore.MemStore
	server   *server.Server
}

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("PASS_SIGNING_SECRET", testSecret)
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("SITE_URL", testSiteURL)
	t.Setenv("STRIPE_PRICE_SINGLE", "price_single")
	t.Setenv("STRIPE_PRICE_DRIFT", "price_drift")
	t.Setenv("CORS_ALLOWED_ORIGINS", "*")
}

// setupTestFixture creates a server over fakes. withStore controls whether
// presence has a backing store.
func setupTestFixture(t *testing.T, withStore bool) *testFixture {
	t.Helper()
	var store *memstore.MemStore
	f := setupTestFixtureWithStore(t, func(clock func() time.Time) presence.Store {
		if !withStore {
			return nil
		}
		store = memstore.New(clock)
		return store
	})
	f.store = store
	return f
}

// setupTestFixtureWithStore creates a server whose presence store is built by
// newStore over the fixture clock.
func setupTestFixtureWithStore(t *testing.T, newStore func(clock func() time.Time) presence.Store) *testFixture {
	t.Helper()
	setTestEnv(t)
	cfg := config.New()
	require.NoError(t, config.Validate(cfg))

	f := &testFixture{now: fixedNow, provider: providerfake.NewFakeProvider()}
	clock := func() time.Time { return f.now }

	codec, err := pass.NewCodec(cfg.GetPassSigningSecret(), pass.WithNowFunc(clock))
	require.NoError(t, err)
	f.codec = codec
	revocations := pass.NewInMemoryRevocationList()

	checkoutService, err := checkout.NewService(f.provider, codec, revocations, server.CheckoutSettings(cfg))
	require.NoError(t, err)

	s, err := server.New(cfg, server.Services{
		Checkout: checkoutService,
		Verifier: pass.NewVerifier(codec, revocations),
		Presence: presence.NewService(newStore(clock), cfg.GetSessionTTL(), cfg.GetActiveWindow(), presence.WithNowFunc(clock)),
	})
	require.NoError(t, err)
	f.server = s
	return f
}

func (f *testFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) postCheckout(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return f.do(t, req)
}

func (f *testFixture) success(t *testing.T, rawQuery string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, httptest.NewRequest(http.MethodGet, server.RouteSuccess+"?"+rawQuery, nil))
}

func (f *testFixture) verify(t *testing.T, cookie *http.Cookie, pool string) pass.AccessResult {
	t.Helper()
	target := server.RouteVerifyPass
	if pool != "" {
		target += "?pool=" + url.QueryEscape(pool)
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var result pass.AccessResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func passCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "reeflux_pass" {
			return c
		}
	}
	return nil
}

func redirectQuery(t *testing.T, rec *httptest.ResponseRecorder) (string, url.Values) {
	t.Helper()
	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return location.Path, location.Query()
}

func TestNew_RequiresServices(t *testing.T) {
	setTestEnv(t)
	_, err := server.New(config.New(), server.Services{})
	require.Error(t, err)
}

func TestCheckoutHandler(t *testing.T) {
	t.Run("creates session", func(t *testing.T) {
		f := setupTestFixture(t, false)
		rec := f.postCheckout(t, server.RouteCheckout, `{"tier":"single","pool":"mirror","next":"/mirror.html"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"url":"https://checkout.example/pay/cs_test_1"}`, rec.Body.String())

		created := f.provider.Created()
		require.Len(t, created, 1)
		require.Equal(t, checkout.ModePayment, created[0].Mode)
		require.True(t, strings.HasPrefix(created[0].SuccessURL, testSiteURL+server.RouteSuccess+"?session_id={CHECKOUT_SESSION_ID}"))
	})

	t.Run("legacy path", func(t *testing.T) {
		f := setupTestFixture(t, false)
		rec := f.postCheckout(t, server.RouteLegacyCheckout, `{"tier":"drift","next":"/tide-deck.html"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, checkout.ModeSubscription, f.provider.Created()[0].Mode)
	})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"open redirect", `{"tier":"single","pool":"mirror","next":"https://evil.example/x"}`, http.StatusBadRequest},
		{"missing next", `{"tier":"single"}`, http.StatusBadRequest},
		{"unknown tier", `{"tier":"gold","next":"/"}`, http.StatusBadRequest},
		{"bad pool", `{"tier":"single","pool":"<script>","next":"/"}`, http.StatusBadRequest},
		{"bad json", `{"tier":`, http.StatusBadRequest},
		{"trailing data", `{"tier":"single","next":"/"}garbage`, http.StatusBadRequest},
		{"two values", `{"tier":"single","next":"/"}{"tier":"drift"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t, false)
			rec := f.postCheckout(t, server.RouteCheckout, tt.body)
			require.Equal(t, tt.code, rec.Code)
			require.Contains(t, rec.Body.String(), `"error"`)
			require.Empty(t, f.provider.Created())
		})
	}

	t.Run("provider failure", func(t *testing.T) {
		f := setupTestFixture(t, false)
		f.provider.FailCreate(errors.New("No such price: 'price_single'"))
		rec := f.postCheckout(t, server.RouteCheckout, `{"tier":"single","next":"/"}`)
		require.Equal(t, http.StatusBadGateway, rec.Code)
		require.JSONEq(t, `{"error":"Checkout failed"}`, rec.Body.String())
	})

	t.Run("method not allowed", func(t *testing.T) {
		f := setupTestFixture(t, false)
		rec := f.do(t, httptest.NewRequest(http.MethodGet, server.RouteCheckout, nil))
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestCheckoutHandler_MetricTierLabels(t *testing.T) {
	f := setupTestFixture(t, false)

	for i := range 20 {
		body := fmt.Sprintf(`{"tier":"junk-%d","next":"https://evil.example"}`, i)
		rec := f.postCheckout(t, server.RouteCheckout, body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := f.postCheckout(t, server.RouteCheckout, `{"tier":"drift","next":"//evil.example"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, httptest.NewRequest(http.MethodGet, server.RouteMetrics, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	scrape := rec.Body.String()
	require.NotContains(t, scrape, "junk-")
	require.Contains(t, scrape, `reeflux_checkouts_total{outcome="invalid_return_path",tier="unknown"}`)
	require.Contains(t, scrape, `reeflux_checkouts_total{outcome="invalid_return_path",tier="drift"}`)
}

func TestSuccessHandler_OneTimePayment(t *testing.T) {
	f := setupTestFixture(t, false)
	f.provider.Put(checkout.Session{
		ID:            "cs_paid",
		Mode:          checkout.ModePayment,
		Status:        "complete",
		PaymentStatus: "paid",
		Metadata:      map[string]string{"tier": "single", "pool": "mirror", "next": "/mirror.html", "scope": "mirror_pool", "minutes": "30"},
	})

	// The echoed query parameters disagree with the metadata and are ignored.
	rec := f.success(t, "session_id=cs_paid&tier=drift&pool=vault&next=https://evil.example")
	path, query := redirectQuery(t, rec)
	require.Equal(t, "/success.html", path)
	require.Equal(t, "1", query.Get("ok"))
	require.Equal(t, "/mirror.html", query.Get("next"))
	require.Equal(t, "single", query.Get("tier"))
	require.Equal(t, "mirror", query.Get("pool"))

	cookie := passCookie(t, rec)
	require.NotNil(t, cookie)
	require.Equal(t, "/", cookie.Path)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.Equal(t, 1800, cookie.MaxAge)

	claim, err := f.codec.Verify(cookie.Value)
	require.NoError(t, err)
	require.Equal(t, pass.Scope("mirror_pool"), claim.Scope)
	require.Equal(t, "cs_paid", claim.PurchaseID)
	require.Equal(t, fixedNow.Add(30*time.Minute).UnixMilli(), claim.ExpiresAt)
}

func TestSuccessHandler_Outcomes(t *testing.T) {
	tests := []struct {
		name          string
		mode          checkout.Mode
		status        string
		paymentStatus string
		wantCookie    bool
	}{
		{"payment paid", checkout.ModePayment, "complete", "paid", true},
		{"payment unpaid", checkout.ModePayment, "complete", "unpaid", false},
		{"subscription complete", checkout.ModeSubscription, "complete", "paid", true},
		{"subscription open", checkout.ModeSubscription, "open", "unpaid", false},
		{"subscription expired", checkout.ModeSubscription, "expired", "unpaid", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t, false)
			f.provider.Put(checkout.Session{
				ID:            "cs_outcome",
				Mode:          tt.mode,
				Status:        tt.status,
				PaymentStatus: tt.paymentStatus,
				Metadata:      map[string]string{"next": "/tide-deck.html"},
			})

			rec := f.success(t, "session_id=cs_outcome")
			_, query := redirectQuery(t, rec)
			cookie := passCookie(t, rec)

			if tt.wantCookie {
				require.Equal(t, "1", query.Get("ok"))
				require.NotNil(t, cookie)
				require.True(t, f.verify(t, cookie, "").Allowed)
				return
			}
			require.Equal(t, "0", query.Get("ok"))
			require.Equal(t, "not_paid", query.Get("reason"))
			require.Equal(t, string(tt.mode), query.Get("mode"))
			require.Equal(t, tt.status, query.Get("status"))
			require.Nil(t, cookie)
		})
	}
}

func TestSuccessHandler_Failures(t *testing.T) {
	t.Run("missing session", func(t *testing.T) {
		f := setupTestFixture(t, false)
		rec := f.success(t, "")
		_, query := redirectQuery(t, rec)
		require.Equal(t, "0", query.Get("ok"))
		require.Equal(t, "missing_session", query.Get("reason"))
		require.Nil(t, passCookie(t, rec))
	})

	t.Run("provider unreachable", func(t *testing.T) {
		f := setupTestFixture(t, false)
		f.provider.FailGet(errors.New("dial tcp: i/o timeout"))
		rec := f.success(t, "session_id=cs_any")
		_, query := redirectQuery(t, rec)
		require.Equal(t, "provider_unreachable", query.Get("reason"))
		require.NotContains(t, rec.Header().Get("Location"), "timeout")
		require.Nil(t, passCookie(t, rec))
	})
}

func TestVerifyPassHandler(t *testing.T) {
	f := setupTestFixture(t, false)

	require.Equal(t, pass.AccessResult{Reason: pass.ReasonNoPass}, f.verify(t, nil, ""))

	token, err := f.codec.Mint(pass.NewAccessClaim("cs_1", pass.PoolScope("mirror"), fixedNow, 30*time.Minute))
	require.NoError(t, err)
	cookie := &http.Cookie{Name: "reeflux_pass", Value: token}

	got := f.verify(t, cookie, "")
	require.True(t, got.Allowed)
	require.Equal(t, pass.Scope("mirror_pool"), got.Scope)
	require.Equal(t, fixedNow.Add(30*time.Minute).UnixMilli(), got.ExpiresAt)

	require.True(t, f.verify(t, cookie, "mirror").Allowed)
	require.Equal(t, pass.ReasonWrongScope, f.verify(t, cookie, "lagoon").Reason)

	forged := &http.Cookie{Name: "reeflux_pass", Value: "true"}
	require.Equal(t, pass.AccessResult{Reason: pass.ReasonInvalidToken}, f.verify(t, forged, ""))

	f.now = fixedNow.Add(31 * time.Minute)
	require.Equal(t, pass.AccessResult{Reason: pass.ReasonExpired}, f.verify(t, cookie, ""))
}

func TestPurchaseFlow(t *testing.T) {
	f := setupTestFixture(t, false)

	rec := f.postCheckout(t, server.RouteCheckout, `{"tier":"single","pool":"mirror","next":"/mirror.html"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	sessionID := body.URL[strings.LastIndex(body.URL, "/")+1:]

	// Returning before payment settles grants nothing.
	rec = f.success(t, "session_id="+sessionID)
	_, query := redirectQuery(t, rec)
	require.Equal(t, "not_paid", query.Get("reason"))
	require.Nil(t, passCookie(t, rec))

	f.provider.Pay(sessionID)
	rec = f.success(t, "session_id="+sessionID)
	_, query = redirectQuery(t, rec)
	require.Equal(t, "/mirror.html", query.Get("next"))
	cookie := passCookie(t, rec)
	require.NotNil(t, cookie)

	result := f.verify(t, cookie, "mirror")
	require.True(t, result.Allowed)
	require.Equal(t, pass.Scope("mirror_pool"), result.Scope)
}
