package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/epdlink/adproxy/epd"
	"github.com/epdlink/adproxy/errorvault"
	"github.com/epdlink/adproxy/internal/config"
	"github.com/epdlink/adproxy/kvstore"
	"github.com/epdlink/adproxy/server"
)

const idpAuthURL = "https://idp.example.com/authorize"

// setupOidcFixture wires a server with login routes against a doubled token
// endpoint. Discovery and ID-token verification need a live provider, so the
// flow is exercised up to the code exchange.
func setupOidcFixture(t *testing.T, tokenURL string) *testFixture {
	t.Helper()

	oidcCfg := &server.OidcConfig{
		OAuth2Config: &oauth2.Config{
			ClientID:     "browser-client",
			ClientSecret: "browser-secret",
			RedirectURL:  "http://proxy.example.com/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:  idpAuthURL,
				TokenURL: tokenURL,
			},
			Scopes: []string{"openid", "profile", "email"},
		},
	}

	cfg := config.New()
	store := kvstore.NewInMemory()
	return &testFixture{
		cfg:    cfg,
		store:  store,
		server: server.New(cfg, store, stubTokenSource{token: "tok"}, epd.New("http://127.0.0.1:1", nil), oidcCfg),
	}
}

// storedRecord asserts the redirect carries an opaque id and loads its record
func storedRecord(t *testing.T, fixture *testFixture, rec *httptest.ResponseRecorder) errorvault.Record {
	t.Helper()

	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	matches := errorRedirect.FindStringSubmatch(location)
	require.NotNil(t, matches, "expected /Error?errorid=<32 hex>, got %q", location)

	vault := errorvault.New(fixture.store, fixture.cfg.GetErrorTTL())
	record, found, err := vault.Retrieve(context.Background(), matches[1])
	require.NoError(t, err)
	require.True(t, found)
	return record
}

func TestLoginHandler_RedirectsToProviderAndStoresState(t *testing.T) {
	fixture := setupOidcFixture(t, "http://127.0.0.1:1/token")

	rec := httptest.NewRecorder()
	fixture.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?return_url=/", nil))

	require.Equal(t, http.StatusFound, rec.Code)

	authURL, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "idp.example.com", authURL.Host)

	query := authURL.Query()
	require.Equal(t, "browser-client", query.Get("client_id"))
	require.Equal(t, "http://proxy.example.com/callback", query.Get("redirect_uri"))
	require.Regexp(t, `^[0-9a-f]{32}$`, query.Get("state"))
	require.NotEmpty(t, query.Get("nonce"))

	// The flow state is parked in the store under the state value
	payload, err := fixture.store.Get(context.Background(), "authstate:"+query.Get("state"))
	require.NoError(t, err)
	require.Contains(t, payload, query.Get("nonce"))
}

func TestCallbackHandler_MissingParamsStoresRecord(t *testing.T) {
	fixture := setupOidcFixture(t, "http://127.0.0.1:1/token")

	rec := httptest.NewRecorder()
	fixture.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback", nil))

	record := storedRecord(t, fixture, rec)
	require.Contains(t, record.Message, "missing code or state")
	require.Equal(t, "/callback", record.Path)
}

func TestCallbackHandler_UnknownStateStoresRecord(t *testing.T) {
	fixture := setupOidcFixture(t, "http://127.0.0.1:1/token")

	rec := httptest.NewRecorder()
	fixture.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=deadbeef", nil))

	record := storedRecord(t, fixture, rec)
	require.Contains(t, record.Message, "invalid state parameter")
}

func TestCallbackHandler_ProviderErrorStoresRecord(t *testing.T) {
	fixture := setupOidcFixture(t, "http://127.0.0.1:1/token")

	rec := httptest.NewRecorder()
	fixture.server.ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/callback?error=access_denied&error_description=user+said+no", nil))

	record := storedRecord(t, fixture, rec)
	require.Contains(t, record.Message, "access_denied")
	require.Contains(t, record.Message, "user said no")
}

func TestCallbackHandler_StateConsumedExactlyOnce(t *testing.T) {
	// Exchange always fails, so the flow stops after the state is consumed
	tokenEndpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer tokenEndpoint.Close()

	fixture := setupOidcFixture(t, tokenEndpoint.URL)

	// Start a login to park a real state value
	loginRec := httptest.NewRecorder()
	fixture.server.ServeHTTP(loginRec, httptest.NewRequest(http.MethodGet, "/login", nil))
	authURL, err := url.Parse(loginRec.Header().Get("Location"))
	require.NoError(t, err)
	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)

	// First callback reaches the exchange, which fails
	firstRec := httptest.NewRecorder()
	fixture.server.ServeHTTP(firstRec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state="+state, nil))
	record := storedRecord(t, fixture, firstRec)
	require.Contains(t, record.Message, "token exchange failed")

	// The state was consumed on the way
	_, err = fixture.store.Get(context.Background(), "authstate:"+state)
	require.ErrorIs(t, err, kvstore.ErrNotFound)

	// Replaying the same callback is rejected as an unknown state
	replayRec := httptest.NewRecorder()
	fixture.server.ServeHTTP(replayRec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state="+state, nil))
	record = storedRecord(t, fixture, replayRec)
	require.Contains(t, record.Message, "invalid state parameter")
}
