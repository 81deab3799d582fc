package sis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"karesis-backend/lib/telemetry"
	"karesis-backend/lib/tokenstore"

	"github.com/stretchr/testify/require"
)

const testCsrfToken = "csrf-fixture-1"
const testPassword = "hunter2"
const sessionCookie = "karesis_session"

const loginPageHtml = `<html><body>
<form method="POST" action="/login">
<input type="hidden" name="_token" value="` + testCsrfToken + `">
</form>
</body></html>`

const homePageHtml = `<html><body>
<a href="/logout">Logout</a>
<h4>Personal Details</h4>
<table>
<tr><th>Register Number</th><td>9922004001</td></tr>
<tr><th>Name of the Student</th><td>Alice Example</td></tr>
</table>
</body></html>`

func newFakePortal(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, loginPageHtml)
			return
		}
		r.ParseForm()
		if r.PostFormValue("_token") != testCsrfToken || r.PostFormValue("password") != testPassword {
			fmt.Fprint(w, loginPageHtml)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "1", Path: "/"})
		fmt.Fprint(w, "<html><body>redirecting...</body></html>")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value != "1" {
			fmt.Fprint(w, loginPageHtml)
			return
		}
		fmt.Fprint(w, homePageHtml)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setup(t *testing.T) (*Service, *httptest.Server) {
	cleanup := telemetry.SetupForTesting(t, "test:services/sis")
	t.Cleanup(cleanup)

	portal := newFakePortal(t)
	service := NewService(Options{
		Store:   tokenstore.NewMemory(),
		Mirrors: []string{portal.URL},
	})
	api := httptest.NewServer(service.Handler())
	t.Cleanup(api.Close)
	return service, api
}

func login(t *testing.T, api *httptest.Server, username, password string) *http.Response {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	require.NoError(t, err)

	res, err := http.Post(api.URL+"/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decodeJson(t *testing.T, res *http.Response, v any) {
	err := json.NewDecoder(res.Body).Decode(v)
	require.NoError(t, err)
}

func getWithToken(t *testing.T, api *httptest.Server, path, token string) *http.Response {
	req, err := http.NewRequest("GET", api.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestLoginAndProfile(t *testing.T) {
	_, api := setup(t)

	res := login(t, api, "9922004001", testPassword)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var loginOut struct {
		Token string `json:"token"`
	}
	decodeJson(t, res, &loginOut)
	require.NotEmpty(t, loginOut.Token)

	res = getWithToken(t, api, "/profile", loginOut.Token)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var profileOut struct {
		Profile map[string]*string `json:"profile"`
		Raw     map[string]string  `json:"raw"`
	}
	decodeJson(t, res, &profileOut)

	require.Contains(t, profileOut.Profile, "register_no")
	require.Contains(t, profileOut.Profile, "name")
	require.NotNil(t, profileOut.Profile["register_no"])
	require.Equal(t, "9922004001", *profileOut.Profile["register_no"])
	require.Equal(t, "Alice Example", profileOut.Raw["Name of the Student"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	_, api := setup(t)

	res := login(t, api, "9922004001", "wrong")
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	var out struct {
		Error string `json:"error"`
	}
	decodeJson(t, res, &out)
	require.Equal(t, "invalid credentials", out.Error)
}

func TestDataCallsRequireToken(t *testing.T) {
	_, api := setup(t)

	res := getWithToken(t, api, "/profile", "")
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = getWithToken(t, api, "/profile", "never-issued")
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestRepeatLoginsIssueDistinctSessions(t *testing.T) {
	service, api := setup(t)

	var first, second struct {
		Token string `json:"token"`
	}
	res := login(t, api, "9922004001", testPassword)
	require.Equal(t, http.StatusOK, res.StatusCode)
	decodeJson(t, res, &first)
	res = login(t, api, "9922004001", testPassword)
	require.Equal(t, http.StatusOK, res.StatusCode)
	decodeJson(t, res, &second)

	require.NotEqual(t, first.Token, second.Token)

	a, ok := service.store.Get(first.Token)
	require.True(t, ok)
	b, ok := service.store.Get(second.Token)
	require.True(t, ok)
	require.NotSame(t, a, b, "each login owns its own portal session")
}

func TestMethodGuard(t *testing.T) {
	_, api := setup(t)

	res, err := http.Get(api.URL + "/auth/login")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestCorsPreflight(t *testing.T) {
	_, api := setup(t)

	req, err := http.NewRequest(http.MethodOptions, api.URL+"/profile", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Equal(t, "https://app.example.com", res.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", res.Header.Get("Access-Control-Allow-Credentials"))
}
