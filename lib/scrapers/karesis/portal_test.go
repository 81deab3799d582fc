package karesis

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const testCsrfToken = "csrf-fixture-1"
const testPassword = "hunter2"
const sessionCookie = "karesis_session"

const loginPageHtml = `<html><body>
<form method="POST" action="/login">
<input type="hidden" name="_token" value="` + testCsrfToken + `">
<input name="register_no"><input type="password" name="password">
</form>
</body></html>`

const profilePageHtml = `<html><body>
<a href="/logout">Logout</a>
<h4>Personal Details</h4>
<p>as on record</p>
<table>
<tr><th>Register Number</th><td>9922004001</td></tr>
<tr><th>Name of the Student</th><td>Alice Example</td></tr>
<tr><th>Degree / Programme</th><td>B.Tech CSE</td></tr>
<tr><th>Batch</th><td>2022</td></tr>
<tr><th>Section</th><td>S4</td></tr>
<tr><th>Blood Group</th><td>O+</td></tr>
<tr><td>only one cell is ignored</td></tr>
</table>
</body></html>`

// fakePortal emulates just enough of the sis web portal for the client:
// a csrf-guarded login form and a cookie-gated home page. Tests hang
// their json endpoints off p.mux directly.
type fakePortal struct {
	mux *http.ServeMux
	srv *httptest.Server

	// serve the login page without the csrf input
	hideCsrf bool

	loginPosts atomic.Int64
}

func newFakePortal(t *testing.T) *fakePortal {
	p := &fakePortal{mux: http.NewServeMux()}

	p.mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if p.hideCsrf {
				fmt.Fprint(w, "<html><body><form></form></body></html>")
				return
			}
			fmt.Fprint(w, loginPageHtml)
			return
		}

		p.loginPosts.Add(1)
		err := r.ParseForm()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostFormValue("_token") != testCsrfToken {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.PostFormValue("register_no") == "" || r.PostFormValue("password") != testPassword {
			// the real portal re-renders the login form on bad credentials
			fmt.Fprint(w, loginPageHtml)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "1", Path: "/"})
		// no marker here, the client has to probe the home page
		fmt.Fprint(w, "<html><body>redirecting...</body></html>")
	})

	p.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !p.authed(r) {
			fmt.Fprint(w, loginPageHtml)
			return
		}
		fmt.Fprint(w, profilePageHtml)
	})

	p.srv = httptest.NewServer(p.mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakePortal) authed(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	return err == nil && c.Value == "1"
}

// serveJson registers a json endpoint returning {"data": rows}
func (p *fakePortal) serveJson(path string, rows []map[string]any) {
	p.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if !p.authed(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": rows})
	})
}

// serveStatus registers an endpoint that only ever answers with the
// given status code.
func (p *fakePortal) serveStatus(path string, status int) {
	p.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

// countingServer answers every request with the given status and counts
// how many requests it saw.
func countingServer(t *testing.T, status int) (*httptest.Server, *atomic.Int64) {
	var count atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &count
}

func newTestClient(t *testing.T, mirrors ...string) *Client {
	client, err := NewClient(testContext(t), ClientOptions{Mirrors: mirrors})
	if err != nil {
		t.Fatal(err)
	}
	return client
}
