package sis

import (
	"net/http"

	"karesis-backend/lib/restyutil"
	"karesis-backend/lib/tokenstore"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/sis")

// Service exposes the scraped portal as a JSON API. One login issues one
// bearer token bound to one portal session; every data call re-fetches
// and re-parses the relevant portal page.
type Service struct {
	store   tokenstore.Store
	mirrors []string
	debug   restyutil.InstrumentOutput
	mux     *http.ServeMux
}

type Options struct {
	// defaults to an in-memory store with no expiry
	Store tokenstore.Store
	// portal mirror base urls, defaults to the well-known list
	Mirrors []string
	// optional request/response dump sink handed to every portal client
	Debug restyutil.InstrumentOutput
}

func NewService(opts Options) *Service {
	store := opts.Store
	if store == nil {
		store = tokenstore.NewMemory()
	}

	s := &Service{
		store:   store,
		mirrors: opts.Mirrors,
		debug:   opts.Debug,
		mux:     http.NewServeMux(),
	}
	s.mountRoutes()
	return s
}

func (s *Service) mountRoutes() {
	s.handle("POST", "/auth/login", s.handleLogin)
	s.handle("GET", "/profile", s.requireSession(s.handleProfile))
	s.handle("GET", "/attendance/summary", s.requireSession(s.handleAttendanceSummary))
	s.handle("GET", "/attendance/details", s.requireSession(s.handleAttendanceDetails))
	s.handle("GET", "/marks", s.requireSession(s.handleMarks))
	s.handle("GET", "/all", s.requireSession(s.handleAll))
}

// handle attaches a method-guarded route onto the service mux.
func (s *Service) handle(method, path string, h http.HandlerFunc) {
	s.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.ServeHTTP(w, r)
	})
}

// Handler returns the service's http.Handler with CORS applied.
func (s *Service) Handler() http.Handler {
	return withCors(s.mux)
}
