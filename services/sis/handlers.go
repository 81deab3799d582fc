package sis

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"karesis-backend/lib/scrapers/karesis"
	"karesis-backend/lib/tokenstore"

	"go.opentelemetry.io/otel/codes"
)

func writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJson(w, status, map[string]string{"error": message})
}

// maps a data-call failure onto the api's error taxonomy: a session that
// never finished login is the caller's fault, everything else is the
// portal's.
func writeDataError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, karesis.ErrNotAuthenticated):
		writeError(w, http.StatusBadRequest, "client not authenticated")
	case errors.Is(err, karesis.ErrBadStatus):
		writeError(w, http.StatusBadGateway, "bad status from portal")
	default:
		writeError(w, http.StatusInternalServerError, "upstream error")
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleLogin")
	defer span.End()

	var creds credentials
	err := json.NewDecoder(r.Body).Decode(&creds)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	client, err := karesis.NewClient(ctx, karesis.ClientOptions{
		Mirrors: s.mirrors,
		Debug:   s.debug,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct portal client")
		writeError(w, http.StatusInternalServerError, "failed to construct portal client")
		return
	}

	err = client.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		switch {
		case errors.Is(err, karesis.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, karesis.ErrBadStatus):
			writeError(w, http.StatusBadGateway, "login failed: bad status")
		default:
			writeError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	token, err := tokenstore.NewToken()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate token")
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	s.store.Put(token, client)

	slog.InfoContext(ctx, "login succeeded", "mirror", client.BaseUrl())
	writeJson(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Service) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleProfile")
	defer span.End()

	result, err := sessionFromContext(ctx).Profile(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile fetch failed")
		writeDataError(w, err)
		return
	}
	writeJson(w, http.StatusOK, result)
}

func (s *Service) handleAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleAttendanceSummary")
	defer span.End()

	rows, err := sessionFromContext(ctx).AttendanceSummary(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attendance summary fetch failed")
		writeDataError(w, err)
		return
	}
	writeJson(w, http.StatusOK, map[string]any{"data": rows})
}

func (s *Service) handleAttendanceDetails(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleAttendanceDetails")
	defer span.End()

	report, err := sessionFromContext(ctx).AttendanceFull(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attendance detail fetch failed")
		writeDataError(w, err)
		return
	}
	writeJson(w, http.StatusOK, report)
}

func (s *Service) handleMarks(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleMarks")
	defer span.End()

	report, err := sessionFromContext(ctx).Marks(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marks fetch failed")
		writeDataError(w, err)
		return
	}
	writeJson(w, http.StatusOK, report)
}

func (s *Service) handleAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleAll")
	defer span.End()

	client := sessionFromContext(ctx)

	profile, err := client.Profile(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile fetch failed")
		writeDataError(w, err)
		return
	}
	attendance, err := client.AttendanceFull(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attendance fetch failed")
		writeDataError(w, err)
		return
	}
	marks, err := client.Marks(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marks fetch failed")
		writeDataError(w, err)
		return
	}

	writeJson(w, http.StatusOK, map[string]any{
		"profile":    profile.Profile,
		"attendance": attendance,
		"marks":      marks,
	})
}
