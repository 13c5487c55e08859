package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/21namanpandey/e-library/apperr"
)

type errorResponse struct {
	Message    string `json:"message"`
	ErrorStack string `json:"errorStack"`
}

// ErrorWriter renders service errors as JSON. Stacks are only exposed outside
// production.
type ErrorWriter struct {
	Production bool
	Logger     *slog.Logger
}

func (e *ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Message: "Internal server error"}
	status := http.StatusInternalServerError

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		status = appErr.Kind.Status()
		if !e.Production {
			resp.ErrorStack = appErr.Stack()
		}
	} else if !e.Production {
		resp.ErrorStack = err.Error()
	}

	if status >= http.StatusInternalServerError {
		e.logger().Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	} else {
		e.logger().Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, resp)
}

func (e *ErrorWriter) logger() *slog.Logger {
	if e == nil || e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
