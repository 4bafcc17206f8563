package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"fieldquote/quotesync/internal/domain/quote"
	"fieldquote/quotesync/internal/domain/quote/pdf"
	"fieldquote/quotesync/internal/domain/session"
	"fieldquote/quotesync/internal/domain/workflow"
	"fieldquote/quotesync/internal/offline"
)

type Handlers struct {
	Quotes *offline.Service
	PDF    pdf.Generator
	Log    *zap.Logger
}

func New(quotes *offline.Service, gen pdf.Generator, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{Quotes: quotes, PDF: gen, Log: log.Named("handlers")}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fail maps service errors to status codes.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, quote.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, offline.ErrDraftNotFound), errors.Is(err, offline.ErrQuoteNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, workflow.ErrIllegalTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case offline.IsLikelyOffline(err):
		h.Log.Warn("remote store unreachable", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "remote store unreachable", http.StatusServiceUnavailable)
	default:
		h.Log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "remote store error", http.StatusBadGateway)
	}
}

func owner(r *http.Request) string {
	id, _ := session.Owner(r.Context())
	return id
}
