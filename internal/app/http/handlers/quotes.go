package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fieldquote/quotesync/internal/domain/quote"
	"fieldquote/quotesync/internal/domain/workflow"
)

type quoteRequest struct {
	quote.Data
	Items []quote.Item `json:"items"`
}

type scheduleRequest struct {
	ScheduledDate *time.Time `json:"scheduled_date"`
}

type statusRequest struct {
	Status string        `json:"status"`
	Mode   workflow.Mode `json:"mode"`
}

func (h *Handlers) ListQuotes(w http.ResponseWriter, r *http.Request) {
	res, err := h.Quotes.List(r.Context(), owner(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Items == nil {
		res.Items = []quote.ListItem{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	li, err := h.Quotes.Create(r.Context(), owner(r), req.Data, req.Items)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if li.Pending {
		status = http.StatusAccepted
	}
	writeJSON(w, status, li)
}

func (h *Handlers) GetQuote(w http.ResponseWriter, r *http.Request) {
	det, err := h.Quotes.Detail(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, det)
}

func (h *Handlers) UpdateQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	li, err := h.Quotes.Edit(r.Context(), owner(r), chi.URLParam(r, "id"), req.Data, req.Items)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, li)
}

func (h *Handlers) ScheduleQuote(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	li, err := h.Quotes.Reschedule(r.Context(), owner(r), chi.URLParam(r, "id"), req.ScheduledDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, li)
}

func (h *Handlers) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Mode == "" {
		req.Mode = workflow.ModeProcess
	}
	li, err := h.Quotes.ChangeStatus(r.Context(), owner(r), chi.URLParam(r, "id"), req.Status, req.Mode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, li)
}

func (h *Handlers) AdvanceQuote(w http.ResponseWriter, r *http.Request) {
	li, err := h.Quotes.Advance(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, li)
}

func (h *Handlers) DeleteQuote(w http.ResponseWriter, r *http.Request) {
	if err := h.Quotes.Delete(r.Context(), owner(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) QuotePDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	det, err := h.Quotes.Detail(r.Context(), owner(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	pdfBytes, err := h.PDF.Generate(det)
	if err != nil {
		http.Error(w, "pdf generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="quote-%s.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

func (h *Handlers) Sync(w http.ResponseWriter, r *http.Request) {
	n, err := h.Quotes.Sync(r.Context(), owner(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"promoted": n})
}
