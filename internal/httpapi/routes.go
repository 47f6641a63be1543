package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/protech/repairbot/internal/assistant"
	"github.com/protech/repairbot/internal/contact"
	"github.com/protech/repairbot/internal/database"
)

const maxBodyBytes = 64 << 10

type assistantRequest struct {
	Message string `json:"message"`
}

type assistantResponse struct {
	Category assistant.Category `json:"category"`
	Reply    string             `json:"reply"`
}

type contactResponse struct {
	Reference string                 `json:"reference"`
	Status    database.InquiryStatus `json:"status"`
	Error     string                 `json:"error,omitempty"`
}

type inquiryResponse struct {
	Reference string                 `json:"reference"`
	Status    database.InquiryStatus `json:"status"`
	Attempts  int                    `json:"attempts"`
	CreatedAt time.Time              `json:"created_at"`
	SentAt    *time.Time             `json:"sent_at,omitempty"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	result := s.responder.Match(req.Message)
	if result.Category != assistant.CategoryClarification {
		if err := s.store.RecordTopicHit(r.Context(), string(result.Category), time.Now()); err != nil {
			s.logger.WarnContext(r.Context(), "Failed to record topic hit", "error", err, "category", result.Category)
		}
	}

	writeJSON(w, http.StatusOK, assistantResponse{Category: result.Category, Reply: result.Reply})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var form contact.Form
	if err := decodeJSON(w, r, &form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	inquiry, err := s.contact.Submit(r.Context(), form)

	var verr *contact.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, contactResponse{Reference: inquiry.Reference, Status: inquiry.Status})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: contact.ErrInvalidForm.Error(), Fields: verr.Fields})
	case errors.Is(err, contact.ErrRelayFailed) && inquiry != nil:
		writeJSON(w, http.StatusBadGateway, contactResponse{
			Reference: inquiry.Reference,
			Status:    inquiry.Status,
			Error:     "email relay unavailable, your message was saved",
		})
	default:
		s.logger.ErrorContext(r.Context(), "Contact submission failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) handleInquiryStatus(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	inquiry, err := s.contact.Lookup(r.Context(), reference)
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "inquiry not found"})
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Inquiry lookup failed", "error", err, "reference", reference)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	resp := inquiryResponse{
		Reference: inquiry.Reference,
		Status:    inquiry.Status,
		Attempts:  inquiry.Attempts,
		CreatedAt: inquiry.CreatedAt,
	}
	if inquiry.SentAt.Valid {
		resp.SentAt = &inquiry.SentAt.Time
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
