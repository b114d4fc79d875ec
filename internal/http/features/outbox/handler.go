// Package outbox exposes the email delivery queue to external workers.
// Workers claim pending rows, attempt delivery out of process, then
// report the outcome. Claims expire so rows abandoned by a crashed
// worker become claimable again.
package outbox

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/procurehq/reqflow/internal/httputil"
	"github.com/procurehq/reqflow/pkg/domain"
	"github.com/procurehq/reqflow/pkg/repository"
)

type Handler struct {
	logger       *slog.Logger
	queue        *repository.EmailQueueRepository
	claimBatch   int
	claimTimeout time.Duration
}

func NewHandler(logger *slog.Logger, queue *repository.EmailQueueRepository, claimBatch int, claimTimeout time.Duration) *Handler {
	return &Handler{
		logger:       logger,
		queue:        queue,
		claimBatch:   claimBatch,
		claimTimeout: claimTimeout,
	}
}

type EmailResponse struct {
	ID             string    `json:"id"`
	RecipientEmail string    `json:"recipient_email"`
	Subject        string    `json:"subject"`
	HTMLBody       string    `json:"html_body"`
	TextBody       string    `json:"text_body"`
	Type           string    `json:"type"`
	RequisitionID  string    `json:"requisition_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type ClaimResponse struct {
	Emails []EmailResponse `json:"emails"`
}

type FailRequest struct {
	Error string `json:"error"`
}

// Claim atomically claims a batch of pending emails for delivery.
// POST /v1/outbox/claim
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	claimed, err := h.queue.ClaimPending(r.Context(), h.claimBatch, h.claimTimeout)
	if err != nil {
		h.logger.Error("failed to claim pending emails", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to claim emails")
		return
	}

	resp := ClaimResponse{Emails: make([]EmailResponse, 0, len(claimed))}
	for _, e := range claimed {
		resp.Emails = append(resp.Emails, EmailResponse{
			ID:             e.ID.String(),
			RecipientEmail: e.RecipientEmail,
			Subject:        e.Subject,
			HTMLBody:       e.HTMLBody,
			TextBody:       e.TextBody,
			Type:           string(e.Type),
			RequisitionID:  e.RequisitionID.String(),
			CreatedAt:      e.CreatedAt,
		})
	}

	httputil.JSON(w, http.StatusOK, resp)
}

// MarkSent records a successful delivery.
// POST /v1/outbox/{id}/sent
func (h *Handler) MarkSent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid email id")
		return
	}

	if err := h.queue.MarkSent(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrEmailNotFound) {
			httputil.Error(w, http.StatusNotFound, "queued email not found")
			return
		}
		h.logger.Error("failed to mark email sent", "error", err, "email_id", id)
		httputil.Error(w, http.StatusInternalServerError, "failed to mark email sent")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// MarkFailed records a failed delivery attempt with the worker's error.
// POST /v1/outbox/{id}/failed
func (h *Handler) MarkFailed(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid email id")
		return
	}

	var req FailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Error == "" {
		req.Error = "delivery failed"
	}

	if err := h.queue.MarkFailed(r.Context(), id, req.Error); err != nil {
		if errors.Is(err, domain.ErrEmailNotFound) {
			httputil.Error(w, http.StatusNotFound, "queued email not found")
			return
		}
		h.logger.Error("failed to mark email failed", "error", err, "email_id", id)
		httputil.Error(w, http.StatusInternalServerError, "failed to mark email failed")
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "failed"})
}
