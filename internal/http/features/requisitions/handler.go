package requisitions

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/procurehq/reqflow/internal/http/features/common"
	"github.com/procurehq/reqflow/internal/http/middleware"
	"github.com/procurehq/reqflow/internal/httputil"
	"github.com/procurehq/reqflow/internal/validate"
	"github.com/procurehq/reqflow/pkg/domain"
	"github.com/procurehq/reqflow/pkg/repository"
	"github.com/procurehq/reqflow/pkg/workflow"
)

type Handler struct {
	logger       *slog.Logger
	engine       *workflow.Engine
	requisitions *repository.RequisitionsRepository
	audit        *repository.AuditRepository
}

func NewHandler(
	logger *slog.Logger,
	engine *workflow.Engine,
	requisitions *repository.RequisitionsRepository,
	audit *repository.AuditRepository,
) *Handler {
	return &Handler{
		logger:       logger,
		engine:       engine,
		requisitions: requisitions,
		audit:        audit,
	}
}

type CreateRequest struct {
	ProjectID   string  `json:"project_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	AmountCents int64   `json:"amount_cents"`
	Currency    string  `json:"currency"`
}

type TransitionRequest struct {
	TargetStatus string  `json:"target_status"`
	Reason       *string `json:"reason,omitempty"`
}

type RequisitionResponse struct {
	ID              string    `json:"id"`
	OrganizationID  string    `json:"organization_id"`
	ProjectID       string    `json:"project_id"`
	Number          string    `json:"number"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	SubmittedBy     string    `json:"submitted_by"`
	ReviewedBy      *string   `json:"reviewed_by,omitempty"`
	ApprovedBy      *string   `json:"approved_by,omitempty"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ListResponse struct {
	Requisitions []RequisitionResponse `json:"requisitions"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// TransitionErrorResponse is returned when a transition is rejected.
// It carries the requisition's current status and the legal next
// statuses so callers can recover without a second round trip.
type TransitionErrorResponse struct {
	Error         string   `json:"error"`
	CurrentStatus string   `json:"current_status,omitempty"`
	AllowedNext   []string `json:"allowed_next,omitempty"`
}

func toResponse(req *domain.Requisition) RequisitionResponse {
	resp := RequisitionResponse{
		ID:              req.ID.String(),
		OrganizationID:  req.OrganizationID.String(),
		ProjectID:       req.ProjectID.String(),
		Number:          req.Number,
		Title:           req.Title,
		Description:     req.Description,
		AmountCents:     req.AmountCents,
		Currency:        req.Currency,
		Status:          string(req.Status),
		SubmittedBy:     req.SubmittedBy.String(),
		RejectionReason: req.RejectionReason,
		CreatedAt:       req.CreatedAt,
		UpdatedAt:       req.UpdatedAt,
	}
	if req.ReviewedBy != nil {
		s := req.ReviewedBy.String()
		resp.ReviewedBy = &s
	}
	if req.ApprovedBy != nil {
		s := req.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	return resp
}

// Create handles draft creation.
// POST /v1/requisitions
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid project_id")
		return
	}

	title := validate.CleanText(req.Title)
	if title == "" {
		httputil.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if err := validate.StringLength("title", title, 0, validate.MaxTitleLength); err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	description := req.Description
	if description != nil {
		cleaned := validate.CleanText(*description)
		if err := validate.StringLength("description", cleaned, 0, validate.MaxDescriptionLength); err != nil {
			httputil.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		description = &cleaned
	}
	if req.AmountCents < 0 {
		httputil.Error(w, http.StatusBadRequest, "amount_cents must not be negative")
		return
	}
	if len(req.Currency) != 3 {
		httputil.Error(w, http.StatusBadRequest, "currency must be a 3-letter code")
		return
	}

	created, err := h.engine.CreateDraft(r.Context(), &actor, workflow.CreateInput{
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		AmountCents: req.AmountCents,
		Currency:    strings.ToUpper(req.Currency),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProjectNotFound):
			httputil.Error(w, http.StatusNotFound, "project not found")
		case errors.Is(err, domain.ErrOrganizationSuspended):
			httputil.Error(w, http.StatusForbidden, "organization is suspended")
		case errors.Is(err, domain.ErrRequisitionLimit):
			httputil.Error(w, http.StatusTooManyRequests, "monthly requisition limit reached")
		default:
			h.logger.Error("failed to create requisition", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "failed to create requisition")
		}
		return
	}

	httputil.JSON(w, http.StatusCreated, toResponse(created))
}

// Get fetches a single requisition, scoped to the actor's organization.
// GET /v1/requisitions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid requisition id")
		return
	}

	req, err := h.requisitions.GetByID(r.Context(), actor.OrganizationID, id)
	if err != nil {
		if errors.Is(err, domain.ErrRequisitionNotFound) {
			httputil.Error(w, http.StatusNotFound, "requisition not found")
			return
		}
		h.logger.Error("failed to fetch requisition", "error", err, "requisition_id", id)
		httputil.Error(w, http.StatusInternalServerError, "failed to fetch requisition")
		return
	}

	httputil.JSON(w, http.StatusOK, toResponse(req))
}

// List returns the organization's requisitions, newest first.
// GET /v1/requisitions
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, offset := common.Pagination(r)

	reqs, err := h.requisitions.ListByOrganization(r.Context(), actor.OrganizationID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list requisitions", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to list requisitions")
		return
	}

	resp := ListResponse{
		Requisitions: make([]RequisitionResponse, 0, len(reqs)),
		Limit:        limit,
		Offset:       offset,
	}
	for _, req := range reqs {
		resp.Requisitions = append(resp.Requisitions, toResponse(req))
	}

	httputil.JSON(w, http.StatusOK, resp)
}

// AuditEntryResponse is one row of a requisition's audit trail.
type AuditEntryResponse struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	OldValues json.RawMessage `json:"old_values,omitempty"`
	NewValues json.RawMessage `json:"new_values,omitempty"`
	ActorID   string          `json:"actor_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// History returns the requisition's audit trail, oldest first.
// GET /v1/requisitions/{id}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid requisition id")
		return
	}

	// The tenant-scoped fetch doubles as the access check.
	if _, err := h.requisitions.GetByID(r.Context(), actor.OrganizationID, id); err != nil {
		if errors.Is(err, domain.ErrRequisitionNotFound) {
			httputil.Error(w, http.StatusNotFound, "requisition not found")
			return
		}
		h.logger.Error("failed to fetch requisition", "error", err, "requisition_id", id)
		httputil.Error(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}

	entries, err := h.audit.ListByRecord(r.Context(), "requisitions", id.String())
	if err != nil {
		h.logger.Error("failed to list audit entries", "error", err, "requisition_id", id)
		httputil.Error(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}

	resp := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, AuditEntryResponse{
			ID:        entry.ID.String(),
			Action:    entry.Action,
			OldValues: json.RawMessage(entry.OldValues),
			NewValues: json.RawMessage(entry.NewValues),
			ActorID:   entry.ActorID.String(),
			CreatedAt: entry.CreatedAt,
		})
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{"entries": resp})
}

// Transition applies a status change.
// POST /v1/requisitions/{id}/transition
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid requisition id")
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target := domain.RequisitionStatus(req.TargetStatus)
	if !target.Valid() {
		httputil.Error(w, http.StatusBadRequest, "unknown target_status")
		return
	}

	if req.Reason != nil {
		cleaned := validate.CleanText(*req.Reason)
		if err := validate.StringLength("reason", cleaned, 0, validate.MaxReasonLength); err != nil {
			httputil.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Reason = &cleaned
	}

	updated, _, err := h.engine.ApplyTransition(r.Context(), id, target, &actor, req.Reason)
	if err != nil {
		h.writeTransitionError(w, r, actor.OrganizationID, id, err)
		return
	}

	httputil.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) writeTransitionError(w http.ResponseWriter, r *http.Request, orgID, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, domain.ErrRequisitionNotFound):
		httputil.Error(w, http.StatusNotFound, "requisition not found")
	case errors.Is(err, domain.ErrMissingReason):
		httputil.Error(w, http.StatusBadRequest, "rejection requires a non-empty reason")
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.Error(w, http.StatusForbidden, "not allowed to perform this transition")
	case errors.Is(err, domain.ErrOrganizationSuspended):
		httputil.Error(w, http.StatusForbidden, "organization is suspended")
	case errors.Is(err, domain.ErrInvalidTransition):
		h.writeStateError(w, r, orgID, id, http.StatusUnprocessableEntity, "transition not allowed from current status")
	case workflow.IsConflict(err):
		h.writeStateError(w, r, orgID, id, http.StatusConflict, "requisition was modified concurrently")
	default:
		h.logger.Error("failed to apply transition", "error", err, "requisition_id", id)
		httputil.Error(w, http.StatusInternalServerError, "failed to apply transition")
	}
}

// writeStateError re-reads the row so the error payload reflects the
// status that actually won.
func (h *Handler) writeStateError(w http.ResponseWriter, r *http.Request, orgID, id uuid.UUID, status int, msg string) {
	resp := TransitionErrorResponse{Error: msg}

	if current, err := h.requisitions.GetByID(r.Context(), orgID, id); err == nil {
		resp.CurrentStatus = string(current.Status)
		for _, next := range workflow.AllowedNext(current.Status) {
			resp.AllowedNext = append(resp.AllowedNext, string(next))
		}
	}

	httputil.JSON(w, status, resp)
}
