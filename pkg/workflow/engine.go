package workflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurehq/reqflow/pkg/authz"
	"github.com/procurehq/reqflow/pkg/domain"
	"github.com/procurehq/reqflow/pkg/repository"
)

// Dispatcher receives committed transition events for side-effect
// fan-out. Dispatch failures never affect the committed transition.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *TransitionEvent) error
}

// NumberSource issues per-organization requisition numbers.
type NumberSource interface {
	Next(ctx context.Context, orgID uuid.UUID) (string, error)
}

// Engine applies requisition transitions atomically. Each apply runs in
// one transaction: row lock, validation, authorization, compare-and-swap
// status update, and the audit entry. Fan-out runs after commit and is
// non-fatal.
type Engine struct {
	db            *sql.DB
	organizations *repository.OrganizationsRepository
	projects      *repository.ProjectsRepository
	requisitions  *repository.RequisitionsRepository
	audit         *repository.AuditRepository
	numbers       NumberSource
	dispatcher    Dispatcher
	logger        *slog.Logger
}

// NewEngine creates a new workflow engine.
func NewEngine(
	db *sql.DB,
	organizations *repository.OrganizationsRepository,
	projects *repository.ProjectsRepository,
	requisitions *repository.RequisitionsRepository,
	audit *repository.AuditRepository,
	numbers NumberSource,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		db:            db,
		organizations: organizations,
		projects:      projects,
		requisitions:  requisitions,
		audit:         audit,
		numbers:       numbers,
		logger:        logger,
	}
}

// SetDispatcher wires the fan-out engine. Optional; without it,
// transitions commit with no notifications.
func (e *Engine) SetDispatcher(d Dispatcher) {
	e.dispatcher = d
}

// CreateInput holds the fields for a new draft requisition.
type CreateInput struct {
	ProjectID   uuid.UUID
	Title       string
	Description *string
	AmountCents int64
	Currency    string
}

// CreateDraft creates a requisition in draft status owned by the actor.
// The requisition number comes from the organization's item code
// counter; organization status and the monthly quota are enforced
// first. The create is audited in the same transaction.
func (e *Engine) CreateDraft(ctx context.Context, actor *authz.Actor, in CreateInput) (*domain.Requisition, error) {
	org, err := e.organizations.GetByID(ctx, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !org.CanMutate() {
		return nil, domain.ErrOrganizationSuspended
	}

	if org.MaxRequisitionsMonth > 0 {
		now := time.Now().UTC()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		count, err := e.requisitions.CountCreatedSince(ctx, org.ID, monthStart)
		if err != nil {
			return nil, err
		}
		if count >= org.MaxRequisitionsMonth {
			return nil, domain.ErrRequisitionLimit
		}
	}

	// Project must exist within the actor's organization.
	if _, err := e.projects.GetByID(ctx, actor.OrganizationID, in.ProjectID); err != nil {
		return nil, err
	}

	number, err := e.numbers.Next(ctx, actor.OrganizationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	req := &domain.Requisition{
		ID:             uuid.New(),
		OrganizationID: actor.OrganizationID,
		ProjectID:      in.ProjectID,
		Number:         number,
		Title:          in.Title,
		Description:    in.Description,
		AmountCents:    in.AmountCents,
		Currency:       in.Currency,
		Status:         domain.StatusDraft,
		SubmittedBy:    actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := e.requisitions.CreateTx(ctx, tx, req); err != nil {
		return nil, err
	}

	newValues, err := json.Marshal(map[string]any{
		"number": req.Number,
		"title":  req.Title,
		"status": req.Status,
	})
	if err != nil {
		return nil, err
	}
	entry := &domain.AuditEntry{
		ID:        uuid.New(),
		TableName: "requisitions",
		RecordID:  req.ID,
		Action:    domain.AuditActionCreate,
		NewValues: newValues,
		ActorID:   actor.UserID,
		CreatedAt: now,
	}
	if err := e.audit.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return req, nil
}

// ApplyTransition validates and commits one status transition, then
// fans out notifications. The actor's project role is resolved inside
// the transaction so authorization sees the same snapshot the update
// applies to.
//
// Returns the committed requisition and the transition event on
// success. Failure modes: domain.ErrRequisitionNotFound (including
// cross-tenant ids), domain.ErrInvalidTransition,
// domain.ErrMissingReason, domain.ErrUnauthorized, and
// domain.ErrConcurrentModification when a concurrent transition won the
// compare-and-swap.
func (e *Engine) ApplyTransition(ctx context.Context, requisitionID uuid.UUID, target domain.RequisitionStatus, actor *authz.Actor, reason *string) (*domain.Requisition, *TransitionEvent, error) {
	org, err := e.organizations.GetByID(ctx, actor.OrganizationID)
	if err != nil {
		return nil, nil, err
	}
	if !org.CanMutate() {
		return nil, nil, domain.ErrOrganizationSuspended
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	req, err := e.requisitions.GetByIDForUpdateTx(ctx, tx, requisitionID)
	if err != nil {
		return nil, nil, err
	}

	// Cross-tenant ids look like missing rows to the caller.
	if req.OrganizationID != actor.OrganizationID {
		return nil, nil, domain.ErrRequisitionNotFound
	}

	if err := Validate(req.Status, target); err != nil {
		return nil, nil, err
	}

	trimmedReason := trimReason(reason)
	if RequiresReason(target) && trimmedReason == nil {
		return nil, nil, domain.ErrMissingReason
	}

	actor.ProjectRole, err = e.projects.GetAssignmentRoleTx(ctx, tx, req.ProjectID, actor.UserID)
	if err != nil {
		return nil, nil, err
	}

	if err := authz.CanTransition(actor, req, target); err != nil {
		e.auditDenied(ctx, req, target, actor.UserID)
		return nil, nil, err
	}

	update, stamped := stampsFor(target, actor.UserID, trimmedReason)
	if err := e.requisitions.UpdateStatusTx(ctx, tx, req.ID, req.Status, target, update); err != nil {
		return nil, nil, err
	}

	from := req.Status
	now := time.Now()

	oldValues, err := json.Marshal(map[string]any{"status": from})
	if err != nil {
		return nil, nil, err
	}
	newValues, err := json.Marshal(stamped)
	if err != nil {
		return nil, nil, err
	}
	entry := &domain.AuditEntry{
		ID:        uuid.New(),
		TableName: "requisitions",
		RecordID:  req.ID,
		Action:    domain.AuditActionStatusChange,
		OldValues: oldValues,
		NewValues: newValues,
		ActorID:   actor.UserID,
		CreatedAt: now,
	}
	// Audit is mandatory for mutating actions: a failed append aborts
	// the whole transition.
	if err := e.audit.CreateTx(ctx, tx, entry); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	applyStamps(req, target, update, now)

	event := &TransitionEvent{
		RequisitionID:  req.ID,
		OrganizationID: req.OrganizationID,
		ProjectID:      req.ProjectID,
		From:           from,
		To:             target,
		ActorID:        actor.UserID,
		SubmittedBy:    req.SubmittedBy,
		ReviewedBy:     req.ReviewedBy,
		Reason:         trimmedReason,
		OccurredAt:     now,
	}

	if e.dispatcher != nil {
		// Fan-out is non-fatal: the transition is already committed and
		// a retry can re-derive the same audience.
		if err := e.dispatcher.Dispatch(ctx, event); err != nil {
			e.logger.Warn("notification fan-out failed",
				"requisition_id", req.ID,
				"event", event.Type(),
				"error", err,
			)
		}
	}

	return req, event, nil
}

// auditDenied records a denied transition attempt outside the
// transaction (which is about to roll back). Best-effort.
func (e *Engine) auditDenied(ctx context.Context, req *domain.Requisition, target domain.RequisitionStatus, actorID uuid.UUID) {
	values, err := json.Marshal(map[string]any{
		"status":        req.Status,
		"denied_target": target,
	})
	if err != nil {
		return
	}
	entry := &domain.AuditEntry{
		ID:        uuid.New(),
		TableName: "requisitions",
		RecordID:  req.ID,
		Action:    domain.AuditActionTransitionDenied,
		OldValues: values,
		ActorID:   actorID,
		CreatedAt: time.Now(),
	}
	if err := e.audit.Create(ctx, entry); err != nil {
		e.logger.Warn("failed to audit denied transition",
			"requisition_id", req.ID,
			"error", err,
		)
	}
}

// stampsFor returns the actor-stamp update for a target status plus the
// field map recorded in the audit entry.
func stampsFor(target domain.RequisitionStatus, actorID uuid.UUID, reason *string) (repository.StatusUpdate, map[string]any) {
	stamped := map[string]any{"status": target}
	var update repository.StatusUpdate

	switch target {
	case domain.StatusReviewed:
		update.ReviewedBy = &actorID
		stamped["reviewed_by"] = actorID
	case domain.StatusApproved:
		update.ApprovedBy = &actorID
		stamped["approved_by"] = actorID
	case domain.StatusRejected:
		update.RejectionReason = reason
		if reason != nil {
			stamped["rejection_reason"] = *reason
		}
	}
	return update, stamped
}

// applyStamps mirrors the committed update onto the in-memory copy.
func applyStamps(req *domain.Requisition, target domain.RequisitionStatus, update repository.StatusUpdate, at time.Time) {
	req.Status = target
	req.UpdatedAt = at
	if update.ReviewedBy != nil {
		req.ReviewedBy = update.ReviewedBy
	}
	if update.ApprovedBy != nil {
		req.ApprovedBy = update.ApprovedBy
	}
	if update.RejectionReason != nil {
		req.RejectionReason = update.RejectionReason
	}
}

func trimReason(reason *string) *string {
	if reason == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*reason)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// IsConflict reports whether err is the losing side of a concurrent
// transition. Callers should re-read and retry or surface a conflict.
func IsConflict(err error) bool {
	return errors.Is(err, domain.ErrConcurrentModification)
}
