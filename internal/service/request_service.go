package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"school-inventory/internal/model"
	"school-inventory/internal/repository"
	"school-inventory/internal/workflow"
	"school-inventory/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	EventRequestSubmitted     = "request.submitted"
	EventRequestStatusChanged = "request.status_changed"
	EventStockUpdated         = "stock.updated"
)

// EventPublisher receives realtime notifications after a commit
type EventPublisher interface {
	Publish(event string, data interface{})
}

// --- Interface ---

type RequestService interface {
	SubmitRequest(ctx context.Context, identity model.Identity, req SubmitRequestDTO) (SubmitResult, error)
	TransitionRequest(ctx context.Context, identity model.Identity, id string, req TransitionDTO) (RequestResponse, error)
	GetRequest(ctx context.Context, identity model.Identity, id string) (RequestResponse, error)
	GetRequestHistory(ctx context.Context, identity model.Identity, id string) ([]AuditLogResponse, error)
	ListOwnRequests(ctx context.Context, identity model.Identity, filter RequestListFilter) ([]RequestResponse, int64, error)
	ListDepartmentRequests(ctx context.Context, identity model.Identity, filter RequestListFilter) ([]RequestResponse, int64, error)
	ListAllRequests(ctx context.Context, identity model.Identity, filter RequestListFilter) ([]RequestResponse, int64, error)
	ListRequests(ctx context.Context, identity model.Identity, filter RequestListFilter) ([]RequestResponse, int64, error)
}

// Repositories bundles the persistence ports the request service needs
type Repositories struct {
	Tx        repository.TransactionManager
	Items     repository.ItemRepository
	Requests  repository.RequestRepository
	Movements repository.StockMovementRepository
	Audits    repository.AuditRepository
}

type Option func(*requestService)

// WithClock overrides the time source used for request and response dates
func WithClock(now func() time.Time) Option {
	return func(s *requestService) { s.now = now }
}

// WithPublisher sets where post-commit events go
func WithPublisher(p EventPublisher) Option {
	return func(s *requestService) { s.events = p }
}

type requestService struct {
	txManager repository.TransactionManager
	items     repository.ItemRepository
	requests  repository.RequestRepository
	movements repository.StockMovementRepository
	audits    repository.AuditRepository
	directory ActorResolver
	events    EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

func NewRequestService(repos Repositories, directory ActorResolver, log *zap.Logger, opts ...Option) RequestService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &requestService{
		txManager: repos.Tx,
		items:     repos.Items,
		requests:  repos.Requests,
		movements: repos.Movements,
		audits:    repos.Audits,
		directory: directory,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Submission ---

func (s *requestService) SubmitRequest(ctx context.Context, identity model.Identity, req SubmitRequestDTO) (SubmitResult, error) {
	itemName := strings.TrimSpace(req.ItemName)
	if itemName == "" {
		return SubmitResult{}, apperror.Validation("item_name is required")
	}
	if req.RequestedQuantity <= 0 {
		return SubmitResult{}, apperror.Validation("requested_quantity must be greater than 0")
	}
	if identity.Role == model.RoleViewer {
		return SubmitResult{}, apperror.Forbidden("viewers cannot submit requests")
	}

	actor, err := s.directory.ResolveActor(ctx, identity)
	if err != nil {
		return SubmitResult{}, err
	}

	item, err := s.items.FindByName(ctx, itemName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SubmitResult{}, apperror.NotFound("item not found: %s", itemName)
		}
		return SubmitResult{}, fmt.Errorf("failed to look up item: %w", err)
	}

	request := model.Request{
		ItemID:                  item.ID,
		ItemName:                item.Name,
		RequestedQuantity:       req.RequestedQuantity,
		RequesterID:             actor.ID,
		RequesterName:           actor.Name,
		RequesterDepartmentID:   actor.DepartmentID,
		RequesterDepartmentName: actor.DepartmentName,
		Status:                  model.StatusPending,
		Notes:                   strings.TrimSpace(req.Notes),
		Attribution:             model.NoAttribution(),
		RequestDate:             s.now(),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Create(txCtx, &request); err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		entry := newAuditEntry(actor, model.ActionSubmitRequest, &request, map[string]interface{}{
			"requested_quantity": request.RequestedQuantity,
			"status":             request.Status,
			"notes":              request.Notes,
		})
		if err := s.audits.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	s.log.Info("request submitted",
		zap.String("request_id", request.ID.String()),
		zap.String("item", request.ItemName),
		zap.Int("quantity", request.RequestedQuantity),
		zap.String("requester", actor.Name),
	)

	projection := s.toResponse(actor, request, item)
	s.publish(EventRequestSubmitted, broadcastView(projection))

	return SubmitResult{
		RequestID:    request.ID.String(),
		CurrentStock: item.Quantity,
		Request:      projection,
	}, nil
}

// --- Transitions ---

func (s *requestService) TransitionRequest(ctx context.Context, identity model.Identity, id string, req TransitionDTO) (RequestResponse, error) {
	target, err := model.ParseRequestStatus(req.Status)
	if err != nil || target == model.StatusPending {
		return RequestResponse{}, apperror.InvalidStatus("invalid target status %q", req.Status)
	}
	switch target {
	case model.StatusRejected:
		if strings.TrimSpace(req.RejectionReason) == "" {
			return RequestResponse{}, apperror.Validation("rejection_reason is required when rejecting")
		}
	case model.StatusFulfilled:
		if req.FulfilledQuantity <= 0 {
			return RequestResponse{}, apperror.Validation("fulfilled_quantity must be greater than 0")
		}
	}

	requestID, err := uuid.Parse(id)
	if err != nil {
		return RequestResponse{}, apperror.Validation("invalid request id %q", id)
	}

	actor, err := s.directory.ResolveActor(ctx, identity)
	if err != nil {
		return RequestResponse{}, err
	}

	var (
		updated model.Request
		from    model.RequestStatus
		stock   *model.Item
	)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.requests.FindByIDForUpdate(txCtx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("request not found")
			}
			return fmt.Errorf("failed to load request: %w", err)
		}

		if err := workflow.CanTransition(actor, current, target); err != nil {
			return err
		}

		from = current.Status
		now := s.now()
		action := workflow.ActionFor(target)
		details := map[string]interface{}{"from": from, "to": target}

		switch target {
		case model.StatusFulfilled:
			item, err := s.fulfill(txCtx, actor, current, req.FulfilledQuantity, now)
			if err != nil {
				return err
			}
			stock = item
			if current.Status != model.StatusFulfilled {
				action = model.ActionPartialFulfillRequest
			}
			details["to"] = current.Status
			details["fulfilled_quantity"] = req.FulfilledQuantity
			details["total_fulfilled"] = current.FulfilledQuantity
			details["stock_after"] = item.Quantity
		case model.StatusRejected:
			current.RejectionReason = strings.TrimSpace(req.RejectionReason)
			current.MoveTo(target, model.AttributeTo(model.AttributionRejected, actor), now)
			details["reason"] = current.RejectionReason
		case model.StatusCancelled:
			current.MoveTo(target, model.NoAttribution(), now)
		default:
			current.MoveTo(target, model.AttributeTo(model.AttributionApproved, actor), now)
		}

		if notes := strings.TrimSpace(req.AdminNotes); notes != "" {
			current.AdminNotes = notes
			details["admin_notes"] = notes
		}

		if err := s.requests.Update(txCtx, current); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		if err := s.audits.Log(txCtx, newAuditEntry(actor, action, current, details)); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		updated = *current
		return nil
	})
	if err != nil {
		if _, ok := apperror.From(err); ok {
			s.log.Warn("request transition refused",
				zap.String("request_id", id),
				zap.String("target", string(target)),
				zap.String("actor", actor.Name),
				zap.String("role", string(actor.Role)),
				zap.Error(err),
			)
		}
		return RequestResponse{}, err
	}

	s.log.Info("request status changed",
		zap.String("request_id", updated.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)),
		zap.String("actor", actor.Name),
	)

	item := stock
	if item == nil {
		item, err = s.items.FindByID(ctx, updated.ItemID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, fmt.Errorf("failed to load item: %w", err)
		}
	}
	projection := s.toResponse(actor, updated, item)

	s.publish(EventRequestStatusChanged, broadcastView(projection))
	if stock != nil {
		s.publish(EventStockUpdated, StockEvent{
			ItemID:    stock.ID.String(),
			ItemName:  stock.Name,
			Quantity:  stock.Quantity,
			RequestID: updated.ID.String(),
		})
	}
	return projection, nil
}

// fulfill deducts stock for a fulfillment inside the caller's transaction.
// The request row is already locked; the item row is locked here.
func (s *requestService) fulfill(ctx context.Context, actor model.Actor, request *model.Request, quantity int, at time.Time) (*model.Item, error) {
	if remaining := request.Remaining(); quantity > remaining {
		return nil, apperror.ExceedsRequested("fulfilled quantity %d exceeds remaining %d", quantity, remaining)
	}

	item, err := s.items.FindByIDForUpdate(ctx, request.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("item not found: %s", request.ItemName)
		}
		return nil, fmt.Errorf("failed to lock item: %w", err)
	}

	if item.Quantity < quantity {
		return nil, apperror.InsufficientStock("insufficient stock for %s (available: %d, requested: %d)",
			item.Name, item.Quantity, quantity)
	}

	stockAfter := item.Quantity - quantity
	if err := s.items.UpdateQuantity(ctx, item.ID, stockAfter); err != nil {
		return nil, fmt.Errorf("failed to deduct stock: %w", err)
	}

	requestID := request.ID
	actorID := actor.ID
	movement := &model.StockMovement{
		ItemID:          item.ID,
		RequestID:       &requestID,
		MovementType:    model.MovementTypeOut,
		QuantityChanged: -quantity,
		StockAfter:      stockAfter,
		CreatedBy:       &actorID,
	}
	if err := s.movements.Create(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}
	item.Quantity = stockAfter

	request.FulfilledQuantity += quantity
	status := model.StatusApproved
	if request.Remaining() == 0 {
		status = model.StatusFulfilled
	}
	request.MoveTo(status, model.AttributeTo(model.AttributionFulfilled, actor), at)
	return item, nil
}

func (s *requestService) publish(event string, data interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(event, data)
}

// broadcastView strips the caller-specific part of a projection
func broadcastView(r RequestResponse) RequestResponse {
	r.AllowedTransitions = nil
	return r
}
