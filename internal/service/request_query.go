package service

import (
	"context"
	"errors"
	"fmt"

	"school-inventory/internal/model"
	"school-inventory/internal/repository"
	"school-inventory/internal/workflow"
	"school-inventory/pkg/apperror"
	"school-inventory/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02 15:04:05"

func (s *requestService) GetRequest(ctx context.Context, identity model.Identity, id string) (RequestResponse, error) {
	actor, request, err := s.loadVisible(ctx, identity, id)
	if err != nil {
		return RequestResponse{}, err
	}

	item, err := s.items.FindByID(ctx, request.ItemID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return RequestResponse{}, fmt.Errorf("failed to load item: %w", err)
	}
	return s.toResponse(actor, *request, item), nil
}

func (s *requestService) GetRequestHistory(ctx context.Context, identity model.Identity, id string) ([]AuditLogResponse, error) {
	_, request, err := s.loadVisible(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	logs, err := s.audits.ListByEntity(ctx, request.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load request history: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toAuditLogResponse(l))
	}
	return res, nil
}

// ListOwnRequests returns the requests the caller submitted
func (s *requestService) ListOwnRequests(ctx context.Context, identity model.Identity, filter RequestListFilter) ([]RequestResponse, int64, error) {
	actor, err := s.directory.ResolveActor(ctx, identity)
	if err != nil {
		return nil, 0, err
	}
	requesterID := actor.ID
	return s.list(ctx, actor, filter, func(f *repository.RequestFilter) {
		f.RequesterID = &requesterID
	})
}

// ListDepartmentRequests returns requests from the caller's department.
// A caller without a department sees nothing.
func (s *requestService) ListDepartmentRequests(ctx context.Context, identity model.Identity, filter RequestListFilter) ([]RequestResponse, int64, error) {
	if identity.Role != model.RoleDepartmentHead && !identity.Role.IsApprover() {
		return nil, 0, apperror.Forbidden("role %s may not list department requests", identity.Role)
	}
	actor, err := s.directory.ResolveActor(ctx, identity)
	if err != nil {
		return nil, 0, err
	}
	if actor.DepartmentID == nil {
		return []RequestResponse{}, 0, nil
	}
	departmentID := *actor.DepartmentID
	return s.list(ctx, actor, filter, func(f *repository.RequestFilter) {
		f.DepartmentID = &departmentID
	})
}

// ListAllRequests returns every request, unscoped
func (s *requestService) ListAllRequests(ctx context.Context, identity model.Identity, filter RequestListFilter) ([]RequestResponse, int64, error) {
	if !identity.Role.IsApprover() {
		return nil, 0, apperror.Forbidden("role %s may not list all requests", identity.Role)
	}
	actor, err := s.directory.ResolveActor(ctx, identity)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, actor, filter, nil)
}

// ListRequests picks the widest projection the caller's role allows
func (s *requestService) ListRequests(ctx context.Context, identity model.Identity, filter RequestListFilter) ([]RequestResponse, int64, error) {
	switch {
	case identity.Role.IsApprover():
		return s.ListAllRequests(ctx, identity, filter)
	case identity.Role == model.RoleDepartmentHead:
		return s.ListDepartmentRequests(ctx, identity, filter)
	default:
		return s.ListOwnRequests(ctx, identity, filter)
	}
}

func (s *requestService) list(ctx context.Context, actor model.Actor, filter RequestListFilter, scope func(*repository.RequestFilter)) ([]RequestResponse, int64, error) {
	params := pagination.Normalize(filter.Page, filter.Limit)
	query := repository.RequestFilter{Offset: params.Offset, Limit: params.Limit}
	if filter.Status != "" {
		status, err := model.ParseRequestStatus(filter.Status)
		if err != nil {
			return nil, 0, apperror.InvalidStatus("invalid status filter %q", filter.Status)
		}
		query.Status = status
	}
	if scope != nil {
		scope(&query)
	}

	requests, total, err := s.requests.List(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}

	items, err := s.itemsFor(ctx, requests)
	if err != nil {
		return nil, 0, err
	}

	res := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		res = append(res, s.toResponse(actor, r, items[r.ItemID]))
	}
	return res, total, nil
}

func (s *requestService) itemsFor(ctx context.Context, requests []model.Request) (map[uuid.UUID]*model.Item, error) {
	out := make(map[uuid.UUID]*model.Item, len(requests))
	if len(requests) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(requests))
	seen := make(map[uuid.UUID]bool, len(requests))
	for _, r := range requests {
		if !seen[r.ItemID] {
			seen[r.ItemID] = true
			ids = append(ids, r.ItemID)
		}
	}
	items, err := s.items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out, nil
}

func (s *requestService) loadVisible(ctx context.Context, identity model.Identity, id string) (model.Actor, *model.Request, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return model.Actor{}, nil, apperror.Validation("invalid request id %q", id)
	}
	actor, err := s.directory.ResolveActor(ctx, identity)
	if err != nil {
		return model.Actor{}, nil, err
	}
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Actor{}, nil, apperror.NotFound("request not found")
		}
		return model.Actor{}, nil, fmt.Errorf("failed to load request: %w", err)
	}
	if !canView(actor, request) {
		return model.Actor{}, nil, apperror.Forbidden("request is not visible to %s", actor.Name)
	}
	return actor, request, nil
}

// canView mirrors the three projections
func canView(actor model.Actor, request *model.Request) bool {
	switch {
	case actor.Role.IsApprover():
		return true
	case request.IsOwnedBy(actor.ID):
		return true
	case actor.Role == model.RoleDepartmentHead:
		return actor.InDepartment(request.RequesterDepartmentID)
	default:
		return false
	}
}

// toResponse projects a request for actor. item may be nil when it no longer exists.
func (s *requestService) toResponse(actor model.Actor, r model.Request, item *model.Item) RequestResponse {
	res := RequestResponse{
		ID:                      r.ID.String(),
		ItemID:                  r.ItemID.String(),
		ItemName:                r.ItemName,
		RequestedQuantity:       r.RequestedQuantity,
		FulfilledQuantity:       r.FulfilledQuantity,
		RemainingQuantity:       r.Remaining(),
		RequesterID:             r.RequesterID.String(),
		RequesterName:           r.RequesterName,
		RequesterDepartmentName: r.RequesterDepartmentName,
		Status:                  string(r.Status),
		Notes:                   r.Notes,
		AdminNotes:              r.AdminNotes,
		RejectionReason:         r.RejectionReason,
		RequestDate:             r.RequestDate.Format(dateLayout),
		EstimatedValue:          decimal.Zero.StringFixed(2),
	}
	if r.RequesterDepartmentID != nil {
		d := r.RequesterDepartmentID.String()
		res.RequesterDepartmentID = &d
	}
	if r.ResponseDate != nil {
		t := r.ResponseDate.Format(dateLayout)
		res.ResponseDate = &t
	}

	if ref := actorRef(r.Attribution); ref != nil {
		switch r.Attribution.Kind {
		case model.AttributionApproved:
			res.ApprovedBy = ref
		case model.AttributionRejected:
			res.RejectedBy = ref
		case model.AttributionFulfilled:
			res.FulfilledBy = ref
		}
	}

	if item != nil {
		res.CurrentStock = item.Quantity
		res.InsufficientStock = !r.IsTerminal() && r.Remaining() > item.Quantity
		res.EstimatedValue = item.UnitCost.Mul(decimal.NewFromInt(int64(r.RequestedQuantity))).StringFixed(2)
	}

	allowed := workflow.AllowedTransitions(actor, &r)
	res.AllowedTransitions = make([]string, 0, len(allowed))
	for _, t := range allowed {
		res.AllowedTransitions = append(res.AllowedTransitions, string(t))
	}
	return res
}

func actorRef(a model.Attribution) *ActorRef {
	if a.Kind == model.AttributionNone || a.Kind == "" || a.ActorID == nil {
		return nil
	}
	return &ActorRef{
		ID:   a.ActorID.String(),
		Name: a.ActorName,
		Role: string(a.ActorRole),
	}
}
