// Package workflow holds the item-request state machine and the role policy
// that gates each transition.
package workflow

import (
	"school-inventory/internal/model"
	"school-inventory/pkg/apperror"
)

type edge struct {
	from model.RequestStatus
	role model.Role
}

// roleTransitions lists, per (current status, role), the targets the role may
// invoke. Department-scoped rules for department heads are applied on top.
var roleTransitions = map[edge][]model.RequestStatus{
	{model.StatusPending, model.RoleAdmin}:        {model.StatusApproved, model.StatusRejected},
	{model.StatusPending, model.RoleStockManager}: {model.StatusApproved, model.StatusRejected},
	{model.StatusPending, model.RoleDepartmentHead}: {
		model.StatusDepartmentApproved, model.StatusRejected,
	},

	{model.StatusDepartmentApproved, model.RoleAdmin}: {
		model.StatusApproved, model.StatusRejected, model.StatusFulfilled,
	},
	{model.StatusDepartmentApproved, model.RoleStockManager}: {
		model.StatusApproved, model.StatusRejected, model.StatusFulfilled,
	},
	{model.StatusDepartmentApproved, model.RoleDepartmentHead}: {
		model.StatusRejected, model.StatusFulfilled,
	},

	{model.StatusApproved, model.RoleAdmin}:          {model.StatusFulfilled},
	{model.StatusApproved, model.RoleStockManager}:   {model.StatusFulfilled},
	{model.StatusApproved, model.RoleDepartmentHead}: {model.StatusFulfilled},
}

// requesterTransitions applies to the original requester regardless of role
var requesterTransitions = map[model.RequestStatus][]model.RequestStatus{
	model.StatusPending:            {model.StatusCancelled},
	model.StatusDepartmentApproved: {model.StatusCancelled},
}

// CanTransition decides whether actor may move request to target.
// It returns nil when allowed, otherwise a classified *apperror.Error.
func CanTransition(actor model.Actor, request *model.Request, target model.RequestStatus) error {
	if request.IsTerminal() {
		return apperror.AlreadyFinalized("request already finalized (%s)", request.Status)
	}

	if target == model.StatusCancelled {
		if !request.IsOwnedBy(actor.ID) {
			return apperror.Forbidden("only the requester may cancel a request")
		}
		if !contains(requesterTransitions[request.Status], target) {
			return apperror.InvalidTransition("cannot cancel a request that is %s", request.Status)
		}
		return nil
	}

	if !roleReaches(actor.Role, target) {
		return apperror.Forbidden("role %s may not set status %s", actor.Role, target)
	}

	if actor.Role == model.RoleDepartmentHead {
		if request.IsOwnedBy(actor.ID) {
			return apperror.Forbidden("department heads cannot act on their own requests")
		}
		if !actor.InDepartment(request.RequesterDepartmentID) {
			return apperror.Forbidden("request belongs to another department")
		}
	}

	if !contains(roleTransitions[edge{request.Status, actor.Role}], target) {
		return apperror.InvalidTransition("cannot move request from %s to %s", request.Status, target)
	}
	return nil
}

// AllowedTransitions enumerates the targets actor may invoke on request now
func AllowedTransitions(actor model.Actor, request *model.Request) []model.RequestStatus {
	allowed := make([]model.RequestStatus, 0, 3)
	for _, target := range model.AllStatuses {
		if target == model.StatusPending {
			continue
		}
		if CanTransition(actor, request, target) == nil {
			allowed = append(allowed, target)
		}
	}
	return allowed
}

// ActionFor returns the audit action recorded for a requested target status
func ActionFor(target model.RequestStatus) string {
	switch target {
	case model.StatusDepartmentApproved:
		return model.ActionDepartmentApprove
	case model.StatusApproved:
		return model.ActionApproveRequest
	case model.StatusRejected:
		return model.ActionRejectRequest
	case model.StatusFulfilled:
		return model.ActionFulfillRequest
	case model.StatusCancelled:
		return model.ActionCancelRequest
	default:
		return ""
	}
}

func roleReaches(role model.Role, target model.RequestStatus) bool {
	for e, targets := range roleTransitions {
		if e.role == role && contains(targets, target) {
			return true
		}
	}
	return false
}

func contains(statuses []model.RequestStatus, s model.RequestStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
