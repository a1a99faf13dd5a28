package workflow

import (
	"testing"

	"school-inventory/internal/model"
	"school-inventory/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var (
	scienceDept = uuid.New()
	artsDept    = uuid.New()
)

func actor(role model.Role, dept *uuid.UUID) model.Actor {
	return model.Actor{ID: uuid.New(), Name: string(role), Role: role, DepartmentID: dept}
}

func requestFrom(requester model.Actor, status model.RequestStatus) *model.Request {
	return &model.Request{
		ID:                    uuid.New(),
		RequestedQuantity:     3,
		RequesterID:           requester.ID,
		RequesterDepartmentID: requester.DepartmentID,
		Status:                status,
	}
}

func TestCanTransitionTable(t *testing.T) {
	staff := actor(model.RoleStaff, &scienceDept)
	admin := actor(model.RoleAdmin, nil)
	manager := actor(model.RoleStockManager, nil)
	head := actor(model.RoleDepartmentHead, &scienceDept)
	otherHead := actor(model.RoleDepartmentHead, &artsDept)
	viewer := actor(model.RoleViewer, &scienceDept)

	tests := []struct {
		name     string
		actor    model.Actor
		from     model.RequestStatus
		to       model.RequestStatus
		wantCode string // empty means allowed
	}{
		{"head pre-approves department request", head, model.StatusPending, model.StatusDepartmentApproved, ""},
		{"head rejects pending", head, model.StatusPending, model.StatusRejected, ""},
		{"head rejects department approved", head, model.StatusDepartmentApproved, model.StatusRejected, ""},
		{"head fulfills department approved", head, model.StatusDepartmentApproved, model.StatusFulfilled, ""},
		{"head fulfills approved", head, model.StatusApproved, model.StatusFulfilled, ""},
		{"head cannot final-approve", head, model.StatusPending, model.StatusApproved, apperror.CodeForbidden},
		{"head cannot fulfill pending", head, model.StatusPending, model.StatusFulfilled, apperror.CodeInvalidTransition},
		{"head of another department", otherHead, model.StatusPending, model.StatusDepartmentApproved, apperror.CodeForbidden},

		{"admin approves pending", admin, model.StatusPending, model.StatusApproved, ""},
		{"admin approves department approved", admin, model.StatusDepartmentApproved, model.StatusApproved, ""},
		{"admin rejects", admin, model.StatusDepartmentApproved, model.StatusRejected, ""},
		{"admin fulfills approved", admin, model.StatusApproved, model.StatusFulfilled, ""},
		{"admin fulfills department approved", admin, model.StatusDepartmentApproved, model.StatusFulfilled, ""},
		{"admin cannot fulfill pending", admin, model.StatusPending, model.StatusFulfilled, apperror.CodeInvalidTransition},
		{"admin cannot reject approved", admin, model.StatusApproved, model.StatusRejected, apperror.CodeInvalidTransition},
		{"admin cannot department-approve", admin, model.StatusPending, model.StatusDepartmentApproved, apperror.CodeForbidden},
		{"admin cannot cancel others", admin, model.StatusPending, model.StatusCancelled, apperror.CodeForbidden},

		{"manager approves pending", manager, model.StatusPending, model.StatusApproved, ""},
		{"manager fulfills approved", manager, model.StatusApproved, model.StatusFulfilled, ""},

		{"staff cannot approve", staff, model.StatusPending, model.StatusApproved, apperror.CodeForbidden},
		{"viewer cannot reject", viewer, model.StatusPending, model.StatusRejected, apperror.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestFrom(staff, tt.from)
			err := CanTransition(tt.actor, req, tt.to)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperror.From(err)
			if assert.True(t, ok, "expected classified error, got %v", err) {
				assert.Equal(t, tt.wantCode, appErr.Code)
			}
		})
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	staff := actor(model.RoleStaff, &scienceDept)
	admin := actor(model.RoleAdmin, nil)

	for _, from := range []model.RequestStatus{model.StatusFulfilled, model.StatusRejected, model.StatusCancelled} {
		for _, to := range model.AllStatuses {
			req := requestFrom(staff, from)
			assert.ErrorIs(t, CanTransition(admin, req, to), apperror.ErrAlreadyFinalized, "%s -> %s", from, to)
			assert.ErrorIs(t, CanTransition(staff, req, to), apperror.ErrAlreadyFinalized, "%s -> %s", from, to)
		}
	}
}

func TestDepartmentHeadSelfApprovalBlocked(t *testing.T) {
	head := actor(model.RoleDepartmentHead, &scienceDept)
	req := requestFrom(head, model.StatusPending)

	for _, to := range []model.RequestStatus{model.StatusDepartmentApproved, model.StatusRejected} {
		assert.ErrorIs(t, CanTransition(head, req, to), apperror.ErrForbidden)
	}
	req.Status = model.StatusDepartmentApproved
	assert.ErrorIs(t, CanTransition(head, req, model.StatusFulfilled), apperror.ErrForbidden)

	// cancelling their own request is still allowed
	assert.NoError(t, CanTransition(head, req, model.StatusCancelled))
}

func TestRequesterCancellation(t *testing.T) {
	staff := actor(model.RoleStaff, &scienceDept)
	colleague := actor(model.RoleStaff, &scienceDept)

	assert.NoError(t, CanTransition(staff, requestFrom(staff, model.StatusPending), model.StatusCancelled))
	assert.NoError(t, CanTransition(staff, requestFrom(staff, model.StatusDepartmentApproved), model.StatusCancelled))
	assert.ErrorIs(t, CanTransition(staff, requestFrom(staff, model.StatusApproved), model.StatusCancelled), apperror.ErrInvalidTransition)
	assert.ErrorIs(t, CanTransition(colleague, requestFrom(staff, model.StatusPending), model.StatusCancelled), apperror.ErrForbidden)
}

func TestAllowedTransitions(t *testing.T) {
	staff := actor(model.RoleStaff, &scienceDept)
	head := actor(model.RoleDepartmentHead, &scienceDept)
	admin := actor(model.RoleAdmin, nil)

	pending := requestFrom(staff, model.StatusPending)
	assert.Equal(t, []model.RequestStatus{model.StatusCancelled}, AllowedTransitions(staff, pending))
	assert.Equal(t, []model.RequestStatus{model.StatusDepartmentApproved, model.StatusRejected}, AllowedTransitions(head, pending))
	assert.Equal(t, []model.RequestStatus{model.StatusApproved, model.StatusRejected}, AllowedTransitions(admin, pending))

	fulfilled := requestFrom(staff, model.StatusFulfilled)
	assert.Empty(t, AllowedTransitions(admin, fulfilled))
}
