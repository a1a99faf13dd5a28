package service

import (
	"context"
	"testing"

	"school-inventory/internal/model"
	"school-inventory/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(res []RequestResponse) []string {
	out := make([]string, 0, len(res))
	for _, r := range res {
		out = append(out, r.ID)
	}
	return out
}

func TestProjectionsAreScoped(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	own1 := f.submit(t, f.staff, 1)
	colleague := f.submit(t, f.colleague, 2)
	own2 := f.submit(t, f.staff, 3)
	math := f.submit(t, f.mathStaff, 4)

	mine, total, err := f.svc.ListOwnRequests(ctx, identityOf(f.staff), RequestListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{own2, own1}, ids(mine), "newest first")

	dept, total, err := f.svc.ListDepartmentRequests(ctx, identityOf(f.scienceHead), RequestListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.ElementsMatch(t, []string{own1, colleague, own2}, ids(dept))

	dept, _, err = f.svc.ListDepartmentRequests(ctx, identityOf(f.mathHead), RequestListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{math}, ids(dept))

	all, total, err := f.svc.ListAllRequests(ctx, identityOf(f.manager), RequestListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Equal(t, []string{math, own2, colleague, own1}, ids(all))
}

func TestDepartmentProjectionWithoutDepartmentIsEmpty(t *testing.T) {
	f := newFixture(t, 100)
	f.submit(t, f.staff, 1)

	res, total, err := f.svc.ListDepartmentRequests(context.Background(), identityOf(f.drifter), RequestListFilter{})
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Zero(t, total)
}

func TestProjectionRoleGates(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	_, _, err := f.svc.ListAllRequests(ctx, identityOf(f.scienceHead), RequestListFilter{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, _, err = f.svc.ListAllRequests(ctx, identityOf(f.staff), RequestListFilter{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, _, err = f.svc.ListDepartmentRequests(ctx, identityOf(f.staff), RequestListFilter{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, _, err = f.svc.ListOwnRequests(ctx, identityOf(f.viewer), RequestListFilter{})
	assert.NoError(t, err)
}

func TestListRequestsDispatchesOnRole(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	f.submit(t, f.staff, 1)
	f.submit(t, f.colleague, 1)
	f.submit(t, f.mathStaff, 1)

	cases := []struct {
		user model.User
		want int64
	}{
		{f.admin, 3},
		{f.manager, 3},
		{f.scienceHead, 2},
		{f.mathHead, 1},
		{f.staff, 1},
		{f.viewer, 0},
	}
	for _, c := range cases {
		_, total, err := f.svc.ListRequests(ctx, identityOf(c.user), RequestListFilter{})
		require.NoError(t, err, c.user.Username)
		assert.Equal(t, c.want, total, c.user.Username)
	}
}

func TestListFiltersByStatusAndPaginates(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	admin := identityOf(f.admin)

	var submitted []string
	for i := 0; i < 5; i++ {
		submitted = append(submitted, f.submit(t, f.staff, 1))
	}
	_, err := f.transition(f.manager, submitted[0], TransitionDTO{Status: "approved"})
	require.NoError(t, err)

	approved, total, err := f.svc.ListAllRequests(ctx, admin, RequestListFilter{Status: "Approved"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{submitted[0]}, ids(approved))

	page, total, err := f.svc.ListAllRequests(ctx, admin, RequestListFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Equal(t, []string{submitted[2], submitted[1]}, ids(page))

	_, _, err = f.svc.ListAllRequests(ctx, admin, RequestListFilter{Status: "lost"})
	assert.ErrorIs(t, err, apperror.ErrInvalidStatus)
}

func TestProjectionFlagsInsufficientStock(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	big := f.submit(t, f.staff, 10)
	small := f.submit(t, f.staff, 3)

	res, err := f.svc.GetRequest(ctx, identityOf(f.staff), big)
	require.NoError(t, err)
	assert.True(t, res.InsufficientStock)
	assert.Equal(t, 5, res.CurrentStock)
	assert.Equal(t, "25.00", res.EstimatedValue)

	res, err = f.svc.GetRequest(ctx, identityOf(f.staff), small)
	require.NoError(t, err)
	assert.False(t, res.InsufficientStock)
	assert.Equal(t, "7.50", res.EstimatedValue)

	_, err = f.transition(f.staff, big, TransitionDTO{Status: "cancelled"})
	require.NoError(t, err)
	res, err = f.svc.GetRequest(ctx, identityOf(f.staff), big)
	require.NoError(t, err)
	assert.False(t, res.InsufficientStock, "finalized requests are never flagged")
}

func TestAllowedTransitionsFollowActor(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	id := f.submit(t, f.staff, 2)

	head, err := f.svc.GetRequest(ctx, identityOf(f.scienceHead), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"department_approved", "rejected"}, head.AllowedTransitions)

	admin, err := f.svc.GetRequest(ctx, identityOf(f.admin), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"approved", "rejected"}, admin.AllowedTransitions)

	owner, err := f.svc.GetRequest(ctx, identityOf(f.staff), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"cancelled"}, owner.AllowedTransitions)
}

func TestGetRequestVisibility(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	id := f.submit(t, f.staff, 2)

	for _, u := range []model.User{f.staff, f.scienceHead, f.admin, f.manager} {
		_, err := f.svc.GetRequest(ctx, identityOf(u), id)
		assert.NoError(t, err, u.Username)
	}
	for _, u := range []model.User{f.colleague, f.mathHead, f.mathStaff, f.viewer, f.drifter} {
		_, err := f.svc.GetRequest(ctx, identityOf(u), id)
		assert.ErrorIs(t, err, apperror.ErrForbidden, u.Username)
	}

	_, err := f.svc.GetRequest(ctx, identityOf(f.admin), uuid.NewString())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = f.svc.GetRequest(ctx, identityOf(f.admin), "42")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUnknownUserIsNotFound(t *testing.T) {
	f := newFixture(t, 100)
	ghost := model.Identity{UserID: uuid.New(), Role: model.RoleStaff}

	_, err := f.svc.SubmitRequest(context.Background(), ghost, SubmitRequestDTO{ItemName: "A4 Paper", RequestedQuantity: 1})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRequestHistoryIsChronological(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	id := f.submit(t, f.staff, 4)
	_, err := f.transition(f.scienceHead, id, TransitionDTO{Status: "department_approved"})
	require.NoError(t, err)
	_, err = f.transition(f.manager, id, TransitionDTO{Status: "fulfilled", FulfilledQuantity: 4})
	require.NoError(t, err)
	f.submit(t, f.staff, 1)

	history, err := f.svc.GetRequestHistory(ctx, identityOf(f.staff), id)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, model.ActionSubmitRequest, history[0].Action)
	assert.Equal(t, "tom", history[0].Username)
	assert.Equal(t, model.ActionDepartmentApprove, history[1].Action)
	assert.Equal(t, "dana", history[1].Username)
	assert.Equal(t, model.ActionFulfillRequest, history[2].Action)
	assert.Equal(t, "sam", history[2].Username)
	assert.Contains(t, history[2].Details, `"fulfilled_quantity":4`)

	_, err = f.svc.GetRequestHistory(ctx, identityOf(f.mathHead), id)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
