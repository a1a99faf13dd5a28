package service

import (
	"context"
	"errors"
	"fmt"

	"school-inventory/internal/model"
	"school-inventory/internal/repository"
	"school-inventory/pkg/apperror"

	"gorm.io/gorm"
)

// ActorResolver turns an authenticated identity into a named actor
type ActorResolver interface {
	ResolveActor(ctx context.Context, identity model.Identity) (model.Actor, error)
}

type directoryService struct {
	repo repository.UserRepository
}

// NewDirectoryService returns an ActorResolver backed by the user directory
func NewDirectoryService(repo repository.UserRepository) ActorResolver {
	return &directoryService{repo: repo}
}

// ResolveActor trusts the identity's role and department, and takes display
// names from the directory. A missing department in the token falls back to
// the directory assignment.
func (s *directoryService) ResolveActor(ctx context.Context, identity model.Identity) (model.Actor, error) {
	user, err := s.repo.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Actor{}, apperror.NotFound("user %s not found", identity.UserID)
		}
		return model.Actor{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	actor := model.Actor{
		ID:           user.ID,
		Name:         user.Username,
		Role:         identity.Role,
		DepartmentID: identity.DepartmentID,
	}
	if actor.DepartmentID == nil {
		actor.DepartmentID = user.DepartmentID
	}
	if user.Department != nil && actor.InDepartment(&user.Department.ID) {
		actor.DepartmentName = user.Department.Name
	}
	return actor, nil
}
