package repository

import (
	"context"

	"school-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestFilter scopes a request listing. Nil pointers mean "no constraint".
type RequestFilter struct {
	RequesterID  *uuid.UUID
	DepartmentID *uuid.UUID
	Status       model.RequestStatus
	Offset       int
	Limit        int
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	// FindByIDForUpdate locks the request row until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error)
	Update(ctx context.Context, req *model.Request) error
	// List returns requests newest first together with the unpaginated total
	List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) Update(ctx context.Context, req *model.Request) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error) {
	var requests []model.Request
	var total int64

	scoped := func(db *gorm.DB) *gorm.DB {
		if filter.RequesterID != nil {
			db = db.Where("requester_id = ?", *filter.RequesterID)
		}
		if filter.DepartmentID != nil {
			db = db.Where("requester_department_id = ?", *filter.DepartmentID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Request{}).Scopes(scoped).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := db.Scopes(scoped).Order("request_date DESC")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}
