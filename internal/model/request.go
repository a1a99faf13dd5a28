package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus is the lifecycle state of an item request
type RequestStatus string

const (
	StatusPending            RequestStatus = "pending"
	StatusDepartmentApproved RequestStatus = "department_approved"
	StatusApproved           RequestStatus = "approved"
	StatusRejected           RequestStatus = "rejected"
	StatusFulfilled          RequestStatus = "fulfilled"
	StatusCancelled          RequestStatus = "cancelled"
)

var AllStatuses = []RequestStatus{
	StatusPending,
	StatusDepartmentApproved,
	StatusApproved,
	StatusRejected,
	StatusFulfilled,
	StatusCancelled,
}

// ParseRequestStatus accepts "department_approved", "Department Approved"
// and "DepartmentApproved" alike.
func ParseRequestStatus(raw string) (RequestStatus, error) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range AllStatuses {
		if strings.ReplaceAll(string(s), "_", "") == key {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown request status %q", raw)
}

// IsTerminal reports whether no further transition may leave this status
func (s RequestStatus) IsTerminal() bool {
	return s == StatusFulfilled || s == StatusRejected || s == StatusCancelled
}

func (s RequestStatus) String() string { return string(s) }

// AttributionKind names the action that produced the current status
type AttributionKind string

const (
	AttributionNone      AttributionKind = "none"
	AttributionApproved  AttributionKind = "approved"
	AttributionRejected  AttributionKind = "rejected"
	AttributionFulfilled AttributionKind = "fulfilled"
)

// Attribution records who performed the action that last changed status.
// It is replaced as a whole on every transition.
type Attribution struct {
	Kind      AttributionKind `gorm:"column:action_kind;type:varchar(20);not null;default:'none'" json:"kind"`
	ActorID   *uuid.UUID      `gorm:"column:action_by_id;type:char(36)" json:"actor_id,omitempty"`
	ActorName string          `gorm:"column:action_by_name;type:varchar(255)" json:"actor_name,omitempty"`
	ActorRole Role            `gorm:"column:action_by_role;type:varchar(30)" json:"actor_role,omitempty"`
}

// NoAttribution is the attribution of a pending or cancelled request
func NoAttribution() Attribution {
	return Attribution{Kind: AttributionNone}
}

// AttributeTo builds an attribution of the given kind for an actor
func AttributeTo(kind AttributionKind, actor Actor) Attribution {
	id := actor.ID
	return Attribution{
		Kind:      kind,
		ActorID:   &id,
		ActorName: actor.Name,
		ActorRole: actor.Role,
	}
}

// Request is a staff-initiated ask for a quantity of an inventory item
type Request struct {
	ID                      uuid.UUID     `gorm:"type:char(36);primaryKey" json:"id"`
	ItemID                  uuid.UUID     `gorm:"type:char(36);not null;index" json:"item_id"`
	ItemName                string        `gorm:"type:varchar(255);not null" json:"item_name"`
	RequestedQuantity       int           `gorm:"type:int;not null" json:"requested_quantity"`
	FulfilledQuantity       int           `gorm:"type:int;not null;default:0" json:"fulfilled_quantity"`
	RequesterID             uuid.UUID     `gorm:"type:char(36);not null;index" json:"requester_id"`
	RequesterName           string        `gorm:"type:varchar(255)" json:"requester_name"`
	RequesterDepartmentID   *uuid.UUID    `gorm:"type:char(36);index" json:"requester_department_id"`
	RequesterDepartmentName string        `gorm:"type:varchar(255)" json:"requester_department_name"`
	Status                  RequestStatus `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`
	Notes                   string        `gorm:"type:text" json:"notes"`
	AdminNotes              string        `gorm:"type:text" json:"admin_notes"`
	RejectionReason         string        `gorm:"type:text" json:"rejection_reason"`
	Attribution             Attribution   `gorm:"embedded" json:"attribution"`
	RequestDate             time.Time     `gorm:"not null;index" json:"request_date"`
	ResponseDate            *time.Time    `json:"response_date"`
	CreatedAt               time.Time     `json:"created_at"`
	UpdatedAt               time.Time     `json:"updated_at"`
}

func (Request) TableName() string { return "item_requests" }

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Remaining is the quantity still to be fulfilled
func (r *Request) Remaining() int {
	return r.RequestedQuantity - r.FulfilledQuantity
}

// IsTerminal reports whether the request has been finalized
func (r *Request) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// IsOwnedBy reports whether the actor is the original requester
func (r *Request) IsOwnedBy(actorID uuid.UUID) bool {
	return r.RequesterID == actorID
}

// MoveTo changes status, replaces the attribution and stamps the response date
func (r *Request) MoveTo(status RequestStatus, attribution Attribution, at time.Time) {
	r.Status = status
	r.Attribution = attribution
	r.ResponseDate = &at
}
