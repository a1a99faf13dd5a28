package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is the closed set of actor roles recognized by the request workflow
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleStockManager   Role = "stock_manager"
	RoleDepartmentHead Role = "department_head"
	RoleStaff          Role = "staff"
	RoleViewer         Role = "viewer"
)

// AllRoles lists every role in descending order of privilege
var AllRoles = []Role{RoleAdmin, RoleStockManager, RoleDepartmentHead, RoleStaff, RoleViewer}

// ParseRole converts a raw role string (as carried in a token) into a Role
func ParseRole(raw string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for _, r := range AllRoles {
		if string(r) == normalized {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

func (r Role) String() string { return string(r) }

// IsApprover reports whether the role can approve requests across departments
func (r Role) IsApprover() bool {
	return r == RoleAdmin || r == RoleStockManager
}

// Identity is the caller context resolved by the authentication layer.
// The workflow trusts it as given.
type Identity struct {
	UserID       uuid.UUID
	Role         Role
	DepartmentID *uuid.UUID
}

// Actor is an Identity enriched with display names from the user directory
type Actor struct {
	ID             uuid.UUID
	Name           string
	Role           Role
	DepartmentID   *uuid.UUID
	DepartmentName string
}

// InDepartment reports whether the actor belongs to the given department
func (a Actor) InDepartment(departmentID *uuid.UUID) bool {
	return a.DepartmentID != nil && departmentID != nil && *a.DepartmentID == *departmentID
}
