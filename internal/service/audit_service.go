package service

import (
	"encoding/json"

	"school-inventory/internal/model"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// newAuditEntry builds an audit row for a request lifecycle action
func newAuditEntry(actor model.Actor, action string, request *model.Request, details map[string]interface{}) *model.AuditLog {
	payload, _ := json.Marshal(details)
	uid := actor.ID
	var userID *uuid.UUID
	if uid != uuid.Nil {
		userID = &uid
	}
	return &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   request.ID.String(),
		EntityName: request.ItemName,
		Details:    string(payload),
	}
}

func toAuditLogResponse(l model.AuditLog) AuditLogResponse {
	username := "System"
	userID := ""
	if l.User != nil {
		username = l.User.Username
	}
	if l.UserID != nil {
		userID = l.UserID.String()
	}

	return AuditLogResponse{
		ID:         l.ID.String(),
		UserID:     userID,
		Username:   username,
		Action:     l.Action,
		EntityID:   l.EntityID,
		EntityName: l.EntityName,
		Details:    l.Details,
		CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
