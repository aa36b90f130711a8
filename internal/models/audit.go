package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)

type AuditLogEntry struct {
	ID        int64          `json:"id"`
	UserID    *uuid.UUID     `json:"user_id,omitempty"`
	UserName  string         `json:"user_name"`
	Bundle    string         `json:"bundle"`
	Object    string         `json:"object"`
	ObjectID  string         `json:"object_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
	IPAddress string         `json:"ip_address,omitempty"`
	DateAdded time.Time      `json:"date_added"`
}
