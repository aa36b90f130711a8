package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dimitrije/smsdesk/internal/database"
	"github.com/dimitrije/smsdesk/internal/events"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/google/uuid"
)

const (
	auditBundleSms = "sms"
	auditObjectSms = "sms"
)

type AuditService struct {
	db *database.DB
}

func NewAuditService(db *database.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) WriteToLog(ctx context.Context, entry *models.AuditLogEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}

	return s.db.Pool.QueryRow(ctx, `
		INSERT INTO audit_log (user_id, user_name, bundle, object, object_id, action, details, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, date_added
	`, entry.UserID, entry.UserName, entry.Bundle, entry.Object, entry.ObjectID, entry.Action, details, entry.IPAddress,
	).Scan(&entry.ID, &entry.DateAdded)
}

// GetLogForObject returns the newest entries first.
func (s *AuditService) GetLogForObject(ctx context.Context, bundle, object, objectID string, limit int) ([]models.AuditLogEntry, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, user_id, user_name, bundle, object, object_id, action, details, ip_address, date_added
		FROM audit_log
		WHERE bundle = $1 AND object = $2 AND object_id = $3
		ORDER BY date_added DESC, id DESC
		LIMIT $4
	`, bundle, object, objectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditLogEntry{}
	for rows.Next() {
		var e models.AuditLogEntry
		var details []byte
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.UserName, &e.Bundle, &e.Object, &e.ObjectID,
			&e.Action, &details, &e.IPAddress, &e.DateAdded,
		); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SmsLog returns the audit trail of one message.
func (s *AuditService) SmsLog(ctx context.Context, smsID uuid.UUID, limit int) ([]models.AuditLogEntry, error) {
	return s.GetLogForObject(ctx, auditBundleSms, auditObjectSms, smsID.String(), limit)
}

// SmsSaved is a post-save hook. Saves without changes are not logged.
func (s *AuditService) SmsSaved(ctx context.Context, e *events.SaveEvent) error {
	if len(e.Changes) == 0 {
		return nil
	}

	action := models.AuditActionUpdate
	if e.IsNew {
		action = models.AuditActionCreate
	}

	details := make(map[string]any, len(e.Changes))
	for field, change := range e.Changes {
		details[field] = change
	}

	return s.WriteToLog(ctx, &models.AuditLogEntry{
		UserID:   userIDPtr(e.UserID),
		UserName: e.UserName,
		Bundle:   auditBundleSms,
		Object:   auditObjectSms,
		ObjectID: e.Sms.ID.String(),
		Action:   action,
		Details:  details,
	})
}

// SmsDeleted is a post-delete hook.
func (s *AuditService) SmsDeleted(ctx context.Context, e *events.DeleteEvent) error {
	return s.WriteToLog(ctx, &models.AuditLogEntry{
		UserID:   userIDPtr(e.UserID),
		UserName: e.UserName,
		Bundle:   auditBundleSms,
		Object:   auditObjectSms,
		ObjectID: e.Sms.ID.String(),
		Action:   models.AuditActionDelete,
		Details:  map[string]any{"name": e.Sms.Name},
	})
}

func userIDPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
