package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dimitrije/smsdesk/internal/database"
	"github.com/dimitrije/smsdesk/internal/listquery"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrSmsNotFound      = errors.New("sms not found")
	ErrSmsLocked        = errors.New("sms is checked out by another user")
	ErrUnknownPredicate = errors.New("unknown list predicate")
)

const smsColumns = `s.id, s.name, s.description, s.language, s.message, s.sms_type, s.category_id,
		COALESCE((SELECT array_agg(x.list_id ORDER BY x.list_id) FROM sms_message_list_xref x WHERE x.sms_id = s.id), '{}'::bigint[]),
		s.is_published, s.publish_up, s.publish_down, s.sent_count, s.created_by, s.created_by_user,
		s.checked_out, s.checked_out_by, s.date_added, s.date_modified`

// SmsSortColumns maps accepted sort keys to SQL columns.
var SmsSortColumns = map[string]string{
	"name":       "s.name",
	"language":   "s.language",
	"sent_count": "s.sent_count",
	"date_added": "s.date_added",
	"category":   "s.category_id",
	"id":         "s.id",
}

type SmsService struct {
	db *database.DB
}

func NewSmsService(db *database.DB) *SmsService {
	return &SmsService{db: db}
}

func scanSms(row pgx.Row, s *models.Sms) error {
	return row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Language, &s.Message, &s.SmsType, &s.CategoryID,
		&s.ListIDs,
		&s.IsPublished, &s.PublishUp, &s.PublishDown, &s.SentCount, &s.CreatedBy, &s.CreatedByUser,
		&s.CheckedOut, &s.CheckedOutBy, &s.DateAdded, &s.DateModified,
	)
}

func (s *SmsService) GetByID(ctx context.Context, id uuid.UUID) (*models.Sms, error) {
	var sms models.Sms
	err := scanSms(s.db.Pool.QueryRow(ctx, `
		SELECT `+smsColumns+`
		FROM sms_messages s WHERE s.id = $1
	`, id), &sms)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSmsNotFound
		}
		return nil, err
	}
	return &sms, nil
}

// List returns one page of messages and the total matching count.
func (s *SmsService) List(ctx context.Context, q listquery.Query) ([]models.Sms, int, error) {
	where, args, err := smsWhere(q)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM sms_messages s`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sms: %w", err)
	}

	sortColumn, ok := SmsSortColumns[q.SortColumn]
	if !ok {
		sortColumn = SmsSortColumns["name"]
	}
	direction := listquery.NormalizeDirection(q.SortDirection)

	args = append(args, q.Limit, q.Offset)
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+smsColumns+`
		FROM sms_messages s`+where+`
		ORDER BY `+sortColumn+` `+direction+`, s.id
		LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sms: %w", err)
	}
	defer rows.Close()

	items := []models.Sms{}
	for rows.Next() {
		var sms models.Sms
		if err := scanSms(rows, &sms); err != nil {
			return nil, 0, err
		}
		items = append(items, sms)
	}
	return items, total, rows.Err()
}

func smsWhere(q listquery.Query) (string, []any, error) {
	var clauses []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	for _, p := range q.Predicates {
		switch p.Column {
		case "created_by":
			if len(p.Values) == 0 {
				continue
			}
			owner, err := uuid.Parse(p.Values[0])
			if err != nil {
				return "", nil, fmt.Errorf("%w: created_by %q", ErrUnknownPredicate, p.Values[0])
			}
			clauses = append(clauses, "s.created_by = "+next(owner))
		case "lists":
			ids, err := parseIDs(p.Values)
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, "EXISTS (SELECT 1 FROM sms_message_list_xref x WHERE x.sms_id = s.id AND x.list_id = ANY("+next(ids)+"))")
		case "categories":
			ids, err := parseIDs(p.Values)
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, "s.category_id = ANY("+next(ids)+")")
		default:
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownPredicate, p.Column)
		}
	}

	if q.SearchTerm != "" {
		term := next("%" + q.SearchTerm + "%")
		clauses = append(clauses, "(s.name ILIKE "+term+" OR s.description ILIKE "+term+")")
	}

	if len(clauses) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func parseIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: id %q", ErrUnknownPredicate, v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Save inserts or updates sms and replaces its segment list. unlock clears the edit lock.
func (s *SmsService) Save(ctx context.Context, sms *models.Sms, unlock bool) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if sms.IsNew() {
		err = tx.QueryRow(ctx, `
			INSERT INTO sms_messages (name, description, language, message, sms_type, category_id,
				is_published, publish_up, publish_down, created_by, created_by_user)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, date_added, date_modified
		`, sms.Name, sms.Description, sms.Language, sms.Message, sms.SmsType, sms.CategoryID,
			sms.IsPublished, sms.PublishUp, sms.PublishDown, sms.CreatedBy, sms.CreatedByUser,
		).Scan(&sms.ID, &sms.DateAdded, &sms.DateModified)
		if err != nil {
			return fmt.Errorf("insert sms: %w", err)
		}
	} else {
		if unlock {
			sms.CheckedOut = nil
			sms.CheckedOutBy = nil
		}
		err = tx.QueryRow(ctx, `
			UPDATE sms_messages
			SET name = $2, description = $3, language = $4, message = $5, sms_type = $6, category_id = $7,
				is_published = $8, publish_up = $9, publish_down = $10,
				checked_out = $11, checked_out_by = $12, date_modified = NOW()
			WHERE id = $1
			RETURNING date_modified
		`, sms.ID, sms.Name, sms.Description, sms.Language, sms.Message, sms.SmsType, sms.CategoryID,
			sms.IsPublished, sms.PublishUp, sms.PublishDown, sms.CheckedOut, sms.CheckedOutBy,
		).Scan(&sms.DateModified)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSmsNotFound
			}
			return fmt.Errorf("update sms: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM sms_message_list_xref WHERE sms_id = $1`, sms.ID); err != nil {
		return fmt.Errorf("clear sms lists: %w", err)
	}
	if len(sms.ListIDs) > 0 {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sms_message_list_xref (sms_id, list_id)
			SELECT $1, unnest($2::bigint[])
		`, sms.ID, sms.ListIDs); err != nil {
			return fmt.Errorf("save sms lists: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *SmsService) Delete(ctx context.Context, sms *models.Sms) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM sms_messages WHERE id = $1`, sms.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSmsNotFound
	}
	return nil
}

// DeleteMany removes ids in one statement and returns the rows actually deleted.
func (s *SmsService) DeleteMany(ctx context.Context, ids []uuid.UUID) ([]models.Sms, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Pool.Query(ctx, `
		DELETE FROM sms_messages WHERE id = ANY($1)
		RETURNING id, name, created_by
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deleted []models.Sms
	for rows.Next() {
		var sms models.Sms
		if err := rows.Scan(&sms.ID, &sms.Name, &sms.CreatedBy); err != nil {
			return nil, err
		}
		deleted = append(deleted, sms)
	}
	return deleted, rows.Err()
}

// Lock checks the message out to userID unless another user holds it.
func (s *SmsService) Lock(ctx context.Context, sms *models.Sms, userID uuid.UUID) error {
	var at time.Time
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE sms_messages
		SET checked_out = NOW(), checked_out_by = $2
		WHERE id = $1 AND (checked_out_by IS NULL OR checked_out_by = $2)
		RETURNING checked_out
	`, sms.ID, userID).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSmsLocked
		}
		return err
	}
	sms.CheckedOut = &at
	sms.CheckedOutBy = &userID
	return nil
}

func (s *SmsService) Unlock(ctx context.Context, sms *models.Sms) error {
	_, err := s.db.Pool.Exec(ctx, `
		UPDATE sms_messages SET checked_out = NULL, checked_out_by = NULL WHERE id = $1
	`, sms.ID)
	if err != nil {
		return err
	}
	sms.CheckedOut = nil
	sms.CheckedOutBy = nil
	return nil
}

func (s *SmsService) IncrementSentCount(ctx context.Context, id uuid.UUID, n int) error {
	_, err := s.db.Pool.Exec(ctx, `
		UPDATE sms_messages SET sent_count = sent_count + $2 WHERE id = $1
	`, id, n)
	return err
}

// ListForBroadcast returns published list messages inside their publish
// window, optionally restricted to one id.
func (s *SmsService) ListForBroadcast(ctx context.Context, id *uuid.UUID) ([]models.Sms, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+smsColumns+`
		FROM sms_messages s
		WHERE s.sms_type = 'list' AND s.is_published
			AND (s.publish_up IS NULL OR s.publish_up <= NOW())
			AND (s.publish_down IS NULL OR s.publish_down > NOW())
			AND ($1::uuid IS NULL OR s.id = $1)
		ORDER BY s.date_added
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Sms
	for rows.Next() {
		var sms models.Sms
		if err := scanSms(rows, &sms); err != nil {
			return nil, err
		}
		items = append(items, sms)
	}
	return items, rows.Err()
}
