package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dimitrije/smsdesk/internal/database"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/jackc/pgx/v5"
)

var ErrContactNotFound = errors.New("contact not found")

type ContactService struct {
	db *database.DB
}

func NewContactService(db *database.DB) *ContactService {
	return &ContactService{db: db}
}

func scanContact(row pgx.Row) (*models.Contact, error) {
	var c models.Contact
	var fields []byte
	if err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Mobile, &fields,
		&c.DoNotContact, &c.OwnerID, &c.DateAdded,
	); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &c.Fields); err != nil {
			return nil, fmt.Errorf("decode contact fields: %w", err)
		}
	}
	return &c, nil
}

func (s *ContactService) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	c, err := scanContact(s.db.Pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, mobile, fields, do_not_contact, owner_id, date_added
		FROM contacts WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return c, nil
}
