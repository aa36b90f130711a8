package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dimitrije/smsdesk/internal/database"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/jackc/pgx/v5"
)

// LookupService serves the choice lists of the editor and the public URLs
// behind page and asset tokens.
type LookupService struct {
	db      *database.DB
	baseURL string
}

func NewLookupService(db *database.DB, baseURL string) *LookupService {
	return &LookupService{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LookupService) Categories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, title, alias FROM categories WHERE bundle = 'sms' ORDER BY title
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Alias); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *LookupService) Lists(ctx context.Context) ([]models.LeadList, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT id, name, alias FROM lead_lists ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.LeadList{}
	for rows.Next() {
		var l models.LeadList
		if err := rows.Scan(&l.ID, &l.Name, &l.Alias); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// PageURL returns "" for unknown or unpublished pages.
func (s *LookupService) PageURL(ctx context.Context, id int64) (string, error) {
	var alias string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT alias FROM pages WHERE id = $1 AND is_published
	`, id).Scan(&alias)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + alias, nil
}

// AssetURL returns "" for unknown assets.
func (s *LookupService) AssetURL(ctx context.Context, id int64) (string, error) {
	var alias string
	err := s.db.Pool.QueryRow(ctx, `SELECT alias FROM assets WHERE id = $1`, id).Scan(&alias)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.baseURL + "/asset/" + alias, nil
}
