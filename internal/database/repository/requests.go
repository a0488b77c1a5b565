package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RequestRepo handles production requests.
type RequestRepo struct{ db *sql.DB }

func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

func (r *RequestRepo) Upsert(ctx context.Context, p ProductionRequest) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO production_requests(id, title, description, date_start, date_end)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 title=excluded.title,
	 description=excluded.description,
	 date_start=excluded.date_start,
	 date_end=excluded.date_end;
	`, p.ID, p.Title, p.Description, optDate(p.DateStart), optDate(p.DateEnd))
	if err != nil {
		return fmt.Errorf("upsert production request %d: %w", p.ID, err)
	}
	return nil
}

func (r *RequestRepo) List(ctx context.Context) ([]ProductionRequest, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, description, date_start, date_end, created_at FROM production_requests ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProductionRequest
	for rows.Next() {
		p, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns the request with id or ErrNotFound.
func (r *RequestRepo) Get(ctx context.Context, id int64) (ProductionRequest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, title, description, date_start, date_end, created_at FROM production_requests WHERE id = ?`, id)
	p, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ProductionRequest{}, fmt.Errorf("production request %d: %w", id, ErrNotFound)
	}
	return p, err
}

func scanRequest(row scanner) (ProductionRequest, error) {
	var p ProductionRequest
	var start, end sql.NullString
	var created string
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &start, &end, &created); err != nil {
		return ProductionRequest{}, err
	}
	var err error
	if p.DateStart, err = parseOptDate(start); err != nil {
		return ProductionRequest{}, err
	}
	if p.DateEnd, err = parseOptDate(end); err != nil {
		return ProductionRequest{}, err
	}
	if t, err := time.Parse(time.DateTime, created); err == nil {
		p.CreatedAt = t
	}
	return p, nil
}

func optDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatDate(*t)
}

func parseOptDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil, fmt.Errorf("parse request date: %w", err)
	}
	return &t, nil
}
