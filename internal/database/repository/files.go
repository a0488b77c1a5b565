package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DefaultPageSize applies when a search asks for no page size.
const DefaultPageSize = 50

const fileColumns = `id, path, directory, category, date, size, privileged, duplicate_hash, file_name,
	subject, from_email, to_email, topic, is_internal`

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// FileRepo handles the file catalog.
type FileRepo struct{ db *sql.DB }

func NewFileRepo(db *sql.DB) *FileRepo { return &FileRepo{db: db} }

// Insert adds f through q, which may be a transaction, and returns its id.
// A file already catalogued under the same path is updated in place.
func (r *FileRepo) Insert(ctx context.Context, q Querier, f File) (int64, error) {
	if q == nil {
		q = r.db
	}
	var id int64
	err := q.QueryRowContext(ctx, `
	INSERT INTO files(path, directory, category, date, size, privileged, duplicate_hash, file_name,
	 subject, from_email, to_email, topic, is_internal)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
	 directory=excluded.directory,
	 category=excluded.category,
	 date=excluded.date,
	 size=excluded.size,
	 privileged=excluded.privileged,
	 duplicate_hash=excluded.duplicate_hash,
	 file_name=excluded.file_name
	RETURNING id
	`, f.Path, f.Directory, f.Category, formatDate(f.Date), f.Size, f.Privileged, f.DuplicateHash, f.FileName,
		f.Subject, f.FromEmail, f.ToEmail, f.Topic, f.IsInternal).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert file %s: %w", f.Path, err)
	}
	return id, nil
}

// Total returns the number of catalogued files.
func (r *FileRepo) Total(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n)
	return n, err
}

// buildWhere turns filters into a WHERE clause (without the keyword) and its
// arguments. Dates are compared as RFC3339 text, which sorts chronologically
// because every stored date is UTC.
func buildWhere(f FileFilters) (string, []interface{}) {
	where := []string{"1=1"}
	var args []interface{}
	if f.DateStart != nil {
		where = append(where, "date >= ?")
		args = append(args, formatDate(*f.DateStart))
	}
	if f.DateEnd != nil {
		where = append(where, "date <= ?")
		args = append(args, formatDate(*f.DateEnd))
	}
	if len(f.Categories) > 0 {
		where = append(where, "category IN ("+placeholders(len(f.Categories))+")")
		for _, c := range f.Categories {
			args = append(args, c)
		}
	}
	if f.ExcludePrivileged {
		where = append(where, "privileged = 0")
	}
	return strings.Join(where, " AND "), args
}

// Count returns how many files match f, ignoring pagination.
func (r *FileRepo) Count(ctx context.Context, f FileFilters) (int, error) {
	where, args := buildWhere(f)
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

// Search returns one page of files matching f, newest first.
func (r *FileRepo) Search(ctx context.Context, f FileFilters) (FileResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	total, err := r.Count(ctx, f)
	if err != nil {
		return FileResult{}, err
	}

	where, args := buildWhere(f)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	files, err := r.query(ctx, "SELECT "+fileColumns+" FROM files WHERE "+where+" ORDER BY date DESC, id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return FileResult{}, err
	}
	return FileResult{
		Files:      files,
		TotalCount: total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: (total + f.PageSize - 1) / f.PageSize,
	}, nil
}

// List returns every file matching f, newest first, without pagination.
func (r *FileRepo) List(ctx context.Context, f FileFilters) ([]File, error) {
	where, args := buildWhere(f)
	return r.query(ctx, "SELECT "+fileColumns+" FROM files WHERE "+where+" ORDER BY date DESC, id", args...)
}

// GetByIDs returns the files with the given ids in id order. Unknown ids are
// skipped; callers compare lengths when they need all of them.
func (r *FileRepo) GetByIDs(ctx context.Context, ids []int64) ([]File, error) {
	if len(ids) == 0 {
		return []File{}, nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.query(ctx, "SELECT "+fileColumns+" FROM files WHERE id IN ("+placeholders(len(ids))+") ORDER BY id", args...)
}

// CountByCategory returns the per-category totals for files matching f in
// display order. Categories without files are reported with a zero count.
func (r *FileRepo) CountByCategory(ctx context.Context, f FileFilters) ([]CategoryTotal, error) {
	f.Categories = nil
	where, args := buildWhere(f)
	rows, err := r.db.QueryContext(ctx, "SELECT category, COUNT(*) FROM files WHERE "+where+" GROUP BY category", args...)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[cat] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]CategoryTotal, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, CategoryTotal{Category: c, Count: counts[c]})
	}
	return out, nil
}

func (r *FileRepo) query(ctx context.Context, query string, args ...interface{}) ([]File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()
	var out []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row scanner) (File, error) {
	var f File
	var date string
	var subject, from, to, topic sql.NullString
	if err := row.Scan(&f.ID, &f.Path, &f.Directory, &f.Category, &date, &f.Size, &f.Privileged,
		&f.DuplicateHash, &f.FileName, &subject, &from, &to, &topic, &f.IsInternal); err != nil {
		return File{}, fmt.Errorf("scan file: %w", err)
	}
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return File{}, fmt.Errorf("parse date of file %d: %w", f.ID, err)
	}
	f.Date = t
	f.Subject = nullable(subject)
	f.FromEmail = nullable(from)
	f.ToEmail = nullable(to)
	f.Topic = nullable(topic)
	return f, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
