package repository

import (
	"context"
	"fmt"
)

// Topics returns the distinct non-empty topics of email files matching f,
// sorted. f.Categories is ignored.
func (r *FileRepo) Topics(ctx context.Context, f FileFilters) ([]string, error) {
	f.Categories = []string{CategoryEmail}
	where, args := buildWhere(f)
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT topic FROM files WHERE "+where+" AND topic IS NOT NULL AND topic != '' ORDER BY topic", args...)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()
	topics := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// People returns the sender and recipient addresses of email files matching
// f, split by the precomputed is_internal flag. An address seen on both kinds
// of email appears in both lists. f.Categories is ignored.
func (r *FileRepo) People(ctx context.Context, f FileFilters) (People, error) {
	f.Categories = []string{CategoryEmail}
	internal, err := r.addresses(ctx, f, true)
	if err != nil {
		return People{}, err
	}
	external, err := r.addresses(ctx, f, false)
	if err != nil {
		return People{}, err
	}
	seen := make(map[string]bool, len(internal)+len(external))
	all := make([]string, 0, len(internal)+len(external))
	for _, list := range [][]string{internal, external} {
		for _, a := range list {
			if !seen[a] {
				seen[a] = true
				all = append(all, a)
			}
		}
	}
	return People{Internal: internal, External: external, All: all}, nil
}

func (r *FileRepo) addresses(ctx context.Context, f FileFilters, internal bool) ([]string, error) {
	where, args := buildWhere(f)
	query := "SELECT from_email FROM files WHERE " + where + " AND is_internal = ? AND from_email IS NOT NULL AND from_email != ''" +
		" UNION SELECT to_email FROM files WHERE " + where + " AND is_internal = ? AND to_email IS NOT NULL AND to_email != ''" +
		" ORDER BY 1"
	all := make([]interface{}, 0, 2*len(args)+2)
	all = append(all, args...)
	all = append(all, internal)
	all = append(all, args...)
	all = append(all, internal)

	rows, err := r.db.QueryContext(ctx, query, all...)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Reduction counts the catalog, then adds the filters of f one at a time
// (categories, date range, privilege exclusion) and records the count after
// each. Filters f does not set contribute no step. Pagination is ignored.
func (r *FileRepo) Reduction(ctx context.Context, f FileFilters) (Reduction, error) {
	initial, err := r.Total(ctx)
	if err != nil {
		return Reduction{}, fmt.Errorf("count files: %w", err)
	}
	red := Reduction{Initial: initial, Steps: []ReductionStep{}}

	var applied FileFilters
	current := initial
	step := func(name string) error {
		n, err := r.Count(ctx, applied)
		if err != nil {
			return fmt.Errorf("%s step: %w", name, err)
		}
		red.Steps = append(red.Steps, ReductionStep{Name: name, Before: current, After: n, Reduction: ratio(current, n)})
		current = n
		return nil
	}

	if len(f.Categories) > 0 {
		applied.Categories = f.Categories
		if err := step(StepCategory); err != nil {
			return Reduction{}, err
		}
	}
	if f.DateStart != nil || f.DateEnd != nil {
		applied.DateStart, applied.DateEnd = f.DateStart, f.DateEnd
		if err := step(StepDateRange); err != nil {
			return Reduction{}, err
		}
	}
	if f.ExcludePrivileged {
		applied.ExcludePrivileged = true
		if err := step(StepPrivileged); err != nil {
			return Reduction{}, err
		}
	}
	red.Final = current
	red.Total = ratio(initial, current)
	return red, nil
}

func ratio(before, after int) float64 {
	if before == 0 {
		return 0
	}
	return float64(before-after) / float64(before)
}
