package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PGRepo is the Postgres implementation of Repo.
type PGRepo struct {
	DB *sql.DB
}

// NewPGRepo constructs a PGRepo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

const entryColumns = `id, user_id, user_name, user_email, user_role, action, description, resource_id, ip_address, user_agent, success, error_message, created_at`

// Create appends one audit entry.
func (r *PGRepo) Create(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO audit_logs (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.DB.ExecContext(ctx, query,
		entry.ID,
		nullString(entry.UserID),
		entry.UserName,
		entry.UserEmail,
		entry.UserRole,
		string(entry.Action),
		entry.Description,
		nullString(entry.ResourceID),
		entry.IPAddress,
		entry.UserAgent,
		entry.Success,
		nullString(entry.ErrorMessage),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns entries matching the filter, newest first, plus the unpaged
// total.
func (r *PGRepo) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	where, args := buildWhere(filter)

	countQuery := `SELECT COUNT(*) FROM audit_logs` + where
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + entryColumns + ` FROM audit_logs` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, total, nil
}

// Stats aggregates totals per action within the filter.
func (r *PGRepo) Stats(ctx context.Context, filter ListFilter) (Stats, error) {
	where, args := buildWhere(filter)

	query := `SELECT action, success, COUNT(*) FROM audit_logs` + where + ` GROUP BY action, success`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return Stats{}, fmt.Errorf("audit stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{ByAction: make(map[Action]int)}
	for rows.Next() {
		var action string
		var success bool
		var count int
		if err := rows.Scan(&action, &success, &count); err != nil {
			return Stats{}, fmt.Errorf("scan audit stats: %w", err)
		}
		stats.Total += count
		stats.ByAction[Action(action)] += count
		if !success {
			stats.Failures += count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate audit stats: %w", err)
	}
	return stats, nil
}

func buildWhere(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.Action != "" {
		add("action = $%d", string(filter.Action))
	}
	if filter.Success != nil {
		add("success = $%d", *filter.Success)
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var entry Entry
	var userID, resourceID, errorMessage sql.NullString
	err := row.Scan(
		&entry.ID,
		&userID,
		&entry.UserName,
		&entry.UserEmail,
		&entry.UserRole,
		(*string)(&entry.Action),
		&entry.Description,
		&resourceID,
		&entry.IPAddress,
		&entry.UserAgent,
		&entry.Success,
		&errorMessage,
		&entry.CreatedAt,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("scan audit entry: %w", err)
	}
	entry.UserID = userID.String
	entry.ResourceID = resourceID.String
	entry.ErrorMessage = errorMessage.String
	return entry, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repo = (*PGRepo)(nil)
