package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"merlin/internal/models"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilters narrows audit log queries
type AuditFilters struct {
	UserID    *uuid.UUID
	Action    string
	Resource  string
	SortBy    string
	SortOrder string
}

var auditSortColumns = map[string]string{
	"id":         "id",
	"user_id":    "user_id",
	"action":     "action",
	"resource":   "resource",
	"created_at": "created_at",
}

// Create creates a new audit log entry
func (r *AuditRepository) Create(log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (user_id, user_email, action, resource, details, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query, log.UserID, log.UserEmail, log.Action, log.Resource, log.Details, log.IPAddress, log.UserAgent).
		Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	return nil
}

func buildAuditWhere(filters AuditFilters) (string, []any) {
	conditions := []string{}
	args := []any{}

	if filters.UserID != nil {
		args = append(args, *filters.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filters.Action != "" {
		args = append(args, filters.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}
	if filters.Resource != "" {
		args = append(args, filters.Resource)
		conditions = append(conditions, fmt.Sprintf("resource = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// CountWithFilters counts audit logs matching the filters
func (r *AuditRepository) CountWithFilters(filters AuditFilters) (int, error) {
	where, args := buildAuditWhere(filters)

	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	return count, nil
}

// GetAllWithFilters retrieves a page of audit logs matching the filters
func (r *AuditRepository) GetAllWithFilters(filters AuditFilters, limit, offset int) ([]models.AuditLog, error) {
	where, args := buildAuditWhere(filters)

	// Only whitelisted columns reach the ORDER BY clause.
	sortColumn, ok := auditSortColumns[filters.SortBy]
	if !ok {
		sortColumn = "created_at"
	}
	sortOrder := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT id, user_id, user_email, action, resource, details, ip_address, user_agent, created_at
		 FROM audit_logs%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		where, sortColumn, sortOrder, len(args)-1, len(args),
	)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		var log models.AuditLog
		err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.UserEmail,
			&log.Action,
			&log.Resource,
			&log.Details,
			&log.IPAddress,
			&log.UserAgent,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}
