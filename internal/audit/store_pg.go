package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/pcnexus-api/internal/db"
)

// PGStore implements Store on the audit_logs table.
type PGStore struct {
	DB db.Querier
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s PGStore) Insert(ctx context.Context, e Entry) error {
	var actor *uuid.UUID
	if id, err := uuid.Parse(e.ActorUserID); err == nil {
		actor = &id
	}
	_, err := s.DB.Exec(ctx, `INSERT INTO audit_logs
		(id, actor_user_id, action, resource_type, resource_id, method, path, status, ip, request_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, actor, e.Action, e.ResourceType, nullable(e.ResourceID), e.Method, e.Path, e.Status,
		nullable(e.IP), nullable(e.RequestID), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s PGStore) List(ctx context.Context, limit, offset int) ([]Entry, int64, error) {
	var total int64
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM audit_logs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	rows, err := s.DB.Query(ctx, `SELECT id, actor_user_id, action, resource_type, coalesce(resource_id, ''),
		method, path, status, coalesce(ip, ''), coalesce(request_id, ''), created_at
		FROM audit_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		var (
			e     Entry
			id    uuid.UUID
			actor *uuid.UUID
		)
		if err := rows.Scan(&id, &actor, &e.Action, &e.ResourceType, &e.ResourceID,
			&e.Method, &e.Path, &e.Status, &e.IP, &e.RequestID, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		e.ID = id.String()
		if actor != nil {
			e.ActorUserID = actor.String()
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}
