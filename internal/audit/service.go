// Package audit keeps a trail of administrative changes.
package audit

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/pcnexus-api/internal/common"
)

// Entry is one recorded admin request.
type Entry struct {
	ID           string    `json:"id"`
	ActorUserID  string    `json:"actorUserId,omitempty"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resourceType"`
	ResourceID   string    `json:"resourceId,omitempty"`
	Method       string    `json:"method"`
	Path         string    `json:"path"`
	Status       int       `json:"status"`
	IP           string    `json:"ip,omitempty"`
	RequestID    string    `json:"requestId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store persists entries.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	List(ctx context.Context, limit, offset int) ([]Entry, int64, error)
}

// Service builds entries from requests.
type Service struct {
	Store Store
	Now   func() time.Time
}

// Record stores an entry describing req and the status it produced.
func (s Service) Record(ctx context.Context, req *http.Request, resourceType, resourceID string, status int) error {
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}
	route := routePattern(req)
	if status == 0 {
		status = http.StatusOK
	}
	e := Entry{
		ID:           uuid.NewString(),
		Action:       req.Method + " " + route,
		ResourceType: resourceOf(resourceType, route),
		ResourceID:   strings.TrimSpace(resourceID),
		Method:       req.Method,
		Path:         req.URL.Path,
		Status:       status,
		IP:           common.ClientIP(req),
		RequestID:    strings.TrimSpace(req.Header.Get("X-Request-ID")),
		CreatedAt:    s.now(),
	}
	if uid, ok := common.UserID(req.Context()); ok {
		e.ActorUserID = uid
	}
	return s.Store.Insert(ctx, e)
}

// List returns one page of entries, newest first.
func (s Service) List(ctx context.Context, page, perPage int) ([]Entry, common.Pagination, error) {
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	entries, total, err := s.Store.List(ctx, perPage, common.Offset(page, perPage))
	if err != nil {
		return nil, common.Pagination{}, err
	}
	return entries, common.NewPagination(page, perPage, total), nil
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func routePattern(req *http.Request) string {
	if rc := chi.RouteContext(req.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return req.URL.Path
}

// resourceOf turns /api/v1/admin/orders/{number}/status into admin.orders.
func resourceOf(explicit, route string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	var parts []string
	for _, seg := range strings.Split(strings.Trim(route, "/"), "/") {
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		parts = append(parts, seg)
	}
	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "v1" {
		parts = parts[2:]
	}
	if len(parts) > 2 {
		parts = parts[:2]
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, ".")
}
