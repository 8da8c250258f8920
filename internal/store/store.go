package store

import (
	"context"
	"encoding/json"
	"time"

	"bqm/dashboard-service/internal/models"
)

type CreateRoleInput struct {
	Name        string
	Type        string
	Permissions []string
	Description string
	CreatedAt   time.Time
}

// RolePatch carries a shallow merge: nil fields leave the stored value
// untouched.
type RolePatch struct {
	Name        *string
	Type        *string
	Permissions *[]string
	Description *string
	UpdatedAt   time.Time
}

type CreateRoleRequestInput struct {
	UserID        string
	UserName      string
	UserEmail     string
	RequestedRole string
	RequestDate   time.Time
}

type RespondRoleRequestInput struct {
	RequestID    string
	Status       string
	AdminID      string
	ResponseDate time.Time
}

type QueueEventInput struct {
	QueueID   string
	Type      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

type QueueEvent struct {
	EventID   string          `json:"event_id"`
	QueueID   string          `json:"queue_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type Store interface {
	ListRoles(ctx context.Context) ([]models.Role, error)
	GetRole(ctx context.Context, roleID string) (models.Role, error)
	CreateRole(ctx context.Context, input CreateRoleInput) (models.Role, error)
	UpdateRole(ctx context.Context, roleID string, patch RolePatch) (models.Role, error)
	DeleteRole(ctx context.Context, roleID string) error

	ListRoleRequests(ctx context.Context, status string) ([]models.RoleRequest, error)
	CreateRoleRequest(ctx context.Context, input CreateRoleRequestInput) (models.RoleRequest, error)
	RespondRoleRequest(ctx context.Context, input RespondRoleRequestInput) (models.RoleRequest, error)

	ListStaff(ctx context.Context, query string) ([]models.StaffMember, error)
	ListBranchManagers(ctx context.Context) ([]models.StaffMember, error)

	ListBranches(ctx context.Context) ([]models.Branch, error)

	AppendQueueEvent(ctx context.Context, input QueueEventInput) (QueueEvent, error)
	ListQueueEvents(ctx context.Context, queueID string, after time.Time, limit int) ([]QueueEvent, error)

	GetUserByToken(ctx context.Context, token string) (models.User, error)
}
