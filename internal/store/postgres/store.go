package postgres

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"bqm/dashboard-service/internal/models"
	"bqm/dashboard-service/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool   *pgxpool.Pool
	mu     sync.Mutex
	lastID int64
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ListRoles(ctx context.Context) ([]models.Role, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT role_id, name, type, permissions, description, created_at, updated_at
		FROM roles
		ORDER BY created_at ASC, role_id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Type, &role.Permissions, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *Store) GetRole(ctx context.Context, roleID string) (models.Role, error) {
	var role models.Role
	row := s.pool.QueryRow(ctx, `
		SELECT role_id, name, type, permissions, description, created_at, updated_at
		FROM roles
		WHERE role_id = $1
	`, roleID)
	if err := row.Scan(&role.ID, &role.Name, &role.Type, &role.Permissions, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Role{}, store.ErrRoleNotFound
		}
		return models.Role{}, err
	}
	return role, nil
}

func (s *Store) CreateRole(ctx context.Context, input store.CreateRoleInput) (models.Role, error) {
	role := models.Role{
		ID:          s.nextID(input.CreatedAt),
		Name:        input.Name,
		Type:        input.Type,
		Permissions: input.Permissions,
		Description: input.Description,
		CreatedAt:   input.CreatedAt,
		UpdatedAt:   input.CreatedAt,
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO roles (role_id, name, type, permissions, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, role.ID, role.Name, role.Type, role.Permissions, role.Description, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		return models.Role{}, err
	}
	return role, nil
}

func (s *Store) UpdateRole(ctx context.Context, roleID string, patch store.RolePatch) (models.Role, error) {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return models.Role{}, err
	}
	if patch.Name != nil {
		role.Name = *patch.Name
	}
	if patch.Type != nil {
		role.Type = *patch.Type
	}
	if patch.Permissions != nil {
		role.Permissions = *patch.Permissions
	}
	if patch.Description != nil {
		role.Description = *patch.Description
	}
	role.UpdatedAt = patch.UpdatedAt
	_, err = s.pool.Exec(ctx, `
		UPDATE roles
		SET name = $1, type = $2, permissions = $3, description = $4, updated_at = $5
		WHERE role_id = $6
	`, role.Name, role.Type, role.Permissions, role.Description, role.UpdatedAt, role.ID)
	if err != nil {
		return models.Role{}, err
	}
	return role, nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID string) error {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.Type == models.RoleTypeGuest {
		return store.ErrGuestRoleProtected
	}
	_, err = s.pool.Exec(ctx, `
		DELETE FROM roles
		WHERE role_id = $1
	`, roleID)
	return err
}

func (s *Store) ListRoleRequests(ctx context.Context, status string) ([]models.RoleRequest, error) {
	query := `
		SELECT request_id, user_id, user_name, user_email, requested_role, status, request_date, response_date, responded_by
		FROM role_requests
	`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY request_date ASC, request_id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.RoleRequest
	for rows.Next() {
		var request models.RoleRequest
		var respondedBy *string
		if err := rows.Scan(&request.ID, &request.UserID, &request.UserName, &request.UserEmail, &request.RequestedRole, &request.Status, &request.RequestDate, &request.ResponseDate, &respondedBy); err != nil {
			return nil, err
		}
		if respondedBy != nil {
			request.RespondedBy = *respondedBy
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *Store) CreateRoleRequest(ctx context.Context, input store.CreateRoleRequestInput) (models.RoleRequest, error) {
	request := models.RoleRequest{
		ID:            s.nextID(input.RequestDate),
		UserID:        input.UserID,
		UserName:      input.UserName,
		UserEmail:     input.UserEmail,
		RequestedRole: input.RequestedRole,
		Status:        models.RequestStatusPending,
		RequestDate:   input.RequestDate,
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO role_requests (request_id, user_id, user_name, user_email, requested_role, status, request_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, request.ID, request.UserID, request.UserName, request.UserEmail, request.RequestedRole, request.Status, request.RequestDate)
	if err != nil {
		return models.RoleRequest{}, err
	}
	return request, nil
}

func (s *Store) RespondRoleRequest(ctx context.Context, input store.RespondRoleRequestInput) (models.RoleRequest, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE role_requests
		SET status = $1, response_date = $2, responded_by = $3
		WHERE request_id = $4
	`, input.Status, input.ResponseDate, input.AdminID, input.RequestID)
	if err != nil {
		return models.RoleRequest{}, err
	}
	if tag.RowsAffected() == 0 {
		return models.RoleRequest{}, store.ErrRequestNotFound
	}

	var request models.RoleRequest
	var respondedBy *string
	row := s.pool.QueryRow(ctx, `
		SELECT request_id, user_id, user_name, user_email, requested_role, status, request_date, response_date, responded_by
		FROM role_requests
		WHERE request_id = $1
	`, input.RequestID)
	if err := row.Scan(&request.ID, &request.UserID, &request.UserName, &request.UserEmail, &request.RequestedRole, &request.Status, &request.RequestDate, &request.ResponseDate, &respondedBy); err != nil {
		return models.RoleRequest{}, err
	}
	if respondedBy != nil {
		request.RespondedBy = *respondedBy
	}
	return request, nil
}

func (s *Store) ListStaff(ctx context.Context, query string) ([]models.StaffMember, error) {
	sql := `
		SELECT staff_id, name, email, role, branch, status
		FROM staff_members
	`
	args := []interface{}{}
	if query != "" {
		sql += `
		WHERE name ILIKE $1 OR email ILIKE $1 OR role ILIKE $1 OR branch ILIKE $1`
		args = append(args, "%"+query+"%")
	}
	sql += `
		ORDER BY name ASC`
	return s.queryStaff(ctx, sql, args...)
}

func (s *Store) ListBranchManagers(ctx context.Context) ([]models.StaffMember, error) {
	return s.queryStaff(ctx, `
		SELECT staff_id, name, email, role, branch, status
		FROM staff_members
		WHERE LOWER(role) = 'branch manager'
		ORDER BY name ASC
	`)
}

func (s *Store) queryStaff(ctx context.Context, sql string, args ...interface{}) ([]models.StaffMember, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []models.StaffMember
	for rows.Next() {
		var member models.StaffMember
		if err := rows.Scan(&member.ID, &member.Name, &member.Email, &member.Role, &member.Branch, &member.Status); err != nil {
			return nil, err
		}
		staff = append(staff, member)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *Store) ListBranches(ctx context.Context) ([]models.Branch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT branch_id, name, address, phone, status
		FROM branches
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []models.Branch
	for rows.Next() {
		var branch models.Branch
		if err := rows.Scan(&branch.ID, &branch.Name, &branch.Address, &branch.Phone, &branch.Status); err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return branches, nil
}

func (s *Store) AppendQueueEvent(ctx context.Context, input store.QueueEventInput) (store.QueueEvent, error) {
	event := store.QueueEvent{
		EventID:   uuid.NewString(),
		QueueID:   input.QueueID,
		Type:      input.Type,
		Payload:   input.Payload,
		CreatedAt: input.CreatedAt,
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO queue_events (event_id, queue_id, type, payload_json, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.EventID, event.QueueID, event.Type, []byte(event.Payload), event.CreatedAt)
	if err != nil {
		return store.QueueEvent{}, err
	}
	return event, nil
}

func (s *Store) ListQueueEvents(ctx context.Context, queueID string, after time.Time, limit int) ([]store.QueueEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	sql := `
		SELECT event_id, queue_id, type, payload_json, created_at
		FROM queue_events
		WHERE created_at > $1
	`
	args := []interface{}{after}
	if queueID != "" {
		sql += ` AND queue_id = $2`
		args = append(args, queueID)
	}
	sql += ` ORDER BY created_at ASC LIMIT ` + strconv.Itoa(limit)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []store.QueueEvent
	for rows.Next() {
		var event store.QueueEvent
		var payload []byte
		if err := rows.Scan(&event.EventID, &event.QueueID, &event.Type, &payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.Payload = payload
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) GetUserByToken(ctx context.Context, token string) (models.User, error) {
	var user models.User
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, name, email, role
		FROM users
		WHERE api_token = $1
	`, token)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, store.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// nextID matches the memory store's id scheme so ids stay comparable across
// backends.
func (s *Store) nextID(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}
