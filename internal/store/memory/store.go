package memory

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"bqm/dashboard-service/internal/models"
	"bqm/dashboard-service/internal/store"

	"github.com/google/uuid"
)

// Store keeps every collection in memory, seeded from JSON fixtures. Role
// and role-request mutations live for the process lifetime only; durable
// storage is the postgres store's job.
type Store struct {
	mu       sync.Mutex
	roles    []models.Role
	requests []models.RoleRequest
	staff    []models.StaffMember
	branches []models.Branch
	users    []models.User
	events   []store.QueueEvent
	lastID   int64
}

func NewStore() *Store {
	s := &Store{}
	s.seedDefaults()
	return s
}

// LoadFixtures replaces seeded collections with the JSON documents found in
// dir. Missing or unreadable files keep the defaults.
func (s *Store) LoadFixtures(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loadFile(filepath.Join(dir, "roles.json"), &s.roles)
	loadFile(filepath.Join(dir, "staff.json"), &s.staff)
	loadFile(filepath.Join(dir, "branches.json"), &s.branches)
	loadFile(filepath.Join(dir, "users.json"), &s.users)
	for _, role := range s.roles {
		if id, err := strconv.ParseInt(role.ID, 10, 64); err == nil && id > s.lastID {
			s.lastID = id
		}
	}
}

func loadFile(path string, target interface{}) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, target); err != nil {
		log.Printf("fixture load error path=%s: %v", path, err)
	}
}

func (s *Store) ListRoles(ctx context.Context) ([]models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roles := make([]models.Role, len(s.roles))
	copy(roles, s.roles)
	return roles, nil
}

func (s *Store) GetRole(ctx context.Context, roleID string) (models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, role := range s.roles {
		if role.ID == roleID {
			return role, nil
		}
	}
	return models.Role{}, store.ErrRoleNotFound
}

func (s *Store) CreateRole(ctx context.Context, input store.CreateRoleInput) (models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role := models.Role{
		ID:          s.nextID(input.CreatedAt),
		Name:        input.Name,
		Type:        input.Type,
		Permissions: append([]string(nil), input.Permissions...),
		Description: input.Description,
		CreatedAt:   input.CreatedAt,
		UpdatedAt:   input.CreatedAt,
	}
	s.roles = append(s.roles, role)
	return role, nil
}

func (s *Store) UpdateRole(ctx context.Context, roleID string, patch store.RolePatch) (models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, role := range s.roles {
		if role.ID != roleID {
			continue
		}
		if patch.Name != nil {
			role.Name = *patch.Name
		}
		if patch.Type != nil {
			role.Type = *patch.Type
		}
		if patch.Permissions != nil {
			role.Permissions = append([]string(nil), (*patch.Permissions)...)
		}
		if patch.Description != nil {
			role.Description = *patch.Description
		}
		role.UpdatedAt = patch.UpdatedAt
		s.roles[i] = role
		return role, nil
	}
	return models.Role{}, store.ErrRoleNotFound
}

func (s *Store) DeleteRole(ctx context.Context, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, role := range s.roles {
		if role.ID != roleID {
			continue
		}
		if role.Type == models.RoleTypeGuest {
			return store.ErrGuestRoleProtected
		}
		s.roles = append(s.roles[:i], s.roles[i+1:]...)
		return nil
	}
	return store.ErrRoleNotFound
}

func (s *Store) ListRoleRequests(ctx context.Context, status string) ([]models.RoleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var requests []models.RoleRequest
	for _, request := range s.requests {
		if status != "" && request.Status != status {
			continue
		}
		requests = append(requests, request)
	}
	return requests, nil
}

func (s *Store) CreateRoleRequest(ctx context.Context, input store.CreateRoleRequestInput) (models.RoleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request := models.RoleRequest{
		ID:            s.nextID(input.RequestDate),
		UserID:        input.UserID,
		UserName:      input.UserName,
		UserEmail:     input.UserEmail,
		RequestedRole: input.RequestedRole,
		Status:        models.RequestStatusPending,
		RequestDate:   input.RequestDate,
	}
	s.requests = append(s.requests, request)
	return request, nil
}

func (s *Store) RespondRoleRequest(ctx context.Context, input store.RespondRoleRequestInput) (models.RoleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, request := range s.requests {
		if request.ID != input.RequestID {
			continue
		}
		// Re-responding to a resolved request overwrites the previous
		// decision; see the product note in DESIGN.md.
		request.Status = input.Status
		responseDate := input.ResponseDate
		request.ResponseDate = &responseDate
		request.RespondedBy = input.AdminID
		s.requests[i] = request
		return request, nil
	}
	return models.RoleRequest{}, store.ErrRequestNotFound
}

func (s *Store) ListStaff(ctx context.Context, query string) ([]models.StaffMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if query == "" {
		staff := make([]models.StaffMember, len(s.staff))
		copy(staff, s.staff)
		return staff, nil
	}
	needle := strings.ToLower(query)
	var matched []models.StaffMember
	for _, member := range s.staff {
		if matchesStaff(member, needle) {
			matched = append(matched, member)
		}
	}
	return matched, nil
}

// matchesStaff is an OR across fields: any single substring hit qualifies.
func matchesStaff(member models.StaffMember, needle string) bool {
	return strings.Contains(strings.ToLower(member.Name), needle) ||
		strings.Contains(strings.ToLower(member.Email), needle) ||
		strings.Contains(strings.ToLower(member.Role), needle) ||
		strings.Contains(strings.ToLower(member.Branch), needle)
}

func (s *Store) ListBranchManagers(ctx context.Context) ([]models.StaffMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var managers []models.StaffMember
	for _, member := range s.staff {
		if strings.EqualFold(member.Role, "branch manager") {
			managers = append(managers, member)
		}
	}
	return managers, nil
}

func (s *Store) ListBranches(ctx context.Context) ([]models.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	branches := make([]models.Branch, len(s.branches))
	copy(branches, s.branches)
	return branches, nil
}

func (s *Store) AppendQueueEvent(ctx context.Context, input store.QueueEventInput) (store.QueueEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event := store.QueueEvent{
		EventID:   uuid.NewString(),
		QueueID:   input.QueueID,
		Type:      input.Type,
		Payload:   input.Payload,
		CreatedAt: input.CreatedAt,
	}
	s.events = append(s.events, event)
	return event, nil
}

func (s *Store) ListQueueEvents(ctx context.Context, queueID string, after time.Time, limit int) ([]store.QueueEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []store.QueueEvent
	for _, event := range s.events {
		if queueID != "" && event.QueueID != queueID {
			continue
		}
		if !event.CreatedAt.After(after) {
			continue
		}
		events = append(events, event)
		if len(events) >= limit {
			break
		}
	}
	return events, nil
}

func (s *Store) GetUserByToken(ctx context.Context, token string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Token != "" && user.Token == token {
			return user, nil
		}
	}
	return models.User{}, store.ErrUserNotFound
}

// nextID derives ids from wall-clock milliseconds and stays strictly
// monotonic within the process even when two creations share a millisecond.
func (s *Store) nextID(now time.Time) string {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}
