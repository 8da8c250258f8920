package memory

import (
	"context"
	"testing"
	"time"

	"bqm/dashboard-service/internal/models"
	"bqm/dashboard-service/internal/store"
)

func TestCreateRoleStampsAndUniqueIDs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	seen := map[string]bool{}
	existing, _ := s.ListRoles(ctx)
	for _, role := range existing {
		seen[role.ID] = true
	}

	for i := 0; i < 5; i++ {
		role, err := s.CreateRole(ctx, store.CreateRoleInput{
			Name:        "Auditor",
			Type:        models.RoleTypeStaff,
			Permissions: []string{"view_reports"},
			CreatedAt:   now,
		})
		if err != nil {
			t.Fatalf("create role: %v", err)
		}
		if role.ID == "" || seen[role.ID] {
			t.Fatalf("expected fresh unique id, got %q", role.ID)
		}
		seen[role.ID] = true
		if !role.CreatedAt.Equal(role.UpdatedAt) {
			t.Fatalf("expected created_at == updated_at, got %v / %v", role.CreatedAt, role.UpdatedAt)
		}
		if role.Description != "" {
			t.Fatalf("expected empty description, got %q", role.Description)
		}
	}
}

func TestListRolesPreservesInsertionOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	first, _ := s.CreateRole(ctx, store.CreateRoleInput{Name: "A", Type: models.RoleTypeStaff, Permissions: []string{"x"}, CreatedAt: now})
	second, _ := s.CreateRole(ctx, store.CreateRoleInput{Name: "B", Type: models.RoleTypeStaff, Permissions: []string{"x"}, CreatedAt: now})

	roles, err := s.ListRoles(ctx)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) < 2 {
		t.Fatalf("expected at least 2 roles, got %d", len(roles))
	}
	if roles[len(roles)-2].ID != first.ID || roles[len(roles)-1].ID != second.ID {
		t.Fatalf("insertion order not preserved: %v", roles)
	}
}

func TestUpdateRoleShallowMerge(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	role, _ := s.CreateRole(ctx, store.CreateRoleInput{
		Name:        "Auditor",
		Type:        models.RoleTypeStaff,
		Permissions: []string{"view_reports"},
		Description: "reads reports",
		CreatedAt:   now,
	})

	name := "Senior Auditor"
	later := now.Add(time.Hour)
	updated, err := s.UpdateRole(ctx, role.ID, store.RolePatch{Name: &name, UpdatedAt: later})
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if updated.Name != "Senior Auditor" {
		t.Fatalf("expected patched name, got %q", updated.Name)
	}
	if updated.Type != role.Type || updated.Description != role.Description || len(updated.Permissions) != 1 {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(role.CreatedAt) || !updated.UpdatedAt.Equal(later) {
		t.Fatalf("timestamp handling wrong: %+v", updated)
	}
}

func TestUpdateRoleUnknownID(t *testing.T) {
	s := NewStore()
	name := "X"
	if _, err := s.UpdateRole(context.Background(), "nope", store.RolePatch{Name: &name}); err != store.ErrRoleNotFound {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestDeleteGuestRoleAlwaysRejected(t *testing.T) {
	s := NewStore()
	if err := s.DeleteRole(context.Background(), "1"); err != store.ErrGuestRoleProtected {
		t.Fatalf("expected ErrGuestRoleProtected, got %v", err)
	}
	if _, err := s.GetRole(context.Background(), "1"); err != nil {
		t.Fatalf("guest role must survive delete attempts: %v", err)
	}
}

func TestDeleteRole(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	if err := s.DeleteRole(ctx, "2"); err != nil {
		t.Fatalf("delete role: %v", err)
	}
	if _, err := s.GetRole(ctx, "2"); err != store.ErrRoleNotFound {
		t.Fatalf("expected role gone, got %v", err)
	}
	if err := s.DeleteRole(ctx, "2"); err != store.ErrRoleNotFound {
		t.Fatalf("expected ErrRoleNotFound on second delete, got %v", err)
	}
}

func TestRoleRequestLifecycle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

	request, err := s.CreateRoleRequest(ctx, store.CreateRoleRequestInput{
		UserID:        "u-9",
		UserName:      "Sam",
		UserEmail:     "sam@waitless.example",
		RequestedRole: models.RoleTypeStaff,
		RequestDate:   now,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if request.Status != models.RequestStatusPending {
		t.Fatalf("new request must start pending, got %q", request.Status)
	}

	responded, err := s.RespondRoleRequest(ctx, store.RespondRoleRequestInput{
		RequestID:    request.ID,
		Status:       models.RequestStatusApproved,
		AdminID:      "u-1",
		ResponseDate: now.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if responded.Status != models.RequestStatusApproved || responded.RespondedBy != "u-1" || responded.ResponseDate == nil {
		t.Fatalf("unexpected responded request: %+v", responded)
	}

	// Re-responding overwrites; there is deliberately no resolved-state guard.
	overwritten, err := s.RespondRoleRequest(ctx, store.RespondRoleRequestInput{
		RequestID:    request.ID,
		Status:       models.RequestStatusRejected,
		AdminID:      "u-2",
		ResponseDate: now.Add(2 * time.Minute),
	})
	if err != nil {
		t.Fatalf("re-respond: %v", err)
	}
	if overwritten.Status != models.RequestStatusRejected || overwritten.RespondedBy != "u-2" {
		t.Fatalf("expected overwrite, got %+v", overwritten)
	}
}

func TestListRoleRequestsStatusFilter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := s.CreateRoleRequest(ctx, store.CreateRoleRequestInput{
			UserID: "u", UserName: "n", UserEmail: "e", RequestedRole: models.RoleTypeStaff, RequestDate: now,
		}); err != nil {
			t.Fatalf("create request: %v", err)
		}
	}
	all, _ := s.ListRoleRequests(ctx, "")
	if _, err := s.RespondRoleRequest(ctx, store.RespondRoleRequestInput{
		RequestID: all[0].ID, Status: models.RequestStatusApproved, AdminID: "u-1", ResponseDate: now,
	}); err != nil {
		t.Fatalf("respond: %v", err)
	}

	pending, err := s.ListRoleRequests(ctx, models.RequestStatusPending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != len(all)-1 {
		t.Fatalf("expected %d pending, got %d", len(all)-1, len(pending))
	}
	for _, request := range pending {
		if request.Status != models.RequestStatusPending {
			t.Fatalf("non-pending request in filtered list: %+v", request)
		}
	}
}

func TestStaffSearchMatchesAnyField(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	// "riverside" appears only in branch fields.
	matched, err := s.ListStaff(ctx, "riverside")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("expected 2 riverside matches, got %d", len(matched))
	}
	for _, member := range matched {
		if member.Branch != "Riverside" {
			t.Fatalf("unexpected match: %+v", member)
		}
	}

	// "omar.haddad" appears in exactly one member's email and nowhere else.
	matched, err = s.ListStaff(ctx, "omar.haddad")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != "s-2" {
		t.Fatalf("expected only s-2, got %+v", matched)
	}

	if matched, _ := s.ListStaff(ctx, "zzz-no-match"); len(matched) != 0 {
		t.Fatalf("expected no matches, got %+v", matched)
	}
}

func TestListBranchManagersExactRoleMatch(t *testing.T) {
	s := NewStore()
	managers, err := s.ListBranchManagers(context.Background())
	if err != nil {
		t.Fatalf("list managers: %v", err)
	}
	if len(managers) != 2 {
		t.Fatalf("expected 2 managers, got %d", len(managers))
	}
	for _, member := range managers {
		if member.Role != "Branch Manager" {
			t.Fatalf("unexpected member: %+v", member)
		}
	}
}

func TestQueueEventsAfterAndLimit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if _, err := s.AppendQueueEvent(ctx, store.QueueEventInput{
			QueueID:   "q-1",
			Type:      "queue.update",
			Payload:   []byte(`{}`),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}
	if _, err := s.AppendQueueEvent(ctx, store.QueueEventInput{
		QueueID: "q-2", Type: "queue.update", Payload: []byte(`{}`), CreatedAt: base.Add(10 * time.Second),
	}); err != nil {
		t.Fatalf("append event: %v", err)
	}

	events, err := s.ListQueueEvents(ctx, "q-1", base.Add(time.Second), 2)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(events))
	}
	for _, event := range events {
		if event.QueueID != "q-1" || !event.CreatedAt.After(base.Add(time.Second)) {
			t.Fatalf("unexpected event: %+v", event)
		}
	}

	all, _ := s.ListQueueEvents(ctx, "", base.Add(-time.Second), 0)
	if len(all) != 6 {
		t.Fatalf("expected 6 events across queues, got %d", len(all))
	}
}

func TestMonotonicIDsWithinSameMillisecond(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	a, _ := s.CreateRole(ctx, store.CreateRoleInput{Name: "A", Type: models.RoleTypeStaff, Permissions: []string{"x"}, CreatedAt: now})
	b, _ := s.CreateRole(ctx, store.CreateRoleInput{Name: "B", Type: models.RoleTypeStaff, Permissions: []string{"x"}, CreatedAt: now})
	if a.ID == b.ID {
		t.Fatalf("ids must differ even within one millisecond: %q", a.ID)
	}
}

func TestGetUserByToken(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	user, err := s.GetUserByToken(ctx, "dev-admin-token")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if user.Role != "admin" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if _, err := s.GetUserByToken(ctx, "bogus"); err != store.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
