package memory

import (
	"time"

	"bqm/dashboard-service/internal/models"
)

// seedDefaults mirrors the shipped fixture documents so the service works
// with no fixtures directory at all.
func (s *Store) seedDefaults() {
	seededAt := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	s.roles = []models.Role{
		{
			ID:          "1",
			Name:        "Guest",
			Type:        models.RoleTypeGuest,
			Permissions: []string{"view_queue"},
			Description: "Baseline role for unregistered users",
			CreatedAt:   seededAt,
			UpdatedAt:   seededAt,
		},
		{
			ID:          "2",
			Name:        "Staff",
			Type:        models.RoleTypeStaff,
			Permissions: []string{"view_queue", "serve_customers"},
			Description: "Counter staff",
			CreatedAt:   seededAt,
			UpdatedAt:   seededAt,
		},
		{
			ID:          "3",
			Name:        "Branch Manager",
			Type:        models.RoleTypeBranchManager,
			Permissions: []string{"view_queue", "serve_customers", "manage_staff"},
			Description: "Runs a single branch",
			CreatedAt:   seededAt,
			UpdatedAt:   seededAt,
		},
		{
			ID:          "4",
			Name:        "Admin",
			Type:        models.RoleTypeAdmin,
			Permissions: []string{"manage_roles", "manage_branches", "manage_staff"},
			Description: "Business owner",
			CreatedAt:   seededAt,
			UpdatedAt:   seededAt,
		},
	}
	s.lastID = 4
	s.staff = []models.StaffMember{
		{ID: "s-1", Name: "Sarah Mitchell", Email: "sarah.mitchell@waitless.example", Role: "Branch Manager", Branch: "Downtown", Status: "active"},
		{ID: "s-2", Name: "Omar Haddad", Email: "omar.haddad@waitless.example", Role: "Staff", Branch: "Downtown", Status: "active"},
		{ID: "s-3", Name: "Lina Park", Email: "lina.park@waitless.example", Role: "Staff", Branch: "Riverside", Status: "active"},
		{ID: "s-4", Name: "Diego Fuentes", Email: "diego.fuentes@waitless.example", Role: "Branch Manager", Branch: "Riverside", Status: "on_leave"},
	}
	s.branches = []models.Branch{
		{ID: "b-1", Name: "Downtown", Address: "12 Main St", Phone: "0555001122", Status: "open"},
		{ID: "b-2", Name: "Riverside", Address: "4 Quay Rd", Phone: "0555003344", Status: "open"},
	}
	s.users = []models.User{
		{ID: "u-1", Name: "Owner", Email: "owner@waitless.example", Role: "admin", Token: "dev-admin-token"},
	}
}
