package models

import "time"

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Permissions []string  `json:"permissions"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	RoleTypeGuest         = "guest"
	RoleTypeStaff         = "staff"
	RoleTypeBranchManager = "branch_manager"
	RoleTypeAdmin         = "admin"
)

func ValidRoleType(value string) bool {
	switch value {
	case RoleTypeGuest, RoleTypeStaff, RoleTypeBranchManager, RoleTypeAdmin:
		return true
	}
	return false
}

type RoleRequest struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	UserName      string     `json:"userName"`
	UserEmail     string     `json:"userEmail"`
	RequestedRole string     `json:"requestedRole"`
	Status        string     `json:"status"`
	RequestDate   time.Time  `json:"requestDate"`
	ResponseDate  *time.Time `json:"responseDate,omitempty"`
	RespondedBy   string     `json:"respondedBy,omitempty"`
}

const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

func ValidRequestStatus(value string) bool {
	switch value {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}
