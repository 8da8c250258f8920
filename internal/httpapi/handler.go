package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bqm/dashboard-service/internal/models"
	"bqm/dashboard-service/internal/store"
)

type Handler struct {
	store store.Store
}

// envelope is the uniform response wrapper shared by every resource
// endpoint: {success, data, message}.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

func NewHandler(store store.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/roles", h.handleRoles)
	mux.HandleFunc("/api/roles/", h.handleRoleSubtree)
	mux.HandleFunc("/api/staff", h.handleStaff)
	mux.HandleFunc("/api/staff/branch-managers", h.handleBranchManagers)
	mux.HandleFunc("/api/branches", h.handleBranches)
	mux.HandleFunc("/api/queues/", h.handleQueueEvents)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleRoles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		roles, err := h.store.ListRoles(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if roles == nil {
			roles = []models.Role{}
		}
		writeSuccess(w, roles, "Roles retrieved successfully")
	case http.MethodPost:
		h.handleCreateRole(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type createRoleRequest struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Permissions []string `json:"permissions"`
	Description string   `json:"description"`
}

func (h *Handler) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.TrimSpace(req.Type)
	if req.Name == "" || req.Type == "" || len(req.Permissions) == 0 {
		writeFailure(w, http.StatusBadRequest, "Name, type and permissions are required")
		return
	}

	role, err := h.store.CreateRole(r.Context(), store.CreateRoleInput{
		Name:        req.Name,
		Type:        req.Type,
		Permissions: req.Permissions,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeSuccess(w, role, "Role created successfully")
}

func (h *Handler) handleRoleSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/roles/"), "/")
	if rest == "requests" {
		h.handleRoleRequests(w, r)
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.handleRole(w, r, rest)
}

func (h *Handler) handleRole(w http.ResponseWriter, r *http.Request, roleID string) {
	switch r.Method {
	case http.MethodGet:
		role, err := h.store.GetRole(r.Context(), roleID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeSuccess(w, role, "Role retrieved successfully")
	case http.MethodPut:
		h.handleUpdateRole(w, r, roleID)
	case http.MethodDelete:
		if err := h.store.DeleteRole(r.Context(), roleID); err != nil {
			writeStoreError(w, err)
			return
		}
		writeSuccess(w, nil, "Role deleted successfully")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type updateRoleRequest struct {
	Name        *string   `json:"name"`
	Type        *string   `json:"type"`
	Permissions *[]string `json:"permissions"`
	Description *string   `json:"description"`
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request, roleID string) {
	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	role, err := h.store.UpdateRole(r.Context(), roleID, store.RolePatch{
		Name:        req.Name,
		Type:        req.Type,
		Permissions: req.Permissions,
		Description: req.Description,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeSuccess(w, role, "Role updated successfully")
}

func (h *Handler) handleRoleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		status := strings.TrimSpace(r.URL.Query().Get("status"))
		requests, err := h.store.ListRoleRequests(r.Context(), status)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if requests == nil {
			requests = []models.RoleRequest{}
		}
		writeSuccess(w, requests, "Role requests retrieved successfully")
	case http.MethodPost:
		h.handleCreateRoleRequest(w, r)
	case http.MethodPut:
		h.handleRespondRoleRequest(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type createRoleRequestRequest struct {
	UserID        string `json:"userId"`
	UserName      string `json:"userName"`
	UserEmail     string `json:"userEmail"`
	RequestedRole string `json:"requestedRole"`
}

func (h *Handler) handleCreateRoleRequest(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.UserName = strings.TrimSpace(req.UserName)
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	req.RequestedRole = strings.TrimSpace(req.RequestedRole)
	if req.UserID == "" || req.UserName == "" || req.UserEmail == "" || req.RequestedRole == "" {
		writeFailure(w, http.StatusBadRequest, "userId, userName, userEmail and requestedRole are required")
		return
	}

	request, err := h.store.CreateRoleRequest(r.Context(), store.CreateRoleRequestInput{
		UserID:        req.UserID,
		UserName:      req.UserName,
		UserEmail:     req.UserEmail,
		RequestedRole: req.RequestedRole,
		RequestDate:   time.Now().UTC(),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeSuccess(w, request, "Role request created successfully")
}

type respondRoleRequestRequest struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
	AdminID   string `json:"adminId"`
}

func (h *Handler) handleRespondRoleRequest(w http.ResponseWriter, r *http.Request) {
	var req respondRoleRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	req.RequestID = strings.TrimSpace(req.RequestID)
	req.Status = strings.TrimSpace(req.Status)
	req.AdminID = strings.TrimSpace(req.AdminID)
	if req.RequestID == "" || req.Status == "" || req.AdminID == "" {
		writeFailure(w, http.StatusBadRequest, "requestId, status and adminId are required")
		return
	}
	if !models.ValidRequestStatus(req.Status) {
		writeFailure(w, http.StatusBadRequest, "Status must be pending, approved or rejected")
		return
	}

	request, err := h.store.RespondRoleRequest(r.Context(), store.RespondRoleRequestInput{
		RequestID:    req.RequestID,
		Status:       req.Status,
		AdminID:      req.AdminID,
		ResponseDate: time.Now().UTC(),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeSuccess(w, request, "Role request updated successfully")
}

func (h *Handler) handleStaff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	staff, err := h.store.ListStaff(r.Context(), query)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if staff == nil {
		staff = []models.StaffMember{}
	}
	writeSuccess(w, staff, "Staff retrieved successfully")
}

func (h *Handler) handleBranchManagers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	managers, err := h.store.ListBranchManagers(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if managers == nil {
		managers = []models.StaffMember{}
	}
	writeSuccess(w, managers, "Branch managers retrieved successfully")
}

func (h *Handler) handleBranches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	branches, err := h.store.ListBranches(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if branches == nil {
		branches = []models.Branch{}
	}
	writeSuccess(w, branches, "Branches retrieved successfully")
}

type publishEventRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func validEventType(value string) bool {
	switch value {
	case "queue.update", "customer.added", "customer.removed", "customer.status_changed":
		return true
	}
	return false
}

func (h *Handler) handleQueueEvents(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/queues/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[1] != "events" || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	queueID := parts[0]

	switch r.Method {
	case http.MethodPost:
		var req publishEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}
		if !validEventType(req.Type) {
			writeFailure(w, http.StatusBadRequest, "Unknown event type")
			return
		}
		if len(req.Payload) == 0 {
			writeFailure(w, http.StatusBadRequest, "Payload is required")
			return
		}
		event, err := h.store.AppendQueueEvent(r.Context(), store.QueueEventInput{
			QueueID:   queueID,
			Type:      req.Type,
			Payload:   req.Payload,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeSuccess(w, event, "Queue event published successfully")
	case http.MethodGet:
		var after time.Time
		if raw := strings.TrimSpace(r.URL.Query().Get("after")); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeFailure(w, http.StatusBadRequest, "after must be an RFC3339 timestamp")
				return
			}
			after = parsed
		}
		limit := 100
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeFailure(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = parsed
		}
		events, err := h.store.ListQueueEvents(r.Context(), queueID, after, limit)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if events == nil {
			events = []store.QueueEvent{}
		}
		writeSuccess(w, events, "Queue events retrieved successfully")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// writeStoreError maps sentinel store errors onto the envelope; anything
// unrecognized is logged and reported as a generic 500.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrRoleNotFound):
		writeFailure(w, http.StatusNotFound, "Role not found")
	case errors.Is(err, store.ErrGuestRoleProtected):
		writeFailure(w, http.StatusBadRequest, "Cannot delete the guest role")
	case errors.Is(err, store.ErrRequestNotFound):
		writeFailure(w, http.StatusNotFound, "Role request not found")
	default:
		log.Printf("store error: %v", err)
		writeFailure(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeSuccess(w http.ResponseWriter, data interface{}, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Message: message})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Data: nil, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
