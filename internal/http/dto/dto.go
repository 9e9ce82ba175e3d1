// Package dto contains the request/response payloads of the dashboard API.
package dto

import (
	"time"

	"github.com/dropDatabas3/fieldtask/internal/activity"
	"github.com/dropDatabas3/fieldtask/internal/notify"
	"github.com/dropDatabas3/fieldtask/internal/session"
	"github.com/dropDatabas3/fieldtask/internal/tasks"
	"github.com/dropDatabas3/fieldtask/internal/team"
)

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CompletePasswordRequest is the body of POST /password/complete.
type CompletePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// UpdateProfileRequest is the body of PUT /api/me. Only display attributes:
// role and token are never editable through this endpoint.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// UserResponse is the authenticated user as exposed by the API. The raw
// token never leaves the process.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}

// NewUserResponse maps a session user to its API shape.
func NewUserResponse(u session.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Role:  u.Role.String(),
	}
}

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	AssigneeID  string    `json:"assignee_id,omitempty"`
	Deadline    time.Time `json:"deadline,omitempty"`
}

// UpdateTaskStatusRequest is the body of PATCH /api/tasks/{id}/status.
type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

// TaskListResponse wraps GET /api/tasks.
type TaskListResponse struct {
	Tasks []tasks.Task `json:"tasks"`
}

// AddMemberRequest is the body of POST /api/team.
type AddMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// TeamListResponse wraps GET /api/team.
type TeamListResponse struct {
	Members []team.Member `json:"members"`
}

// NotificationListResponse wraps GET /api/notifications.
type NotificationListResponse struct {
	Notifications []notify.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

// DashboardResponse is the aggregated stats payload of GET /api/dashboard.
type DashboardResponse struct {
	TasksNew            int              `json:"tasks_new"`
	TasksInProgress     int              `json:"tasks_in_progress"`
	TasksCompleted      int              `json:"tasks_completed"`
	TeamSize            int              `json:"team_size"`
	UnreadNotifications int              `json:"unread_notifications"`
	RecentActivity      []activity.Entry `json:"recent_activity"`
}
