package model

// User is the authenticated account identity returned by the backend.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id"`

	// Username is the login name.
	Username string `json:"username"`

	// Email is the account email address.
	Email string `json:"email"`

	// FullName is the display name shown in the UI.
	FullName string `json:"fullName"`

	// Role is the backend-assigned role (e.g., "user", "supervisor").
	Role string `json:"role"`

	// OrganizationID scopes the user to an organization.
	OrganizationID string `json:"organizationId"`
}

// AuthResponse is the payload returned by POST /auth/login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
