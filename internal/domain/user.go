package domain

import "time"

// Role gates access to admin views.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is the application profile of a signed-in shopper.
// ID is the auth identity; DBID is the users-table key and may be absent when the
// profile lookup failed or timed out.
type User struct {
	ID        string     `json:"id"`
	DBID      *int64     `json:"db_id,omitempty"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Avatar    *string    `json:"avatar,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Address   *string    `json:"address,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserRecord is a row of the users table.
type UserRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      *string   `json:"role,omitempty"`
	Avatar    *string   `json:"avatar,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserMetadata is the free-form metadata attached to an auth identity at sign-up.
type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// AuthUser is the identity issued by the auth subsystem.
type AuthUser struct {
	ID       string       `json:"id"`
	Email    string       `json:"email"`
	Metadata UserMetadata `json:"user_metadata"`
}

// Session is an authenticated identity plus its access token.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        AuthUser  `json:"user"`
}

// AuthEventType names an auth-state transition.
type AuthEventType string

const (
	AuthSignedIn       AuthEventType = "SIGNED_IN"
	AuthSignedOut      AuthEventType = "SIGNED_OUT"
	AuthTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	AuthUserUpdated    AuthEventType = "USER_UPDATED"
)

// AuthEvent is delivered to subscribers on every auth-state transition.
// Session is nil when the transition left the client without a session.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}

// AuthIdentity is the credential record kept by the auth subsystem.
type AuthIdentity struct {
	ID           string
	Email        string
	PasswordHash string
	Metadata     UserMetadata
	CreatedAt    time.Time
}
