package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin  = "admin"
	RoleAuthor = "author"
	RoleUser   = "user"
)

// User represents authentication data
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password_hash"` // Never expose in JSON
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// Profile represents user profile data (separate from auth)
type Profile struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Name      string             `json:"name" bson:"name"`
	Username  string             `json:"username,omitempty" bson:"username,omitempty"`
	Avatar    string             `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Bio       string             `json:"bio,omitempty" bson:"bio,omitempty"`
	Website   string             `json:"website,omitempty" bson:"website,omitempty"`
	Role      string             `json:"role" bson:"role"`
	Settings  ProfileSettings    `json:"settings" bson:"settings"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// ProfileSettings holds user preferences
type ProfileSettings struct {
	Theme              string `json:"theme" bson:"theme"` // "dark", "light", "system"
	Language           string `json:"language" bson:"language"`
	EmailNotifications bool   `json:"email_notifications" bson:"email_notifications"`
	// DashboardRange is the preferred default time range of the analytics dashboard
	DashboardRange string `json:"dashboard_range,omitempty" bson:"dashboard_range,omitempty"`
}

// RegisterRequest is the request body for user registration
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the request body for user login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the response for register/login
type AuthResponse struct {
	User    UserResponse `json:"user"`
	Profile Profile      `json:"profile"`
	Token   string       `json:"token"`
}

// UserResponse is the public user data (without password)
type UserResponse struct {
	ID        primitive.ObjectID `json:"id"`
	Email     string             `json:"email"`
	CreatedAt time.Time          `json:"created_at"`
}

// UpdateProfileRequest is the request body for updating profile
type UpdateProfileRequest struct {
	Name     string         `json:"name,omitempty"`
	Username string         `json:"username,omitempty"`
	Avatar   string         `json:"avatar,omitempty"`
	Bio      string         `json:"bio,omitempty"`
	Website  string         `json:"website,omitempty"`
	Settings SettingsUpdate `json:"settings,omitempty"`
}

// SettingsUpdate is the partial form of ProfileSettings
type SettingsUpdate struct {
	Theme              string `json:"theme,omitempty"`
	Language           string `json:"language,omitempty"`
	EmailNotifications *bool  `json:"email_notifications,omitempty"`
	DashboardRange     string `json:"dashboard_range,omitempty"`
}

// UserListItem is one row of the admin user listing
type UserListItem struct {
	ID        primitive.ObjectID `json:"id"`
	Email     string             `json:"email"`
	Name      string             `json:"name"`
	Avatar    string             `json:"avatar,omitempty"`
	Role      string             `json:"role"`
	CreatedAt time.Time          `json:"created_at"`
}

// UserListResponse is the paginated admin user listing
type UserListResponse struct {
	Users []UserListItem `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// UpdateUserRoleRequest is the request body for changing a user's role
type UpdateUserRoleRequest struct {
	Role string `json:"role"`
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleAuthor || role == RoleUser
}

// HashPassword generates bcrypt hash from password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// CheckPassword compares password with hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ToResponse converts User to UserResponse (without password)
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
