package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultAvatar is the avatar assigned to freshly created profiles
const DefaultAvatar = "profile_pics/default.jpg"

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:150;uniqueIndex"`
	Email       string    `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password    string    `json:"-"`                        // Store hashed password, ignore for JSON serialization
	IsStaff     bool      `json:"is_staff" gorm:"default:false"`
	FirebaseUID *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
	Profile     *Profile  `json:"profile,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile is the one-to-one extension of a user, created together with it
type Profile struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID uint   `json:"user_id" gorm:"uniqueIndex"`
	Bio    string `json:"bio" gorm:"size:500"`
	Avatar string `json:"avatar"`
}

// UserCompact is the author/sender representation embedded in other payloads
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

func (u *User) ToCompact() UserCompact {
	compact := UserCompact{ID: u.ID, Username: u.Username}
	if u.Profile != nil {
		compact.Avatar = u.Profile.Avatar
	}
	return compact
}

// PublicUser is what anyone may see of another user
type PublicUser struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Profile   *Profile  `json:"profile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToPublic() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Profile: u.Profile, CreatedAt: u.CreatedAt}
}

type SignupRequest struct {
	Username        string `json:"username" form:"username" validate:"required,max=150,username"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required,eqfield=Password"`
}

type SignInRequest struct {
	Login    string `json:"login" form:"login" validate:"required"` // username or email
	Password string `json:"password" form:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Email string  `json:"email,omitempty" form:"email" validate:"omitempty,email"`
	Bio   *string `json:"bio,omitempty" form:"bio" validate:"omitempty,max=500"`
}

type ChangePasswordRequest struct {
	OldPassword  string `json:"old_password" form:"old_password" validate:"required"`
	NewPassword1 string `json:"new_password1" form:"new_password1" validate:"required,min=8"`
	NewPassword2 string `json:"new_password2" form:"new_password2" validate:"required,eqfield=NewPassword1"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

// UserStats summarises a user's activity on their profile page
type UserStats struct {
	TotalPosts         int64 `json:"total_posts"`
	TotalLikesReceived int64 `json:"total_likes_received"`
	TotalCommentsMade  int64 `json:"total_comments_made"`
}

type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}
