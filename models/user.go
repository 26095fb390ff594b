package models

import (
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/leebenson/conform"
)

// User represents a crew member or production-company user of the marketplace.
// Authentication is passwordless: magic-link email or OAuth.
type User struct {
	Model
	Fullname      string         `json:"fullname" binding:"required,min=2" conform:"trim"`
	Username      string         `json:"username" gorm:"unique" binding:"required,min=2" conform:"trim,lower"`
	Email         string         `json:"email" gorm:"unique;not null" binding:"required,email" conform:"trim,lower"`
	Headline      string         `json:"headline" conform:"trim"`
	Bio           string         `json:"bio" conform:"trim"`
	Department    string         `json:"department" conform:"trim"`
	Location      string         `json:"location" conform:"trim"`
	IsEmailActive bool           `json:"-"`
	IsSocial      bool           `json:"-"`
	IsBlocked     bool           `json:"is_blocked" gorm:"default:false"`
	Online        bool           `json:"online"`
	AvatarURL     string         `json:"avatar_url,omitempty"`
	ThumbNailURL  string         `json:"thumbnail_url,omitempty"`
	RoleID        uuid.UUID      `gorm:"type:uuid" json:"role_id"`
	Role          Role           `gorm:"foreignKey:RoleID" json:"role"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"-"`
}

// MagicLinkToken is a single-use login token. Only a bcrypt digest of the
// secret is stored; the mailed link carries "{id}.{secret}".
type MagicLinkToken struct {
	Model
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	Digest     string     `gorm:"not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at"`
}

// Blacklist holds revoked access tokens until they expire on their own.
type Blacklist struct {
	Model
	Email string `json:"email"`
	Token string `json:"token"`
}

type Notification struct {
	Model
	UserID  uint   `json:"user_id" gorm:"foreignKey:UserID"`
	Message string `json:"message"`
	IsRead  bool   `json:"is_read"`
}

type MagicLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type MagicLinkVerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

type GoogleAuthResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

type UserResponse struct {
	ID           uint   `json:"id"`
	Fullname     string `json:"fullname"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Headline     string `json:"headline"`
	Department   string `json:"department"`
	Location     string `json:"location"`
	ThumbNailURL string `json:"thumbnail_url,omitempty"`
	RoleName     string `json:"role_name"`
}

type LoginResponse struct {
	UserResponse
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type EditProfileRequest struct {
	Fullname   string `json:"fullname" conform:"trim"`
	Username   string `json:"username" conform:"trim,lower"`
	Headline   string `json:"headline" conform:"trim"`
	Bio        string `json:"bio" conform:"trim"`
	Department string `json:"department" conform:"trim"`
	Location   string `json:"location" conform:"trim"`
}

// ToResponse flattens a user row for API output.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Fullname:     u.Fullname,
		Username:     u.Username,
		Email:        u.Email,
		Headline:     u.Headline,
		Department:   u.Department,
		Location:     u.Location,
		ThumbNailURL: u.ThumbNailURL,
		RoleName:     u.Role.Name,
	}
}

func validateWhiteSpaces(data interface{}) error {
	return conform.Strings(data)
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans) + "; ")
		errs = append(errs, translatedErr)
	}
	return errs
}

// CleanInput trims and normalizes the conform-tagged fields of a payload.
func CleanInput(data interface{}) error {
	return validateWhiteSpaces(data)
}
