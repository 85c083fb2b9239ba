package users

import (
	"errors"
	"time"
)

const DefaultRole = "user"

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type User struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Role         string    `bson:"role"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Phone        string    `bson:"phone,omitempty"`
	Gender       string    `bson:"gender,omitempty"`
	DOB          string    `bson:"dob,omitempty"`
	Bio          string    `bson:"bio,omitempty"`
	Photo        string    `bson:"photo,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}

// Profile holds the fields a user may edit about themselves.
type Profile struct {
	Name   string `bson:"name" json:"name"`
	Phone  string `bson:"phone,omitempty" json:"phone"`
	Gender string `bson:"gender,omitempty" json:"gender"`
	DOB    string `bson:"dob,omitempty" json:"dob"`
	Bio    string `bson:"bio,omitempty" json:"bio"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Photo string `json:"photo,omitempty"`
}

type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Photo     string    `json:"photo,omitempty"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"createdAt"`
}

// UpdateProfileRequest merges into the stored profile: nil fields are left alone.
type UpdateProfileRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=80"`
	Phone  *string `json:"phone" binding:"omitempty,max=32"`
	Gender *string `json:"gender" binding:"omitempty,max=32"`
	DOB    *string `json:"dob" binding:"omitempty,datetime=2006-01-02"`
	Bio    *string `json:"bio" binding:"omitempty,max=500"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

func (u User) Response() UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Photo: u.Photo,
	}
}

func (u User) Profile() Profile {
	return Profile{Name: u.Name, Phone: u.Phone, Gender: u.Gender, DOB: u.DOB, Bio: u.Bio}
}

func (u User) ProfileResponse() ProfileResponse {
	return ProfileResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		Photo:     u.Photo,
		Profile:   u.Profile(),
		CreatedAt: u.CreatedAt,
	}
}

func (r UpdateProfileRequest) apply(p Profile) Profile {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if r.Gender != nil {
		p.Gender = *r.Gender
	}
	if r.DOB != nil {
		p.DOB = *r.DOB
	}
	if r.Bio != nil {
		p.Bio = *r.Bio
	}
	return p
}
