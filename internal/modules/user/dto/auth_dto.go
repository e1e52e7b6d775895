package dto

import (
	"time"

	"anoa.com/jobapp/internal/entity"
	"github.com/google/uuid"
)

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterInput struct {
	Username    string  `json:"username" form:"username" binding:"required,min=3,max=50"`
	Email       string  `json:"email" form:"email" binding:"required,email,max=100"`
	Password    string  `json:"password" form:"password" binding:"required,min=8,max=72"`
	Role        string  `json:"role" form:"role" binding:"required"`
	FirstName   *string `json:"first_name" form:"first_name" binding:"omitempty,max=100"`
	LastName    *string `json:"last_name" form:"last_name" binding:"omitempty,max=100"`
	CompanyName *string `json:"company_name" form:"company_name" binding:"omitempty,max=150"`
	Address     *string `json:"address" form:"address"`
	PhoneNumber *string `json:"phone_number" form:"phone_number" binding:"omitempty,max=30"`
}

type ChangePasswordInput struct {
	Username    string `json:"username" binding:"required"`
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

type ForgotPasswordInput struct {
	Email string `form:"email" json:"email" binding:"required,email"`
}

type UserResponse struct {
	ID          uuid.UUID   `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Role        entity.Role `json:"role"`
	FirstName   *string     `json:"first_name,omitempty"`
	LastName    *string     `json:"last_name,omitempty"`
	CompanyName *string     `json:"company_name,omitempty"`
	Address     *string     `json:"address,omitempty"`
	PhoneNumber *string     `json:"phone_number,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

type AuthResponse struct {
	Token       string        `json:"token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
	User        *UserResponse `json:"user"`
	SearchToken string        `json:"search_token,omitempty"`
}

func NewUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		CompanyName: u.CompanyName,
		Address:     u.Address,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
	}
}
