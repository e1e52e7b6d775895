package dto

import userDto "anoa.com/jobapp/internal/modules/user/dto"

type CreateUserInput struct {
	Username    string  `json:"username" form:"username" binding:"required,min=3,max=50"`
	Email       string  `json:"email" form:"email" binding:"required,email,max=100"`
	Password    string  `json:"password" form:"password" binding:"required,min=8,max=72"`
	Role        string  `json:"role" form:"role" binding:"required"`
	FirstName   *string `json:"first_name" form:"first_name"`
	LastName    *string `json:"last_name" form:"last_name"`
	CompanyName *string `json:"company_name" form:"company_name"`
	Address     *string `json:"address" form:"address"`
	PhoneNumber *string `json:"phone_number" form:"phone_number"`
}

// UpdateAdminUserInput applies only the fields that are set. The role of an
// existing account cannot change.
type UpdateAdminUserInput struct {
	Username    string  `json:"username" form:"username" binding:"omitempty,min=3,max=50"`
	Email       string  `json:"email" form:"email" binding:"omitempty,email,max=100"`
	Password    string  `json:"password" form:"password" binding:"omitempty,min=8,max=72"`
	Role        string  `json:"role" form:"role"`
	FirstName   *string `json:"first_name" form:"first_name"`
	LastName    *string `json:"last_name" form:"last_name"`
	CompanyName *string `json:"company_name" form:"company_name"`
	Address     *string `json:"address" form:"address"`
	PhoneNumber *string `json:"phone_number" form:"phone_number"`
}

type AdminUserResponse = userDto.UserResponse

func (in CreateUserInput) RegisterInput() userDto.RegisterInput {
	return userDto.RegisterInput{
		Username:    in.Username,
		Email:       in.Email,
		Password:    in.Password,
		Role:        in.Role,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		CompanyName: in.CompanyName,
		Address:     in.Address,
		PhoneNumber: in.PhoneNumber,
	}
}
