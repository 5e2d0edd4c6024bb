package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/docbase/internal/domain"
)

// ListUsersRequest holds the optional equality filters of GET /users and
// GET /users/export.
type ListUsersRequest struct {
	Email  string `form:"email" binding:"omitempty,email"`
	Status string `form:"status" binding:"omitempty,oneof=active inactive banned"`
}

// Filter converts the request into a domain.UserFilter.
func (r ListUsersRequest) Filter() domain.UserFilter {
	return domain.UserFilter{Email: r.Email, Status: domain.UserStatus(r.Status)}
}

// CreateUserRequest represents the input for creating a new user.
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email,max=255" example:"jane@example.com"`
	Password  string `json:"password" binding:"required,min=8,max=72" example:"correct-horse"`
	FirstName string `json:"first_name" binding:"required,max=100" example:"Jane"`
	LastName  string `json:"last_name" binding:"omitempty,max=100" example:"Doe"`
}

// UpdateUserRequest represents a partial update; omitted fields are unchanged.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Status    *string `json:"status" binding:"omitempty,oneof=active inactive banned" enums:"active,inactive,banned"`
}

// Input converts the request into a domain.UpdateUserInput.
func (r UpdateUserRequest) Input() domain.UpdateUserInput {
	in := domain.UpdateUserInput{FirstName: r.FirstName, LastName: r.LastName}
	if r.Status != nil {
		status := domain.UserStatus(*r.Status)
		in.Status = &status
	}
	return in
}

// UserResponse is the public representation of a user. The password hash
// never leaves the service.
type UserResponse struct {
	ID        string `json:"id" validate:"required" example:"0b7e9a52-1f0c-4c55-9f5e-3f1d2f5c8a10"`
	Email     string `json:"email" validate:"required,email" example:"jane@example.com"`
	FirstName string `json:"first_name" validate:"required" example:"Jane"`
	LastName  string `json:"last_name" example:"Doe"`
	FullName  string `json:"full_name" validate:"required" example:"Jane Doe"`
	Status    string `json:"status" validate:"required,oneof=active inactive banned" enums:"active,inactive,banned" example:"active"`
}

var responseValidator = validator.New(validator.WithRequiredStructEnabled())

// ToUserResponse maps u to its public shape and validates the result. A user
// that fails validation is reported as an internal error, since stored data
// should always be presentable.
func ToUserResponse(u *domain.User) (UserResponse, error) {
	if u == nil {
		return UserResponse{}, domain.NewAppError(domain.CodeInternal, "user is nil", nil)
	}

	resp := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Status:    string(u.Status),
	}
	if err := responseValidator.Struct(resp); err != nil {
		return UserResponse{}, domain.NewAppError(domain.CodeInternal, "invalid user response", err)
	}
	return resp, nil
}

// ToUserResponses maps users in order. It fails on the first invalid user.
func ToUserResponses(users []domain.User) ([]UserResponse, error) {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		resp, err := ToUserResponse(&users[i])
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}
