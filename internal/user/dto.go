// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email"    validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,password"`
}

// UpdateUserRequest fields are optional; a present but empty field is
// rejected by the uniqueness check rather than by the validator.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,username"`
	Email    *string `json:"email,omitempty"    validate:"omitempty,email,max=120"`
	Password *string `json:"password,omitempty" validate:"omitempty,password"`
}

type UserResponse struct {
	ID        int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedOn time.Time `json:"created_on"`
}

type RoleResponse struct {
	ID          int64     `json:"role_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AssignedOn  time.Time `json:"assigned_on"`
}

type LikedEntityResponse struct {
	EntityID   int64     `json:"entity_id"`
	EntityType string    `json:"type"`
	CreatedOn  time.Time `json:"created_on"`
	LikedOn    time.Time `json:"liked_on"`
}

func ToUserResponse(u *User, includeEmail bool) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedOn: u.CreatedOn,
	}
	if includeEmail {
		resp.Email = u.Email
	}
	return resp
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i], false))
	}
	return responses
}

func ToRoleResponseList(roles []Role) []RoleResponse {
	responses := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		responses = append(responses, RoleResponse(r))
	}
	return responses
}

func ToLikedEntityResponseList(likes []LikedEntity) []LikedEntityResponse {
	responses := make([]LikedEntityResponse, 0, len(likes))
	for _, l := range likes {
		responses = append(responses, LikedEntityResponse(l))
	}
	return responses
}
