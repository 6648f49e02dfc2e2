package dto

import "time"

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	SubRole1    string `json:"sub_role_1"`
	SubRole2    string `json:"sub_role_2"`
	PlayStyle   string `json:"play_style"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
}

type ProfileResponse struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	RoleLabel   string    `json:"role_label"`
	SubRole1    string    `json:"sub_role_1,omitempty"`
	SubRole2    string    `json:"sub_role_2,omitempty"`
	PlayStyle   string    `json:"play_style"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}
