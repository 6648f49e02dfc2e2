package model

import (
	"time"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
)

type Profile struct {
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Role        enums.Role `json:"role"`
	SubRole1    enums.Role `json:"sub_role_1"`
	SubRole2    enums.Role `json:"sub_role_2"`
	PlayStyle   string     `json:"play_style"`
	Bio         string     `json:"bio"`
	AvatarURL   string     `json:"avatar_url"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
