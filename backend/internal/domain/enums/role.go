package enums

import "strings"

type Role string

const (
	RoleOrganizer    Role = "Organizer"
	RoleCast         Role = "Cast"
	RoleStaff        Role = "Staff"
	RoleDJ           Role = "DJ"
	RolePerformer    Role = "Performer"
	RolePhotographer Role = "Photographer"
	RoleCreator      Role = "Creator"
	RoleTech         Role = "Tech"
	RoleOther        Role = "Other"
)

var roleLabels = map[Role]string{
	RoleOrganizer:    "イベント主催",
	RoleCast:         "接客・キャスト",
	RoleStaff:        "運営スタッフ",
	RoleDJ:           "DJ",
	RolePerformer:    "パフォーマー",
	RolePhotographer: "カメラマン",
	RoleCreator:      "クリエイター",
	RoleTech:         "技術・ギミック",
	RoleOther:        "その他",
}

func ParseRole(raw string) (Role, bool) {
	role := Role(strings.TrimSpace(raw))
	_, ok := roleLabels[role]
	return role, ok
}

func (r Role) Label() string {
	return roleLabels[r]
}
