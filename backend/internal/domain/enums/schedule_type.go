package enums

type ScheduleType string

const (
	ScheduleOneTime   ScheduleType = "one_time"
	ScheduleWeekly    ScheduleType = "weekly"
	ScheduleIrregular ScheduleType = "irregular"
)

func (s ScheduleType) Valid() bool {
	switch s {
	case ScheduleOneTime, ScheduleWeekly, ScheduleIrregular:
		return true
	default:
		return false
	}
}

var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var EventTags = []string{
	"音楽・ライブ",
	"雑談・交流",
	"ゲーム",
	"ロールプレイ",
	"技術・創作",
	"スキルアップ",
	"その他",
}
