package moderation

import (
	"fmt"
	"strings"
	"time"

	"github.com/kaze3114/castket/backend/internal/domain/rules"
)

type DenialReason string

const (
	DenialBanned            DenialReason = "BANNED"
	DenialSuspended         DenialReason = "SUSPENDED"
	DenialUnsafeContent     DenialReason = "UNSAFE_CONTENT"
	DenialUnjudged          DenialReason = "UNJUDGED"
	DenialClassifierFailure DenialReason = "CLASSIFIER_FAILURE"
	DenialNotConfigured     DenialReason = "NOT_CONFIGURED"
)

// IsRestriction reports whether the denial comes from the account state rather
// than from the submitted content.
func (r DenialReason) IsRestriction() bool {
	return r == DenialBanned || r == DenialSuspended
}

const (
	msgBanned           = "あなたのアカウントは永久停止されています。"
	msgSuspended        = "アカウントは一時凍結されています。\n解除予定: %s\nあと約 %d 時間です。"
	msgNewBan           = "違反が重なったため、アカウントが永久停止されました。"
	msgNewSuspension    = "短時間に違反が集中したため、%d時間の利用制限がかかりました。"
	msgViolation        = "理由: %s"
	msgRemaining        = "\n\n⚠️ あと %d 回 違反すると、%d時間の利用制限がかかります。"
	msgSystemError      = "システムエラー"
	msgImageError       = "画像解析エラー"
	msgUnjudged         = "判定不能"
	msgDefaultViolation = "不適切な内容が含まれています"

	suspendedUntilLayout = "2006/01/02 15:04 (MST)"
)

func bannedMessage() string {
	return msgBanned
}

func suspendedMessage(until time.Time, remainingHours int, loc *time.Location) string {
	return fmt.Sprintf(msgSuspended, until.In(loc).Format(suspendedUntilLayout), remainingHours)
}

// ViolationMessage picks the message shown after a recorded strike: a new ban
// wins over a new suspension, which wins over the remaining-strikes warning.
func ViolationMessage(reason string, res EscalationResult, p Policy) string {
	p = p.normalize()
	switch {
	case res.AlreadyBanned:
		return bannedMessage()
	case res.Banned:
		return msgNewBan
	case res.Suspended:
		return fmt.Sprintf(msgNewSuspension, durationHours(p.SuspensionDuration))
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = msgDefaultViolation
	}
	remaining := rules.RemainingViolations(res.ViolationCountAfter, p.Policy)
	return fmt.Sprintf(msgViolation, reason) + fmt.Sprintf(msgRemaining, remaining, durationHours(p.SuspensionDuration))
}

func durationHours(d time.Duration) int {
	hours := int(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}
	return hours
}
