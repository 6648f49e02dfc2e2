package model

import (
	"errors"
	"time"
)

var ErrRecordInconsistent = errors.New("moderation record is inconsistent")

// ModerationRecord is the strike and suspension state kept on a user's profile row.
type ModerationRecord struct {
	UserID            string     `json:"user_id"`
	IsBanned          bool       `json:"is_banned"`
	SuspendedUntil    *time.Time `json:"suspended_until"`
	ViolationCount    int        `json:"violation_count"`
	FirstViolationAt  *time.Time `json:"first_violation_at"`
	SuspensionCount   int        `json:"suspension_count"`
	FirstSuspensionAt *time.Time `json:"first_suspension_at"`
}

// Validate checks the at-rest invariants. violationLimit and suspensionLimit bound the counters.
func (r ModerationRecord) Validate(violationLimit, suspensionLimit int) error {
	switch {
	case r.IsBanned && r.SuspendedUntil != nil:
		return errors.Join(ErrRecordInconsistent, errors.New("banned record carries suspended_until"))
	case (r.ViolationCount > 0) != (r.FirstViolationAt != nil):
		return errors.Join(ErrRecordInconsistent, errors.New("violation_count and first_violation_at disagree"))
	case (r.SuspensionCount > 0) != (r.FirstSuspensionAt != nil):
		return errors.Join(ErrRecordInconsistent, errors.New("suspension_count and first_suspension_at disagree"))
	case r.ViolationCount < 0 || (violationLimit > 0 && r.ViolationCount >= violationLimit):
		return errors.Join(ErrRecordInconsistent, errors.New("violation_count out of range"))
	case r.SuspensionCount < 0 || (suspensionLimit > 0 && r.SuspensionCount > suspensionLimit):
		return errors.Join(ErrRecordInconsistent, errors.New("suspension_count out of range"))
	}
	return nil
}

func (r ModerationRecord) Clone() ModerationRecord {
	out := r
	out.SuspendedUntil = cloneTime(r.SuspendedUntil)
	out.FirstViolationAt = cloneTime(r.FirstViolationAt)
	out.FirstSuspensionAt = cloneTime(r.FirstSuspensionAt)
	return out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}
