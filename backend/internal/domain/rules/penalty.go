package rules

import (
	"time"

	"github.com/kaze3114/castket/backend/internal/domain/model"
)

const (
	DefaultViolationLimit     = 5
	DefaultViolationWindow    = 30 * time.Minute
	DefaultSuspensionLimit    = 3
	DefaultSuspensionWindow   = 30 * 24 * time.Hour
	DefaultSuspensionDuration = 24 * time.Hour
)

// Policy holds the strike thresholds and windows shared by the gate and the escalator.
type Policy struct {
	ViolationLimit     int
	ViolationWindow    time.Duration
	SuspensionLimit    int
	SuspensionWindow   time.Duration
	SuspensionDuration time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		ViolationLimit:     DefaultViolationLimit,
		ViolationWindow:    DefaultViolationWindow,
		SuspensionLimit:    DefaultSuspensionLimit,
		SuspensionWindow:   DefaultSuspensionWindow,
		SuspensionDuration: DefaultSuspensionDuration,
	}
}

// Normalize replaces non-positive fields with defaults.
func (p Policy) Normalize() Policy {
	def := DefaultPolicy()
	if p.ViolationLimit <= 0 {
		p.ViolationLimit = def.ViolationLimit
	}
	if p.ViolationWindow <= 0 {
		p.ViolationWindow = def.ViolationWindow
	}
	if p.SuspensionLimit <= 0 {
		p.SuspensionLimit = def.SuspensionLimit
	}
	if p.SuspensionWindow <= 0 {
		p.SuspensionWindow = def.SuspensionWindow
	}
	if p.SuspensionDuration <= 0 {
		p.SuspensionDuration = def.SuspensionDuration
	}
	return p
}

type Escalation struct {
	ViolationCountAfter int
	Suspended           bool
	Banned              bool
	// AlreadyBanned marks a strike that landed on a banned record and changed nothing.
	AlreadyBanned bool
}

func IsSuspended(rec model.ModerationRecord, now time.Time) bool {
	return rec.SuspendedUntil != nil && rec.SuspendedUntil.After(now)
}

func ViolationWindowExpired(rec model.ModerationRecord, now time.Time, p Policy) bool {
	return rec.FirstViolationAt != nil && now.Sub(*rec.FirstViolationAt) > p.ViolationWindow
}

func SuspensionWindowExpired(rec model.ModerationRecord, now time.Time, p Policy) bool {
	return rec.FirstSuspensionAt != nil && now.Sub(*rec.FirstSuspensionAt) > p.SuspensionWindow
}

// ResetExpiredWindows clears whichever windows have run out and reports which ones fired.
func ResetExpiredWindows(rec model.ModerationRecord, now time.Time, p Policy) (model.ModerationRecord, bool, bool) {
	out := rec.Clone()

	violationReset := ViolationWindowExpired(out, now, p)
	if violationReset {
		out.ViolationCount = 0
		out.FirstViolationAt = nil
	}

	suspensionReset := SuspensionWindowExpired(out, now, p)
	if suspensionReset {
		out.SuspensionCount = 0
		out.FirstSuspensionAt = nil
	}

	return out, violationReset, suspensionReset
}

// ApplyViolation records one strike and escalates to suspension or ban when thresholds are crossed.
// Windows must already be reset by the caller.
// A banned record is terminal and comes back unchanged.
func ApplyViolation(rec model.ModerationRecord, now time.Time, p Policy) (model.ModerationRecord, Escalation) {
	out := rec.Clone()
	if out.IsBanned {
		return out, Escalation{ViolationCountAfter: out.ViolationCount, AlreadyBanned: true}
	}
	now = now.UTC()

	out.ViolationCount++
	if out.ViolationCount == 1 {
		at := now
		out.FirstViolationAt = &at
	}
	countAfter := out.ViolationCount

	esc := Escalation{}
	if out.ViolationCount >= p.ViolationLimit {
		out.SuspensionCount++
		out.ViolationCount = 0
		out.FirstViolationAt = nil

		until := now.Add(p.SuspensionDuration)
		out.SuspendedUntil = &until
		esc.Suspended = true

		if out.SuspensionCount == 1 {
			at := now
			out.FirstSuspensionAt = &at
		}

		if out.SuspensionCount >= p.SuspensionLimit {
			out.IsBanned = true
			out.SuspendedUntil = nil
			esc.Suspended = false
			esc.Banned = true
		}
	}
	esc.ViolationCountAfter = countAfter

	return out, esc
}

// RemainingViolations is the number of further strikes allowed before a suspension.
func RemainingViolations(countAfter int, p Policy) int {
	left := p.ViolationLimit - countAfter
	if left < 0 {
		return 0
	}
	return left
}

// RemainingHours rounds the time left until `until` up to whole hours.
func RemainingHours(until, now time.Time) int {
	d := until.Sub(now)
	if d <= 0 {
		return 0
	}
	hours := int(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}
	return hours
}
