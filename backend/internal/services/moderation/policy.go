package moderation

import (
	"time"

	"github.com/kaze3114/castket/backend/internal/domain/rules"
)

// Policy is the runtime configuration shared by the gate, the escalator and the checks.
type Policy struct {
	rules.Policy

	// DisplayLocation renders suspension end times in user-facing messages.
	DisplayLocation *time.Location
	// FailOpenText lets text through when the classifier errors.
	FailOpenText bool
	// FailOpenImage lets images through when fetching or classifying them errors.
	FailOpenImage bool
}

func DefaultPolicy() Policy {
	return Policy{
		Policy:          rules.DefaultPolicy(),
		DisplayLocation: tokyo(),
		FailOpenText:    true,
		FailOpenImage:   false,
	}
}

func (p Policy) normalize() Policy {
	p.Policy = p.Policy.Normalize()
	if p.DisplayLocation == nil {
		p.DisplayLocation = tokyo()
	}
	return p
}

func tokyo() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}
