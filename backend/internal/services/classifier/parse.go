package classifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

type rawVerdict struct {
	IsSafe    *bool  `json:"isSafe"`
	IsHarmful *bool  `json:"is_harmful"`
	Reason    string `json:"reason"`
}

// parseVerdict pulls the outermost {...} block out of a free-form model reply
// (code fences and chatter around it are ignored) and decodes it.
func parseVerdict(reply string) (Verdict, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return Verdict{}, fmt.Errorf("no json object in classifier reply: %w", ErrUnavailable)
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return Verdict{}, fmt.Errorf("decode classifier reply: %v: %w", err, ErrUnavailable)
	}

	v := Verdict{Reason: strings.TrimSpace(raw.Reason)}
	switch {
	case raw.IsSafe != nil:
		v.Judged = true
		v.Safe = *raw.IsSafe
	case raw.IsHarmful != nil:
		v.Judged = true
		v.Safe = !*raw.IsHarmful
	}
	return v, nil
}
