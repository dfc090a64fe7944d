package types

import "fmt"

// Partner identifies who owns, created or authored something.
type Partner string

const (
	Partner1 Partner = "partner1"
	Partner2 Partner = "partner2"
	Both     Partner = "both"
)

// Partners lists every valid partner tag in display order.
var Partners = []Partner{Partner1, Partner2, Both}

// IsValid reports whether p is one of the closed set of partner tags.
func (p Partner) IsValid() bool {
	switch p {
	case Partner1, Partner2, Both:
		return true
	}
	return false
}

// Label returns the display name used by the original app.
func (p Partner) Label() string {
	switch p {
	case Partner1:
		return "Doree"
	case Partner2:
		return "Nobuu"
	case Both:
		return "Both"
	default:
		return string(p)
	}
}

// Icon returns the emoji shown next to the partner label.
func (p Partner) Icon() string {
	switch p {
	case Partner1:
		return "👨"
	case Partner2:
		return "👩"
	default:
		return "💑"
	}
}

// ParsePartner accepts a tag or a display name (case-sensitive tags,
// display names as shown by Label).
func ParsePartner(s string) (Partner, error) {
	p := Partner(s)
	if p.IsValid() {
		return p, nil
	}
	for _, candidate := range Partners {
		if candidate.Label() == s {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid partner %q (want partner1, partner2 or both)", s)
}
