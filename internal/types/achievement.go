package types

import "time"

// Achievement is a catalog entry that unlocks once and stays unlocked.
type Achievement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Category    string     `json:"category"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
}

// Unlocked reports whether the achievement has been earned.
func (a *Achievement) Unlocked() bool {
	return a.UnlockedAt != nil
}

// Unlock stamps the achievement. It reports false if it was already unlocked.
func (a *Achievement) Unlock(now time.Time) bool {
	if a.UnlockedAt != nil {
		return false
	}
	t := now
	a.UnlockedAt = &t
	return true
}

// Clone returns a deep copy.
func (a *Achievement) Clone() Achievement {
	c := *a
	c.UnlockedAt = cloneTime(a.UnlockedAt)
	return c
}
