// Package stats derives aggregate statistics and achievement unlocks from
// the adventure collection.
//
// Stats are never stored: Compute is a pure function of the records and
// the current time. The only persisted state is the achievement catalog,
// kept by a Tracker in the local store under local.KeyAchievements.
//
// # Streaks
//
// A streak counts consecutive calendar days (in the configured location)
// with at least one completed adventure. Several completions on the same
// day count once. The current streak must end today or yesterday; the
// longest streak may lie anywhere in the history.
package stats
