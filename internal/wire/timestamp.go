package wire

import "time"

// Timestamp is the remote store's native temporal type.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

// FromTime converts t to a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// Time converts the timestamp back to a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

func timestampPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	ts := FromTime(*t)
	return &ts
}

func timePtr(ts *Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time()
	return &t
}

func timeOrZero(ts *Timestamp) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.Time()
}
