package database

import (
	"time"
)

// TimestampLayout matches the millisecond ISO-8601 form entries are stamped with,
// e.g. 2024-05-01T09:00:00.000Z. Range queries compare these strings directly.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// canonicalTimestamp rewrites a validated RFC 3339 value into TimestampLayout
// in UTC. Precision beyond milliseconds is truncated.
func canonicalTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return FormatTimestamp(t)
}

type Survey struct {
	ID             int64    `json:"id"`
	Timestamp      string   `json:"timestamp"`
	SentimentScore int      `json:"sentiment_score"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

func (s Survey) HasLocation() bool {
	return s.Latitude != nil && s.Longitude != nil
}

type Vlog struct {
	ID        int64    `json:"id"`
	Timestamp string   `json:"timestamp"`
	VideoURI  string   `json:"video_uri"` // owned by the entry; not removed on delete
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (v Vlog) HasLocation() bool {
	return v.Latitude != nil && v.Longitude != nil
}
