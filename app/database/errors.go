package database

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrStorageWrite = errors.New("storage write failed")
	ErrStorageRead  = errors.New("storage read failed")
	ErrNotFound     = errors.New("entry not found")
	ErrInvalidEntry = errors.New("invalid entry")
)

// StorageError reports a failed store operation. errors.Is matches both the
// kind (ErrStorageWrite or ErrStorageRead) and the underlying driver error.
type StorageError struct {
	Op   string
	Kind error
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func writeErr(op string, err error) error {
	return &StorageError{Op: op, Kind: ErrStorageWrite, Err: err}
}

func readErr(op string, err error) error {
	return &StorageError{Op: op, Kind: ErrStorageRead, Err: err}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidEntry, fmt.Sprintf(format, args...))
}

func validateTimestamp(ts string) error {
	if ts == "" {
		return invalid("timestamp is required")
	}
	if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
		return invalid("timestamp %q is not ISO-8601", ts)
	}
	return nil
}

func validateLocation(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return invalid("latitude and longitude must be both present or both absent")
	}
	if lat != nil && (*lat < -90 || *lat > 90) {
		return invalid("latitude %v out of range", *lat)
	}
	if lon != nil && (*lon < -180 || *lon > 180) {
		return invalid("longitude %v out of range", *lon)
	}
	return nil
}

func ValidateSurvey(s Survey) error {
	if s.SentimentScore < 1 || s.SentimentScore > 5 {
		return invalid("sentiment score %d must be between 1 and 5", s.SentimentScore)
	}
	if err := validateTimestamp(s.Timestamp); err != nil {
		return err
	}
	return validateLocation(s.Latitude, s.Longitude)
}

func ValidateVlog(v Vlog) error {
	if v.VideoURI == "" {
		return invalid("video URI is required")
	}
	if err := validateTimestamp(v.Timestamp); err != nil {
		return err
	}
	return validateLocation(v.Latitude, v.Longitude)
}
