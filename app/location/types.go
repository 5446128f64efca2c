package location

import (
	"context"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// Permissions is the foreground location permission gate.
type Permissions interface {
	Status(ctx context.Context) (PermissionStatus, error)
	Request(ctx context.Context) (PermissionStatus, error)
}

// Locator performs the actual position lookup once permission is granted.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}
