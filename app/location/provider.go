package location

import (
	"context"
	"log/slog"
)

// Provider returns best-effort coordinates. Capture must never fail because
// of location, so every failure is logged and reported as nil.
type Provider struct {
	permissions Permissions
	locator     Locator
}

func NewProvider(permissions Permissions, locator Locator) *Provider {
	return &Provider{permissions: permissions, locator: locator}
}

func (p *Provider) CurrentLocation(ctx context.Context) *Coordinates {
	if !p.ensurePermission(ctx) {
		slog.Debug("Location permission not granted")
		return nil
	}

	coords, err := p.locator.Locate(ctx)
	if err != nil {
		slog.Warn("Failed to get location", "error", err)
		return nil
	}

	slog.Debug("Location obtained", "latitude", coords.Latitude, "longitude", coords.Longitude)
	return &coords
}

func (p *Provider) ensurePermission(ctx context.Context) bool {
	status, err := p.permissions.Status(ctx)
	if err != nil {
		slog.Warn("Failed to check location permission", "error", err)
		return false
	}
	if status == PermissionGranted {
		return true
	}

	status, err = p.permissions.Request(ctx)
	if err != nil {
		slog.Warn("Failed to request location permission", "error", err)
		return false
	}
	return status == PermissionGranted
}
