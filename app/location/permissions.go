package location

import (
	"context"
	"sync"
)

// StaticPermissions answers permission prompts from configuration. The
// first Request moves an undetermined status to granted or denied.
type StaticPermissions struct {
	allow  bool
	mu     sync.Mutex
	status PermissionStatus
}

func NewStaticPermissions(allow bool) *StaticPermissions {
	return &StaticPermissions{allow: allow, status: PermissionUndetermined}
}

func (p *StaticPermissions) Status(ctx context.Context) (PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, nil
}

func (p *StaticPermissions) Request(ctx context.Context) (PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status == PermissionUndetermined {
		if p.allow {
			p.status = PermissionGranted
		} else {
			p.status = PermissionDenied
		}
	}
	return p.status, nil
}
