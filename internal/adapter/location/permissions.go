package location

import (
	"context"
	"sync/atomic"
)

// Permissions stands in for the OS permission prompts. Grants can be
// flipped at runtime; revoking location ends running watches.
type Permissions struct {
	location      atomic.Bool
	notifications atomic.Bool
}

func NewPermissions(location, notifications bool) *Permissions {
	p := &Permissions{}
	p.location.Store(location)
	p.notifications.Store(notifications)
	return p
}

func (p *Permissions) RequestLocation(ctx context.Context) (bool, error) {
	return p.location.Load(), nil
}

func (p *Permissions) RequestNotifications(ctx context.Context) (bool, error) {
	return p.notifications.Load(), nil
}

func (p *Permissions) SetLocation(granted bool) {
	p.location.Store(granted)
}

func (p *Permissions) SetNotifications(granted bool) {
	p.notifications.Store(granted)
}
