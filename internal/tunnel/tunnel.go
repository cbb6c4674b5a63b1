// Package tunnel optionally exposes the hub on a public HTTPS URL so remote
// build machines can push notifications to a workstation behind NAT.
package tunnel

import (
	"context"
	"net"
)

// Tunnel exposes a local address via a public HTTPS URL.
type Tunnel interface {
	Start(ctx context.Context, localAddr string) (publicURL string, err error)
	Close() error
	PublicURL() string
	Listener() net.Listener
}
