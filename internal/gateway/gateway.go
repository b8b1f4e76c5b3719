// Package gateway defines the delivery contract every chat platform
// implements, and the registry the dispatcher routes through.
package gateway

import (
	"context"
	"errors"
)

// Delivery failure classes. Gateways wrap platform errors into one of these
// sentinels; anything else is treated as unknown. The dispatcher does not
// branch on the class beyond logging it: a failed delivery retires the
// reminder either way.
var (
	ErrUnreachable = errors.New("recipient unreachable")
	ErrTransient   = errors.New("transient delivery failure")
)

// ErrUnknownPlatform is returned when no gateway is registered for a
// reminder's platform tag.
var ErrUnknownPlatform = errors.New("no gateway for platform")

// Gateway is one chat platform's delivery channel.
//
// Deliver sends the rendered text to the platform-local user id. The core
// treats all gateways as interchangeable; platform specifics never leak past
// this interface.
type Gateway interface {
	PlatformID() string
	Deliver(ctx context.Context, userID, text string) error
}
