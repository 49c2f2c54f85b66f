// Package platform abstracts the messaging platforms posts are
// delivered to. Each platform implements the same two primitives: a
// capability probe used when a channel is registered, and the actual
// content send used by the delivery task. Neither returns a Go error
// past this boundary; failures come back as a false flag plus a
// diagnostic string the caller persists.
package platform

import (
	"context"
	"postline/internal/database/models"
)

// Diagnostic strings for dispatch failures that never reach a remote API.
const (
	ReasonUnknownPlatform = "unknown platform"
	ReasonNotImplemented  = "not implemented for this platform"
)

// Platform performs capability probes and content delivery against one
// messaging platform's API.
type Platform interface {
	// Verify confirms the bot can post to the channel. It fails fast:
	// no retries, bounded timeout.
	Verify(ctx context.Context, username string) (ok bool, reason string)
	// Send delivers a text body plus an optional attachment to the
	// channel. When the attachment carries a caption it is appended to
	// the body after a blank line.
	Send(ctx context.Context, username, text string, media *models.MediaAttachment) (ok bool, errText string)
}

// Registry dispatches Verify and Send calls by channel platform.
// Adding a platform means adding a field here and a case to byName;
// the switch is the single place platform names are resolved.
type Registry struct {
	telegram Platform
	bale     Platform
}

// NewRegistry creates a registry over the supported platform implementations.
func NewRegistry(telegram, bale Platform) *Registry {
	return &Registry{telegram: telegram, bale: bale}
}

func (r *Registry) byName(p models.Platform) Platform {
	switch p {
	case models.PlatformTelegram:
		return r.telegram
	case models.PlatformBale:
		return r.bale
	default:
		return nil
	}
}

// Verify probes whether the bot can post to the channel.
func (r *Registry) Verify(ctx context.Context, ch models.Channel) (bool, string) {
	impl := r.byName(ch.Platform)
	if impl == nil {
		return false, ReasonUnknownPlatform
	}
	return impl.Verify(ctx, ch.Username)
}

// Send delivers content to the channel.
func (r *Registry) Send(ctx context.Context, ch models.Channel, text string, media *models.MediaAttachment) (bool, string) {
	impl := r.byName(ch.Platform)
	if impl == nil {
		return false, ReasonUnknownPlatform
	}
	return impl.Send(ctx, ch.Username, text, media)
}
