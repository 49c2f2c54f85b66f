package platform

import (
	"context"
	"postline/internal/database/models"
)

// Bale is a placeholder for the Bale messenger integration. Channels on
// Bale can be registered, but verification and delivery deterministically
// fail until the integration lands.
type Bale struct {
	token string
}

// NewBale creates the Bale platform stub. The token is accepted so the
// configuration surface is already in place.
func NewBale(token string) *Bale {
	return &Bale{token: token}
}

// Verify always reports the platform as unsupported for now.
func (b *Bale) Verify(ctx context.Context, username string) (bool, string) {
	return false, ReasonNotImplemented
}

// Send always reports the platform as unsupported for now.
func (b *Bale) Send(ctx context.Context, username, text string, media *models.MediaAttachment) (bool, string) {
	return false, ReasonNotImplemented
}
