package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Platform identifies the messaging platform a channel belongs to.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformBale     Platform = "bale"
)

// Channel is a destination on an external messaging platform.
// Channels are owned by the user-account service; the worker reads
// Platform and Username to address deliveries and writes back the
// verification outcome.
type Channel struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name,omitempty"`
	Username     string             `bson:"username"`
	Platform     Platform           `bson:"platform"`
	IsVerified   bool               `bson:"is_verified"`
	FailedReason string             `bson:"failed_reason,omitempty"`
	VerifiedAt   *time.Time         `bson:"verified_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at,omitempty"`
}
