package database

import (
	"context"
	"errors"
	"postline/internal/database/models"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrPostNotFound is returned when a post is not found.
var ErrPostNotFound = errors.New("post not found")

// ErrChannelNotFound is returned when a channel is not found.
var ErrChannelNotFound = errors.New("channel not found")

// PostRepository defines the post store operations the worker needs.
type PostRepository interface {
	// GetPostByID loads a single post. Returns ErrPostNotFound as a
	// distinct outcome rather than a driver error.
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	// FindDuePosts returns scheduled posts whose delivery time has
	// arrived, oldest first.
	FindDuePosts(ctx context.Context, now time.Time, limit int) ([]models.Post, error)
	// SaveDeliveryResult persists the outcome of one delivery attempt:
	// status, error message and sent timestamp in a single write.
	SaveDeliveryResult(ctx context.Context, post *models.Post) error
}

// ChannelRepository defines the channel store operations the worker needs.
type ChannelRepository interface {
	// FindPendingVerification returns channels that have never been
	// checked by the verifier.
	FindPendingVerification(ctx context.Context, limit int) ([]models.Channel, error)
	// SaveVerification persists a verification outcome on the channel.
	SaveVerification(ctx context.Context, id primitive.ObjectID, ok bool, reason string) error
}
