package database

import (
	"context"
	"fmt"
	"postline/internal/database/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const channelCollectionName = "channels"

// MongoChannelRepository implements ChannelRepository for MongoDB.
type MongoChannelRepository struct {
	collection *mongo.Collection
}

// NewMongoChannelRepository creates a new MongoDB channel repository.
func NewMongoChannelRepository(db *mongo.Database) *MongoChannelRepository {
	return &MongoChannelRepository{
		collection: db.Collection(channelCollectionName),
	}
}

// FindPendingVerification retrieves channels the verifier has not
// checked yet (no verification timestamp).
func (r *MongoChannelRepository) FindPendingVerification(ctx context.Context, limit int) ([]models.Channel, error) {
	filter := bson.M{"verified_at": nil}

	findOptions := options.Find()
	findOptions.SetLimit(int64(limit))
	findOptions.SetSort(bson.D{{Key: "created_at", Value: 1}}) // Oldest first

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending channels: %w", err)
	}
	defer cursor.Close(ctx)

	var channels []models.Channel
	if err = cursor.All(ctx, &channels); err != nil {
		return nil, fmt.Errorf("failed to decode pending channels: %w", err)
	}

	return channels, nil
}

// SaveVerification persists the verification outcome of a channel.
func (r *MongoChannelRepository) SaveVerification(ctx context.Context, id primitive.ObjectID, ok bool, reason string) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"is_verified":   ok,
			"failed_reason": reason,
			"verified_at":   time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update verification for channel %s: %w", id.Hex(), err)
	}

	if result.MatchedCount == 0 {
		return ErrChannelNotFound
	}

	return nil
}
