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

const postCollectionName = "posts"

// MongoPostRepository implements PostRepository for MongoDB.
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoDB post repository.
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{
		collection: db.Collection(postCollectionName),
	}
}

// GetPostByID retrieves a single post by its MongoDB ObjectID.
// It returns ErrPostNotFound if no post matches the ID.
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to find post by ID %s: %w", id.Hex(), err)
	}
	return &post, nil
}

// FindDuePosts retrieves scheduled posts whose delivery time has arrived.
func (r *MongoPostRepository) FindDuePosts(ctx context.Context, now time.Time, limit int) ([]models.Post, error) {
	filter := bson.M{
		"status":       models.PostStatusScheduled,
		"scheduled_at": bson.M{"$lte": now},
	}

	findOptions := options.Find()
	findOptions.SetLimit(int64(limit))
	findOptions.SetSort(bson.D{{Key: "scheduled_at", Value: 1}}) // Oldest first

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find due posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode due posts: %w", err)
	}

	return posts, nil
}

// SaveDeliveryResult persists the delivery outcome of a post. Status,
// error message and sent timestamp go out in one update so the state
// and its diagnostic stay atomic.
func (r *MongoPostRepository) SaveDeliveryResult(ctx context.Context, post *models.Post) error {
	filter := bson.M{"_id": post.ID}
	update := bson.M{
		"$set": bson.M{
			"status":        post.Status,
			"error_message": post.ErrorMessage,
			"sent_at":       post.SentAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update delivery result for post %s: %w", post.ID.Hex(), err)
	}

	if result.MatchedCount == 0 {
		return ErrPostNotFound
	}

	return nil
}
