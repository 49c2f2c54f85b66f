package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostType tells the delivery task how to dispatch a post.
type PostType string

const (
	PostTypeText  PostType = "text"
	PostTypeMedia PostType = "media"
)

// PostStatus is the delivery lifecycle state of a post.
// Posts are created as "scheduled" by the authoring service; the
// delivery task moves them to "sent" or "failed". "cancelled" is set
// by the authoring service only and is never touched by the worker.
type PostStatus string

const (
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusSent      PostStatus = "sent"
	PostStatusFailed    PostStatus = "failed"
	PostStatusCancelled PostStatus = "cancelled"
)

// MediaAttachment is a binary resource attached to a post. Attachments
// are written by the authoring service and read-only for the worker.
type MediaAttachment struct {
	File    string `bson:"file"`
	Caption string `bson:"caption,omitempty"`
}

// Post is a scheduled channel post as stored in MongoDB.
//
// Invariants maintained by the delivery task: status "sent" implies
// SentAt is set and ErrorMessage is empty; status "failed" implies
// ErrorMessage is non-empty.
type Post struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Type         PostType           `bson:"type"`
	Content      string             `bson:"content,omitempty"`
	Status       PostStatus         `bson:"status"`
	ErrorMessage string             `bson:"error_message,omitempty"`
	ScheduledAt  time.Time          `bson:"scheduled_at"`
	SentAt       *time.Time         `bson:"sent_at,omitempty"`
	Channel      Channel            `bson:"channel"`
	// Attachments is an ordered sequence; per the one-attachment-per-post
	// policy only the first entry is ever delivered.
	Attachments []MediaAttachment `bson:"attachments,omitempty"`
}

// FirstAttachment returns the attachment the dispatcher should deliver,
// or nil when the post carries none.
func (p *Post) FirstAttachment() *MediaAttachment {
	if len(p.Attachments) == 0 {
		return nil
	}
	return &p.Attachments[0]
}
