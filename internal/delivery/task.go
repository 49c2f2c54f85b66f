// Package delivery drives a single post from "scheduled" to "sent" or
// "failed". The task queue invoking it gives at-least-once semantics,
// so the task must stay safe under repeated invocation for the same
// post; the already-sent short-circuit is that guard.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"postline/internal/database"
	"postline/internal/database/models"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Diagnostics recorded on the post for failures that never reach a platform.
const (
	ReasonNoMedia         = "No media provided."
	ReasonUnsupportedType = "Unsupported post type."
	ReasonUnknown         = "Unknown error."
)

// Dispatcher is the platform-polymorphic send primitive the task
// delivers through.
type Dispatcher interface {
	Send(ctx context.Context, ch models.Channel, text string, media *models.MediaAttachment) (ok bool, errText string)
}

// Outcome summarizes one delivery invocation for the caller (queue,
// scheduler, logs). Per-post failure detail lives on the post itself.
type Outcome string

const (
	OutcomeSent        Outcome = "sent"
	OutcomeFailed      Outcome = "failed"
	OutcomeAlreadySent Outcome = "already_sent"
	OutcomeNotFound    Outcome = "not_found"
)

// Task is the post delivery state machine.
type Task struct {
	posts      database.PostRepository
	dispatcher Dispatcher
	log        *logrus.Entry

	// Now is the clock used for sent timestamps; overridable in tests.
	Now func() time.Time
}

// NewTask creates a delivery task over the given post store and dispatcher.
func NewTask(posts database.PostRepository, dispatcher Dispatcher, log *logrus.Entry) (*Task, error) {
	if posts == nil {
		return nil, fmt.Errorf("post repository cannot be nil")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher cannot be nil")
	}
	return &Task{
		posts:      posts,
		dispatcher: dispatcher,
		log:        log,
		Now:        time.Now,
	}, nil
}

// Deliver runs one delivery attempt for the post.
//
// Expected failures (missing media, unsupported type, platform
// rejection, transport failure) are absorbed into the post's status and
// error message and reported as an Outcome with a nil error. A non-nil
// error means infrastructure trouble (store unreachable) and the
// external queue should redeliver.
func (t *Task) Deliver(ctx context.Context, postID primitive.ObjectID) (Outcome, error) {
	post, err := t.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, database.ErrPostNotFound) {
			t.log.Warnf("Post %s not found, nothing to deliver", postID.Hex())
			return OutcomeNotFound, nil
		}
		return "", fmt.Errorf("load post %s: %w", postID.Hex(), err)
	}

	// Idempotence guard: never re-deliver a sent post.
	if post.Status == models.PostStatusSent {
		return OutcomeAlreadySent, nil
	}

	success := false
	errText := ""

	switch post.Type {
	case models.PostTypeText:
		success, errText = t.dispatcher.Send(ctx, post.Channel, post.Content, nil)

	case models.PostTypeMedia:
		if media := post.FirstAttachment(); media != nil {
			success, errText = t.dispatcher.Send(ctx, post.Channel, post.Content, media)
		} else {
			errText = ReasonNoMedia
		}

	default:
		errText = ReasonUnsupportedType
	}

	if success {
		now := t.Now()
		post.Status = models.PostStatusSent
		post.SentAt = &now
		post.ErrorMessage = ""
	} else {
		if errText == "" {
			errText = ReasonUnknown
		}
		post.Status = models.PostStatusFailed
		post.ErrorMessage = errText
	}

	// Single write for the whole transition so status and diagnostic
	// stay consistent with each other.
	if err := t.posts.SaveDeliveryResult(ctx, post); err != nil {
		return "", fmt.Errorf("persist delivery result for post %s: %w", postID.Hex(), err)
	}

	if success {
		t.log.Infof("Post %s sent successfully to %s", postID.Hex(), post.Channel.Username)
		return OutcomeSent, nil
	}
	t.log.Errorf("Failed to send post %s: %s", postID.Hex(), post.ErrorMessage)
	return OutcomeFailed, nil
}
