// Package scheduler is the worker's internal clock: it polls the post
// store for due posts and hands each to the delivery task, verifies
// newly registered channels, and fires the daily report job at its
// configured time. Redelivery of failed posts is the queue's concern,
// not this loop's; the delivery task's idempotence guard keeps repeated
// invocations safe.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"postline/internal/database"
	"postline/internal/database/models"
	"postline/internal/delivery"
	"postline/internal/report"
	"runtime/debug"
	"sync"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultBatchSize = 50

// Deliverer runs one delivery attempt for a post.
type Deliverer interface {
	Deliver(ctx context.Context, postID primitive.ObjectID) (delivery.Outcome, error)
}

// Verifier probes whether the bot can post to a channel.
type Verifier interface {
	Verify(ctx context.Context, ch models.Channel) (ok bool, reason string)
}

// ReportRunner builds and emits the daily report.
type ReportRunner interface {
	Run(ctx context.Context) (*report.DailyReport, error)
}

// Deps holds the dependencies required by the Scheduler.
type Deps struct {
	Posts        database.PostRepository
	Channels     database.ChannelRepository
	Task         Deliverer
	Verifier     Verifier
	ReportJob    ReportRunner
	PollInterval time.Duration
	ReportAt     string // HH:MM, local time
	Log          *logrus.Entry
}

// Scheduler drives the worker's periodic work.
type Scheduler struct {
	posts        database.PostRepository
	channels     database.ChannelRepository
	task         Deliverer
	verifier     Verifier
	reportJob    ReportRunner
	pollInterval time.Duration
	reportAt     string
	batchSize    int
	log          *logrus.Entry
}

// New creates a Scheduler from its dependencies.
func New(deps Deps) (*Scheduler, error) {
	if deps.Posts == nil {
		return nil, fmt.Errorf("post repository cannot be nil")
	}
	if deps.Channels == nil {
		return nil, fmt.Errorf("channel repository cannot be nil")
	}
	if deps.Task == nil {
		return nil, fmt.Errorf("delivery task cannot be nil")
	}
	if deps.Verifier == nil {
		return nil, fmt.Errorf("verifier cannot be nil")
	}
	if deps.ReportJob == nil {
		return nil, fmt.Errorf("report job cannot be nil")
	}
	if deps.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if _, err := time.Parse("15:04", deps.ReportAt); err != nil {
		return nil, fmt.Errorf("invalid report time %q: %w", deps.ReportAt, err)
	}
	return &Scheduler{
		posts:        deps.Posts,
		channels:     deps.Channels,
		task:         deps.Task,
		verifier:     deps.Verifier,
		reportJob:    deps.ReportJob,
		pollInterval: deps.PollInterval,
		reportAt:     deps.ReportAt,
		batchSize:    defaultBatchSize,
		log:          deps.Log,
	}, nil
}

// Start runs the scheduling loop until the context is cancelled, then
// waits for in-flight deliveries to finish.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	reportTimer := time.NewTimer(s.untilNextReport(time.Now()))
	defer reportTimer.Stop()

	s.log.Infof("Scheduler started poll_interval=%s report_at=%s", s.pollInterval, s.reportAt)

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			s.log.Infof("Scheduler stopping, waiting for in-flight deliveries...")
			wg.Wait()
			s.log.Infof("Scheduler stopped.")
			return
		case <-ticker.C:
			s.DeliverDuePosts(ctx, &wg)
			s.VerifyPendingChannels(ctx)
		case <-reportTimer.C:
			s.RunDailyReport(ctx)
			reportTimer.Reset(s.untilNextReport(time.Now()))
		}
	}
}

// DeliverDuePosts finds posts whose delivery time has arrived and runs
// the delivery task for each in its own goroutine. Different posts may
// deliver concurrently; the same post is protected by the task's
// already-sent guard, not by locking here.
func (s *Scheduler) DeliverDuePosts(ctx context.Context, wg *sync.WaitGroup) {
	due, err := s.posts.FindDuePosts(ctx, time.Now(), s.batchSize)
	if err != nil {
		s.log.Errorf("Failed to query due posts: %v", err)
		sentry.CaptureException(err)
		return
	}

	for _, post := range due {
		wg.Add(1)
		go func(postID primitive.ObjectID) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Errorf("PANIC recovered in delivery: %v\n%s", r, debug.Stack())
					sentry.CurrentHub().Recover(r)
					sentry.Flush(2 * time.Second)
				}
			}()

			if _, err := s.task.Deliver(ctx, postID); err != nil {
				s.log.Errorf("delivery task failed for post %s: %v", postID.Hex(), err)
				sentry.CaptureException(err)
			}
		}(post.ID)
	}
}

// VerifyPendingChannels probes channels registered since the last pass
// and persists the outcome on each.
func (s *Scheduler) VerifyPendingChannels(ctx context.Context) {
	pending, err := s.channels.FindPendingVerification(ctx, s.batchSize)
	if err != nil {
		s.log.Errorf("Failed to query pending channels: %v", err)
		sentry.CaptureException(err)
		return
	}

	for _, ch := range pending {
		ok, reason := s.verifier.Verify(ctx, ch)
		if err := s.channels.SaveVerification(ctx, ch.ID, ok, reason); err != nil {
			s.log.Errorf("Failed to save verification for channel %s: %v", ch.Username, err)
			sentry.CaptureException(err)
			continue
		}
		if ok {
			s.log.Infof("Channel %s verified on %s", ch.Username, ch.Platform)
		} else {
			s.log.Warnf("Channel %s verification failed: %s", ch.Username, reason)
		}
	}
}

// RunDailyReport executes the report job once. "Not found" and read
// errors are already logged by the job; unexpected read errors are also
// reported to error tracking.
func (s *Scheduler) RunDailyReport(ctx context.Context) {
	if _, err := s.reportJob.Run(ctx); err != nil && !errors.Is(err, report.ErrLogNotFound) {
		sentry.CaptureException(err)
	}
}

// untilNextReport returns the wait until the next report time (HH:MM),
// today if still ahead, otherwise tomorrow.
func (s *Scheduler) untilNextReport(now time.Time) time.Duration {
	at, _ := time.Parse("15:04", s.reportAt)
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
