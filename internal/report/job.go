package report

import (
	"context"
	"errors"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
)

// Notifier delivers the rendered report. Delivery is fire-and-forget:
// a send failure is logged, never retried, and does not invalidate the
// computed report.
type Notifier interface {
	SendMail(ctx context.Context, to []string, subject, textBody, htmlBody string) error
}

// Job builds the daily report and emails it to the configured
// recipients. Computation and delivery fail independently: only a
// computation failure yields a non-nil error.
type Job struct {
	builder    *Builder
	notifier   Notifier
	recipients []string
	localizer  *i18n.Localizer
	log        *logrus.Entry

	// Now is the report clock; overridable in tests.
	Now func() time.Time
}

// NewJob creates the daily report job.
func NewJob(builder *Builder, notifier Notifier, recipients []string, localizer *i18n.Localizer, log *logrus.Entry) *Job {
	return &Job{
		builder:    builder,
		notifier:   notifier,
		recipients: recipients,
		localizer:  localizer,
		log:        log,
		Now:        time.Now,
	}
}

// Run builds today's report and, when recipients are configured, emails
// it. A missing log source returns ErrLogNotFound and nothing is
// emitted; a mid-scan read error discards the partial aggregate.
func (j *Job) Run(ctx context.Context) (*DailyReport, error) {
	now := j.Now()
	j.log.Infof("Starting daily log report for %s", now.Format("2006-01-02"))

	rep, err := j.builder.Build(now)
	if err != nil {
		if errors.Is(err, ErrLogNotFound) {
			j.log.Warnf("Log file not found!")
			return nil, err
		}
		j.log.Errorf("Error reading log file: %v", err)
		return nil, err
	}

	if len(j.recipients) == 0 {
		j.log.Infof("No report recipients configured, skipping email")
		return rep, nil
	}

	subject, textBody, htmlBody, err := Render(rep, j.localizer, now)
	if err != nil {
		// Rendering is a presentation concern; the aggregate itself is done.
		j.log.Errorf("Failed to render report email: %v", err)
		return rep, nil
	}

	if err := j.notifier.SendMail(ctx, j.recipients, subject, textBody, htmlBody); err != nil {
		j.log.Errorf("Failed to send email: %v", err)
		return rep, nil
	}

	j.log.Infof("Daily report email sent successfully.")
	return rep, nil
}
