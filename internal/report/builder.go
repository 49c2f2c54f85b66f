package report

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrLogNotFound is returned when the log source does not exist.
var ErrLogNotFound = errors.New("log file not found")

// DefaultExcludeSources are log sources whose error and warning lines
// are not counted as system noise: the report job's own logging and
// driver internals.
var DefaultExcludeSources = []string{"report.job", "mongo-driver"}

const maxLineSize = 1024 * 1024

// Builder scans one day of the operational log and aggregates a
// DailyReport. The log is streamed line by line; it is append-only and
// can grow large, so it is never loaded whole.
type Builder struct {
	LogPath        string
	ExcludeSources []string
	TopN           int
}

// NewBuilder creates a Builder with the default exclusions and a top-5
// IP ranking.
func NewBuilder(logPath string) *Builder {
	return &Builder{
		LogPath:        logPath,
		ExcludeSources: DefaultExcludeSources,
		TopN:           5,
	}
}

// Build aggregates the report for the given day. A missing log source
// yields ErrLogNotFound; a read error mid-scan discards the partial
// aggregate and returns the error.
func (b *Builder) Build(day time.Time) (*DailyReport, error) {
	f, err := os.Open(b.LogPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	dayStr := day.Format("2006-01-02")
	rep := &DailyReport{Day: dayStr}
	ips := newIPTally()
	rules := b.rules()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, dayStr) {
			continue
		}
		for _, r := range rules {
			if r.match(line) {
				r.apply(rep, ips, line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	rep.TopIPs = ips.top(b.TopN)
	return rep, nil
}

// rule is one classification entry. Rules are independent: a line may
// match several categories, but each category counts it once.
type rule struct {
	match func(line string) bool
	apply func(rep *DailyReport, ips *ipTally, line string)
}

func (b *Builder) rules() []rule {
	excluded := func(line string) bool {
		for _, src := range b.ExcludeSources {
			if strings.Contains(line, src) {
				return true
			}
		}
		return false
	}

	return []rule{
		{
			match: and(contains("registered successfully"), contains("User")),
			apply: func(rep *DailyReport, ips *ipTally, line string) {
				rep.Users.Registrations++
				ips.add(extractValue(line, "IP="))
			},
		},
		{
			match: and(contains("logged in successfully"), contains("User")),
			apply: func(rep *DailyReport, ips *ipTally, line string) {
				rep.Users.Logins++
				ips.add(extractValue(line, "IP="))
			},
		},
		{
			match: and(contains("Failed login attempt"), contains("IP=")),
			apply: func(rep *DailyReport, ips *ipTally, line string) {
				rep.Users.FailedLogins++
				ips.add(extractValue(line, "IP="))
			},
		},
		{
			match: and(contains("Post "), contains("created by user"), contains("User")),
			apply: func(rep *DailyReport, _ *ipTally, _ string) { rep.Posts.Created++ },
		},
		{
			match: and(contains("Post "), contains("scheduled for")),
			apply: func(rep *DailyReport, _ *ipTally, _ string) { rep.Posts.Scheduled++ },
		},
		{
			match: contains("cancelled by user"),
			apply: func(rep *DailyReport, _ *ipTally, _ string) { rep.Posts.Cancelled++ },
		},
		{
			match: and(contains("posts"), contains("retry")),
			apply: func(rep *DailyReport, _ *ipTally, _ string) { rep.Posts.Retried++ },
		},
		{
			match: or(contains("delivery task failed"), contains("Failed to send post")),
			apply: func(rep *DailyReport, _ *ipTally, _ string) { rep.Posts.Failed++ },
		},
		{
			match: and(contains("Post "), contains("sent successfully to")),
			apply: func(rep *DailyReport, _ *ipTally, _ string) { rep.Posts.Sent++ },
		},
		{
			match: and(contains("created chat session"), contains("User")),
			apply: func(rep *DailyReport, _ *ipTally, _ string) { rep.Chat.SessionsCreated++ },
		},
		{
			match: and(contains("sending message to AI"), contains("User")),
			apply: func(rep *DailyReport, _ *ipTally, _ string) { rep.Chat.MessagesSent++ },
		},
		{
			match: or(contains("Connection error to AI service"), contains("AI service timeout")),
			apply: func(rep *DailyReport, _ *ipTally, _ string) { rep.Chat.AIErrors++ },
		},
		{
			match: func(line string) bool {
				return strings.Contains(line, "[ERROR]") && !excluded(line)
			},
			apply: func(rep *DailyReport, _ *ipTally, _ string) { rep.System.Errors++ },
		},
		{
			match: func(line string) bool {
				return strings.Contains(line, "[WARNING]") && !excluded(line)
			},
			apply: func(rep *DailyReport, _ *ipTally, _ string) { rep.System.Warnings++ },
		},
	}
}

func contains(substr string) func(string) bool {
	return func(line string) bool { return strings.Contains(line, substr) }
}

func and(fns ...func(string) bool) func(string) bool {
	return func(line string) bool {
		for _, fn := range fns {
			if !fn(line) {
				return false
			}
		}
		return true
	}
}

func or(fns ...func(string) bool) func(string) bool {
	return func(line string) bool {
		for _, fn := range fns {
			if fn(line) {
				return true
			}
		}
		return false
	}
}

// extractValue returns the token following key up to the next space, or
// "Unknown" when the marker is absent or carries no token. Malformed
// lines must never abort the scan.
func extractValue(line, key string) string {
	_, after, found := strings.Cut(line, key)
	if !found {
		return "Unknown"
	}
	token, _, _ := strings.Cut(after, " ")
	if token = strings.TrimSpace(token); token == "" {
		return "Unknown"
	}
	return token
}
