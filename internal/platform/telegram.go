package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"postline/internal/database/models"
	"postline/pkg/telegoapi"
	"time"

	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// Telegram implements Platform using the Telegram Bot API.
type Telegram struct {
	bot       telegoapi.BotAPI
	timeout   time.Duration
	limiter   ratelimit.Limiter
	probeText string
	log       *logrus.Entry
}

// NewTelegram creates the Telegram platform implementation.
// sendRate caps outgoing API calls per second; probeText is the test
// message Verify posts to the channel.
func NewTelegram(bot telegoapi.BotAPI, timeout time.Duration, sendRate int, probeText string, log *logrus.Entry) (*Telegram, error) {
	if bot == nil {
		return nil, fmt.Errorf("telegram bot (BotAPI) instance cannot be nil")
	}
	if sendRate <= 0 {
		sendRate = 20
	}
	return &Telegram{
		bot:       bot,
		timeout:   timeout,
		limiter:   ratelimit.New(sendRate),
		probeText: probeText,
		log:       log,
	}, nil
}

// Verify posts a probe message to the channel to confirm the bot can
// publish there. Fails fast on the first error; the registration flow
// that calls this is synchronous.
func (t *Telegram) Verify(ctx context.Context, username string) (bool, string) {
	t.limiter.Take()

	sendCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	_, err := t.bot.SendMessage(sendCtx, tu.Message(tu.Username(username), t.probeText))
	if err != nil {
		reason := describeError(err)
		t.log.Warnf("Channel verification failed for %s: %s", username, reason)
		return false, reason
	}
	return true, ""
}

// Send delivers the post body, and the first attachment when present,
// to the channel. The attachment caption is appended to the body after
// a blank line.
func (t *Telegram) Send(ctx context.Context, username, text string, media *models.MediaAttachment) (bool, string) {
	t.limiter.Take()

	sendCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if media == nil {
		_, err := t.bot.SendMessage(sendCtx, tu.Message(tu.Username(username), text))
		if err != nil {
			return false, describeError(err)
		}
		return true, ""
	}

	caption := text
	if media.Caption != "" {
		caption = text + "\n\n" + media.Caption
	}

	file, err := os.Open(media.File)
	if err != nil {
		return false, fmt.Sprintf("cannot open media file: %s", err)
	}
	defer file.Close()

	params := tu.Photo(tu.Username(username), tu.File(file)).WithCaption(caption)
	if _, err := t.bot.SendPhoto(sendCtx, params); err != nil {
		return false, describeError(err)
	}
	return true, ""
}

// describeError turns a telego failure into the diagnostic persisted on
// the post: remote rejections keep the API description embedded in the
// error, timeouts get a stable transport message.
func describeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "connection to Telegram timed out"
	}
	return err.Error()
}
