// Package notify delivers the escalation alert of a run through an ordered
// list of channels.
package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/grovetools/vigil/config"
	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/logging"
	"github.com/sirupsen/logrus"
)

// Message is one escalation: every still-stuck session of a run in a single
// alert.
type Message struct {
	RunID      string    `json:"run_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	SessionIDs []string  `json:"session_ids"`
	Timestamp  time.Time `json:"timestamp"`
}

// Channel is one delivery mechanism.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Router tries its channels in order and stops at the first success.
type Router struct {
	channels []Channel
	logger   *logrus.Entry
}

// NewRouter routes through channels in the given order.
func NewRouter(channels ...Channel) *Router {
	return &Router{
		channels: channels,
		logger:   logging.NewLogger("notify"),
	}
}

// Channels returns the channel names in routing order.
func (r *Router) Channels() []string {
	names := make([]string, 0, len(r.channels))
	for _, ch := range r.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Send delivers msg. It fails only when every channel failed; the error
// then carries each channel's failure.
func (r *Router) Send(ctx context.Context, msg Message) error {
	if len(r.channels) == 0 {
		return errors.New(errors.ErrCodeNotifyFailed, "no notification channels configured")
	}

	var errs []error
	for _, ch := range r.channels {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		err := ch.Send(ctx, msg)
		if err == nil {
			r.logger.WithFields(logrus.Fields{
				"channel": ch.Name(),
				"run_id":  msg.RunID,
			}).Debug("Notification delivered")
			return nil
		}
		r.logger.WithError(err).WithField("channel", ch.Name()).Warn("Notification channel failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
	}

	return errors.NotifyFailed("all channels", stderrors.Join(errs...))
}

// FromConfig builds the router described by the notify section.
func FromConfig(cfg config.NotifyConfig) (*Router, error) {
	channels := make([]Channel, 0, len(cfg.Channels))
	for i, c := range cfg.Channels {
		switch c.Type {
		case "log":
			channels = append(channels, NewLogChannel(logging.NewLogger("escalation")))
		case "shell":
			channels = append(channels, NewShellChannel(c.Command, c.Args...))
		case "webhook":
			channels = append(channels, NewWebhookChannel(c.URL, c.Headers))
		case "filebox":
			channels = append(channels, NewFileboxChannel(c.Dir))
		default:
			return nil, errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("unknown notification channel '%s'", c.Type)).
				WithDetail("index", i)
		}
	}
	return NewRouter(channels...), nil
}
