package notify

import (
	"context"
	"errors"
)

// Channel selects the delivery medium.
type Channel string

const (
	ChannelSMS    Channel = "sms"
	ChannelWeChat Channel = "wechat"
)

// Template names used by the engine.
const (
	TemplateLoginCode = "login_code"
	TemplateSmsCode   = "sms_code"
)

// ErrDelivery is returned when a downstream transport rejects a message.
var ErrDelivery = errors.New("notification delivery failed")

// Message is one outbound notification.
type Message struct {
	Channel  Channel           `json:"channel"`
	To       string            `json:"to"`
	Template string            `json:"template"`
	Params   map[string]string `json:"params,omitempty"`
}

// Sender delivers a message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NoopSender discards every message.
type NoopSender struct{}

func (NoopSender) Send(context.Context, Message) error { return nil }

// SenderFunc adapts a function to [Sender].
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
