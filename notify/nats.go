package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn used by [NATSSender].
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSConfig configures [ConnectNATS].
type NATSConfig struct {
	Servers       []string
	Name          string
	User          string
	Password      string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// ConnectNATS dials the given servers with unlimited reconnects.
func ConnectNATS(cfg NATSConfig) (*nats.Conn, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("nats servers missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}
	return nats.Connect(strings.Join(cfg.Servers, ","), opts...)
}

// NATSSender publishes messages as JSON to <subject>.<channel>.
type NATSSender struct {
	pub     Publisher
	subject string
}

// NewNATSSender creates a [NATSSender]. An empty subject defaults to
// "goauthz.notify".
func NewNATSSender(pub Publisher, subject string) *NATSSender {
	if subject == "" {
		subject = "goauthz.notify"
	}
	return &NATSSender{pub: pub, subject: subject}
}

func (s *NATSSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := s.pub.Publish(s.subject+"."+string(msg.Channel), data); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}
