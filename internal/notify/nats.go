package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when publishing on a closed connection.
var ErrNotConnected = errors.New("nats not connected")

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Close()
}

// NATSPublisher publishes notifications as JSON to
// {prefix}.{gameID}.{type}.
type NATSPublisher struct {
	conn   Conn
	prefix string
	logger *zap.Logger
}

// DialNATS connects to url and returns a publisher for prefix.
func DialNATS(url, prefix string, logger *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("cardengine"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	if logger != nil {
		logger.Info("nats publisher connected", zap.String("url", url), zap.String("subject_prefix", prefix))
	}
	return NewNATSPublisher(conn, prefix, logger), nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn Conn, prefix string, logger *zap.Logger) *NATSPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{conn: conn, prefix: strings.TrimSuffix(prefix, "."), logger: logger}
}

// Subject returns the subject a notification is published on.
func (p *NATSPublisher) Subject(n Notification) string {
	kind := strings.ToLower(n.Type)
	if p.prefix == "" {
		return n.GameID + "." + kind
	}
	return p.prefix + "." + n.GameID + "." + kind
}

// Publish sends n.
func (p *NATSPublisher) Publish(n Notification) error {
	if p.conn == nil || !p.conn.IsConnected() {
		return ErrNotConnected
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	return p.conn.Publish(p.Subject(n), data)
}

// Handle publishes n and logs failures. Use it as a Handler.
func (p *NATSPublisher) Handle(n Notification) {
	if err := p.Publish(n); err != nil {
		p.logger.Warn("failed to publish notification",
			zap.String("game_id", n.GameID),
			zap.String("type", n.Type),
			zap.Error(err),
		)
	}
}

// Close closes the underlying connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
