package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the NATS subject audit events are published on.
const DefaultSubject = "vat.registry.inconclusive"

// Publisher is the part of *nats.Conn the sink uses.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSSink publishes events as JSON on a NATS subject.
type NATSSink struct {
	conn    Publisher
	subject string
}

// NewNATSSink creates a NATS sink. An empty subject uses DefaultSubject.
func NewNATSSink(conn Publisher, subject string) *NATSSink {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSSink{conn: conn, subject: subject}
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Record(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	msg := nats.NewMsg(s.subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, e.ID.String())

	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish audit event: %w", err)
	}
	return nil
}
