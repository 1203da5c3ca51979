package notification

import "context"

// Dispatcher queues push mirrors; *WorkerPool implements it.
type Dispatcher interface {
	Dispatch(alert Alert) bool
}

// MirrorSender sends through a primary gateway and additionally queues the
// same message for the recipient's registered browsers. The primary result
// is returned as is; mirroring never fails a send.
type MirrorSender struct {
	primary Sender
	pool    Dispatcher
}

// NewMirrorSender wraps primary with push mirroring through pool.
func NewMirrorSender(primary Sender, pool Dispatcher) *MirrorSender {
	return &MirrorSender{primary: primary, pool: pool}
}

// Send delivers via the primary sender, then queues the mirror.
func (m *MirrorSender) Send(ctx context.Context, to, body string) error {
	err := m.primary.Send(ctx, to, body)
	m.pool.Dispatch(Alert{Identity: to, Body: body})
	return err
}
