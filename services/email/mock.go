package emailsvc

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/projectplatec/platec/core"
)

// Mock renders messages and records them. Set Err to make every send fail.
type Mock struct {
	mu   sync.Mutex
	sent []core.EmailMessage
	Err  error
}

var _ core.EmailService = (*Mock)(nil)

func NewMock() *Mock { return new(Mock) }

func (svc *Mock) SendMessage(ctx context.Context, msg *core.EmailMessage) error {
	if err := msg.Render(); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.Err != nil {
		return svc.Err
	}
	svc.sent = append(svc.sent, *msg)
	return nil
}

func (svc *Mock) Sent() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}

func (svc *Mock) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = nil
	svc.Err = nil
}
