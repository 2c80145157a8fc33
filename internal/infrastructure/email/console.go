package email

import (
	"strings"
	"sync"

	"github.com/waste3d/edemy-api/internal/logger"
)

// ConsoleService logs messages instead of delivering them. Used when no
// SendGrid key is configured, and in tests.
type ConsoleService struct {
	logger logger.Logger

	mu   sync.Mutex
	sent []Message
}

var _ Sender = (*ConsoleService)(nil)

func NewConsoleService(log logger.Logger) *ConsoleService {
	return &ConsoleService{logger: log}
}

// SendMessages runs synchronously.
func (svc *ConsoleService) SendMessages(messages ...*Message) {
	for _, msg := range messages {
		if !msg.HasRecipients() {
			continue
		}
		to := make([]string, 0, len(msg.To))
		for _, a := range msg.To {
			to = append(to, a.String())
		}
		svc.logger.Info("email to "+strings.Join(to, ", ")+": "+subjectPrefix+msg.Subject, msg.TextContent)

		svc.mu.Lock()
		svc.sent = append(svc.sent, *msg)
		svc.mu.Unlock()
	}
}

func (svc *ConsoleService) Sent() []Message {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]Message, len(svc.sent))
	copy(out, svc.sent)
	return out
}
