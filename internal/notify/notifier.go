package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

// Notifier sends account emails in the background. Failures are logged and
// dropped; callers never wait on delivery.
type Notifier struct {
	mailer Mailer
	logger *zap.SugaredLogger
	wg     sync.WaitGroup
}

func NewNotifier(mailer Mailer, logger *zap.SugaredLogger) *Notifier {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Notifier{mailer: mailer, logger: logger}
}

func (n *Notifier) Welcome(email, name string) {
	n.send(email, "Thanks for joining in!",
		"Welcome to the task manager, "+name+". Let us know how you get along with the app.")
}

func (n *Notifier) Cancellation(email, name string) {
	n.send(email, "Sorry to see you go!",
		"Goodbye, "+name+". Your account and tasks have been deleted. Is there anything we could have done to keep you?")
}

func (n *Notifier) send(to, subject, text string) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.mailer.Send(ctx, to, subject, text); err != nil {
			n.logger.Warnw("email delivery failed", "to", to, "subject", subject, "err", err)
			return
		}
		n.logger.Debugw("email sent", "to", to, "subject", subject)
	}()
}

// Wait blocks until every pending email has been attempted.
func (n *Notifier) Wait() { n.wg.Wait() }
