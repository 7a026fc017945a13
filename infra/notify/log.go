package notify

import (
	"context"

	"github.com/tguellec/qcdispatch/infra/logger"
)

// LogNotifier writes notifications to the log. It is the default transport
// for deployments without a message broker.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.New("notify")}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(_ context.Context, personnelID, locator string) error {
	n.log.Infof("notify %s: new QC task at %s", personnelID, locator)
	return nil
}
