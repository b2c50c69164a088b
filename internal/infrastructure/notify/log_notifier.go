package notify

import (
	"context"

	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/internal/domain/service"
	"github.com/urbanyield/riskengine/pkg/logger"
)

// LogNotifier writes transition events to the log. Used when Kafka is
// disabled and in development.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates the stub notifier.
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.WithComponent("LogNotifier")}
}

var _ service.TransitionNotifier = (*LogNotifier)(nil)

func (n *LogNotifier) PublishTransition(ctx context.Context, event models.GradeTransitionEvent) error {
	old := "none"
	if event.OldGrade != nil {
		old = string(*event.OldGrade)
	}
	n.log.Info(ctx, "grade transition", logger.Fields{
		"property_id":       event.PropertyID,
		"old_grade":         old,
		"new_grade":         string(event.NewGrade),
		"triggered_alert":   event.TriggeredAlert,
		"triggered_reprice": event.TriggeredReprice,
	})
	return nil
}

func (n *LogNotifier) Close() error {
	return nil
}
