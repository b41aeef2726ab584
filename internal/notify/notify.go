package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"movietype-quiz/internal/models"
)

// Notifier is told when a respondent's result is ready.
type Notifier interface {
	ResultsReady(ctx context.Context, identity string, res models.Result) error
}

// Subject is the headline used for results notifications.
func Subject(res models.Result) string {
	return fmt.Sprintf("Your Movie Type Results: %s", res.TypeCode)
}

// LogNotifier records the notification as a structured log entry. Delivery
// to an inbox is left to whatever consumes these records.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) ResultsReady(_ context.Context, identity string, res models.Result) error {
	letters := make([]string, 0, len(res.Breakdown))
	for _, b := range res.Breakdown {
		letters = append(letters, b.Name+"="+b.Letter)
	}
	n.log.Info("results ready",
		zap.String("to", identity),
		zap.String("subject", Subject(res)),
		zap.String("archetype", res.Archetype.Title),
		zap.String("breakdown", strings.Join(letters, " ")),
		zap.Strings("films", res.Recommendations.Films),
		zap.String("quote", res.Quote.Text))
	return nil
}
