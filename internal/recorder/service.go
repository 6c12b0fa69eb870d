package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"uirecorder/internal/models"
	"uirecorder/internal/store"
	"uirecorder/pkg/logger"
	"uirecorder/pkg/metrics"
)

var ErrNoActions = errors.New("invalid actions array")

// IngestSummary answers an accepted action batch.
type IngestSummary struct {
	OK             bool   `json:"ok"`
	Received       int    `json:"received"`
	TotalActions   int64  `json:"totalActions"`
	TotalTestCases int64  `json:"totalTestCases"`
	Timestamp      string `json:"timestamp"`
}

// Service stores recorded actions and the test cases derived from them.
type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// Ingest derives test cases from actions and stores both. A nil batch is
// rejected; an empty one is accepted.
func (s *Service) Ingest(ctx context.Context, actions []models.Action) (IngestSummary, error) {
	if actions == nil {
		return IngestSummary{}, ErrNoActions
	}

	now := s.now()
	cases := Derive(actions, now)
	totals, err := s.store.AppendRecording(ctx, actions, cases)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("failed to store recording: %w", err)
	}

	for _, a := range actions {
		metrics.ActionIngested(a.Type)
	}
	logger.L().Infof("📥 Received %d actions (total %d actions, %d test cases)",
		len(actions), totals.Actions, totals.TestCases)

	return IngestSummary{
		OK:             true,
		Received:       len(actions),
		TotalActions:   totals.Actions,
		TotalTestCases: totals.TestCases,
		Timestamp:      now.UTC().Format(time.RFC3339Nano),
	}, nil
}

// Flush adapts Ingest to the Batcher's flush signature.
func (s *Service) Flush(ctx context.Context, batch []models.Action) error {
	_, err := s.Ingest(ctx, batch)
	return err
}

func (s *Service) TestCases(ctx context.Context) ([]models.TestCase, error) {
	return s.store.ListTestCases(ctx)
}

func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.ClearRecording(ctx); err != nil {
		return fmt.Errorf("failed to clear recording: %w", err)
	}
	logger.L().Infof("🧹 Recorded actions and test cases cleared")
	return nil
}
