// Package store persists recorded actions, derived test cases, saved
// suites and replay executions.
package store

import (
	"context"
	"errors"

	"uirecorder/internal/models"
)

var ErrNotFound = errors.New("record not found")

type Totals struct {
	Actions   int64 `json:"totalActions"`
	TestCases int64 `json:"totalTestCases"`
}

type ExecutionFilter struct {
	Status   string
	SuiteID  *uint
	Page     int
	PageSize int
}

func (f ExecutionFilter) normalized() ExecutionFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	return f
}

type Store interface {
	// AppendRecording stores a batch of actions with the test cases
	// derived from it and returns the running totals.
	AppendRecording(ctx context.Context, actions []models.Action, cases []models.TestCase) (Totals, error)
	ListTestCases(ctx context.Context) ([]models.TestCase, error)
	ClearRecording(ctx context.Context) error

	CreateSuite(ctx context.Context, suite *models.TestSuite) error
	UpdateSuite(ctx context.Context, suite *models.TestSuite) error
	GetSuite(ctx context.Context, id uint) (*models.TestSuite, error)
	ListSuites(ctx context.Context) ([]models.TestSuite, error)
	DeleteSuite(ctx context.Context, id uint) error

	CreateExecution(ctx context.Context, exec *models.TestExecution) error
	UpdateExecution(ctx context.Context, exec *models.TestExecution) error
	GetExecution(ctx context.Context, id uint) (*models.TestExecution, error)
	ListExecutions(ctx context.Context, filter ExecutionFilter) ([]models.TestExecution, int64, error)
}
