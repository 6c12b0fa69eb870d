package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"uirecorder/internal/models"
)

// Memory keeps everything in process memory. It is the default store and
// the one tests use.
type Memory struct {
	mu         sync.RWMutex
	actions    []models.Action
	testCases  []models.TestCase
	suites     map[uint]models.TestSuite
	executions map[uint]models.TestExecution
	nextSuite  uint
	nextExec   uint
	nextRow    uint
}

func NewMemory() *Memory {
	return &Memory{
		suites:     make(map[uint]models.TestSuite),
		executions: make(map[uint]models.TestExecution),
	}
}

func (m *Memory) AppendRecording(_ context.Context, actions []models.Action, cases []models.TestCase) (Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, a := range actions {
		a.CreatedAt = now
		m.actions = append(m.actions, a)
	}
	for _, tc := range cases {
		m.nextRow++
		tc.RowID = m.nextRow
		tc.CreatedAt = now
		m.testCases = append(m.testCases, tc)
	}
	return Totals{Actions: int64(len(m.actions)), TestCases: int64(len(m.testCases))}, nil
}

func (m *Memory) ListTestCases(context.Context) ([]models.TestCase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.TestCase{}, m.testCases...), nil
}

func (m *Memory) ClearRecording(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = nil
	m.testCases = nil
	return nil
}

func (m *Memory) CreateSuite(_ context.Context, suite *models.TestSuite) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSuite++
	suite.ID = m.nextSuite
	suite.CreatedAt = time.Now()
	suite.UpdatedAt = suite.CreatedAt
	m.suites[suite.ID] = *suite
	return nil
}

func (m *Memory) UpdateSuite(_ context.Context, suite *models.TestSuite) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.suites[suite.ID]; !ok {
		return fmt.Errorf("suite %d: %w", suite.ID, ErrNotFound)
	}
	suite.UpdatedAt = time.Now()
	m.suites[suite.ID] = *suite
	return nil
}

func (m *Memory) GetSuite(_ context.Context, id uint) (*models.TestSuite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.suites[id]
	if !ok {
		return nil, fmt.Errorf("suite %d: %w", id, ErrNotFound)
	}
	return &s, nil
}

func (m *Memory) ListSuites(context.Context) ([]models.TestSuite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.TestSuite, 0, len(m.suites))
	for _, s := range m.suites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteSuite(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.suites[id]; !ok {
		return fmt.Errorf("suite %d: %w", id, ErrNotFound)
	}
	delete(m.suites, id)
	return nil
}

func (m *Memory) CreateExecution(_ context.Context, exec *models.TestExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextExec++
	exec.ID = m.nextExec
	exec.CreatedAt = time.Now()
	exec.UpdatedAt = exec.CreatedAt
	m.executions[exec.ID] = *exec
	return nil
}

func (m *Memory) UpdateExecution(_ context.Context, exec *models.TestExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.executions[exec.ID]; !ok {
		return fmt.Errorf("execution %d: %w", exec.ID, ErrNotFound)
	}
	exec.UpdatedAt = time.Now()
	m.executions[exec.ID] = *exec
	return nil
}

func (m *Memory) GetExecution(_ context.Context, id uint) (*models.TestExecution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.executions[id]
	if !ok {
		return nil, fmt.Errorf("execution %d: %w", id, ErrNotFound)
	}
	return &e, nil
}

func (m *Memory) ListExecutions(_ context.Context, filter ExecutionFilter) ([]models.TestExecution, int64, error) {
	filter = filter.normalized()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []models.TestExecution
	for _, e := range m.executions {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.SuiteID != nil && (e.TestSuiteID == nil || *e.TestSuiteID != *filter.SuiteID) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(matched) {
		return []models.TestExecution{}, total, nil
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}
