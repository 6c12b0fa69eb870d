package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type BaseModel struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Action types sent by the recorder.
const (
	ActionClick      = "click"
	ActionInput      = "input"
	ActionFormSubmit = "formSubmit"
	ActionNavigation = "navigation"
	ActionSelect     = "select"
)

// Action is one interaction captured in the browser.
type Action struct {
	ID               uint      `json:"-" gorm:"primarykey"`
	Type             string    `json:"type" gorm:"size:32;not null"`
	Target           string    `json:"target" gorm:"size:500"`
	Value            string    `json:"value" gorm:"type:text"`
	URL              string    `json:"url" gorm:"size:2000"`
	XPath            string    `json:"xpath" gorm:"size:1000"`
	CSSSelector      string    `json:"cssSelector" gorm:"size:1000"`
	XPathValidated   bool      `json:"xpathValidated"`
	XPathNeedsReview bool      `json:"xpathNeedsReview"`
	Timestamp        int64     `json:"timestamp"` // unix milliseconds
	CreatedAt        time.Time `json:"-"`
}

// Test types assigned when deriving test cases.
const (
	TestTypePositive   = "Positive"
	TestTypeNegative   = "Negative"
	TestTypeBoundary   = "Boundary"
	TestTypeFunctional = "Functional"
	TestTypeUI         = "UI"
)

// TestCase is derived from one recorded action.
type TestCase struct {
	RowID       uint      `json:"-" gorm:"primarykey"`
	CaseID      string    `json:"id" gorm:"index;size:64;not null"`
	Step        int       `json:"step"`
	Action      string    `json:"action" gorm:"size:32;not null"`
	Target      string    `json:"target" gorm:"size:500"`
	Value       string    `json:"value" gorm:"type:text"`
	URL         string    `json:"url" gorm:"size:2000"`
	XPath       string    `json:"xpath" gorm:"size:1000"`
	CSSSelector string    `json:"cssSelector" gorm:"size:1000"`
	Expected    string    `json:"expected" gorm:"size:500"`
	TestType    string    `json:"testType" gorm:"size:32"`
	NeedsReview bool      `json:"xpathNeedsReview"`
	Timestamp   int64     `json:"timestamp"`
	CreatedAt   time.Time `json:"-"`
}

// TestSuite is a saved recorded flow.
type TestSuite struct {
	BaseModel
	Name           string `json:"name" gorm:"size:200;not null"`
	Description    string `json:"description" gorm:"size:1000"`
	Steps          string `json:"steps" gorm:"type:longtext"` // JSON array of replay steps
	StepCount      int    `json:"step_count" gorm:"-"`
	CronExpression string `json:"cron_expression" gorm:"size:100"`
	Device         string `json:"device" gorm:"size:100"`
	ImplicitWait   int    `json:"implicit_wait"` // seconds, 0 for default
	ExplicitWait   int    `json:"explicit_wait"` // seconds, 0 for default
	Status         int    `json:"status" gorm:"default:1"` // 1:active, 0:inactive
}

// Execution statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusPassed    = "passed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Execution triggers.
const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
	TriggerRecorder = "recorder"
)

// TestExecution is one replay run.
type TestExecution struct {
	BaseModel
	TestSuiteID   *uint      `json:"test_suite_id"` // nil when replaying the current test cases
	SuiteName     string     `json:"suite_name" gorm:"size:200"`
	Trigger       string     `json:"trigger" gorm:"size:20"`
	Status        string     `json:"status" gorm:"size:20;index"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Duration      int        `json:"duration"` // milliseconds
	TotalSteps    int        `json:"total_steps"`
	PassedSteps   int        `json:"passed_steps"`
	FailedStep    int        `json:"failed_step"` // 1-based, 0 when none failed
	ErrorMessage  string     `json:"error_message" gorm:"type:text"`
	ExecutionLogs string     `json:"execution_logs" gorm:"type:longtext"` // JSON format
	Screenshots   string     `json:"screenshots" gorm:"type:text"`        // JSON array of screenshot paths
}

func (e *TestExecution) GetScreenshots() ([]string, error) {
	var shots []string
	if e.Screenshots == "" {
		return shots, nil
	}
	err := json.Unmarshal([]byte(e.Screenshots), &shots)
	return shots, err
}

// Finished reports whether the execution reached a final status.
func (e *TestExecution) Finished() bool {
	switch e.Status {
	case StatusPassed, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
