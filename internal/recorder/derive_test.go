package recorder

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uirecorder/internal/models"
	"uirecorder/internal/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		action models.Action
		want   string
	}{
		{"empty input", models.Action{Type: models.ActionInput}, models.TestTypeNegative},
		{"long input", models.Action{Type: models.ActionInput, Value: strings.Repeat("x", 51)}, models.TestTypeBoundary},
		{"input at limit", models.Action{Type: models.ActionInput, Value: strings.Repeat("x", 50)}, models.TestTypePositive},
		{"astral input over limit", models.Action{Type: models.ActionInput, Value: strings.Repeat("😀", 26)}, models.TestTypeBoundary},
		{"astral input at limit", models.Action{Type: models.ActionInput, Value: strings.Repeat("😀", 25)}, models.TestTypePositive},
		{"accented input at limit", models.Action{Type: models.ActionInput, Value: strings.Repeat("é", 50)}, models.TestTypePositive},
		{"form submit", models.Action{Type: models.ActionFormSubmit}, models.TestTypeFunctional},
		{"navigation", models.Action{Type: models.ActionNavigation}, models.TestTypeUI},
		{"click", models.Action{Type: models.ActionClick}, models.TestTypeFunctional},
		{"select", models.Action{Type: models.ActionSelect, Value: "NL"}, models.TestTypeFunctional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.action))
		})
	}
}

func TestDerive(t *testing.T) {
	now := time.UnixMilli(1731350700000)
	batch := []models.Action{
		{Type: models.ActionNavigation, URL: "http://example.com/", Timestamp: 1731350690000},
		{Type: models.ActionClick, Target: "a#someLink", XPath: "/html/body/div/p[2]/a", XPathNeedsReview: true},
		{Type: models.ActionInput, Target: "input#q", Value: ""},
	}

	cases := Derive(batch, now)
	require.Len(t, cases, 3)

	assert.Equal(t, "TC-1731350700000-0", cases[0].CaseID)
	assert.Equal(t, 1, cases[0].Step)
	assert.Equal(t, "N/A", cases[0].XPath)
	assert.Equal(t, int64(1731350690000), cases[0].Timestamp)
	assert.Equal(t, "Page should load correctly.", cases[0].Expected)
	assert.Equal(t, models.TestTypeUI, cases[0].TestType)

	assert.Equal(t, "TC-1731350700000-1", cases[1].CaseID)
	assert.Equal(t, "/html/body/div/p[2]/a", cases[1].XPath)
	assert.Equal(t, int64(1731350700000), cases[1].Timestamp)
	assert.Equal(t, "Element should respond (open/toggle/submit).", cases[1].Expected)
	assert.True(t, cases[1].NeedsReview)

	assert.Equal(t, 3, cases[2].Step)
	assert.Equal(t, models.TestTypeNegative, cases[2].TestType)
	assert.Equal(t, "Field should accept and validate input.", cases[2].Expected)
}

func TestExpectedFallback(t *testing.T) {
	assert.Equal(t, "Form should submit successfully.", Expected(models.ActionFormSubmit))
	assert.Equal(t, "Action should complete without errors.", Expected("scroll"))
}

func TestServiceIngest(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())
	svc.now = func() time.Time { return time.UnixMilli(1731350700000) }

	_, err := svc.Ingest(ctx, nil)
	assert.ErrorIs(t, err, ErrNoActions)

	summary, err := svc.Ingest(ctx, []models.Action{
		{Type: models.ActionNavigation, URL: "http://example.com/"},
		{Type: models.ActionClick, XPath: "/html/body/div/p[2]/a"},
	})
	require.NoError(t, err)
	assert.True(t, summary.OK)
	assert.Equal(t, 2, summary.Received)
	assert.Equal(t, int64(2), summary.TotalActions)
	assert.Equal(t, int64(2), summary.TotalTestCases)
	assert.Equal(t, "2024-11-11T18:45:00Z", summary.Timestamp)

	summary, err = svc.Ingest(ctx, []models.Action{})
	require.NoError(t, err)
	assert.Zero(t, summary.Received)
	assert.Equal(t, int64(2), summary.TotalActions)

	require.NoError(t, svc.Flush(ctx, []models.Action{{Type: models.ActionInput, Value: "x"}}))
	cases, err := svc.TestCases(ctx)
	require.NoError(t, err)
	assert.Len(t, cases, 3)

	require.NoError(t, svc.Clear(ctx))
	cases, err = svc.TestCases(ctx)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestServiceIngestSameMillisecond(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())
	svc.now = func() time.Time { return time.UnixMilli(1731350700000) }

	batch := []models.Action{{Type: models.ActionClick, XPath: "//a"}}
	_, err := svc.Ingest(ctx, batch)
	require.NoError(t, err)
	summary, err := svc.Ingest(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalTestCases)

	cases, err := svc.TestCases(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, cases[0].CaseID, cases[1].CaseID)
}
