package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"uirecorder/internal/models"
)

func TestFilename(t *testing.T) {
	now := time.Date(2024, 11, 11, 18, 45, 0, 123_000_000, time.UTC)
	assert.Equal(t, "TestCases_2024-11-11T18-45-00-123Z.xlsx", Filename(now))
}

func TestWriteTestCases(t *testing.T) {
	tcs := []models.TestCase{
		{CaseID: "TC-1731350700000-0", Step: 1, Action: models.ActionNavigation, URL: "http://example.com/",
			XPath: "N/A", Expected: "Page should load successfully", TestType: models.TestTypeUI, Timestamp: 1731350700000},
		{CaseID: "TC-1731350700000-1", Step: 2, Action: models.ActionClick, Target: "a",
			XPath: "/html/body/div/p[2]/a", TestType: models.TestTypeFunctional, Timestamp: 1731350700000},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTestCases(&buf, tcs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, "TC-1731350700000-0", rows[1][0])
	assert.Equal(t, "1", rows[1][1])
	assert.Equal(t, "2024-11-11T18:45:00Z", rows[1][9])
	assert.Equal(t, "/html/body/div/p[2]/a", rows[2][6])
}

func TestWriteNoTestCases(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTestCases(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
