package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cci-engine/internal/model"
)

const batchCSVHeader = "education,years_experience,job_title,fico,dti,industry_type,operating_margin,cyber_incidents,market_volatility"

func writeTempCSV(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	content := batchCSVHeader + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadBatchCSV(t *testing.T) {
	path := writeTempCSV(t,
		"master,12,engineer,750,0.35,technology,12,0,0",
		"bachelor,,analyst,680,,healthcare,,2,0.7",
	)

	requests, err := readBatchCSV(path)
	require.NoError(t, err)
	require.Len(t, requests, 2)

	first := requests[0].Request
	assert.Equal(t, 2, requests[0].Line)
	assert.Equal(t, "master", first.Professional.Education)
	require.NotNil(t, first.Professional.FICO)
	assert.Equal(t, 750, *first.Professional.FICO)
	require.NotNil(t, first.Professional.DTI)
	assert.InDelta(t, 0.35, *first.Professional.DTI, 1e-9)
	assert.Equal(t, "technology", first.Company.IndustryType)

	// Empty cells stay nil so scoring treats them as missing.
	second := requests[1].Request
	assert.Nil(t, second.Professional.YearsExperience)
	assert.Nil(t, second.Professional.DTI)
	assert.Nil(t, second.Company.OperatingMargin)
	assert.Zero(t, second.External.ComplianceFindings) // column absent entirely
	assert.Equal(t, 2, second.External.CyberIncidents)
	assert.InDelta(t, 0.7, second.External.MarketVolatility, 1e-9)
}

func TestReadBatchCSVBadNumber(t *testing.T) {
	path := writeTempCSV(t, "master,twelve,engineer,750,0.35,technology,12,0,0")

	_, err := readBatchCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "years_experience")
}

func TestReadBatchCSVMissingFile(t *testing.T) {
	_, err := readBatchCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestParseBatchRecordIgnoresUnknownColumns(t *testing.T) {
	cols := map[string]int{"education": 0, "favorite_color": 1, "fico": 2}
	req, err := parseBatchRecord(cols, []string{"bachelor", "green", "720"})
	require.NoError(t, err)
	assert.Equal(t, "bachelor", req.Professional.Education)
	require.NotNil(t, req.Professional.FICO)
	assert.Equal(t, 720, *req.Professional.FICO)
}

func TestBatchReportRecord(t *testing.T) {
	ok := batchRow{
		Line: 3,
		Result: &model.AssessmentResult{
			FinalScore:            50.08,
			RiskTier:              model.TierHigh,
			Confidence:            86.7,
			ProfessionalComponent: 49.55,
			IndustryComponent:     50.86,
			DefaultedFields:       []string{"age", "state"},
		},
	}
	record := batchReportRecord(ok)
	require.Len(t, record, len(batchReportHeader))
	assert.Equal(t, "3", record[0])
	assert.Equal(t, "50.08", record[1])
	assert.Equal(t, "high", record[2])
	assert.Equal(t, "age;state", record[6])
	assert.Empty(t, record[7])

	failed := batchRow{Line: 4, Err: assert.AnError}
	record = batchReportRecord(failed)
	assert.Equal(t, "4", record[0])
	assert.Empty(t, record[1])
	assert.NotEmpty(t, record[7])
}

func TestWriteBatchCSVReport(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "report.csv")
	rows := []batchRow{
		{Line: 2, Result: &model.AssessmentResult{FinalScore: 42, RiskTier: model.TierModerate}},
		{Line: 3, Err: assert.AnError},
	}

	require.NoError(t, writeBatchCSVReport(rows, outPath))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, batchReportHeader, records[0])
	assert.Equal(t, "moderate", records[1][2])
	assert.NotEmpty(t, records[2][7])
}

func TestTierLabel(t *testing.T) {
	assert.Equal(t, "Critical High", tierLabel(model.TierCriticalHigh))
	assert.Equal(t, "Very Low", tierLabel(model.TierVeryLow))
	assert.Equal(t, "High", tierLabel(model.TierHigh))
}
