package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPendingAnalysis(t *testing.T) {
	job := NewPendingAnalysis(42)

	assert.Equal(t, uint(42), job.DataSourceID)
	assert.Equal(t, AnalysisTypeAnomalyDetection, job.AnalysisType)
	assert.Equal(t, AnalysisStatusPending, job.Status)
	assert.Nil(t, job.ErrorMessage)
}

func TestMarkFailed(t *testing.T) {
	job := NewPendingAnalysis(1)
	job.MarkFailed("broker unreachable")

	assert.Equal(t, AnalysisStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "broker unreachable", *job.ErrorMessage)
}

func TestAnalysisResultJSONFieldNames(t *testing.T) {
	job := NewPendingAnalysis(7)
	job.ID = 3

	raw, err := json.Marshal(job)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))

	for _, key := range []string{"id", "dataSourceId", "analysisType", "status", "resultSummary",
		"errorMessage", "resultDetailsJson", "createdAt", "updatedAt"} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, "PENDING", fields["status"])
	assert.Nil(t, fields["errorMessage"])
}

func TestDataSourceHasLocation(t *testing.T) {
	empty := ""
	blank := "   "
	path := "uploads/source_1_data.csv"

	tests := []struct {
		name     string
		location *string
		expected bool
	}{
		{"nil", nil, false},
		{"empty", &empty, false},
		{"blank", &blank, false},
		{"set", &path, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := DataSource{Location: tt.location}
			assert.Equal(t, tt.expected, ds.HasLocation())
		})
	}
}
