package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Reference", "Amount", "Status"},
		Rows: []map[string]string{
			{"Reference": "REF-001", "Amount": "45000.00", "Status": "paid"},
			{"Reference": "REF-002", "Amount": "12500.00", "Status": "pending"},
		},
	}
}

func TestCSVRenderRoundTrips(t *testing.T) {
	content, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, []string{"Reference", "Amount", "Status"}, records[0])
	assert.Equal(t, []string{"REF-001", "45000.00", "paid"}, records[1])
	assert.Equal(t, []string{"REF-002", "12500.00", "pending"}, records[2])
}

func TestCSVRenderFillsMissingColumns(t *testing.T) {
	data := Dataset{
		Headers: []string{"Reference", "Note"},
		Rows:    []map[string]string{{"Reference": "REF-001"}},
	}

	content, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"REF-001", ""}, records[1])
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})

	assert.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	content, err := NewPDFExporter().Render(sampleDataset(), "Disbursement Statement")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
	assert.Greater(t, len(content), 500)
}

func TestPDFRenderRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "empty")

	assert.Error(t, err)
}
