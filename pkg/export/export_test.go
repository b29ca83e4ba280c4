package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	ts := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	entries := []domain.AuditEntry{
		{
			ID:                "a1",
			Timestamp:         ts,
			ObjectName:        "Laptop, 14\"",
			FromStatusLabel:   "Draft",
			Action:            "Submit",
			ToStatusLabel:     "Review",
			Actor:             "ana",
			Role:              "requester",
			FieldValues:       map[string]any{"Amount": 1200.5, "Justification": "broken screen"},
			DocumentsAttached: []string{"Invoice", "Quote"},
			Notifications:     []domain.NotificationEvent{{}, {}},
		},
		{
			ID:              "a2",
			Timestamp:       ts.Add(time.Hour),
			ObjectName:      "Laptop",
			FromStatusLabel: "Review",
			Action:          "Approve",
			ToStatusLabel:   "Done",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, entries))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, export.Header, records[0])
	assert.Equal(t, []string{
		"2026-03-04T09:30:00Z",
		"Laptop, 14\"",
		"Draft",
		"Submit",
		"Review",
		"ana",
		"requester",
		"Amount=1200.5; Justification=broken screen",
		"Invoice; Quote",
		"2",
	}, records[1])
	assert.Equal(t, []string{"2026-03-04T10:30:00Z", "Laptop", "Review", "Approve", "Done", "", "", "", "", "0"}, records[2])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, nil))
	assert.Equal(t, "Timestamp,Object,FromStatus,Action,ToStatus,Actor,Role,Fields,Documents,Notifications\n", buf.String())
}

func TestFormatFields(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		want   string
	}{
		{"Nil", nil, ""},
		{"Sorted", map[string]any{"b": "2", "a": "1"}, "a=1; b=2"},
		{"Mixed Types", map[string]any{"n": 3, "ok": true, "none": nil}, "n=3; none=; ok=true"},
		{"Time", map[string]any{"due": time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, "due=2026-01-01T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, export.FormatFields(tt.values))
		})
	}
}
