// Package export renders audit trails for spreadsheets and reporting tools.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/sopflow/pkg/domain"
)

// Header is the fixed CSV column order.
var Header = []string{
	"Timestamp",
	"Object",
	"FromStatus",
	"Action",
	"ToStatus",
	"Actor",
	"Role",
	"Fields",
	"Documents",
	"Notifications",
}

const listSeparator = "; "

// WriteCSV writes the header followed by one row per entry, in the given order.
func WriteCSV(w io.Writer, entries []domain.AuditEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(Row(e)); err != nil {
			return fmt.Errorf("failed to write audit entry %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row renders a single audit entry as CSV cells.
func Row(e domain.AuditEntry) []string {
	return []string{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.ObjectName,
		e.FromStatusLabel,
		e.Action,
		e.ToStatusLabel,
		e.Actor,
		e.Role,
		FormatFields(e.FieldValues),
		strings.Join(e.DocumentsAttached, listSeparator),
		strconv.Itoa(len(e.Notifications)),
	}
}

// FormatFields serializes field values as key=value pairs sorted by key.
func FormatFields(values map[string]any) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + formatValue(values[k])
	}
	return strings.Join(pairs, listSeparator)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
