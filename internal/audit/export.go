package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"time"
)

// ExportJSON serializes entries as indented JSON for compliance export.
func ExportJSON(entries []Entry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}

// ExportCSV serializes entries as delimited tabular text with a header row.
func ExportCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"timestamp", "actor_email", "action", "resource_type", "resource_id", "ip_address"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		row := []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			e.ActorEmail,
			e.Action,
			e.ResourceType,
			e.ResourceID,
			e.IPAddress,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
