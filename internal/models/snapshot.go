package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a saved appraisal: its inputs, its results and the level it was run at.
// Level is always stored explicitly.
type Snapshot struct {
	SavedAt time.Time      `json:"saved_at"`
	Results *Results       `json:"results"`
	Name    string         `json:"name"`
	Level   AppraisalLevel `json:"level"`
	Inputs  Inputs         `json:"inputs"`
	ID      uuid.UUID      `json:"id"`
}

// SnapshotPayload is the JSONB column holding a snapshot's inputs and results.
type SnapshotPayload struct {
	Results *Results `json:"results"`
	Inputs  Inputs   `json:"inputs"`
}

// Payload extracts the stored document of a snapshot.
func (s Snapshot) Payload() SnapshotPayload {
	return SnapshotPayload{Inputs: s.Inputs, Results: s.Results}
}

// Scan implements sql.Scanner for reading the payload from a JSONB column.
func (p *SnapshotPayload) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan SnapshotPayload: expected []byte, got %T", value)
	}

	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot payload: %w", err)
	}
	return nil
}

// Value implements driver.Valuer for writing the payload to a JSONB column.
func (p SnapshotPayload) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot payload: %w", err)
	}
	return string(data), nil
}

// SnapshotSummary is the listing view of a snapshot, without its payload.
type SnapshotSummary struct {
	SavedAt time.Time      `json:"saved_at"`
	Name    string         `json:"name"`
	Level   AppraisalLevel `json:"level"`
	ID      uuid.UUID      `json:"id"`
}
