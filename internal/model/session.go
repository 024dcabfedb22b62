package model

import "time"

// SessionInfo describes a session's progress through upload, mapping and analysis.
type SessionInfo struct {
	ID           string         `json:"id"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastAccess   time.Time      `json:"lastAccess"`
	Columns      []string       `json:"columns"`
	RowCount     int            `json:"rowCount"`
	Mapping      *ColumnMapping `json:"mapping,omitempty"`
	Prepared     bool           `json:"prepared"`
	PreparedRows int            `json:"preparedRows"`
	Analyzed     bool           `json:"analyzed"`
}
