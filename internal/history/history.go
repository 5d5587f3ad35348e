// Package history persists finished footprint estimates per user.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/rshade/footprint-estimator/internal/carbon"
)

// Record is one persisted estimate. JSON names follow the carbon_logs table.
type Record struct {
	ID         uuid.UUID       `json:"id"`
	UserID     string          `json:"user_id"`
	LogType    carbon.Mode     `json:"log_type"`
	InputData  json.RawMessage `json:"input_data"`
	Total      float64         `json:"total_carbon"`
	Breakdown  json.RawMessage `json:"breakdown"`
	Suggestion string          `json:"suggestions"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewRecord captures an estimate made for userID from in.
func NewRecord(userID string, in carbon.Input, result carbon.Result) (Record, error) {
	input, err := json.Marshal(in)
	if err != nil {
		return Record{}, fmt.Errorf("encoding input: %w", err)
	}
	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return Record{}, fmt.Errorf("encoding breakdown: %w", err)
	}

	return Record{
		ID:         uuid.New(),
		UserID:     userID,
		LogType:    in.Mode(),
		InputData:  input,
		Total:      result.Total,
		Breakdown:  breakdown,
		Suggestion: result.Suggestion,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Repository stores records and lists them per user.
type Repository interface {
	// Save persists r.
	Save(ctx context.Context, r Record) error

	// ListByUser returns the records of userID, newest first. A limit of
	// zero or less returns all of them.
	ListByUser(ctx context.Context, userID string, limit int) ([]Record, error)

	// Close releases the underlying resources.
	Close() error
}
