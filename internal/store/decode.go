package store

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
)

// DecodeResult is a validated snapshot plus the number of rows that were rejected.
type DecodeResult struct {
	Rows       []models.StandardRow
	Skipped    int
	Dimensions int
}

// snapshotRow mirrors the artifact layout with every field optional so that
// missing fields can be told apart from empty ones.
type snapshotRow struct {
	Code        *string   `json:"code"`
	Description *string   `json:"description"`
	Curriculum  string    `json:"curriculum"`
	SubjectKey  string    `json:"subjectKey"`
	Grade       string    `json:"grade"`
	Text        *string   `json:"text"`
	Vector      []float32 `json:"vector"`
}

// Decode streams a JSON array of rows. Rows lacking code, description, text or
// vector, or whose vector length differs from the first valid row, are skipped.
// A payload that is not a JSON array is an error.
func Decode(r io.Reader) (DecodeResult, error) {
	var result DecodeResult

	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return result, fmt.Errorf("read snapshot: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return result, fmt.Errorf("snapshot is not a JSON array")
	}

	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return result, fmt.Errorf("read snapshot row %d: %w", len(result.Rows)+result.Skipped, err)
		}

		var row snapshotRow
		if err := json.Unmarshal(raw, &row); err != nil {
			result.Skipped++
			continue
		}

		standard, ok := validate(row, result.Dimensions)
		if !ok {
			result.Skipped++
			continue
		}
		if result.Dimensions == 0 {
			result.Dimensions = len(standard.Vector)
		}
		result.Rows = append(result.Rows, standard)
	}

	if _, err := dec.Token(); err != nil {
		return result, fmt.Errorf("read snapshot end: %w", err)
	}
	return result, nil
}

func validate(row snapshotRow, dims int) (models.StandardRow, bool) {
	if row.Code == nil || *row.Code == "" || row.Description == nil || *row.Description == "" {
		return models.StandardRow{}, false
	}
	if row.Text == nil || len(row.Vector) == 0 {
		return models.StandardRow{}, false
	}
	if dims != 0 && len(row.Vector) != dims {
		return models.StandardRow{}, false
	}
	return models.StandardRow{
		Code:        *row.Code,
		Description: *row.Description,
		Curriculum:  row.Curriculum,
		SubjectKey:  row.SubjectKey,
		Grade:       row.Grade,
		Text:        *row.Text,
		Vector:      row.Vector,
	}, true
}
