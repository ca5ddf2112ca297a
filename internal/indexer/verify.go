package indexer

import (
	"fmt"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
)

type Violation struct {
	Index  int
	Code   string
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("row %d (%s): %s", v.Index, v.Code, v.Reason)
}

// Verify checks that every row's text is reproducible from its fields and
// that all vectors share one dimension.
func Verify(rows []models.StandardRow) []Violation {
	var violations []Violation
	dims := 0
	for i, row := range rows {
		if want := row.ComposeText(); row.Text != want {
			violations = append(violations, Violation{
				Index:  i,
				Code:   row.Code,
				Reason: fmt.Sprintf("text %q does not match recomputed %q", row.Text, want),
			})
		}

		if len(row.Vector) == 0 {
			violations = append(violations, Violation{Index: i, Code: row.Code, Reason: "missing vector"})
			continue
		}
		if dims == 0 {
			dims = len(row.Vector)
		}
		if len(row.Vector) != dims {
			violations = append(violations, Violation{
				Index:  i,
				Code:   row.Code,
				Reason: fmt.Sprintf("vector has %d dimensions, expected %d", len(row.Vector), dims),
			})
		}
	}
	return violations
}
