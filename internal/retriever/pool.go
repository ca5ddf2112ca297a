package retriever

import (
	"strings"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
)

// Level is how far the scope filter was relaxed to get a non-empty pool.
type Level int

const (
	LevelExact Level = iota
	LevelSubject
	LevelCurriculum
	LevelAll
)

func (l Level) String() string {
	switch l {
	case LevelExact:
		return "curriculum+subject+grade"
	case LevelSubject:
		return "curriculum+subject"
	case LevelCurriculum:
		return "curriculum"
	default:
		return "all"
	}
}

func (l Level) matches(scope models.Scope, row models.StandardRow) bool {
	switch l {
	case LevelExact:
		return tagMatches(scope.Curriculum, row.Curriculum) &&
			tagMatches(scope.Subject, row.SubjectKey) &&
			tagMatches(scope.Grade, row.Grade)
	case LevelSubject:
		return tagMatches(scope.Curriculum, row.Curriculum) &&
			tagMatches(scope.Subject, row.SubjectKey)
	case LevelCurriculum:
		return tagMatches(scope.Curriculum, row.Curriculum)
	default:
		return true
	}
}

// Relax returns the rows accepted by keep within the narrowest scope level
// that has any. keep may be nil.
func Relax(index []models.StandardRow, scope models.Scope, keep func(models.StandardRow) bool) ([]models.StandardRow, Level) {
	for level := LevelExact; level <= LevelAll; level++ {
		var pool []models.StandardRow
		for _, row := range index {
			if level.matches(scope, row) && (keep == nil || keep(row)) {
				pool = append(pool, row)
			}
		}
		if len(pool) > 0 {
			return pool, level
		}
	}
	return nil, LevelAll
}

// Pool is the retrieval working set for scope.
func Pool(index []models.StandardRow, scope models.Scope) ([]models.StandardRow, Level) {
	return Relax(index, scope, nil)
}

// FindByCode locates the row with an exact code, relaxing scope the same way as Pool.
func FindByCode(index []models.StandardRow, scope models.Scope, code string) (models.StandardRow, Level, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.StandardRow{}, LevelAll, false
	}

	pool, level := Relax(index, scope, func(row models.StandardRow) bool {
		return row.Code == code
	})
	if len(pool) == 0 {
		return models.StandardRow{}, LevelAll, false
	}
	return pool[0], level, true
}

// tagMatches compares scope tags ignoring case, underscores and repeated
// spaces. An empty requested tag matches anything.
func tagMatches(want, got string) bool {
	if strings.TrimSpace(want) == "" {
		return true
	}
	return strings.EqualFold(normalizeTag(want), normalizeTag(got))
}

func normalizeTag(tag string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(tag, "_", " ")), " ")
}
