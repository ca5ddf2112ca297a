package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
	"github.com/rs/zerolog"
)

// DocumentSuffix is stripped from a catalog filename (before the extension) to get the subject key.
const DocumentSuffix = "_standards"

var decoders = map[string]func(path string) (*Node, error){
	".json": decodeFile(DecodeJSON),
	".yaml": decodeFile(DecodeYAML),
	".yml":  decodeFile(DecodeYAML),
}

// Document is one discovered catalog file and the scope tags derived from its location.
type Document struct {
	Path       string
	Curriculum string
	Subject    string
}

type Loader struct {
	root   string
	logger *zerolog.Logger
}

func NewLoader(root string, logger *zerolog.Logger) *Loader {
	return &Loader{
		root:   root,
		logger: logger,
	}
}

// Discover lists catalog documents under the root in lexical path order.
// A missing root yields no documents and no error.
func (l *Loader) Discover() ([]Document, error) {
	info, err := os.Stat(l.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn().Str("root", l.root).Msg("corpus root not found")
			return nil, nil
		}
		return nil, fmt.Errorf("stat corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", l.root)
	}

	var docs []Document
	err = filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		subject, ok := subjectKey(d.Name())
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}

		docs = append(docs, Document{
			Path:       path,
			Curriculum: curriculumTag(rel),
			Subject:    subject,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus root: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Load discovers every document and flattens it into rows.
func (l *Loader) Load(ctx context.Context) ([]models.StandardRow, error) {
	docs, err := l.Discover()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		l.logger.Warn().Str("root", l.root).Msg("no catalog documents found")
		return nil, nil
	}

	var rows []models.StandardRow
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		docRows, err := l.LoadDocument(doc)
		if err != nil {
			return nil, err
		}

		l.logger.Debug().
			Str("path", doc.Path).
			Str("curriculum", doc.Curriculum).
			Str("subject", doc.Subject).
			Int("rows", len(docRows)).
			Msg("document flattened")

		rows = append(rows, docRows...)
	}

	l.logger.Info().
		Int("documents", len(docs)).
		Int("rows", len(rows)).
		Msg("corpus loaded")

	return rows, nil
}

func (l *Loader) LoadDocument(doc Document) ([]models.StandardRow, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(doc.Path))]
	if !ok {
		return nil, fmt.Errorf("unsupported document type %s", doc.Path)
	}

	root, err := decode(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", doc.Path, err)
	}

	return Flatten(root, doc.Curriculum, doc.Subject), nil
}

// Flatten emits a row for every mapping node carrying a non-empty code and description.
// Top-level mapping keys are grade labels; any other root shape is walked with an empty grade.
func Flatten(root *Node, curriculum, subject string) []models.StandardRow {
	var rows []models.StandardRow
	emit := func(grade string) func(*Node) {
		return func(n *Node) {
			if n.Kind != KindMapping {
				return
			}
			code := strings.TrimSpace(n.Scalar("code"))
			description := strings.TrimSpace(n.Scalar("description"))
			if code == "" || description == "" {
				return
			}
			rows = append(rows, models.StandardRow{
				Code:        code,
				Description: description,
				Curriculum:  curriculum,
				SubjectKey:  subject,
				Grade:       grade,
			})
		}
	}

	if root == nil {
		return nil
	}
	if root.Kind != KindMapping {
		Walk(root, emit(""))
		return rows
	}

	// A root that is itself a standard has no grade level above it.
	emit("")(root)
	for _, e := range root.Entries {
		Walk(e.Value, emit(e.Key))
	}
	return rows
}

func subjectKey(filename string) (string, bool) {
	ext := filepath.Ext(filename)
	if _, ok := decoders[strings.ToLower(ext)]; !ok {
		return "", false
	}
	stem := strings.TrimSuffix(filename, ext)
	if !strings.HasSuffix(stem, DocumentSuffix) {
		return "", false
	}
	subject := strings.TrimSuffix(stem, DocumentSuffix)
	return subject, subject != ""
}

func curriculumTag(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

func decodeFile(decode func(io.Reader) (*Node, error)) func(string) (*Node, error) {
	return func(path string) (*Node, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return decode(f)
	}
}
