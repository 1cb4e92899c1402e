package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

//go:embed data/books.json
var embeddedBooks []byte

// Source produces raw catalog records. Implementations may be slow; the
// Loader calls Records at most once per successful load.
type Source interface {
	Name() string
	Records(ctx context.Context) ([]Record, error)
}

// JSONSource reads records from a JSON document, either the embedded sample
// catalog or a file on disk.
type JSONSource struct {
	path string
}

// NewJSONSource creates a source for the JSON file at path.
// An empty path selects the embedded catalog.
func NewJSONSource(path string) *JSONSource {
	return &JSONSource{path: path}
}

// EmbeddedSource returns the built-in sample catalog.
func EmbeddedSource() *JSONSource {
	return &JSONSource{}
}

// Name implements Source.
func (s *JSONSource) Name() string {
	if s.path == "" {
		return "embedded"
	}
	return "json:" + s.path
}

// Records implements Source.
func (s *JSONSource) Records(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := embeddedBooks
	if s.path != "" {
		var err error
		data, err = os.ReadFile(s.path) //#nosec G304 -- catalog path comes from configuration
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", s.path, err)
		}
	}
	return DecodeRecords(data)
}

// DecodeRecords parses a catalog document. Both a top-level array of records
// and an object of the form {"books": [...]} are accepted.
func DecodeRecords(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode catalog: empty document")
	}

	switch trimmed[0] {
	case '[':
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		return records, nil
	case '{':
		var doc struct {
			Books *[]Record `json:"books"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		if doc.Books == nil {
			return nil, fmt.Errorf("decode catalog: object has no \"books\" field")
		}
		return *doc.Books, nil
	default:
		return nil, fmt.Errorf("decode catalog: expected array or object, got %q", trimmed[0])
	}
}

// EncodeRecords writes records as an indented JSON array.
func EncodeRecords(records []Record) ([]byte, error) {
	return json.MarshalIndent(records, "", "  ")
}
