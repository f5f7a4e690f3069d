// Package ingest decodes input files into generic records. Raw response rows
// and already-scored records share the same decoders and are told apart by
// the presence of raw_total.
package ingest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/qtrend/internal/coerce"
	"github.com/dotcommander/qtrend/internal/discovery"
	"github.com/dotcommander/qtrend/internal/types"
)

// ErrUnsupportedFormat is returned for files whose encoding or top-level
// shape cannot hold records.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// collectionKeys are the object keys searched for a record list, in order.
var collectionKeys = []string{"records", "rows", "items", "data"}

// Kind tells raw rows from scored records.
type Kind int

const (
	KindRows Kind = iota
	KindScored
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	if k == KindScored {
		return "scored"
	}
	return "rows"
}

// Batch is everything read from a set of files, split by kind.
type Batch struct {
	Rows    []map[string]any
	Scored  []map[string]any
	Sources []string
}

// Len returns the number of items of both kinds.
func (b *Batch) Len() int {
	return len(b.Rows) + len(b.Scored)
}

// ReadAll decodes every file, appending items in file order.
func ReadAll(files []discovery.File) (*Batch, error) {
	b := &Batch{}
	for _, f := range files {
		items, err := ReadFile(f)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if IsScored(item) {
				b.Scored = append(b.Scored, item)
			} else {
				b.Rows = append(b.Rows, item)
			}
		}
		b.Sources = append(b.Sources, f.RelPath)
	}
	return b, nil
}

// ReadFile decodes one discovered file.
func ReadFile(f discovery.File) ([]map[string]any, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.RelPath, err)
	}
	items, err := Decode(data, f.Type)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", f.RelPath, err)
	}
	return items, nil
}

// Decode turns file contents into records. The top level may be a list of
// records, an object holding one under records/rows/items/data, or a single
// record. List elements wrapped as {"json": {...}} are unwrapped.
func Decode(data []byte, ft discovery.FileType) ([]map[string]any, error) {
	switch ft {
	case discovery.FileTypeJSON:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return records(v)
	case discovery.FileTypeNDJSON:
		return decodeLines(data)
	case discovery.FileTypeYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return records(v)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ft)
	}
}

func decodeLines(data []byte) ([]map[string]any, error) {
	var out []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var item map[string]any
		if err := json.Unmarshal([]byte(text), &item); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, unwrap(item))
	}
	return out, scanner.Err()
}

func records(v any) ([]map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]map[string]any, 0, len(t))
		for i, elem := range t {
			m, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T, not an object", ErrUnsupportedFormat, i, elem)
			}
			out = append(out, unwrap(m))
		}
		return out, nil
	case map[string]any:
		for _, key := range collectionKeys {
			if list, ok := t[key].([]any); ok {
				return records(list)
			}
		}
		return []map[string]any{unwrap(t)}, nil
	default:
		return nil, fmt.Errorf("%w: top level is %T", ErrUnsupportedFormat, v)
	}
}

func unwrap(m map[string]any) map[string]any {
	if inner, ok := m["json"].(map[string]any); ok {
		return inner
	}
	return m
}

// IsScored reports whether item is a scored record rather than a raw row.
func IsScored(item map[string]any) bool {
	_, ok := item["raw_total"]
	return ok
}

// CheckScoredInput names quality issues raised while decoding scored records.
const CheckScoredInput = "scored_input"

// optionalFields are dropped in order, one at a time, until a malformed
// scored item decodes.
var optionalFields = []string{"derived", "scale_info", "responses", "clinical_flags", "free_text"}

// ScoredRecords converts decoded scored items into typed records. The
// identity fields are coerced the way raw rows are, so a timepoint written
// as "2" or a raw_total of 12.0 still decodes. Malformed optional fields are
// dropped with a warning; an item that still fails is skipped with an error
// issue. Decoding never aborts the batch.
func ScoredRecords(items []map[string]any) ([]types.ScoredRecord, []types.ValidationError) {
	out := make([]types.ScoredRecord, 0, len(items))
	var issues []types.ValidationError
	for i, item := range items {
		item = normalizeScored(item)
		issue := types.ValidationError{
			Questionnaire: item["questionnaire"].(string),
			Timepoint:     item["timepoint"].(int),
			Check:         CheckScoredInput,
		}

		rec, err := decodeScored(item)
		var dropped []string
		for _, field := range optionalFields {
			if err == nil {
				break
			}
			if _, ok := item[field]; !ok {
				continue
			}
			delete(item, field)
			dropped = append(dropped, field)
			rec, err = decodeScored(item)
		}

		if err != nil {
			issue.Severity = types.SeverityError
			issue.Message = fmt.Sprintf("Scored record %d could not be decoded: %v", i, err)
			issues = append(issues, issue)
			continue
		}
		if len(dropped) > 0 {
			issue.Severity = types.SeverityWarning
			issue.Message = fmt.Sprintf("Scored record %d: malformed %s ignored", i, strings.Join(dropped, ", "))
			issues = append(issues, issue)
		}
		if rec.ClinicalFlags == nil {
			rec.ClinicalFlags = []string{}
		}
		out = append(out, rec)
	}
	return out, issues
}

// normalizeScored returns a copy of item with its identity fields coerced.
func normalizeScored(item map[string]any) map[string]any {
	item = maps.Clone(item)
	item["questionnaire"] = strings.TrimSpace(coerce.String(item["questionnaire"]))
	item["timepoint"] = coerce.Round(item["timepoint"])
	item["raw_total"] = int(coerce.Number(item["raw_total"]))
	item["severity"] = coerce.String(item["severity"])
	if _, ok := item["date"].(string); !ok {
		item["date"] = coerce.ISODate(item["date"])
	}
	return item
}

func decodeScored(item map[string]any) (types.ScoredRecord, error) {
	var rec types.ScoredRecord
	data, err := json.Marshal(item)
	if err != nil {
		return rec, err
	}
	err = json.Unmarshal(data, &rec)
	return rec, err
}
