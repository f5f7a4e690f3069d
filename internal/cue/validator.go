// Package cue validates decoded records against embedded CUE schemas.
package cue

import (
	"embed"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/dotcommander/qtrend/internal/types"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// SchemaScoredRecord names the scored record schema.
const SchemaScoredRecord = "scored_record"

// CheckRequiredFields is the check name attached to schema violations.
const CheckRequiredFields = "required_fields"

// Validator handles CUE validation
type Validator struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}
}

// LoadSchemas compiles every embedded .cue file. A schema that fails to
// compile is skipped; it is an error only when none load.
func (v *Validator) LoadSchemas() error {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return fmt.Errorf("reading embedded schemas: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".cue" {
			continue
		}
		content, err := schemaFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			continue
		}

		inst := v.ctx.CompileBytes(content, cue.Filename(entry.Name()))
		if inst.Err() != nil {
			continue
		}
		v.schemas[strings.TrimSuffix(entry.Name(), ".cue")] = inst.Value()
	}

	if len(v.schemas) == 0 {
		return fmt.Errorf("no CUE schemas loaded")
	}
	return nil
}

// HasSchema reports whether the named schema compiled.
func (v *Validator) HasSchema(name string) bool {
	_, ok := v.schemas[name]
	return ok
}

// RequiredFields lists the non-optional fields of the scored record schema.
func (v *Validator) RequiredFields() []string {
	def, ok := v.definition(SchemaScoredRecord)
	if !ok {
		return nil
	}
	var fields []string
	iter, err := def.Fields()
	if err != nil {
		return nil
	}
	for iter.Next() {
		fields = append(fields, iter.Selector().String())
	}
	return fields
}

// ValidateRecord checks one decoded scored record. Required fields that are
// missing, blank or mistyped are reported first as a single error; other
// schema violations follow one per path. A nil slice means the record conforms.
func (v *Validator) ValidateRecord(data map[string]any) ([]types.ValidationError, error) {
	def, ok := v.definition(SchemaScoredRecord)
	if !ok {
		return nil, nil
	}

	value := v.ctx.Encode(data)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	unified := def.Unify(value)

	questionnaire, _ := data["questionnaire"].(string)
	timepoint := 0
	if n, ok := data["timepoint"].(float64); ok {
		timepoint = int(n)
	} else if n, ok := data["timepoint"].(int); ok {
		timepoint = n
	}
	newError := func(msg string) types.ValidationError {
		return types.ValidationError{
			Questionnaire: questionnaire,
			Timepoint:     timepoint,
			Message:       msg,
			Severity:      types.SeverityError,
			Check:         CheckRequiredFields,
		}
	}

	var errs []types.ValidationError
	missing := v.missingFields(def, unified)
	if len(missing) > 0 {
		errs = append(errs, newError("missing or invalid required fields: "+strings.Join(missing, ", ")))
	}

	if err := unified.Validate(cue.Concrete(true)); err != nil {
		for _, e := range cueerrors.Errors(err) {
			path := fieldPath(e.Path())
			if len(path) > 0 && slices.Contains(missing, path[0]) {
				continue
			}
			errs = append(errs, newError(fmt.Sprintf("schema violation at %s: %s", strings.Join(path, "."), message(e))))
		}
	}
	return errs, nil
}

// MissingFields returns the required fields that are absent, blank or mistyped in data.
func (v *Validator) MissingFields(data map[string]any) []string {
	def, ok := v.definition(SchemaScoredRecord)
	if !ok {
		return nil
	}
	value := v.ctx.Encode(data)
	if value.Err() != nil {
		return v.RequiredFields()
	}
	return v.missingFields(def, def.Unify(value))
}

func (v *Validator) missingFields(def, unified cue.Value) []string {
	var missing []string
	iter, err := def.Fields()
	if err != nil {
		return nil
	}
	for iter.Next() {
		sel := iter.Selector()
		field := unified.LookupPath(cue.MakePath(sel))
		if !field.Exists() || field.Validate(cue.Concrete(true)) != nil {
			missing = append(missing, sel.String())
		}
	}
	return missing
}

// definition returns #ScoredRecord for scored_record and so on.
func (v *Validator) definition(schema string) (cue.Value, bool) {
	root, ok := v.schemas[schema]
	if !ok {
		return cue.Value{}, false
	}
	var name strings.Builder
	name.WriteByte('#')
	for part := range strings.SplitSeq(schema, "_") {
		if part == "" {
			continue
		}
		name.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	def := root.LookupPath(cue.ParsePath(name.String()))
	return def, def.Exists()
}

// fieldPath drops the definition prefix from an error path.
func fieldPath(path []string) []string {
	for len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	return path
}

func message(e cueerrors.Error) string {
	format, args := e.Msg()
	return fmt.Sprintf(format, args...)
}
