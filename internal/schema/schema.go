// Package schema validates protocol event content against CUE schemas
// before it reaches the decoder.
//
// The decoder is lenient about missing fields; the schemas are not. The CLI
// validate command and the ingest pipeline (when configured with a
// Validator) use them to surface malformed content with precise paths.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/acterstore/internal/event"
)

//go:embed schemas.cue
var schemasCUE []byte

// ErrNoSchema is returned for event types without a schema.
var ErrNoSchema = errors.New("no schema for event type")

// Violation is a single schema failure.
type Violation struct {
	// Path is the dotted path inside the content ("" for the root).
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in one event.
type ValidationError struct {
	EventID    string
	Type       string
	Field      string // "content" or "prev_content"
	Violations []Violation
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Path == "" {
			parts = append(parts, v.Message)
			continue
		}
		parts = append(parts, v.Path+": "+v.Message)
	}
	return fmt.Sprintf("%s %s (%s): %s", e.Field, e.EventID, e.Type, strings.Join(parts, "; "))
}

// Validator holds the compiled schemas. Not safe for concurrent use: a CUE
// context is single-threaded.
type Validator struct {
	ctx     *cue.Context
	schemas cue.Value
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(schemasCUE, cue.Filename("schemas.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schemas: %w", err)
	}
	schemas := v.LookupPath(cue.ParsePath("schemas"))
	if !schemas.Exists() {
		return nil, fmt.Errorf("compile schemas: missing schemas field")
	}
	return &Validator{ctx: ctx, schemas: schemas}, nil
}

// Types returns every event type with a schema, sorted.
func (v *Validator) Types() []string {
	var types []string
	iter, err := v.schemas.Fields()
	if err != nil {
		return nil
	}
	for iter.Next() {
		types = append(types, iter.Selector().Unquoted())
	}
	slices.Sort(types)
	return types
}

// Validate checks the content and previous content of ev against the schema
// of its type.
func (v *Validator) Validate(ev event.Event) error {
	schema := v.schemas.LookupPath(cue.MakePath(cue.Str(ev.Type)))
	if !schema.Exists() {
		return fmt.Errorf("%w: %s", ErrNoSchema, ev.Type)
	}

	if err := v.check(schema, ev, "content", ev.Content); err != nil {
		return err
	}
	if len(ev.PrevContent) > 0 {
		return v.check(schema, ev, "prev_content", ev.PrevContent)
	}
	return nil
}

func (v *Validator) check(schema cue.Value, ev event.Event, field string, data []byte) error {
	content := v.ctx.CompileBytes(data, cue.Filename(field+".json"))
	if err := content.Err(); err != nil {
		return &ValidationError{
			EventID:    ev.EventID,
			Type:       ev.Type,
			Field:      field,
			Violations: []Violation{{Message: fmt.Sprintf("not valid JSON: %v", err)}},
		}
	}

	unified := schema.Unify(content)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{
			EventID:    ev.EventID,
			Type:       ev.Type,
			Field:      field,
			Violations: violations(err),
		}
	}
	return nil
}

// violations flattens CUE errors, deduplicated and sorted by path.
func violations(err error) []Violation {
	var out []Violation
	seen := map[Violation]bool{}
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		vi := Violation{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		}
		if !seen[vi] {
			seen[vi] = true
			out = append(out, vi)
		}
	}
	slices.SortStableFunc(out, func(a, b Violation) int { return strings.Compare(a.Path, b.Path) })
	return out
}
