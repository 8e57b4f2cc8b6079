package segment

import (
	"errors"
	"fmt"
	"strings"
)

// Tag literals shared by producer prompts and the parser. They must match byte-for-byte.
const (
	TagNext         = "[NEXT]"
	TagTranslation  = "[TRANSLATION]"
	TagRefactored   = "[REFACTORED]"
	TagAnalysis     = "[ANALYSIS]"
	TagNote         = "[NOTE]"
	TagRefactoredJP = "[REFACTORED_JP]"
	TagNextJP       = "[NEXT_JP]"
)

// Field identifies a logical output field of a coached response.
type Field int

const (
	FieldNext Field = iota
	FieldNextJP
	FieldRefactored
	FieldRefactoredJP
	FieldAnalysis
	FieldNote

	numFields
)

var fieldNames = [numFields]string{
	FieldNext:         "next",
	FieldNextJP:       "nextJp",
	FieldRefactored:   "refactored",
	FieldRefactoredJP: "refactoredJp",
	FieldAnalysis:     "analysis",
	FieldNote:         "note",
}

// String returns the wire name of the field.
func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// Fields returns every known field in declaration order.
func Fields() []Field {
	out := make([]Field, 0, numFields)
	for f := Field(0); f < numFields; f++ {
		out = append(out, f)
	}
	return out
}

// Section binds a tag to the field its content accumulates into.
type Section struct {
	Tag   string
	Field Field
}

// Schema is the ordered list of sections a deployment expects from the producer.
type Schema struct {
	Name     string
	Sections []Section
}

// SchemaA is the three-section generation: coaching first, reply last.
var SchemaA = Schema{
	Name: "a",
	Sections: []Section{
		{Tag: TagRefactored, Field: FieldRefactored},
		{Tag: TagNote, Field: FieldNote},
		{Tag: TagNext, Field: FieldNext},
	},
}

// SchemaB is the four-section generation. The partner's reply comes first so it can be
// shown before the coaching commentary has been generated.
var SchemaB = Schema{
	Name: "b",
	Sections: []Section{
		{Tag: TagNext, Field: FieldNext},
		{Tag: TagTranslation, Field: FieldNextJP},
		{Tag: TagRefactored, Field: FieldRefactored},
		{Tag: TagAnalysis, Field: FieldAnalysis},
	},
}

// DefaultSchema is used when no schema is configured.
var DefaultSchema = SchemaB

// ErrUnknownSchema is returned by SchemaByName for names it does not know.
var ErrUnknownSchema = errors.New("unknown schema")

// SchemaByName resolves a configured schema name ("a" or "b", case-insensitive).
func SchemaByName(name string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "a", "3", "three":
		return SchemaA, nil
	case "b", "4", "four", "":
		return SchemaB, nil
	}
	return Schema{}, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
}

// Tags returns the schema's tag literals in stream order.
func (s Schema) Tags() []string {
	tags := make([]string, len(s.Sections))
	for i, sec := range s.Sections {
		tags[i] = sec.Tag
	}
	return tags
}

// Has reports whether the schema carries the given field.
func (s Schema) Has(f Field) bool {
	for _, sec := range s.Sections {
		if sec.Field == f {
			return true
		}
	}
	return false
}

// Validate checks that the schema is usable by a Segmenter.
func (s Schema) Validate() error {
	if len(s.Sections) == 0 {
		return errors.New("schema has no sections")
	}
	tags := make(map[string]bool, len(s.Sections))
	fields := make(map[Field]bool, len(s.Sections))
	for i, sec := range s.Sections {
		if sec.Tag == "" {
			return fmt.Errorf("section %d has an empty tag", i)
		}
		if sec.Field < 0 || sec.Field >= numFields {
			return fmt.Errorf("section %d has an unknown field %d", i, int(sec.Field))
		}
		if tags[sec.Tag] {
			return fmt.Errorf("duplicate tag %s", sec.Tag)
		}
		if fields[sec.Field] {
			return fmt.Errorf("duplicate field %s", sec.Field)
		}
		tags[sec.Tag] = true
		fields[sec.Field] = true
	}
	return nil
}

func (s Schema) longestTag() int {
	n := 0
	for _, sec := range s.Sections {
		n = max(n, len(sec.Tag))
	}
	return n
}
