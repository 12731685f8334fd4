package outline

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed course.schema.json
var courseSchemaJSON string

var courseSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(courseSchemaJSON))
})

// SchemaError describes the first way a parsed outline fails to match the
// expected course shape.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string {
	return "schema validation failed: " + e.Message
}

func schemaErrorf(format string, args ...any) *SchemaError {
	return &SchemaError{Message: fmt.Sprintf(format, args...)}
}

// Validator checks parsed outlines. The zero value accepts quiz questions with
// empty choices or an out-of-range correct_index, as the course editor does.
type Validator struct {
	// StrictQuiz additionally requires every question to have at least one choice
	// and a correct_index inside the choices.
	StrictQuiz bool
}

// Validate checks v with the permissive zero Validator.
func Validate(v Value, expectedLessons int) error {
	return Validator{}.Validate(v, expectedLessons)
}

// Validate returns nil or a *SchemaError for the first violation found. When
// expectedLessons is positive the lesson count must match it exactly.
func (val Validator) Validate(v Value, expectedLessons int) error {
	if err := checkStructure(v, expectedLessons); err != nil {
		return err
	}
	if err := checkTypes(v); err != nil {
		return err
	}
	if val.StrictQuiz {
		if err := checkQuiz(v); err != nil {
			return err
		}
	}
	return nil
}

func checkStructure(v Value, expectedLessons int) *SchemaError {
	if !v.IsObject() {
		return schemaErrorf("Top-level JSON is not an object.")
	}
	for _, k := range []string{keyTitle, keyDescription, keyCourseDurationDays, keyLessons} {
		if _, ok := v.Field(k); !ok {
			return schemaErrorf("Missing required key: %s", k)
		}
	}

	lessons, _ := v.Field(keyLessons)
	if !lessons.IsArray() {
		return schemaErrorf("lessons must be a list.")
	}
	if expectedLessons > 0 && lessons.Len() != expectedLessons {
		return schemaErrorf("Expected %d lessons but got %d.", expectedLessons, lessons.Len())
	}

	for i, lesson := range lessons.Items() {
		n := i + 1
		if !lesson.IsObject() {
			return schemaErrorf("Lesson %d is not an object.", n)
		}
		for _, k := range []string{keyTitle, keySearchQuery, keyQuestions} {
			if _, ok := lesson.Field(k); !ok {
				return schemaErrorf("Lesson %d missing required key: %s.", n, k)
			}
		}
		questions, _ := lesson.Field(keyQuestions)
		if !questions.IsArray() || questions.Len() < 1 {
			return schemaErrorf("Lesson %d must have at least 1 question.", n)
		}
	}
	return nil
}

// checkTypes runs the JSON Schema pass. It only rejects what video resolution
// cannot work with; loosely typed optional fields are coerced by Decode.
func checkTypes(v Value) error {
	schema, err := courseSchema()
	if err != nil {
		return fmt.Errorf("loading course schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(v.Interface()))
	if err != nil {
		return fmt.Errorf("running course schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := result.Errors()
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field() < errs[j].Field() })
	first := errs[0]
	return schemaErrorf("%s: %s", first.Field(), first.Description())
}

func checkQuiz(v Value) *SchemaError {
	lessons, _ := v.Field(keyLessons)
	for i, lesson := range lessons.Items() {
		questions, _ := lesson.Field(keyQuestions)
		for j, q := range questions.Items() {
			choices, _ := q.Field(keyChoices)
			if !choices.IsArray() || choices.Len() == 0 {
				return schemaErrorf("Lesson %d question %d has no choices.", i+1, j+1)
			}
			for k, c := range choices.Items() {
				if _, ok := c.Text(); !ok {
					return schemaErrorf("Lesson %d question %d choice %d is not text.", i+1, j+1, k+1)
				}
			}
			idx, _ := q.Field(keyCorrectIndex)
			n, ok := idx.Int()
			if !ok || n < 0 || n >= choices.Len() {
				return schemaErrorf("Lesson %d question %d correct_index is out of range for %d choices.", i+1, j+1, choices.Len())
			}
		}
	}
	return nil
}
