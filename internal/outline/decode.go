package outline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decode builds a typed Course from a value that has already passed Validate.
// Numeric fields given as fractions or numeric strings are truncated to
// integers and anything else decodes to zero. A lesson without an order takes
// its 1-based position.
func Decode(v Value) (Course, error) {
	if !v.IsObject() {
		return Course{}, fmt.Errorf("decode course: top-level value is %s", v.Kind())
	}

	course := Course{
		Title:              textField(v, keyTitle),
		Description:        textField(v, keyDescription),
		CourseDurationDays: intField(v, keyCourseDurationDays),
	}

	lessons, _ := v.Field(keyLessons)
	course.Lessons = make([]Lesson, 0, lessons.Len())
	for i, lv := range lessons.Items() {
		if !lv.IsObject() {
			return Course{}, fmt.Errorf("decode lesson %d: value is %s", i+1, lv.Kind())
		}
		lesson := Lesson{
			Title:              textField(lv, keyTitle),
			YouTubeSearchQuery: textField(lv, keySearchQuery),
			DurationSeconds:    intField(lv, keyDurationSeconds),
			Order:              intField(lv, keyOrder),
		}
		if f, ok := lv.Field(keyOrder); !ok || f.Kind() == KindNull {
			lesson.Order = i + 1
		}

		questions, _ := lv.Field(keyQuestions)
		lesson.Questions = make([]Question, 0, questions.Len())
		for _, qv := range questions.Items() {
			q := Question{
				QuestionText: textField(qv, keyQuestion),
				CorrectIndex: intField(qv, keyCorrectIndex),
				Choices:      []string{},
			}
			choices, _ := qv.Field(keyChoices)
			for _, cv := range choices.Items() {
				if s, ok := choiceText(cv); ok {
					q.Choices = append(q.Choices, s)
				}
			}
			lesson.Questions = append(lesson.Questions, q)
		}
		course.Lessons = append(course.Lessons, lesson)
	}
	return course, nil
}

func textField(v Value, key string) string {
	f, _ := v.Field(key)
	s, _ := f.Text()
	return s
}

func intField(v Value, key string) int {
	f, _ := v.Field(key)
	if i, ok := f.Int(); ok {
		return i
	}
	var x float64
	switch f.Kind() {
	case KindNumber:
		x, _ = f.num.Float64()
	case KindString:
		var err error
		if x, err = strconv.ParseFloat(strings.TrimSpace(f.str), 64); err != nil {
			return 0
		}
	default:
		return 0
	}
	if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > math.MaxInt32 {
		return 0
	}
	return int(x)
}

// choiceText renders scalar choices as text. Nested values are dropped.
func choiceText(v Value) (string, bool) {
	switch v.Kind() {
	case KindString:
		return v.str, true
	case KindNumber:
		return v.num.String(), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}
