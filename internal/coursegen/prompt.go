package coursegen

import "fmt"

const outlineShape = `{
  "title": "string",
  "description": "string",
  "course_duration_days": 0,
  "lessons": [
    {
      "title": "string",
      "youtube_search_query": "string",
      "duration_seconds": 0,
      "order": 1,
      "questions": [
        {"question": "string", "choices": ["string"], "correct_index": 0}
      ]
    }
  ]
}`

// systemInstruction builds the instruction sent ahead of the user's prompt.
func systemInstruction(lessons, durationDays int) string {
	return fmt.Sprintf(`You are an experienced instructional designer. Turn the user's request into an online course of exactly %d lessons, paced to be completed over %d days.

Output rules:
1. Reply with one valid JSON object and nothing else. No prose, no markdown fences.
2. Do not use trailing commas.
3. Give every lesson a "youtube_search_query" of 5 to 10 words that targets that lesson's topic.
4. Give every lesson at least 1 multiple-choice question in "questions"; "correct_index" is the zero-based index of the right choice.
5. Set "course_duration_days" to %d.

Shape:
%s`, lessons, durationDays, durationDays, outlineShape)
}
