package outline

// Course is a generated course outline. Lessons always has the requested length
// once the outline has passed Validate.
type Course struct {
	Title              string   `json:"title" yaml:"title"`
	Description        string   `json:"description" yaml:"description"`
	CourseDurationDays int      `json:"course_duration_days" yaml:"course_duration_days"`
	Lessons            []Lesson `json:"lessons" yaml:"lessons"`
}

// Lesson is one lesson of a generated course.
type Lesson struct {
	Title              string     `json:"title" yaml:"title"`
	YouTubeSearchQuery string     `json:"youtube_search_query" yaml:"youtube_search_query"`
	DurationSeconds    int        `json:"duration_seconds" yaml:"duration_seconds"`
	Order              int        `json:"order,omitempty" yaml:"order,omitempty"`
	Questions          []Question `json:"questions" yaml:"questions"`
	// VideoURL is empty until the lesson's search query has been resolved.
	VideoURL string `json:"video_url,omitempty" yaml:"video_url,omitempty"`
}

// Question is a multiple-choice question gating a lesson.
type Question struct {
	QuestionText string   `json:"question" yaml:"question"`
	Choices      []string `json:"choices" yaml:"choices"`
	CorrectIndex int      `json:"correct_index" yaml:"correct_index"`
}

// Wire keys of the outline document the model is asked to produce.
const (
	keyTitle              = "title"
	keyDescription        = "description"
	keyCourseDurationDays = "course_duration_days"
	keyLessons            = "lessons"
	keySearchQuery        = "youtube_search_query"
	keyDurationSeconds    = "duration_seconds"
	keyOrder              = "order"
	keyQuestions          = "questions"
	keyQuestion           = "question"
	keyChoices            = "choices"
	keyCorrectIndex       = "correct_index"
)
