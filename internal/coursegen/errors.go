package coursegen

// Kind classifies a failed generation run.
type Kind string

const (
	KindInvalidRequest Kind = "invalid_request"
	KindBudget         Kind = "budget_exceeded"
	KindProvider       Kind = "provider_error"
	KindParse          Kind = "parse_error"
	KindSchema         Kind = "schema_error"
)

// GenerationError is returned by Pipeline.Generate for every fatal outcome.
// RawArtifactRef is set once the provider's response has been saved.
type GenerationError struct {
	Kind           Kind
	Message        string
	RawArtifactRef string
	Err            error
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
