package catalog

import "errors"

// ErrNotFound is returned when no incident exists for a requested index.
var ErrNotFound = errors.New("incident not found")

// ErrInvalid is returned by New when the incident table breaks a catalog invariant.
var ErrInvalid = errors.New("invalid catalog")

const (
	defaultCorrectMessage   = "Correct."
	defaultIncorrectMessage = "Incorrect."
)

// Choice is one selectable answer option.
type Choice struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// Incident is a single puzzle record. CorrectChoice and the two messages are
// private to the catalog and never leave it through a View.
type Incident struct {
	Index            int      `yaml:"index"`
	ID               string   `yaml:"id"`
	Title            string   `yaml:"title"`
	Description      string   `yaml:"description"`
	Lines            []string `yaml:"lines"`
	Choices          []Choice `yaml:"choices"`
	CorrectChoice    string   `yaml:"correct_choice"`
	CorrectMessage   string   `yaml:"correct_message"`
	IncorrectMessage string   `yaml:"incorrect_message"`
}

// View is the public shape of an incident as served to clients.
type View struct {
	ID          string   `json:"id"`
	Index       int      `json:"index"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Lines       []string `json:"lines"`
	Choices     []Choice `json:"choices"`
}

// AnswerResult is the outcome of a submitted answer.
type AnswerResult struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}
