package model

import "time"

// QuestionType is the answer shape of a survey question.
type QuestionType string

const (
	QuestionRating  QuestionType = "rating"
	QuestionBoolean QuestionType = "boolean"
	QuestionChoice  QuestionType = "choice"
	QuestionText    QuestionType = "text"
)

// Question is one entry of the externally managed survey schema.
type Question struct {
	ID       string       `json:"id" yaml:"id"`
	Label    string       `json:"label" yaml:"label"`
	Type     QuestionType `json:"type" yaml:"type"`
	Required bool         `json:"required" yaml:"required"`
	Options  []string     `json:"options,omitempty" yaml:"options,omitempty"`
}

// SurveyResponse holds one set of answers for an event. UserID is nil for
// anonymous responses.
type SurveyResponse struct {
	ID         string         `json:"id"`
	EventID    string         `json:"eventId"`
	EventTitle string         `json:"eventTitle"`
	UserID     *string        `json:"userId"`
	Answers    map[string]any `json:"answers"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// SurveyRequest is the payload for submitting survey answers.
type SurveyRequest struct {
	Answers map[string]any `json:"answers"`
}
