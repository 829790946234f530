package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/audit"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SurveyService stores post-event survey answers.
type SurveyService struct {
	base
	questions []model.Question
}

// NewSurveyService constructs a SurveyService for the given question schema.
func NewSurveyService(store repository.Store, rec *audit.Recorder, logger *slog.Logger, questions []model.Question, opts ...Option) *SurveyService {
	return &SurveyService{base: newBase(store, rec, logger, opts), questions: questions}
}

// Questions returns the survey question schema.
func (s *SurveyService) Questions() []model.Question {
	return s.questions
}

// SubmitSurvey saves a survey response for an event.
//
// With a user ID the response is merged into that user's single response
// for the event, keeping its original creation time. Without one, a new
// anonymous response is stored every time.
func (s *SurveyService) SubmitSurvey(ctx context.Context, eventID string, userID *string, answers map[string]any) (resp *model.SurveyResponse, err error) {
	if userID != nil && *userID == "" {
		userID = nil
	}
	id := s.newID()
	if userID != nil {
		id = ReservationKey(eventID, *userID)
	}
	ctx, span := tracer.Start(ctx, "survey.submit", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.Bool("survey.anonymous", userID == nil),
	))
	defer func() { s.finish(ctx, span, id, audit.ActionSurveySubmit, err) }()

	if answers == nil {
		answers = map[string]any{}
	}
	if err := s.checkRequired(answers); err != nil {
		return nil, err
	}

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	now := s.now().UTC()
	resp = &model.SurveyResponse{
		ID:         id,
		EventID:    eventID,
		EventTitle: event.Title,
		UserID:     userID,
		Answers:    answers,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if userID == nil {
		if err := s.store.InsertSurveyResponse(ctx, resp); err != nil {
			return nil, fmt.Errorf("insert survey response: %w", err)
		}
		return resp, nil
	}
	resp, err = s.store.UpsertSurveyResponse(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("upsert survey response: %w", err)
	}
	return resp, nil
}

// checkRequired returns a ValidationError for the first required question
// without an answer.
func (s *SurveyService) checkRequired(answers map[string]any) error {
	for _, q := range s.questions {
		if q.Required && blankAnswer(answers[q.ID]) {
			label := q.Label
			if label == "" {
				label = q.ID
			}
			return &ValidationError{Field: q.ID, Message: fmt.Sprintf("please answer %q", label)}
		}
	}
	return nil
}

// blankAnswer treats missing values, empty text, a zero rating, false and an
// empty selection as unanswered.
func blankAnswer(v any) bool {
	switch a := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(a) == ""
	case bool:
		return !a
	case float64:
		return a == 0
	case int:
		return a == 0
	case json.Number:
		f, err := a.Float64()
		return err != nil || f == 0
	case []any:
		return len(a) == 0
	case []string:
		return len(a) == 0
	default:
		return false
	}
}
