package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TopicAssessmentCompleted = "assessment.completed"
	TopicQuizCompleted       = "quiz.completed"
	TopicActivityCompleted   = "activity.completed"
	TopicBadgeEarned         = "badge.earned"
	TopicLevelUp             = "level.up"
)

const (
	eventSource  = "edulearn"
	eventVersion = "1.0"
)

// Event is the envelope written to every topic
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	UserID    string          `json:"user_id"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps payload in an envelope with a fresh ID
func NewEvent(eventType, userID string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Data:      data,
	}, nil
}

// Decode unmarshals the event data into dest
func (e *Event) Decode(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", e.Type, err)
	}
	return nil
}

type AssessmentCompletedPayload struct {
	AssessmentID      uint    `json:"assessment_id"`
	CourseID          uint    `json:"course_id"`
	FinalScore        float64 `json:"final_score"`
	ProficiencyLevel  string  `json:"proficiency_level"`
	QuestionsAnswered int     `json:"questions_answered"`
}

type QuizCompletedPayload struct {
	QuizID     uint    `json:"quiz_id"`
	AttemptID  uint    `json:"attempt_id"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

type ActivityCompletedPayload struct {
	ActivityType string   `json:"activity_type"`
	ActivityID   uint     `json:"activity_id,omitempty"`
	CourseID     *uint    `json:"course_id,omitempty"`
	TopicID      *uint    `json:"topic_id,omitempty"`
	Score        *float64 `json:"score,omitempty"`
}

type BadgeEarnedPayload struct {
	BadgeID   uint   `json:"badge_id"`
	BadgeName string `json:"badge_name"`
	Points    int    `json:"points"`
}

type LevelUpPayload struct {
	Level int `json:"level"`
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// HandlerFunc consumes one event
type HandlerFunc func(ctx context.Context, event *Event) error

// Publish builds and publishes an event. A nil publisher drops it.
func Publish(ctx context.Context, p EventPublisher, eventType, userID string, payload interface{}) error {
	if p == nil {
		return nil
	}
	event, err := NewEvent(eventType, userID, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, event)
}
