package services

import (
	"errors"
	"fmt"

	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
)

// ===== NOT FOUND =====

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrCourseNotFound         = errors.New("course not found")
	ErrTopicNotFound          = errors.New("topic not found")
	ErrMaterialNotFound       = errors.New("material not found")
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrQuizNotFound           = errors.New("quiz not found")
	ErrAttemptNotFound        = errors.New("quiz attempt not found")
	ErrQuestionNotFound       = errors.New("question not found")
	ErrAssessmentNotFound     = errors.New("assessment not found")
	ErrBadgeNotFound          = errors.New("badge not found")
	ErrLeaderboardNotFound    = errors.New("leaderboard not found")
	ErrSessionNotFound        = errors.New("learning session not found")
	ErrActivityNotFound       = errors.New("learning activity not found")
	ErrGradingResultNotFound  = errors.New("grading result not found")
	ErrResponseNotFound       = errors.New("assessment response not found")
	ErrNotificationNotFound   = errors.New("notification not found")
	ErrReminderNotFound       = errors.New("reminder not found")
	ErrFAQNotFound            = errors.New("faq not found")
	ErrRecommendationNotFound = errors.New("recommendation not found")
	ErrGradingModelNotFound   = errors.New("grading model not found")
)

// ===== STATE AND DOMAIN RULES =====

var (
	ErrAssessmentNotInProgress = errors.New("assessment is not in progress")
	ErrAssessmentNotCompleted  = errors.New("assessment is not completed")
	ErrNoQuestionsAvailable    = errors.New("no questions available for this assessment")
	ErrQuestionAlreadyAnswered = errors.New("question already answered in this assessment")
	ErrCourseFull              = errors.New("course is full")
	ErrCourseInactive          = errors.New("course is not active")
	ErrAlreadyEnrolled         = errors.New("already enrolled in this course")
	ErrNotEnrolled             = errors.New("not enrolled in this course")
	ErrMaxAttemptsReached      = errors.New("maximum quiz attempts reached")
	ErrAttemptAlreadySubmitted = errors.New("quiz attempt already submitted")
	ErrSubmissionGraded        = errors.New("submission already graded")
	ErrNoGradingModel          = errors.New("no active grading model for this question type")
	ErrInvalidContentType      = errors.New("invalid content type")
	ErrInvalidReminderTime     = errors.New("invalid reminder time")
	ErrUnsupportedFileFormat   = errors.New("unsupported file format")
)

// ===== AUTH AND GENERAL =====

var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmptyMessage       = errors.New("message cannot be empty")
)

// PermissionError describes a denied action on a resource
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	if e.ResourceID == 0 {
		return fmt.Sprintf("user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
	}
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

// ValidationError carries field errors and matches ErrValidationFailed
type ValidationError struct {
	Errors validator.ValidationErrors
}

// NewValidationError wraps a single field failure
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Errors: validator.ValidationErrors{{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    "business_logic",
	}}}
}

func (e *ValidationError) Error() string {
	return e.Errors.Error()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// validate runs tag validation and wraps failures as a ValidationError
func validate(v *validator.Validator, req interface{}) error {
	err := v.ValidateStruct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return &ValidationError{Errors: fieldErrs}
	}
	return fmt.Errorf("%w: %v", ErrValidationFailed, err)
}

// validationFailure converts validator output into a ValidationError, or nil when clean
func validationFailure(errs validator.ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}
