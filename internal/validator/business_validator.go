package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,50}$`)

// allowedTransitions lists the adaptive assessment status moves
var allowedTransitions = map[models.AssessmentStatus][]models.AssessmentStatus{
	models.AssessmentInProgress: {models.AssessmentCompleted, models.AssessmentAbandoned},
	models.AssessmentCompleted:  {},
	models.AssessmentAbandoned:  {},
}

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateStatusTransition checks an adaptive assessment status move
func (bv *BusinessValidator) ValidateStatusTransition(currentStatus, newStatus models.AssessmentStatus) ValidationErrors {
	var errors ValidationErrors

	allowed := false
	for _, s := range allowedTransitions[currentStatus] {
		if s == newStatus {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", currentStatus, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	return errors
}

// ValidateGrade checks a submission grade against the assignment maximum
func (bv *BusinessValidator) ValidateGrade(grade float64, maxPoints int) ValidationErrors {
	if grade < 0 || grade > float64(maxPoints) {
		return ValidationErrors{{
			Field:   "grade",
			Message: fmt.Sprintf("must be between 0 and %d", maxPoints),
			Value:   grade,
			Rule:    "grade_range",
		}}
	}
	return nil
}

// ValidateQuizQuestions checks that choice questions carry at least one correct option
func (bv *BusinessValidator) ValidateQuizQuestions(questions []QuizQuestionRequest) ValidationErrors {
	var errors ValidationErrors
	for i, q := range questions {
		if q.QuestionType == string(models.QuizShortAnswer) && len(q.Options) == 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("questions[%d].options", i),
				Message: "short answer questions need at least one accepted answer",
				Rule:    "business_logic",
			})
			continue
		}
		hasCorrect := false
		for _, o := range q.Options {
			if o.IsCorrect {
				hasCorrect = true
				break
			}
		}
		if !hasCorrect {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("questions[%d].options", i),
				Message: "at least one option must be marked correct",
				Rule:    "business_logic",
			})
		}
	}
	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Password: 8+ chars with upper, lower and digit
	bv.validate.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})

	bv.validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	bv.validate.RegisterValidation("difficulty_score", func(fl validator.FieldLevel) bool {
		v := fl.Field().Float()
		return v >= 0 && v <= 1
	})

	bv.validate.RegisterValidation("future_time", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				return true
			}
			field = field.Elem()
		}
		t, ok := field.Interface().(time.Time)
		if !ok {
			return false
		}
		return t.After(time.Now())
	})

	bv.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		switch models.QuestionType(fl.Field().String()) {
		case models.QuestionMultipleChoice, models.QuestionTrueFalse, models.QuestionShortAnswer,
			models.QuestionEssay, models.QuestionCode:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		switch models.DifficultyLevel(fl.Field().String()) {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard, models.DifficultyExpert:
			return true
		}
		return false
	})
}

// IsStrongPassword applies the password_strength rule outside struct validation
func IsStrongPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
