package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/meghashyamc/wpstatic/logger"
)

// minQueryLength mirrors the search box: a single character is never searched.
const minQueryLength = 2

var slugRegex = regexp.MustCompile(`^[A-Za-z0-9%_]+(?:-[A-Za-z0-9%_]+)*$`)

type Validator struct {
	validator                *validator.Validate
	logger                   logger.Logger
	tagValidationDetailsOnce sync.Once
	tagValidationDetailsMap  map[string]tagValidationDetails
}

type tagValidationDetails struct {
	validatorFunc validator.Func
	err           error
}

func New(logger logger.Logger) (*Validator, error) {
	validator := &Validator{validator: validator.New(), logger: logger}
	validator.validator.RegisterTagNameFunc(useJSONFieldNames)
	if err := validator.registerCustomValidatorsForTags(); err != nil {
		return nil, err
	}

	return validator, nil
}

func (v *Validator) Validate(i any) error {

	if err := v.validator.Struct(i); err != nil {
		v.logger.Warn("validation failed", "err", err.Error())
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {

			tagValidationDetails, ok := v.getTagValidationDetails()[validationErrs[0].Tag()]
			if ok {
				return tagValidationDetails.err
			}

			switch validationErrs[0].Tag() {
			case "required":
				return fmt.Errorf("missing required field '%s'", validationErrs[0].Field())

			case "min", "max":
				return fmt.Errorf("value or length of field '%s' is not in the expected range", validationErrs[0].Field())

			}
		}
		return err
	}
	return nil
}

func (v *Validator) getTagValidationDetails() map[string]tagValidationDetails {
	v.tagValidationDetailsOnce.Do(func() {
		v.tagValidationDetailsMap = map[string]tagValidationDetails{
			"valid_query":      {validatorFunc: v.isValidQuery, err: errors.New("invalid query")},
			"valid_slug":       {validatorFunc: v.isValidSlug, err: errors.New("invalid slug")},
			"valid_request_id": {validatorFunc: v.isValidRequestID, err: errors.New("invalid request id")},
		}
	})
	return v.tagValidationDetailsMap
}

func (v *Validator) registerCustomValidatorsForTags() error {

	tagValidationDetailsMap := v.getTagValidationDetails()

	for tag, tagValidationDetails := range tagValidationDetailsMap {
		if err := v.validator.RegisterValidation(tag, tagValidationDetails.validatorFunc); err != nil {
			v.logger.Error("failed to register custom validator function", "err", err.Error())
			return err
		}
	}
	return nil
}

func useJSONFieldNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// isValidQuery accepts an empty or blank query, which lists every post.
func (v *Validator) isValidQuery(fl validator.FieldLevel) bool {
	query := fl.Field().String()
	if strings.TrimSpace(query) == "" {
		return true
	}

	if strings.IndexFunc(query, unicode.IsControl) >= 0 {
		v.logger.Warn("query has control characters", "query", query)
		return false
	}

	if utf8.RuneCountInString(query) < minQueryLength {
		v.logger.Warn("query is too short", "query", query)
		return false
	}

	return true
}

func (v *Validator) isValidSlug(fl validator.FieldLevel) bool {
	slug := fl.Field().String()
	if len(slug) == 0 {
		return true
	}

	if !slugRegex.MatchString(slug) {
		v.logger.Warn("slug has unexpected characters", "slug", slug)
		return false
	}

	return true
}

func (v *Validator) isValidRequestID(fl validator.FieldLevel) bool {
	requestID := fl.Field().String()
	if _, err := uuid.Parse(requestID); err != nil {
		v.logger.Warn("request id is not a uuid", "request_id", requestID)
		return false
	}
	return true
}
