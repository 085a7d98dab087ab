// Package forms is the registration form model: the per-event validation schema,
// the editable member list and the transform into the API payload.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/overdrive/techfest/internal/models"
)

// Mobile numbers: 10 digits starting 6-9, optionally prefixed with +91 and a space or dash.
var mobileRE = regexp.MustCompile(`^(\+91[\-\s]?)?[6-9]\d{9}$`)

// ValidMobile reports whether s is an acceptable mobile number.
func ValidMobile(s string) bool { return mobileRE.MatchString(s) }

// Member field names in form order. They double as the JSON keys.
var Fields = []string{"fullName", "email", "mobile", "college", "branch", "class", "academicYear"}

var fieldLabels = map[string]string{
	"fullName":     "Name",
	"email":        "Email",
	"mobile":       "Mobile number",
	"college":      "College",
	"branch":       "Branch",
	"class":        "Class",
	"academicYear": "Year",
}

// Label is the display name of a member field.
func Label(field string) string { return fieldLabels[field] }

// Schema validates drafts for one event's team-size bounds. It is immutable once built.
type Schema struct {
	min, max int
	v        *validator.Validate
}

// BuildSchema returns the schema for an event allowing min..max members.
// Bounds outside 1 <= min <= max are a *PreconditionError.
func BuildSchema(min, max int) (*Schema, error) {
	if min < 1 {
		return nil, precondition("BuildSchema", "min must be at least 1, got %d", min)
	}
	if min > max {
		return nil, precondition("BuildSchema", "min %d exceeds max %d", min, max)
	}
	return &Schema{min: min, max: max, v: newEngine()}, nil
}

// MustBuildSchema is BuildSchema for bounds known to be valid, e.g. catalog entries.
func MustBuildSchema(min, max int) *Schema {
	s, err := BuildSchema(min, max)
	if err != nil {
		panic(err)
	}
	return s
}

// SchemaFor builds the schema from an event's team size.
func SchemaFor(ev models.EventDefinition) (*Schema, error) {
	return BuildSchema(ev.TeamSize.Min, ev.TeamSize.Max)
}

func newEngine() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return ValidMobile(fl.Field().String())
	})
	return v
}

func (s *Schema) Min() int { return s.min }
func (s *Schema) Max() int { return s.max }

// Validate checks a draft and returns nil or ValidationErrors. It does not panic
// on any input.
func (s *Schema) Validate(d models.RegistrationDraft) error {
	var errs ValidationErrors

	if s.max > 1 {
		if err := s.v.Var(strings.TrimSpace(d.TeamName), "required,min=2"); err != nil {
			errs = append(errs, FieldError{Path: "teamName", Message: "Team Name is required"})
		}
	}

	switch n := len(d.Members); {
	case n < s.min:
		errs = append(errs, FieldError{Path: "members", Message: fmt.Sprintf("Minimum %d members required", s.min)})
	case n > s.max:
		errs = append(errs, FieldError{Path: "members", Message: fmt.Sprintf("Maximum %d members allowed", s.max)})
	}

	for i, m := range d.Members {
		err := s.v.Struct(m)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs = append(errs, FieldError{Path: fmt.Sprintf("members.%d", i), Message: "Invalid member"})
			continue
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{
				Path:    fmt.Sprintf("members.%d.%s", i, fe.Field()),
				Message: memberMessage(fe),
			})
		}
	}

	if !d.TermsAccepted {
		errs = append(errs, FieldError{Path: "termsAccepted", Message: "You must accept the terms and conditions"})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func memberMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fieldLabels[fe.Field()] + " is required"
	case "email":
		return "Invalid email"
	case "mobile":
		return "Invalid mobile number"
	default:
		return "Invalid value"
	}
}
