package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/benvon/slotfinder/internal/availability"
	"github.com/benvon/slotfinder/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Custom tags; the built-in "timezone" tag covers IANA zone names.
	if err := Validate.RegisterValidation("hhmm", validateHHMM); err != nil {
		panic(fmt.Sprintf("failed to register hhmm validator: %v", err))
	}
	if err := Validate.RegisterValidation("civil_date", validateCivilDate); err != nil {
		panic(fmt.Sprintf("failed to register civil_date validator: %v", err))
	}
	if err := Validate.RegisterValidation("date_or_timestamp", validateDateOrTimestamp); err != nil {
		panic(fmt.Sprintf("failed to register date_or_timestamp validator: %v", err))
	}
	if err := Validate.RegisterValidation("import_mode", validateImportMode); err != nil {
		panic(fmt.Sprintf("failed to register import_mode validator: %v", err))
	}
}

func validateHHMM(fl validator.FieldLevel) bool {
	_, err := availability.ParseClock(fl.Field().String())
	return err == nil
}

func validateCivilDate(fl validator.FieldLevel) bool {
	_, err := models.ParseDate(fl.Field().String())
	return err == nil
}

func validateDateOrTimestamp(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if _, err := models.ParseDate(value); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, value)
	return err == nil
}

func validateImportMode(fl validator.FieldLevel) bool {
	switch models.ImportMode(fl.Field().String()) {
	case models.ImportModeCreate, models.ImportModeReplaceProject:
		return true
	default:
		return false
	}
}

// Struct validates s and flattens validator errors into one readable message
func Struct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "hhmm":
		return fmt.Sprintf("%s must be HH:MM, got %q", field, fe.Value())
	case "civil_date":
		return fmt.Sprintf("%s must be YYYY-MM-DD, got %q", field, fe.Value())
	case "date_or_timestamp":
		return fmt.Sprintf("%s must be YYYY-MM-DD or RFC 3339, got %q", field, fe.Value())
	case "timezone":
		return fmt.Sprintf("%s must be an IANA timezone, got %q", field, fe.Value())
	case "import_mode":
		return fmt.Sprintf("%s must be create or replace_project, got %q", field, fe.Value())
	case "min", "max":
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// SanitizeText trims whitespace and removes control characters except
// newline and tab
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}
	return sanitized.String()
}

// SanitizeNames applies SanitizeText to each name and drops the ones left empty
func SanitizeNames(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = SanitizeText(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// ParseDateBound reads a YYYY-MM-DD or RFC 3339 range bound. A bare date
// means the start of that day in loc, or its last instant when endOfDay is
// set. An empty value yields nil.
func ParseDateBound(value string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if d, err := models.ParseDate(value); err == nil {
		t := d.Midnight(loc)
		if endOfDay {
			t = d.AddDays(1).Midnight(loc).Add(-time.Nanosecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("must be YYYY-MM-DD or RFC 3339, got %q", value)
	}
	return &t, nil
}
