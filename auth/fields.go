package auth

import (
	"strings"

	"github.com/jrsteele09/go-auth-gate/internal/config"
)

// EmptyFieldValue stands in for a login field that was not submitted
const EmptyFieldValue = "%empty%"

// FieldDescriptor is one configured login field. Name is the lowercased
// form key, Title the configured spelling.
type FieldDescriptor struct {
	Name     string
	Title    string
	Sanitize func(string) string
}

// Field formats recognised in login_fields_format
const (
	FormatLower = "lower"
	FormatUpper = "upper"
	FormatTrim  = "trim"
)

// NewFieldDescriptors builds the ordered login fields. formats maps a field
// title or name to a format applied after trimming.
func NewFieldDescriptors(titles []string, formats map[string]string) []FieldDescriptor {
	if len(titles) == 0 {
		titles = []string{"Username"}
	}
	fields := make([]FieldDescriptor, 0, len(titles))
	for _, title := range titles {
		name := strings.ToLower(title)
		format, ok := formats[title]
		if !ok {
			format = formats[name]
		}
		fields = append(fields, FieldDescriptor{
			Name:     name,
			Title:    title,
			Sanitize: sanitizer(format),
		})
	}
	return fields
}

func fieldsFromConfig(cfg config.AuthConfig) []FieldDescriptor {
	return NewFieldDescriptors(cfg.GetLoginFields(), cfg.GetLoginFieldsFormat())
}

func sanitizer(format string) func(string) string {
	switch format {
	case FormatLower:
		return func(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
	case FormatUpper:
		return func(v string) string { return strings.ToUpper(strings.TrimSpace(v)) }
	default:
		return strings.TrimSpace
	}
}
