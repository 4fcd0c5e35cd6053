package service

import (
	"sort"
	"strings"

	"github.com/okian/salarygauge/internal/domain/model"
	"github.com/okian/salarygauge/internal/domain/types"
)

const (
	multiDelimiter = ";"
	sliderDefault  = 3
)

type formField struct {
	label       string
	placeholder string
}

// Labels and placeholder entries offered by the survey form.
var form = map[string]formField{
	model.FieldAge:                    {label: "Age", placeholder: "Select Age"},
	model.FieldEdLevel:                {label: "Education Level", placeholder: "Select Education"},
	model.FieldDevType:                {label: "Job Role", placeholder: "Select Job Role"},
	model.FieldOrgSize:                {label: "Organisation Size", placeholder: "Select Organisation Size"},
	model.FieldAISelect:               {label: "Do you currently use AI tools in your development process?", placeholder: "Select an option"},
	model.FieldCurrency:               {label: "Which currency do you use day-to-day?", placeholder: "Select Currency"},
	model.FieldRemoteWork:             {label: "Current Work Situation", placeholder: "Select Work Situation"},
	model.FieldYearsCode:              {label: "Years of Coding Experience"},
	model.FieldWorkExp:                {label: "Years of Experience"},
	model.FieldYearsCodePro:           {label: "Years of Professional Experience"},
	model.FieldLanguageHaveWorkedWith: {label: "Programming Languages you have worked with (separated by ;)"},
	model.FieldDatabaseHaveWorkedWith: {label: "Databases you have worked with (separated by ;)"},
	model.FieldLearnCode:              {label: "Learning Sources you have used (separated by ;)"},
}

// buildOptions describes every record field for the loaded artifact.
func (s *Service) buildOptions() types.Options {
	required := make(map[string]bool, len(s.requiredFields))
	for _, f := range s.requiredFields {
		required[f] = true
	}
	tokens := s.bundle.Schema.Tokens()

	out := types.Options{
		ModelVersion: s.bundle.Version,
		Fields:       make([]types.FieldOptions, 0, len(model.Fields)),
	}
	for _, field := range model.Fields {
		kind, _ := model.KindOf(field)
		fo := types.FieldOptions{
			Field:    field,
			Label:    form[field].label,
			Kind:     kind.String(),
			Required: required[field],
		}
		switch kind {
		case model.KindCategorical:
			fo.Placeholder = form[field].placeholder
			if enc, ok := s.bundle.Encoders[field]; ok {
				fo.Choices = choices(enc.Classes(), enc.MissingValue())
			}
		case model.KindNumeric:
			lo, hi, def := model.MinYears, model.MaxYears, sliderDefault
			fo.Min, fo.Max, fo.Default = &lo, &hi, &def
		case model.KindMultiValue:
			fo.Delimiter = multiDelimiter
			fo.Choices = append([]string(nil), tokens[field]...)
			sort.Strings(fo.Choices)
		}
		out.Fields = append(out.Fields, fo)
	}
	return out
}

// choices drops the training stand-in for blank answers from a vocabulary.
func choices(classes []string, missing string) []string {
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		if missing != "" && c == missing {
			continue
		}
		out = append(out, c)
	}
	return out
}

// currencyCode returns the ISO code leading a survey currency answer such as
// "USD\tUnited States dollar".
func currencyCode(v string) string {
	v = strings.TrimSpace(v)
	if model.IsUnset(v) {
		return ""
	}
	if i := strings.IndexAny(v, "\t "); i > 0 {
		return v[:i]
	}
	return v
}
