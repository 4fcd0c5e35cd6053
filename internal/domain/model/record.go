// Package model contains domain models passed between layers.
package model

import "strings"

// Survey field names. They match the column names the regression artifact was
// trained on and are what the artifact schema refers to.
const (
	FieldAge                    = "Age"
	FieldAISelect               = "AISelect"
	FieldOrgSize                = "OrgSize"
	FieldDevType                = "DevType"
	FieldYearsCode              = "YearsCode"
	FieldWorkExp                = "WorkExp"
	FieldYearsCodePro           = "YearsCodePro"
	FieldRemoteWork             = "RemoteWork"
	FieldCurrency               = "Currency"
	FieldEdLevel                = "EdLevel"
	FieldLanguageHaveWorkedWith = "LanguageHaveWorkedWith"
	FieldDatabaseHaveWorkedWith = "DatabaseHaveWorkedWith"
	FieldLearnCode              = "LearnCode"
)

// Numeric survey answers are slider values in this closed range.
const (
	MinYears = 0
	MaxYears = 50
)

// FieldKind classifies a survey field.
type FieldKind int

const (
	KindCategorical FieldKind = iota + 1
	KindNumeric
	KindMultiValue
)

func (k FieldKind) String() string {
	switch k {
	case KindCategorical:
		return "categorical"
	case KindNumeric:
		return "numeric"
	case KindMultiValue:
		return "multi_value"
	default:
		return "unknown"
	}
}

// Fields lists every survey field in form order.
var Fields = []string{
	FieldAge,
	FieldAISelect,
	FieldOrgSize,
	FieldDevType,
	FieldYearsCode,
	FieldWorkExp,
	FieldYearsCodePro,
	FieldRemoteWork,
	FieldCurrency,
	FieldEdLevel,
	FieldLanguageHaveWorkedWith,
	FieldDatabaseHaveWorkedWith,
	FieldLearnCode,
}

var fieldKinds = map[string]FieldKind{
	FieldAge:                    KindCategorical,
	FieldAISelect:               KindCategorical,
	FieldOrgSize:                KindCategorical,
	FieldDevType:                KindCategorical,
	FieldRemoteWork:             KindCategorical,
	FieldCurrency:               KindCategorical,
	FieldEdLevel:                KindCategorical,
	FieldYearsCode:              KindNumeric,
	FieldWorkExp:                KindNumeric,
	FieldYearsCodePro:           KindNumeric,
	FieldLanguageHaveWorkedWith: KindMultiValue,
	FieldDatabaseHaveWorkedWith: KindMultiValue,
	FieldLearnCode:              KindMultiValue,
}

// KindOf reports the kind of a survey field. ok is false for unknown names.
func KindOf(field string) (kind FieldKind, ok bool) {
	kind, ok = fieldKinds[field]
	return kind, ok
}

// Record is one survey submission, the single row fed to the feature pipeline.
// Every field is always present; free-text fields may be empty.
type Record struct {
	Age                    string `json:"Age"`
	AISelect               string `json:"AISelect"`
	OrgSize                string `json:"OrgSize"`
	DevType                string `json:"DevType"`
	YearsCode              int    `json:"YearsCode"`
	WorkExp                int    `json:"WorkExp"`
	YearsCodePro           int    `json:"YearsCodePro"`
	RemoteWork             string `json:"RemoteWork"`
	Currency               string `json:"Currency"`
	EdLevel                string `json:"EdLevel"`
	LanguageHaveWorkedWith string `json:"LanguageHaveWorkedWith"`
	DatabaseHaveWorkedWith string `json:"DatabaseHaveWorkedWith"`
	LearnCode              string `json:"LearnCode"`
}

// Text returns a categorical or multi-value field by name.
func (r Record) Text(field string) (string, bool) {
	switch field {
	case FieldAge:
		return r.Age, true
	case FieldAISelect:
		return r.AISelect, true
	case FieldOrgSize:
		return r.OrgSize, true
	case FieldDevType:
		return r.DevType, true
	case FieldRemoteWork:
		return r.RemoteWork, true
	case FieldCurrency:
		return r.Currency, true
	case FieldEdLevel:
		return r.EdLevel, true
	case FieldLanguageHaveWorkedWith:
		return r.LanguageHaveWorkedWith, true
	case FieldDatabaseHaveWorkedWith:
		return r.DatabaseHaveWorkedWith, true
	case FieldLearnCode:
		return r.LearnCode, true
	}
	return "", false
}

// Number returns a numeric field by name.
func (r Record) Number(field string) (int, bool) {
	switch field {
	case FieldYearsCode:
		return r.YearsCode, true
	case FieldWorkExp:
		return r.WorkExp, true
	case FieldYearsCodePro:
		return r.YearsCodePro, true
	}
	return 0, false
}

// Normalized returns a copy with surrounding whitespace removed from every
// text field. Inner whitespace is kept: currency labels carry a tab.
func (r Record) Normalized() Record {
	out := r
	out.Age = strings.TrimSpace(r.Age)
	out.AISelect = strings.TrimSpace(r.AISelect)
	out.OrgSize = strings.TrimSpace(r.OrgSize)
	out.DevType = strings.TrimSpace(r.DevType)
	out.RemoteWork = strings.TrimSpace(r.RemoteWork)
	out.Currency = strings.TrimSpace(r.Currency)
	out.EdLevel = strings.TrimSpace(r.EdLevel)
	out.LanguageHaveWorkedWith = strings.TrimSpace(r.LanguageHaveWorkedWith)
	out.DatabaseHaveWorkedWith = strings.TrimSpace(r.DatabaseHaveWorkedWith)
	out.LearnCode = strings.TrimSpace(r.LearnCode)
	return out
}

// IsPrompt reports whether a categorical answer was never chosen: empty or
// a "Select ..." prompt.
func IsPrompt(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.HasPrefix(v, "Select")
}

// IsUnset reports whether a categorical answer is a placeholder: a prompt or
// a spelling of nan.
func IsUnset(v string) bool {
	return IsPrompt(v) || strings.EqualFold(strings.TrimSpace(v), "nan")
}
