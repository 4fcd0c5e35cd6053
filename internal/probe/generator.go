package probe

import (
	"math/rand/v2"
	"strings"

	"github.com/okian/salarygauge/internal/domain/model"
	"github.com/okian/salarygauge/internal/domain/types"
)

// Generator fields.
const (
	placeholderChance = 0.1 // optional categoricals left unanswered
	maxMultiPicks     = 4
)

// Generator builds random survey records from a form description. Required
// fields always receive a vocabulary value.
type Generator struct {
	opts types.Options
	rnd  *rand.Rand
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(opts types.Options, seed uint64) *Generator {
	return &Generator{opts: opts, rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Records returns n generated records.
func (g *Generator) Records(n int) []model.Record {
	out := make([]model.Record, n)
	for i := range out {
		out[i] = g.Record()
	}
	return out
}

// Record returns one generated record.
func (g *Generator) Record() model.Record {
	var rec model.Record
	for _, f := range g.opts.Fields {
		switch f.Kind {
		case model.KindCategorical.String():
			setText(&rec, f.Field, g.categorical(f))
		case model.KindNumeric.String():
			setNumber(&rec, f.Field, g.numeric(f))
		case model.KindMultiValue.String():
			setText(&rec, f.Field, g.multi(f))
		}
	}
	return rec
}

func (g *Generator) categorical(f types.FieldOptions) string {
	if len(f.Choices) == 0 {
		return ""
	}
	if !f.Required && g.rnd.Float64() < placeholderChance {
		return f.Placeholder
	}
	return f.Choices[g.rnd.IntN(len(f.Choices))]
}

func (g *Generator) numeric(f types.FieldOptions) int {
	lo, hi := model.MinYears, model.MaxYears
	if f.Min != nil {
		lo = *f.Min
	}
	if f.Max != nil {
		hi = *f.Max
	}
	if hi < lo {
		return lo
	}
	return lo + g.rnd.IntN(hi-lo+1)
}

func (g *Generator) multi(f types.FieldOptions) string {
	if len(f.Choices) == 0 {
		return ""
	}
	k := g.rnd.IntN(min(maxMultiPicks, len(f.Choices)) + 1)
	picked := make([]string, 0, k)
	for _, i := range g.rnd.Perm(len(f.Choices))[:k] {
		picked = append(picked, f.Choices[i])
	}
	delim := f.Delimiter
	if delim == "" {
		delim = ";"
	}
	return strings.Join(picked, delim)
}

func setText(rec *model.Record, field, v string) {
	switch field {
	case model.FieldAge:
		rec.Age = v
	case model.FieldAISelect:
		rec.AISelect = v
	case model.FieldOrgSize:
		rec.OrgSize = v
	case model.FieldDevType:
		rec.DevType = v
	case model.FieldRemoteWork:
		rec.RemoteWork = v
	case model.FieldCurrency:
		rec.Currency = v
	case model.FieldEdLevel:
		rec.EdLevel = v
	case model.FieldLanguageHaveWorkedWith:
		rec.LanguageHaveWorkedWith = v
	case model.FieldDatabaseHaveWorkedWith:
		rec.DatabaseHaveWorkedWith = v
	case model.FieldLearnCode:
		rec.LearnCode = v
	}
}

func setNumber(rec *model.Record, field string, v int) {
	switch field {
	case model.FieldYearsCode:
		rec.YearsCode = v
	case model.FieldWorkExp:
		rec.WorkExp = v
	case model.FieldYearsCodePro:
		rec.YearsCodePro = v
	}
}
