package probe

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/okian/salarygauge/internal/adapters/artifact"
	"github.com/okian/salarygauge/internal/domain/model"
	"github.com/okian/salarygauge/pkg/logger"
)

// ScenarioRecord is the reference survey answer used to smoke-test an
// artifact.
func ScenarioRecord() model.Record {
	return model.Record{
		Age:                    "25-34 years old",
		DevType:                "Developer, back-end",
		OrgSize:                "20 to 99 employees",
		YearsCode:              5,
		WorkExp:                3,
		YearsCodePro:           3,
		RemoteWork:             "Remote",
		Currency:               "USD\tUnited States dollar",
		EdLevel:                "Bachelor's degree...",
		AISelect:               "Yes",
		LanguageHaveWorkedWith: "Python;SQL",
		DatabaseHaveWorkedWith: "PostgreSQL",
		LearnCode:              "Online courses",
	}
}

// Inspect loads the artifact at path without a running service and writes a
// summary of its members plus the scenario prediction to w.
func Inspect(ctx context.Context, path string, w io.Writer, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	b, err := artifact.NewLoader(artifact.WithLogger(log)).Load(ctx, path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "artifact\t%s\n", path)
	fmt.Fprintf(tw, "version\t%s\n", b.Version)
	fmt.Fprintf(tw, "schema\t%s (%d columns)\n", b.Schema.Version, b.Schema.Dim())
	fmt.Fprintf(tw, "scaler\t%s\n", b.Scaler.Kind())
	fmt.Fprintf(tw, "model\t%s\n", b.Model.Kind())

	keys := make([]string, 0, len(b.Meta))
	for k := range b.Meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(tw, "meta.%s\t%s\n", k, b.Meta[k])
	}

	fmt.Fprintln(tw, "\ncolumn\tkind\tsource")
	for _, c := range b.Schema.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Kind, c.Source())
	}

	fmt.Fprintln(tw, "\nencoder\tclasses\tunknown")
	names := make([]string, 0, len(b.Encoders))
	for name := range b.Encoders {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		enc := b.Encoders[name]
		fmt.Fprintf(tw, "%s\t%d\t%s\n", name, enc.Len(), enc.Policy())
	}

	salary, err := b.Pipeline().Prepare(ScenarioRecord(), b.Model, b.Encoders, b.Scaler)
	if err != nil {
		fmt.Fprintf(tw, "\nscenario\terror: %v\n", err)
	} else {
		fmt.Fprintf(tw, "\nscenario\t$%.2f\n", salary)
	}
	if ferr := tw.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return fmt.Errorf("scenario prediction: %w", err)
	}
	return nil
}
