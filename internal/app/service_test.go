package service_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/okian/salarygauge/internal/adapters/artifact"
	service "github.com/okian/salarygauge/internal/app"
	"github.com/okian/salarygauge/internal/domain/encoding"
	"github.com/okian/salarygauge/internal/domain/model"
	"github.com/okian/salarygauge/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const shippedArtifact = "../../artifacts/salary_model.yaml"

const negativeYAML = `
version: "negative"
schema:
  version: "survey/v1"
  columns:
    - {name: "DevType", kind: "categorical"}
    - {name: "WorkExp", kind: "numeric"}
encoders:
  DevType:
    classes: ["Developer, back-end", "Student"]
scaler:
  kind: standard
  mean: [0.5, 10]
  scale: [0.5, 5]
model:
  kind: linear
  intercept: -50000
  coef: [1000, 2000]
`

func scenario() model.Record {
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

func started(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	opts = append([]service.Option{
		service.WithLogger(logger.Nop()),
		service.WithArtifactPath(shippedArtifact),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()

		Convey("When the artifact is missing", func() {
			svc := service.New(service.WithLogger(logger.Nop()), service.WithArtifactPath("/nope/model.yaml"))
			err := svc.Start(ctx)

			Convey("Then start fails and the service stays stopped", func() {
				So(errors.Is(err, artifact.ErrOpen), ShouldBeTrue)
				So(svc.Ready(), ShouldBeFalse)
				So(svc.ModelVersion(), ShouldEqual, "")
			})
		})

		Convey("When predicting before start", func() {
			svc := service.New(service.WithLogger(logger.Nop()))
			_, err := svc.Predict(ctx, scenario())
			_, optErr := svc.Options(ctx)

			Convey("Then the service refuses", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(optErr, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When started twice and stopped twice", func() {
			svc := started(t)
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()
			svc.Stop()

			Convey("Then the calls are idempotent", func() {
				So(svc.Ready(), ShouldBeFalse)
				_, err := svc.Predict(ctx, scenario())
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestServicePredict(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := started(t)
		defer svc.Stop()

		Convey("When predicting the reference scenario twice", func() {
			first, err1 := svc.Predict(ctx, scenario())
			second, err2 := svc.Predict(ctx, scenario())

			Convey("Then both succeed with the same salary", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(math.IsNaN(first.Salary) || math.IsInf(first.Salary, 0), ShouldBeFalse)
				So(second.Salary, ShouldEqual, first.Salary)
				So(first.Cached, ShouldBeFalse)
				So(second.Cached, ShouldBeTrue)
				So(first.ID, ShouldNotEqual, second.ID)
				So(first.ModelVersion, ShouldEqual, "salary-linear-2024.06")
				So(first.Currency, ShouldEqual, "USD")
				So(first.Display, ShouldStartWith, "$")
				So(first.Display, ShouldContainSubstring, ".")
			})
		})

		Convey("When numerics sit on the slider bounds", func() {
			low, high := scenario(), scenario()
			low.YearsCode, low.WorkExp, low.YearsCodePro = 0, 0, 0
			high.YearsCode, high.WorkExp, high.YearsCodePro = 50, 50, 50
			_, errLow := svc.Predict(ctx, low)
			_, errHigh := svc.Predict(ctx, high)

			Convey("Then both are accepted", func() {
				So(errLow, ShouldBeNil)
				So(errHigh, ShouldBeNil)
			})
		})

		Convey("When multi-value answers are empty", func() {
			rec := scenario()
			rec.LanguageHaveWorkedWith, rec.DatabaseHaveWorkedWith, rec.LearnCode = "", "", ""
			_, err := svc.Predict(ctx, rec)

			Convey("Then the prediction succeeds", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When a required field is left at its placeholder", func() {
			rec := scenario()
			rec.Age = "Select Age"
			rec.OrgSize = ""
			_, err := svc.Predict(ctx, rec)

			Convey("Then it is rejected as invalid input naming the fields", func() {
				So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
				So(service.ErrorKind(err), ShouldEqual, service.KindInvalidInput)
				fields := []string{}
				for _, v := range model.Invalid(err) {
					fields = append(fields, v.Field)
				}
				So(fields, ShouldResemble, []string{"Age", "OrgSize"})
			})
		})

		Convey("When the organisation size is the NAN class", func() {
			rec := scenario()
			rec.OrgSize = "NAN"
			_, err := svc.Predict(ctx, rec)

			Convey("Then it is an answered vocabulary value", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When an optional field is left at its placeholder", func() {
			rec := scenario()
			rec.AISelect = "Select an option"
			_, err := svc.Predict(ctx, rec)

			Convey("Then it encodes as missing", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When a numeric is out of range", func() {
			rec := scenario()
			rec.WorkExp = 51
			_, err := svc.Predict(ctx, rec)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
			})
		})

		Convey("When the job role is outside the vocabulary", func() {
			rec := scenario()
			rec.DevType = "Quantum Blacksmith"
			_, err := svc.Predict(ctx, rec)

			Convey("Then an unknown category error is returned", func() {
				var unknown *encoding.UnknownCategoryError
				So(errors.As(err, &unknown), ShouldBeTrue)
				So(unknown.Feature, ShouldEqual, "DevType")
				So(unknown.Value, ShouldEqual, "Quantum Blacksmith")
				So(service.ErrorKind(err), ShouldEqual, service.KindUnknownCategory)
			})
		})

		Convey("When the education level is outside the vocabulary", func() {
			rec := scenario()
			rec.EdLevel = "Dojo"
			_, err := svc.Predict(ctx, rec)

			Convey("Then the fallback code is used", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Predict(cctx, scenario())

			Convey("Then nothing is computed", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("Then stats report the loaded artifact", func() {
			_, _ = svc.Predict(ctx, scenario())
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["modelVersion"], ShouldEqual, "salary-linear-2024.06")
			So(stats["features"], ShouldEqual, 28)
			So(stats["predictions"], ShouldBeGreaterThan, 0)
		})
	})
}

func TestServiceExplain(t *testing.T) {
	Convey("Given a started service without a cache", t, func() {
		ctx := context.Background()
		svc := started(t, service.WithCacheSize(0))
		defer svc.Stop()

		Convey("When explaining the scenario", func() {
			exp, err := svc.Explain(ctx, scenario())
			pred, _ := svc.Predict(ctx, scenario())

			Convey("Then the vectors line up with the schema and the salary matches", func() {
				So(err, ShouldBeNil)
				So(len(exp.Columns), ShouldEqual, 28)
				So(len(exp.Raw), ShouldEqual, 28)
				So(len(exp.Scaled), ShouldEqual, 28)
				So(exp.Columns[0], ShouldEqual, "Age")
				So(exp.Raw[0], ShouldEqual, 1.0)
				So(exp.Raw[4], ShouldEqual, 5.0)
				So(exp.Salary, ShouldEqual, pred.Salary)
				So(pred.Cached, ShouldBeFalse)
			})
		})

		Convey("When explaining an invalid record", func() {
			rec := scenario()
			rec.DevType = "Select Job Role"
			_, err := svc.Explain(ctx, rec)

			Convey("Then validation applies", func() {
				So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
			})
		})
	})
}

func TestServiceClamp(t *testing.T) {
	Convey("Given a model that predicts below zero", t, func() {
		ctx := context.Background()
		bundle, err := artifact.NewLoader().Decode(ctx, strings.NewReader(negativeYAML))
		So(err, ShouldBeNil)
		rec := model.Record{DevType: "Student", WorkExp: 3}

		Convey("When clamping is enabled", func() {
			svc := service.New(
				service.WithLogger(logger.Nop()),
				service.WithBundle(bundle),
				service.WithRequiredFields([]string{"DevType"}),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()
			p, err := svc.Predict(ctx, rec)

			Convey("Then the salary is floored at zero", func() {
				So(err, ShouldBeNil)
				So(p.Salary, ShouldEqual, 0.0)
				So(p.Display, ShouldEqual, "$0.00")
				So(p.Currency, ShouldEqual, "")
				So(svc.GetStats()["clamped"], ShouldEqual, int64(1))
			})
		})

		Convey("When clamping is disabled", func() {
			svc := service.New(
				service.WithLogger(logger.Nop()),
				service.WithBundle(bundle),
				service.WithRequiredFields([]string{"DevType"}),
				service.WithClampNegative(false),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()
			p, err := svc.Predict(ctx, rec)

			Convey("Then the raw model output is returned", func() {
				So(err, ShouldBeNil)
				So(p.Salary, ShouldAlmostEqual, -51800, 1e-6)
				So(p.Display, ShouldEqual, "$-51800.00")
			})
		})
	})
}

func TestServiceOptions(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := started(t)
		defer svc.Stop()

		opts, err := svc.Options(context.Background())
		So(err, ShouldBeNil)
		byField := map[string]int{}
		for i, f := range opts.Fields {
			byField[f.Field] = i
		}

		Convey("Then every record field is described", func() {
			So(len(opts.Fields), ShouldEqual, len(model.Fields))
			So(opts.ModelVersion, ShouldEqual, "salary-linear-2024.06")
		})

		Convey("Then categorical fields carry placeholders, vocabularies and required flags", func() {
			age := opts.Fields[byField["Age"]]
			So(age.Required, ShouldBeTrue)
			So(age.Placeholder, ShouldEqual, "Select Age")
			So(age.Choices, ShouldContain, "25-34 years old")

			dev := opts.Fields[byField["DevType"]]
			So(dev.Label, ShouldEqual, "Job Role")
			So(dev.Choices, ShouldContain, "Developer, back-end")
			So(dev.Choices, ShouldNotContain, "nan")

			remote := opts.Fields[byField["RemoteWork"]]
			So(remote.Required, ShouldBeFalse)

			org := opts.Fields[byField["OrgSize"]]
			So(org.Choices, ShouldContain, "20 to 99 employees")
			So(org.Choices, ShouldContain, "NAN")
		})

		Convey("Then numeric fields carry slider bounds", func() {
			years := opts.Fields[byField["YearsCodePro"]]
			So(*years.Min, ShouldEqual, 0)
			So(*years.Max, ShouldEqual, 50)
			So(*years.Default, ShouldEqual, 3)
		})

		Convey("Then multi-value fields list the tokens the model knows", func() {
			langs := opts.Fields[byField["LanguageHaveWorkedWith"]]
			So(langs.Delimiter, ShouldEqual, ";")
			So(langs.Choices, ShouldContain, "Python")
			So(langs.Choices, ShouldContain, "C#")
		})
	})
}
