package encoding_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/salarygauge/internal/domain/encoding"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLabelEncoder(t *testing.T) {
	Convey("Given an OrgSize encoder with a nan token and a literal NAN class", t, func() {
		enc, err := encoding.NewLabelEncoder("OrgSize",
			[]string{"10 to 19 employees", "2 to 9 employees", "NAN", "nan"},
			encoding.WithMissingValue("nan"),
		)
		So(err, ShouldBeNil)

		Convey("When encoding a known class", func() {
			code, res, err := enc.Encode("2 to 9 employees")

			Convey("Then the index is returned", func() {
				So(err, ShouldBeNil)
				So(code, ShouldEqual, 1)
				So(res, ShouldEqual, encoding.ResolvedKnown)
			})
		})

		Convey("When encoding the literal NAN class", func() {
			code, res, err := enc.Encode("NAN")

			Convey("Then the exact class wins over the missing token", func() {
				So(err, ShouldBeNil)
				So(code, ShouldEqual, 2)
				So(res, ShouldEqual, encoding.ResolvedKnown)
			})
		})

		Convey("When encoding a placeholder", func() {
			code, res, err := enc.Encode("Select Organisation Size")

			Convey("Then it maps to the missing token", func() {
				So(err, ShouldBeNil)
				So(code, ShouldEqual, 3)
				So(res, ShouldEqual, encoding.ResolvedMissing)
			})
		})

		Convey("When encoding an unseen value", func() {
			_, _, err := enc.Encode("A million employees")

			Convey("Then an UnknownCategoryError is returned", func() {
				var uce *encoding.UnknownCategoryError
				So(errors.As(err, &uce), ShouldBeTrue)
				So(uce.Feature, ShouldEqual, "OrgSize")
				So(uce.Value, ShouldEqual, "A million employees")
				So(errors.Is(err, encoding.ErrUnknownCategory), ShouldBeTrue)
			})
		})
	})

	Convey("Given an encoder with a fallback code", t, func() {
		enc, err := encoding.NewLabelEncoder("DevType", []string{"Developer, back-end", "Student"}, encoding.WithFallback(-1))
		So(err, ShouldBeNil)
		So(enc.Policy(), ShouldEqual, encoding.PolicyFallback)

		Convey("When encoding an unseen value", func() {
			code, res, err := enc.Encode("Quantum Blacksmith")

			Convey("Then the fallback code is used", func() {
				So(err, ShouldBeNil)
				So(code, ShouldEqual, -1)
				So(res, ShouldEqual, encoding.ResolvedFallback)
			})
		})

		Convey("When encoding an empty answer without a missing token", func() {
			code, res, err := enc.Encode("")

			Convey("Then it falls back too", func() {
				So(err, ShouldBeNil)
				So(code, ShouldEqual, -1)
				So(res, ShouldEqual, encoding.ResolvedFallback)
			})
		})
	})

	Convey("Given duplicate classes", t, func() {
		_, err := encoding.NewLabelEncoder("Age", []string{"a", "b", "a"})

		Convey("Then construction fails", func() {
			So(errors.Is(err, encoding.ErrDuplicateClass), ShouldBeTrue)
		})
	})

	Convey("Given an encoder set", t, func() {
		enc, _ := encoding.NewLabelEncoder("AISelect", []string{"No", "Yes"})
		set := encoding.Encoders{"AISelect": enc}

		Convey("When encoding a feature without an encoder", func() {
			_, _, err := set.Encode("EdLevel", "Something else")

			Convey("Then ErrNoEncoder is returned", func() {
				So(errors.Is(err, encoding.ErrNoEncoder), ShouldBeTrue)
			})
		})

		Convey("When encoding a feature with an encoder", func() {
			code, _, err := set.Encode("AISelect", "Yes")
			So(err, ShouldBeNil)
			So(code, ShouldEqual, 1)
			So(enc.Classes(), ShouldResemble, []string{"No", "Yes"})
		})
	})
}

func TestScalers(t *testing.T) {
	Convey("Given a standard scaler", t, func() {
		s, err := encoding.NewStandardScaler([]float64{10, 0}, []float64{2, 0})
		So(err, ShouldBeNil)

		Convey("When transforming a vector", func() {
			out, err := s.Transform([]float64{14, 3})

			Convey("Then columns are centred and scaled, zero scale acting as one", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []float64{2, 3})
			})
		})

		Convey("When the vector has the wrong length", func() {
			_, err := s.Transform([]float64{1})

			Convey("Then ErrDimensionMismatch is returned", func() {
				So(errors.Is(err, encoding.ErrDimensionMismatch), ShouldBeTrue)
			})
		})
	})

	Convey("Given a min-max scaler", t, func() {
		s, err := encoding.NewMinMaxScaler([]float64{0, -1}, []float64{0.5, 0.02})
		So(err, ShouldBeNil)
		So(s.Kind(), ShouldEqual, encoding.ScalerMinMax)

		Convey("Then x*scale+min is applied", func() {
			out, err := s.Transform([]float64{2, 50})
			So(err, ShouldBeNil)
			So(out[0], ShouldAlmostEqual, 1.0)
			So(out[1], ShouldAlmostEqual, 0.0)
		})
	})

	Convey("Given invalid scaler parameters", t, func() {
		_, errLen := encoding.NewStandardScaler([]float64{1, 2}, []float64{1})
		_, errNaN := encoding.NewMinMaxScaler([]float64{math.NaN()}, []float64{1})

		Convey("Then construction fails", func() {
			So(errors.Is(errLen, encoding.ErrInvalidScaler), ShouldBeTrue)
			So(errors.Is(errNaN, encoding.ErrInvalidScaler), ShouldBeTrue)
		})
	})

	Convey("Given an identity scaler", t, func() {
		s := encoding.NewIdentityScaler(2)
		in := []float64{1, 2}
		out, err := s.Transform(in)
		So(err, ShouldBeNil)
		So(out, ShouldResemble, in)

		Convey("Then the output does not alias the input", func() {
			out[0] = 9
			So(in[0], ShouldEqual, 1.0)
		})
	})
}
