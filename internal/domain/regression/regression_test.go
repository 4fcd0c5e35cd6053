package regression_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/salarygauge/internal/domain/regression"
	. "github.com/smartystreets/goconvey/convey"
)

// stump splits on feature 0 at 0.5.
func stump(t *testing.T, lo, hi float64) *regression.Tree {
	tree, err := regression.NewTree([]regression.Node{
		{Feature: 0, Threshold: 0.5, Left: 1, Right: 2},
		{Left: -1, Right: -1, Value: lo},
		{Left: -1, Right: -1, Value: hi},
	}, 2)
	if err != nil {
		t.Fatalf("stump: %v", err)
	}
	return tree
}

func TestLinear(t *testing.T) {
	Convey("Given a linear model", t, func() {
		m, err := regression.NewLinear([]float64{1000, -250}, 50000)
		So(err, ShouldBeNil)
		So(m.NumFeatures(), ShouldEqual, 2)
		So(m.Kind(), ShouldEqual, regression.KindLinear)

		Convey("When predicting", func() {
			y, err := m.Predict([]float64{2, 4})

			Convey("Then intercept + coef·x is returned", func() {
				So(err, ShouldBeNil)
				So(y, ShouldEqual, 51000.0)
			})
		})

		Convey("When the vector has the wrong length", func() {
			_, err := m.Predict([]float64{1, 2, 3})

			Convey("Then ErrDimensionMismatch is returned", func() {
				So(errors.Is(err, regression.ErrDimensionMismatch), ShouldBeTrue)
			})
		})

		Convey("When the input overflows", func() {
			_, err := m.Predict([]float64{math.MaxFloat64, -math.MaxFloat64})

			Convey("Then ErrNonFinite is returned", func() {
				So(errors.Is(err, regression.ErrNonFinite), ShouldBeTrue)
			})
		})
	})

	Convey("Given invalid coefficients", t, func() {
		_, errEmpty := regression.NewLinear(nil, 0)
		_, errNaN := regression.NewLinear([]float64{math.NaN()}, 0)
		_, errInf := regression.NewLinear([]float64{1}, math.Inf(1))

		Convey("Then construction fails", func() {
			So(errors.Is(errEmpty, regression.ErrInvalidModel), ShouldBeTrue)
			So(errors.Is(errNaN, regression.ErrInvalidModel), ShouldBeTrue)
			So(errors.Is(errInf, regression.ErrInvalidModel), ShouldBeTrue)
		})
	})
}

func TestTrees(t *testing.T) {
	Convey("Given malformed trees", t, func() {
		Convey("When a child points backwards", func() {
			_, err := regression.NewTree([]regression.Node{
				{Feature: 0, Threshold: 1, Left: 0, Right: 1},
				{Left: -1, Right: -1},
			}, 1)
			So(errors.Is(err, regression.ErrInvalidModel), ShouldBeTrue)
		})

		Convey("When a split uses an unknown feature", func() {
			_, err := regression.NewTree([]regression.Node{
				{Feature: 3, Threshold: 1, Left: 1, Right: 2},
				{Left: -1, Right: -1},
				{Left: -1, Right: -1},
			}, 2)
			So(errors.Is(err, regression.ErrInvalidModel), ShouldBeTrue)
		})

		Convey("When the tree is empty", func() {
			_, err := regression.NewTree(nil, 2)
			So(errors.Is(err, regression.ErrInvalidModel), ShouldBeTrue)
		})
	})

	Convey("Given a forest of two stumps", t, func() {
		forest, err := regression.NewTreeEnsemble([]*regression.Tree{stump(t, 10, 20), stump(t, 30, 40)}, 2)
		So(err, ShouldBeNil)
		So(forest.Size(), ShouldEqual, 2)

		Convey("Then outputs are averaged", func() {
			lo, err := forest.Predict([]float64{0, 0})
			So(err, ShouldBeNil)
			So(lo, ShouldEqual, 20.0)

			hi, err := forest.Predict([]float64{1, 0})
			So(err, ShouldBeNil)
			So(hi, ShouldEqual, 30.0)
		})

		Convey("Then the split boundary goes left", func() {
			y, _ := forest.Predict([]float64{0.5, 0})
			So(y, ShouldEqual, 20.0)
		})
	})

	Convey("Given a boosted ensemble", t, func() {
		boosted, err := regression.NewTreeEnsemble(
			[]*regression.Tree{stump(t, -1, 1), stump(t, -2, 2)},
			2,
			regression.WithAggregation(regression.AggregateSum),
			regression.WithBaseScore(100),
			regression.WithLearningRate(0.5),
		)
		So(err, ShouldBeNil)

		Convey("Then base + rate * sum is returned", func() {
			y, err := boosted.Predict([]float64{1, 0})
			So(err, ShouldBeNil)
			So(y, ShouldEqual, 101.5)
		})
	})

	Convey("Given invalid ensembles", t, func() {
		_, errEmpty := regression.NewTreeEnsemble(nil, 2)
		_, errAgg := regression.NewTreeEnsemble([]*regression.Tree{stump(t, 0, 1)}, 2, regression.WithAggregation("median"))

		Convey("Then construction fails", func() {
			So(errors.Is(errEmpty, regression.ErrInvalidModel), ShouldBeTrue)
			So(errors.Is(errAgg, regression.ErrInvalidModel), ShouldBeTrue)
		})
	})
}
