package regression

import (
	"fmt"
	"math"
)

// Aggregation decides how per-tree outputs are combined.
type Aggregation string

const (
	// AggregateMean averages tree outputs, as a random forest does.
	AggregateMean Aggregation = "mean"
	// AggregateSum adds learning_rate * tree output to the base score, as
	// gradient boosting does.
	AggregateSum Aggregation = "sum"
)

// leaf marks a node without children.
const leaf = -1

// Node is one node of a decision tree in flat array form. Internal nodes send
// x[Feature] <= Threshold to Left and everything else to Right; leaves carry
// Value and have Left == Right == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a validated decision tree.
type Tree struct {
	nodes []Node
}

// NewTree validates nodes against nFeatures. Children must come after their
// parent so traversal always terminates.
func NewTree(nodes []Node, nFeatures int) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: empty tree", ErrInvalidModel)
	}
	for i, n := range nodes {
		if n.Left == leaf && n.Right == leaf {
			if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
				return nil, fmt.Errorf("%w: leaf %d value is not finite", ErrInvalidModel, i)
			}
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(nodes) || n.Right >= len(nodes) {
			return nil, fmt.Errorf("%w: node %d has invalid children %d/%d", ErrInvalidModel, i, n.Left, n.Right)
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return nil, fmt.Errorf("%w: node %d splits on feature %d of %d", ErrInvalidModel, i, n.Feature, nFeatures)
		}
		if math.IsNaN(n.Threshold) {
			return nil, fmt.Errorf("%w: node %d threshold is NaN", ErrInvalidModel, i)
		}
	}
	return &Tree{nodes: append([]Node(nil), nodes...)}, nil
}

// Eval walks the tree for x.
func (t *Tree) Eval(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.Left == leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Option applies a configuration option to a TreeEnsemble.
type Option func(*TreeEnsemble)

// WithAggregation sets how tree outputs are combined.
func WithAggregation(a Aggregation) Option {
	return func(m *TreeEnsemble) {
		if a != "" {
			m.aggregation = a
		}
	}
}

// WithBaseScore sets the starting value for AggregateSum.
func WithBaseScore(v float64) Option {
	return func(m *TreeEnsemble) {
		m.baseScore = v
	}
}

// WithLearningRate sets the shrinkage applied to every tree for AggregateSum.
func WithLearningRate(v float64) Option {
	return func(m *TreeEnsemble) {
		if v > 0 {
			m.learningRate = v
		}
	}
}

// TreeEnsemble is a forest or boosted ensemble of decision trees.
type TreeEnsemble struct {
	trees        []*Tree
	nFeatures    int
	aggregation  Aggregation
	baseScore    float64
	learningRate float64
}

// NewTreeEnsemble builds an ensemble over nFeatures inputs.
func NewTreeEnsemble(trees []*Tree, nFeatures int, opts ...Option) (*TreeEnsemble, error) {
	m := &TreeEnsemble{
		trees:        append([]*Tree(nil), trees...),
		nFeatures:    nFeatures,
		aggregation:  AggregateMean,
		learningRate: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.trees) == 0 {
		return nil, fmt.Errorf("%w: ensemble has no trees", ErrInvalidModel)
	}
	if nFeatures <= 0 {
		return nil, fmt.Errorf("%w: ensemble needs a positive feature count", ErrInvalidModel)
	}
	if m.aggregation != AggregateMean && m.aggregation != AggregateSum {
		return nil, fmt.Errorf("%w: unknown aggregation %q", ErrInvalidModel, m.aggregation)
	}
	return m, nil
}

func (m *TreeEnsemble) NumFeatures() int { return m.nFeatures }
func (m *TreeEnsemble) Kind() Kind       { return KindTreeEnsemble }

// Size returns the number of trees.
func (m *TreeEnsemble) Size() int { return len(m.trees) }

func (m *TreeEnsemble) Predict(x []float64) (float64, error) {
	if err := checkDim(m, x); err != nil {
		return 0, err
	}
	var sum float64
	for _, t := range m.trees {
		sum += t.Eval(x)
	}
	if m.aggregation == AggregateMean {
		return finite(sum / float64(len(m.trees)))
	}
	return finite(m.baseScore + m.learningRate*sum)
}
