package forest

import (
	"errors"
	"fmt"
)

var ErrFeatureCount = errors.New("feature count mismatch")

// Node follows the flattened tree layout exported by scikit-learn. A node
// with Left == -1 is a leaf and Value holds its per-class sample weights.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

type Spec struct {
	NClasses  int    `json:"n_classes"`
	NFeatures int    `json:"n_features"`
	Trees     []Tree `json:"trees"`
}

// Forest is an immutable random forest classifier.
type Forest struct {
	nClasses  int
	nFeatures int
	trees     []Tree
}

func New(spec Spec) (*Forest, error) {
	if spec.NClasses < 2 {
		return nil, fmt.Errorf("forest needs at least 2 classes, got %d", spec.NClasses)
	}
	if len(spec.Trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	for ti, tree := range spec.Trees {
		if err := validateTree(tree, spec.NClasses, spec.NFeatures); err != nil {
			return nil, fmt.Errorf("tree %d: %w", ti, err)
		}
	}
	return &Forest{nClasses: spec.NClasses, nFeatures: spec.NFeatures, trees: spec.Trees}, nil
}

func validateTree(tree Tree, nClasses, nFeatures int) error {
	if len(tree.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range tree.Nodes {
		if n.Left == -1 {
			if len(n.Value) != nClasses {
				return fmt.Errorf("leaf %d has %d class weights, want %d", i, len(n.Value), nClasses)
			}
			continue
		}
		// children always follow their parent, which also rules out cycles
		if n.Left <= i || n.Right <= i || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
		if n.Feature < 0 || (nFeatures > 0 && n.Feature >= nFeatures) {
			return fmt.Errorf("node %d splits on feature %d", i, n.Feature)
		}
	}
	return nil
}

func (f *Forest) PredictProba(sample []float64) ([]float64, error) {
	if f.nFeatures > 0 && len(sample) != f.nFeatures {
		return nil, fmt.Errorf("got %d features, forest has %d: %w", len(sample), f.nFeatures, ErrFeatureCount)
	}
	proba := make([]float64, f.nClasses)
	for _, tree := range f.trees {
		leaf, err := tree.leaf(sample)
		if err != nil {
			return nil, err
		}
		var total float64
		for _, w := range leaf.Value {
			total += w
		}
		for c, w := range leaf.Value {
			if total == 0 {
				proba[c] += 1 / float64(f.nClasses)
				continue
			}
			proba[c] += w / total
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.trees))
	}
	return proba, nil
}

// Predict returns the most probable class; ties go to the lower class.
func (f *Forest) Predict(sample []float64) (int, error) {
	proba, err := f.PredictProba(sample)
	if err != nil {
		return 0, err
	}
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return best, nil
}

func (t Tree) leaf(sample []float64) (Node, error) {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.Left == -1 {
			return n, nil
		}
		if n.Feature >= len(sample) {
			return Node{}, fmt.Errorf("split on feature %d with %d features: %w", n.Feature, len(sample), ErrFeatureCount)
		}
		if sample[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}
