package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Config holds gradient boosting hyperparameters.
type Config struct {
	Rounds       int
	MaxDepth     int
	LearningRate float64
	Lambda       float64 // L2 regularization on leaf values
	MinLeaf      int     // minimum samples per leaf
	MaxBins      int     // candidate thresholds per feature
	Seed         int64
}

// DefaultConfig returns the fixed training configuration.
func DefaultConfig() Config {
	return Config{
		Rounds:       100,
		MaxDepth:     5,
		LearningRate: 0.1,
		Lambda:       1.0,
		MinLeaf:      1,
		MaxBins:      32,
		Seed:         42,
	}
}

func (c Config) withDefaults() Config {
	if c.Rounds <= 0 {
		c.Rounds = 100
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 5
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.1
	}
	if c.Lambda <= 0 {
		c.Lambda = 1.0
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = 1
	}
	if c.MaxBins <= 0 {
		c.MaxBins = 32
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	return c
}

// binSubsample caps how many rows feed threshold candidate computation
// per node; larger nodes are row-subsampled with the seeded generator.
// Split evaluation always uses every row.
const binSubsample = 10000

// subsample draws up to max indices without replacement. With
// len(indices) <= max the input is returned unchanged.
func subsample(rng *rand.Rand, indices []int, max int) []int {
	if len(indices) <= max {
		return indices
	}
	picked := make([]int, len(indices))
	copy(picked, indices)
	for i := 0; i < max; i++ {
		j := i + rng.Intn(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked[:max]
}

// node is one entry in a flattened tree. Leaves have left == -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

type tree struct {
	nodes []node
}

func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.left < 0 {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// Classifier is a binary gradient-boosted tree ensemble trained with
// logistic loss and Newton leaf values. Training is deterministic for
// a given input and seed, so repeated fits produce identical models.
type Classifier struct {
	cfg   Config
	trees []tree
	base  float64
}

// NewClassifier creates an untrained classifier.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg.withDefaults()}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// Fit trains the ensemble on X (row-major) and binary labels y.
func (c *Classifier) Fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 || n != len(y) {
		return fmt.Errorf("bad training shape: %d rows, %d labels", n, len(y))
	}

	// Initial score is the log-odds of the positive rate.
	pos := 0.0
	for _, v := range y {
		pos += v
	}
	p := pos / float64(n)
	if p < 1e-6 {
		p = 1e-6
	}
	if p > 1-1e-6 {
		p = 1 - 1e-6
	}
	c.base = math.Log(p / (1 - p))
	c.trees = c.trees[:0]

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = c.base
	}

	grads := make([]float64, n)
	hess := make([]float64, n)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	builder := newTreeBuilder(X, grads, hess, c.cfg)

	for round := 0; round < c.cfg.Rounds; round++ {
		for i := 0; i < n; i++ {
			pi := sigmoid(scores[i])
			grads[i] = pi - y[i]
			hess[i] = pi * (1 - pi)
		}

		t := builder.build(indices)
		c.trees = append(c.trees, t)

		for i := 0; i < n; i++ {
			scores[i] += c.cfg.LearningRate * t.predict(X[i])
		}
	}
	return nil
}

// PredictProba returns the probability of the positive class.
func (c *Classifier) PredictProba(x []float64) float64 {
	score := c.base
	for i := range c.trees {
		score += c.cfg.LearningRate * c.trees[i].predict(x)
	}
	return sigmoid(score)
}

// treeBuilder grows one regression tree per boosting round over
// shared gradient/hessian buffers.
type treeBuilder struct {
	X     [][]float64
	grads []float64
	hess  []float64
	cfg   Config
	rng   *rand.Rand
}

func newTreeBuilder(X [][]float64, grads, hess []float64, cfg Config) *treeBuilder {
	return &treeBuilder{
		X:     X,
		grads: grads,
		hess:  hess,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (b *treeBuilder) build(indices []int) tree {
	t := tree{}
	b.grow(&t, indices, 0)
	return t
}

func (b *treeBuilder) leafValue(indices []int) float64 {
	var g, h float64
	for _, i := range indices {
		g += b.grads[i]
		h += b.hess[i]
	}
	return -g / (h + b.cfg.Lambda)
}

// grow appends a subtree for the given sample set and returns its
// node index.
func (b *treeBuilder) grow(t *tree, indices []int, depth int) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{left: -1, right: -1})

	if depth >= b.cfg.MaxDepth || len(indices) < 2*b.cfg.MinLeaf {
		t.nodes[idx].value = b.leafValue(indices)
		return idx
	}

	feature, threshold, gain := b.bestSplit(indices)
	if gain <= 0 {
		t.nodes[idx].value = b.leafValue(indices)
		return idx
	}

	var left, right []int
	for _, i := range indices {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.cfg.MinLeaf || len(right) < b.cfg.MinLeaf {
		t.nodes[idx].value = b.leafValue(indices)
		return idx
	}

	t.nodes[idx].feature = feature
	t.nodes[idx].threshold = threshold
	t.nodes[idx].left = b.grow(t, left, depth+1)
	t.nodes[idx].right = b.grow(t, right, depth+1)
	return idx
}

// bestSplit scans quantile candidate thresholds per feature for the
// split maximizing the Newton gain.
func (b *treeBuilder) bestSplit(indices []int) (feature int, threshold, gain float64) {
	var gTotal, hTotal float64
	for _, i := range indices {
		gTotal += b.grads[i]
		hTotal += b.hess[i]
	}
	lambda := b.cfg.Lambda
	parentScore := gTotal * gTotal / (hTotal + lambda)

	feature = -1
	nFeatures := len(b.X[indices[0]])
	binIndices := subsample(b.rng, indices, binSubsample)
	values := make([]float64, 0, len(binIndices))

	for f := 0; f < nFeatures; f++ {
		values = values[:0]
		for _, i := range binIndices {
			values = append(values, b.X[i][f])
		}
		candidates := quantileThresholds(values, b.cfg.MaxBins)
		if len(candidates) == 0 {
			continue
		}

		for _, thr := range candidates {
			var gL, hL float64
			nL := 0
			for _, i := range indices {
				if b.X[i][f] <= thr {
					gL += b.grads[i]
					hL += b.hess[i]
					nL++
				}
			}
			nR := len(indices) - nL
			if nL < b.cfg.MinLeaf || nR < b.cfg.MinLeaf {
				continue
			}
			gR := gTotal - gL
			hR := hTotal - hL
			score := gL*gL/(hL+lambda) + gR*gR/(hR+lambda) - parentScore
			if score > gain {
				gain = score
				feature = f
				threshold = thr
			}
		}
	}
	return feature, threshold, gain
}

// quantileThresholds returns up to maxBins split candidates drawn
// from the sorted distinct values of a feature column.
func quantileThresholds(values []float64, maxBins int) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	uniq := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) < 2 {
		return nil
	}

	// Midpoints between adjacent distinct values; subsample evenly
	// when there are more than maxBins.
	mids := make([]float64, 0, len(uniq)-1)
	for i := 0; i+1 < len(uniq); i++ {
		mids = append(mids, (uniq[i]+uniq[i+1])/2)
	}
	if len(mids) <= maxBins {
		return mids
	}

	out := make([]float64, 0, maxBins)
	step := float64(len(mids)) / float64(maxBins)
	for i := 0; i < maxBins; i++ {
		out = append(out, mids[int(float64(i)*step)])
	}
	return out
}
