package classifier

import (
	"errors"
	"fmt"
	"os"

	"github.com/jbrukh/bayesian"

	"finlens/internal/core"
)

var (
	ErrModelNotFound = errors.New("classifier model not found")
	ErrEmptyTraining = errors.New("no training samples")
)

// Prediction is the Tier-1 answer. Inconclusive means the model saw nothing
// it recognises and its pick carries no information.
type Prediction struct {
	Category     core.Category
	Inconclusive bool
}

// Model is a trained naive Bayes model over token bags. It is immutable after
// Train or Load and safe for concurrent use.
type Model struct {
	cl    *bayesian.Classifier
	vocab map[string]struct{}
}

// Train fits a model on samples. Sample text goes through Tokens first.
func Train(samples []Sample) (*Model, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyTraining
	}

	seen := map[core.Category]bool{}
	var classes []bayesian.Class
	for _, cat := range core.Categories {
		for _, s := range samples {
			if s.Category == cat && !seen[cat] {
				seen[cat] = true
				classes = append(classes, bayesian.Class(cat))
			}
		}
	}
	if len(classes) < 2 {
		return nil, fmt.Errorf("train classifier: need at least two categories, got %d", len(classes))
	}

	cl := bayesian.NewClassifier(classes...)
	for _, s := range samples {
		if toks := Tokens(s.Text); len(toks) > 0 {
			cl.Learn(toks, bayesian.Class(s.Category))
		}
	}
	return newModel(cl), nil
}

// Load reads a model written by Save.
func Load(path string) (*Model, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("stat model: %w", err)
	}
	cl, err := bayesian.NewClassifierFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return newModel(cl), nil
}

func newModel(cl *bayesian.Classifier) *Model {
	vocab := map[string]struct{}{}
	for _, class := range cl.Classes {
		for word := range cl.WordsByClass(class) {
			vocab[word] = struct{}{}
		}
	}
	return &Model{cl: cl, vocab: vocab}
}

// Save writes the model to path.
func (m *Model) Save(path string) error {
	if err := m.cl.WriteToFile(path); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Categories lists the categories the model can predict.
func (m *Model) Categories() []core.Category {
	out := make([]core.Category, len(m.cl.Classes))
	for i, c := range m.cl.Classes {
		out[i] = core.Category(c)
	}
	return out
}

// VocabularySize returns the number of distinct known tokens.
func (m *Model) VocabularySize() int { return len(m.vocab) }

// Predict scores an already normalized token bag. A panic inside the scorer is
// returned as an error.
func (m *Model) Predict(tokens []string) (pred Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			pred = Prediction{Category: core.Other}
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()

	known := tokens[:0:0]
	for _, t := range tokens {
		if _, ok := m.vocab[t]; ok {
			known = append(known, t)
		}
	}
	if len(known) == 0 {
		return Prediction{Category: core.Other, Inconclusive: true}, nil
	}

	_, idx, strict := m.cl.LogScores(known)
	if !strict {
		return Prediction{Category: core.Other, Inconclusive: true}, nil
	}
	return Prediction{Category: core.Category(m.cl.Classes[idx])}, nil
}

// Accuracy is the share of samples whose predicted category matches the label.
func (m *Model) Accuracy(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	hits := 0
	for _, s := range samples {
		p, err := m.Predict(Tokens(s.Text))
		if err == nil && !p.Inconclusive && p.Category == s.Category {
			hits++
		}
	}
	return float64(hits) / float64(len(samples))
}
