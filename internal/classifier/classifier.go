// Package classifier assigns a spending category to a line-item description.
//
// Classification is a two-tier chain. Tier 1 is a local naive Bayes model.
// Tier 2, when enabled, asks a local LLM and only runs when Tier 1 ends in
// Other or is inconclusive. Every failure degrades to Other; only caller
// cancellation is returned as an error.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"finlens/internal/cache"
	"finlens/internal/core"
	"finlens/internal/log"
)

// Tier records which step of the chain produced a decision.
type Tier string

const (
	TierLocal    Tier = "local"
	TierFallback Tier = "fallback"
	TierDefault  Tier = "default"
)

// Decision is the final category of one description.
type Decision struct {
	Category core.Category
	Tier     Tier
}

// Predictor is the Tier-1 model.
type Predictor interface {
	Predict(tokens []string) (Prediction, error)
}

// Generator is the Tier-2 completion service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options configures the chain.
type Options struct {
	// FallbackEnabled gates Tier 2. When false the Generator is never called.
	FallbackEnabled bool
	Fallback        Generator
	// Cache stores accepted Tier-2 answers keyed by the normalized description.
	Cache  cache.Cache[core.Category]
	Logger *log.Logger
}

// Classifier runs the two-tier chain. It holds no mutable state of its own
// besides the optional answer cache.
type Classifier struct {
	model    Predictor
	fallback Generator
	enabled  bool
	cache    cache.Cache[core.Category]
	logger   *log.Logger
}

// New builds a classifier around an already loaded model.
func New(model Predictor, opts Options) *Classifier {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &Classifier{
		model:    model,
		fallback: opts.Fallback,
		enabled:  opts.FallbackEnabled && opts.Fallback != nil,
		cache:    opts.Cache,
		logger:   logger.WithComponent(log.ComponentClassifier),
	}
}

// FallbackEnabled reports whether Tier 2 can run.
func (c *Classifier) FallbackEnabled() bool { return c.enabled }

// Classify returns the category of desc. The error is non-nil only when ctx
// was cancelled while Tier 2 was in flight.
func (c *Classifier) Classify(ctx context.Context, desc string) (Decision, error) {
	tokens := Tokens(desc)
	if len(tokens) == 0 {
		return Decision{Category: core.Other, Tier: TierDefault}, nil
	}

	pred, err := c.model.Predict(tokens)
	if err != nil {
		c.logger.WarnContext(ctx, "Local classification failed",
			log.FieldDescription, desc, log.FieldError, err)
		pred = Prediction{Category: core.Other}
	}
	if !pred.Inconclusive && pred.Category != core.Other {
		return Decision{Category: pred.Category, Tier: TierLocal}, nil
	}
	if !c.enabled {
		return Decision{Category: core.Other, Tier: TierDefault}, nil
	}
	return c.classifyRemote(ctx, desc, strings.Join(tokens, " "))
}

func (c *Classifier) classifyRemote(ctx context.Context, desc, key string) (Decision, error) {
	if c.cache != nil {
		if cat, ok := c.cache.Get(key); ok {
			return Decision{Category: cat, Tier: TierFallback}, nil
		}
	}

	answer, err := c.fallback.Generate(ctx, Prompt(desc))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Decision{}, ctxErr
	}
	if err != nil {
		c.logger.WarnContext(ctx, "Fallback classification failed",
			log.FieldDescription, desc, log.FieldError, err)
		return Decision{Category: core.Other, Tier: TierDefault}, nil
	}

	cat, ok := NormalizeAnswer(answer)
	if !ok {
		c.logger.WarnContext(ctx, "Fallback answer outside category set",
			log.FieldDescription, desc, "answer", answer)
		return Decision{Category: core.Other, Tier: TierDefault}, nil
	}
	if c.cache != nil {
		c.cache.Set(key, cat)
	}
	c.logger.DebugContext(ctx, "Fallback classified item",
		log.FieldDescription, desc, log.FieldCategory, string(cat))
	return Decision{Category: cat, Tier: TierFallback}, nil
}

// Prompt is the fixed Tier-2 instruction for one item.
func Prompt(item string) string {
	return fmt.Sprintf("Classify the following receipt item into exactly one of these categories:\n\n"+
		"%s.\n\n"+
		"Item: \"%s\"\n\n"+
		"Respond with only one category name, no explanation.", core.CategoryNames(", "), item)
}

// NormalizeAnswer trims and title-cases a free-text answer and accepts it only
// when it is exactly a member of the category set.
func NormalizeAnswer(answer string) (core.Category, bool) {
	a := strings.Trim(strings.TrimSpace(answer), "\"'`.")
	a = strings.TrimSpace(a)
	if a == "" {
		return "", false
	}
	// A Caser keeps state, so each call gets its own.
	cat := core.Category(cases.Title(language.English).String(a))
	if !cat.Valid() {
		return "", false
	}
	return cat, true
}
