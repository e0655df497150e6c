package classifier

import (
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"

	"finlens/internal/core"
)

// Corpus maps a category to the seed phrases used to train it.
type Corpus map[core.Category][]string

// Sample is one labelled training phrase.
type Sample struct {
	Text     string
	Category core.Category
}

// DefaultCorpus is the built-in seed corpus. Taxes and Other have no seeds;
// the model never predicts them.
var DefaultCorpus = Corpus{
	core.Groceries: {
		"Bought rice", "Milk 1L", "Tomatoes and onions", "Supermarket vegetables",
		"Potato bag", "eggs", "Grocery store shopping", "Bananas", "Apples",
		"Ghee and oil", "Sugar 1kg", "Flour pack", "Onion 2kg", "Cabbage",
		"Spinach bunch", "butter", "milk",
	},
	core.Food: {
		"Burger King meal", "Pizza Hut", "Chicken wings", "KFC combo",
		"Subway sandwich", "Domino's pizza", "Ice cream", "chips", "Pasta", "Juice",
		"McDonald's fries", "Dinner at restaurant", "Lunch takeaway", "Pasta order",
		"Cafe mocha", "Iced coffee", "Sushi rolls", "bread", "Soft Drink 2L",
	},
	core.Entertainment: {
		"Netflix subscription", "Spotify Premium", "Movie ticket", "DVD", "Board game",
		"Concert ticket", "Disney+ monthly fee", "Cinema snacks", "Amusement park",
		"Game purchase", "Xbox subscription", "YouTube Premium", "Cricket match ticket",
		"Puzzle Game",
	},
	core.Transportation: {
		"Uber ride", "Gas station fill-up", "Bus ticket", "Train fare", "Taxi service",
		"Petrol pump", "Bike rental", "Auto-rickshaw", "Cab service", "Metro ride",
		"Parking fees", "EV charging",
	},
	core.Shopping: {
		"Amazon online order", "Apple Store", "Bought clothes", "Electronics from BestBuy",
		"Online gadget purchase", "New shoes", "Clothing from H&M", "Shopping at Zara",
		"Backpack purchase", "Mobile accessories", "Watch from Flipkart",
	},
	core.Utilities: {
		"Water bill", "Electricity bill", "Internet fee", "Wifi bill", "Monthly utilities",
		"Power bank", "Mobile recharge", "Gas bill", "Garbage collection fee",
		"Electric meter recharge", "Landline charges", "USB", "Cable",
	},
	core.PersonalCare: {
		"Toothpaste and shampoo", "Soap pack", "Sunscreen cream", "Face wash",
		"Body lotion", "Hair conditioner", "Shaving cream", "Deodorant", "Perfume bottle",
		"Moisturizer", "Nail cutter", "Comb purchase", "Lip Balm",
	},
	core.Health: {
		"Vitamin tablets", "Cough syrup", "Painkillers", "First aid kit", "Antiseptic",
		"Bandages", "Multivitamins", "Aspirin", "Doctor consultation", "Pharmacy bill",
		"Eye drops", "Paracetamol", "Sanitary pads", "Mask and sanitizer", "Thermometer",
	},
}

// LoadCorpus reads a YAML file mapping category names to phrase lists.
func LoadCorpus(path string) (Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var doc map[string][]string
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	out := make(Corpus, len(doc))
	for name, phrases := range doc {
		cat, err := core.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("corpus category %q: %w", name, err)
		}
		if len(phrases) == 0 {
			return nil, fmt.Errorf("corpus category %q has no phrases", name)
		}
		out[cat] = phrases
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("corpus needs at least two categories, got %d", len(out))
	}
	return out, nil
}

// Categories returns the corpus categories in canonical order.
func (c Corpus) Categories() []core.Category {
	out := make([]core.Category, 0, len(c))
	for _, cat := range core.Categories {
		if len(c[cat]) > 0 {
			out = append(out, cat)
		}
	}
	return out
}

// Augment expands the corpus into labelled samples. For each category it
// draws rounds phrases and emits each one bare and with an " x<n>" quantity
// suffix, n in [1,5]. The first len(phrases) draws walk the seed list in
// order so every phrase is represented; later draws are random. The output
// depends only on the corpus, rounds and seed.
func Augment(c Corpus, rounds int, seed uint64) []Sample {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	var out []Sample
	for _, cat := range c.Categories() {
		phrases := c[cat]
		for i := 0; i < rounds; i++ {
			var phrase string
			if i < len(phrases) {
				phrase = phrases[i]
			} else {
				phrase = phrases[rng.IntN(len(phrases))]
			}
			phrase = strings.ToLower(phrase)
			out = append(out,
				Sample{Text: phrase, Category: cat},
				Sample{Text: fmt.Sprintf("%s x%d", phrase, 1+rng.IntN(5)), Category: cat},
			)
		}
	}
	return out
}

// Split shuffles samples with the seed and cuts off testFrac of them as a
// held-out set.
func Split(samples []Sample, testFrac float64, seed uint64) (train, test []Sample) {
	shuffled := append([]Sample(nil), samples...)
	rng := rand.New(rand.NewPCG(seed, seed+1))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	nTest := int(float64(len(shuffled)) * testFrac)
	return shuffled[nTest:], shuffled[:nTest]
}

// CategoryCount is the number of samples of one category.
type CategoryCount struct {
	Category core.Category
	Count    int
}

// CountByCategory tallies samples per category, sorted by category name.
func CountByCategory(samples []Sample) []CategoryCount {
	counts := map[core.Category]int{}
	for _, s := range samples {
		counts[s.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
