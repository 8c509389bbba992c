// Package classify trains a lightweight text classifier over merchant names
// and proposes categories for merchants the persistent map has never seen.
// It backs the advisory suggester: its output is a proposal, not a label.
package classify

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/ledgerhound/stmtledger/internal/domain"
)

// Sample is one labeled training example.
type Sample struct {
	Merchant string
	Category domain.Category
}

// Model is a linear text classifier over word unigrams and bigrams, trained
// with the averaged perceptron. Small mapping files train in milliseconds
// and the weights serialize to plain JSON.
type Model struct {
	Classes []string                      `json:"classes"`
	Weights map[string]map[string]float64 `json:"weights"` // class -> feature -> weight

	// MinMargin is the confidence gate: Predict reports ok only when the
	// best class beats the runner-up by at least this much.
	MinMargin float64 `json:"min_margin"`
}

const defaultEpochs = 10

// features extracts word unigrams and bigrams from a normalized merchant
// name. Token order inside a bigram is preserved.
func features(merchant string) []string {
	words := strings.Fields(strings.ToLower(merchant))
	if len(words) == 0 {
		return nil
	}
	feats := make([]string, 0, 2*len(words))
	for i, w := range words {
		feats = append(feats, "w:"+w)
		if i > 0 {
			feats = append(feats, "b:"+words[i-1]+" "+w)
		}
	}
	return feats
}

// Train fits an averaged perceptron on the samples. Training order is made
// deterministic by sorting samples first, so the same mapping file always
// yields the same model.
func Train(samples []Sample, epochs int) (*Model, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if epochs <= 0 {
		epochs = defaultEpochs
	}

	ordered := append([]Sample(nil), samples...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Merchant != ordered[j].Merchant {
			return ordered[i].Merchant < ordered[j].Merchant
		}
		return ordered[i].Category < ordered[j].Category
	})

	classSet := make(map[string]struct{})
	for _, s := range ordered {
		if s.Category == "" {
			return nil, fmt.Errorf("sample %q has no category", s.Merchant)
		}
		classSet[string(s.Category)] = struct{}{}
	}
	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	weights := make(map[string]map[string]float64, len(classes))
	totals := make(map[string]map[string]float64, len(classes))
	stamps := make(map[string]map[string]int, len(classes))
	for _, c := range classes {
		weights[c] = make(map[string]float64)
		totals[c] = make(map[string]float64)
		stamps[c] = make(map[string]int)
	}

	// Averaged perceptron: accumulate each weight's value over every
	// update step and divide at the end. The stamps map lets us lazily
	// roll forward the accumulation only when a weight changes.
	step := 0
	adjust := func(class, feat string, delta float64) {
		totals[class][feat] += float64(step-stamps[class][feat]) * weights[class][feat]
		stamps[class][feat] = step
		weights[class][feat] += delta
	}

	// Update whenever the true class fails to beat its best rival by a
	// positive margin. A plain mistake-driven rule never fires for
	// all-zero ties, which the deterministic tie-break silently resolves
	// in favor of the first class.
	for e := 0; e < epochs && len(classes) > 1; e++ {
		for _, s := range ordered {
			feats := features(s.Merchant)
			if len(feats) == 0 {
				continue
			}
			step++
			truth := string(s.Category)
			rival, margin := bestRival(weights, classes, feats, truth)
			if margin > 0 {
				continue
			}
			for _, f := range feats {
				adjust(truth, f, 1)
				adjust(rival, f, -1)
			}
		}
	}

	averaged := make(map[string]map[string]float64, len(classes))
	for _, c := range classes {
		averaged[c] = make(map[string]float64, len(weights[c]))
		for f, w := range weights[c] {
			total := totals[c][f] + float64(step-stamps[c][f])*w
			if avg := total / float64(step); avg != 0 {
				averaged[c][f] = avg
			}
		}
	}

	return &Model{Classes: classes, Weights: averaged, MinMargin: 0.1}, nil
}

// bestRival returns the highest-scoring class other than truth, along with
// the margin by which truth's own score beats it.
func bestRival(weights map[string]map[string]float64, classes []string, feats []string, truth string) (string, float64) {
	score := func(c string) float64 {
		var s float64
		for _, f := range feats {
			s += weights[c][f]
		}
		return s
	}

	rival, rivalScore := "", math.Inf(-1)
	for _, c := range classes {
		if c == truth {
			continue
		}
		if s := score(c); s > rivalScore {
			rival, rivalScore = c, s
		}
	}
	return rival, score(truth) - rivalScore
}

// Predict scores the merchant against every class and returns the winner.
// ok is false when the merchant yields no features, the model knows only
// one class, or the winning margin is below MinMargin.
func (m *Model) Predict(merchant string) (domain.Category, bool) {
	feats := features(merchant)
	if len(feats) == 0 || len(m.Classes) < 2 {
		return "", false
	}

	best, second := math.Inf(-1), math.Inf(-1)
	var winner string
	for _, c := range m.Classes {
		var score float64
		for _, f := range feats {
			score += m.Weights[c][f]
		}
		if score > best {
			second = best
			best = score
			winner = c
		} else if score > second {
			second = score
		}
	}

	if best-second < m.MinMargin {
		return "", false
	}
	return domain.Category(winner), true
}

// Suggest implements the categorizer's advisory interface.
func (m *Model) Suggest(merchant string) (domain.Category, bool) {
	return m.Predict(merchant)
}

// Save writes the model as JSON.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}

// Load reads a JSON model written by Save.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model file %q: %w", path, err)
	}
	if m.Weights == nil {
		m.Weights = make(map[string]map[string]float64)
	}
	return &m, nil
}

// TrainFromMapping builds training samples straight from the persistent
// merchant map.
func TrainFromMapping(mapping map[string]domain.Category, epochs int) (*Model, error) {
	samples := make([]Sample, 0, len(mapping))
	for merchant, cat := range mapping {
		samples = append(samples, Sample{Merchant: merchant, Category: cat})
	}
	return Train(samples, epochs)
}
