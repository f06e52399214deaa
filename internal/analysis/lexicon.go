package analysis

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed lexicons.yaml
var lexiconData []byte

// lexiconFile is the schema of the embedded lexicons.yaml.
type lexiconFile struct {
	Categories   map[string]lexiconCategory `yaml:"categories"`
	Negators     []string                   `yaml:"negators"`
	Intensifiers []string                   `yaml:"intensifiers"`
	StopWords    []string                   `yaml:"stopWords"`
}

type lexiconCategory struct {
	Label    string         `yaml:"label"`    // risk label added on a hit; empty for polarity categories
	Polarity string         `yaml:"polarity"` // "positive" | "negative" | "" for non-polarity
	Words    map[string]int `yaml:"words"`    // word -> weight (1-3)
}

// categoryOrder fixes the iteration order over lexicon categories so scoring
// stays deterministic regardless of map ordering.
var categoryOrder = []string{
	"positive", "negative",
	"burnout", "attrition", "conflict", "workload", "tooling", "emotional",
}

var (
	lexicons     map[string]lexiconCategory
	negators     map[string]struct{}
	intensifiers map[string]struct{}
	stopWords    map[string]struct{}
)

func init() {
	var lf lexiconFile
	if err := yaml.Unmarshal(lexiconData, &lf); err != nil {
		panic(fmt.Sprintf("analysis: embedded lexicons.yaml is invalid: %v", err))
	}
	for _, name := range categoryOrder {
		if _, ok := lf.Categories[name]; !ok {
			panic(fmt.Sprintf("analysis: embedded lexicons.yaml is missing category %q", name))
		}
	}
	lexicons = lf.Categories
	negators = toSet(lf.Negators)
	intensifiers = toSet(lf.Intensifiers)
	stopWords = toSet(lf.StopWords)
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
