// Package risk classifies an antenatal-care visit as GREEN, AMBER or RED.
//
// Raw form input is normalized into a ClinicalObservation, every rule of an
// ordered table is evaluated against it, and the triggered rules are
// aggregated into a Result. The engine holds no mutable state and performs no
// I/O, so a single Engine may be shared by any number of goroutines.
package risk

import (
	"fmt"
	"math"
)

const (
	greenConfidence   = 96
	baseConfidence    = 92.0
	perFlagConfidence = 1.2
	maxConfidence     = 98.0
)

// Flag is one clinical concern raised by a rule.
type Flag struct {
	Condition   string `json:"condition"`
	Explanation string `json:"explanation"`
	Citation    string `json:"citation"`
}

// Result is the classification of one observation.
type Result struct {
	Level      Level  `json:"level"`
	Flags      []Flag `json:"flags"`
	Confidence int    `json:"confidence"`
}

// Engine evaluates an ordered rule table.
type Engine struct {
	rules []Rule
}

// NewEngine builds an engine over the given rules. With no rules it uses DefaultRules.
// Every rule must raise AMBER or RED, so that a flagged result is never GREEN;
// NewEngine panics on any other level.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	for _, r := range rules {
		if r.Level != LevelAmber && r.Level != LevelRed {
			panic(fmt.Sprintf("risk: rule %q has level %q, want AMBER or RED", r.Condition, r.Level))
		}
	}
	return &Engine{rules: rules}
}

var defaultEngine = NewEngine()

// Assess classifies o with the default ANC rule table.
func Assess(o ClinicalObservation) Result {
	return defaultEngine.Assess(o)
}

// Assess runs every rule and aggregates the triggered ones.
func (e *Engine) Assess(o ClinicalObservation) Result {
	var agg aggregate
	for _, r := range e.rules {
		if r.Applies != nil && r.Applies(o) {
			agg.add(r)
		}
	}
	return agg.result()
}

// aggregate collects flags in evaluation order and ratchets the level upwards.
type aggregate struct {
	level Level
	flags []Flag
}

func (a *aggregate) add(r Rule) {
	a.flags = append(a.flags, r.Flag())
	a.raise(r.Level)
}

// raise moves the level to candidate only if candidate is more severe.
func (a *aggregate) raise(candidate Level) {
	a.level = a.level.Max(candidate)
}

func (a *aggregate) result() Result {
	level := a.level.Max(LevelGreen)
	flags := a.flags
	if flags == nil {
		flags = []Flag{}
	}
	return Result{
		Level:      level,
		Flags:      flags,
		Confidence: Confidence(level, len(flags)),
	}
}

// Confidence is the explanatory confidence-in-classification heuristic.
// GREEN is its own branch and is never fed through the flag formula.
func Confidence(level Level, flagCount int) int {
	if level == LevelGreen {
		return greenConfidence
	}
	c := math.Min(baseConfidence+float64(flagCount)*perFlagConfidence, maxConfidence)
	return int(math.Round(c))
}
