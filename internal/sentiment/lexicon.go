package sentiment

import (
	"math"
	"strings"
)

var positiveWords = map[string]struct{}{
	"amazing": {}, "awesome": {}, "brilliant": {}, "excellent": {}, "fantastic": {}, "great": {},
	"incredible": {}, "outstanding": {}, "perfect": {}, "superb": {}, "wonderful": {}, "best": {},
	"love": {}, "loved": {}, "beautiful": {}, "good": {}, "nice": {}, "recommend": {}, "enjoy": {},
	"enjoyed": {}, "engaging": {}, "captivating": {}, "compelling": {}, "masterpiece": {},
	"stunning": {}, "remarkable": {}, "impressive": {}, "delightful": {}, "charming": {},
}

var negativeWords = map[string]struct{}{
	"awful": {}, "terrible": {}, "horrible": {}, "bad": {}, "worst": {}, "hate": {}, "hated": {},
	"boring": {}, "dull": {}, "disappointing": {}, "waste": {}, "poor": {}, "weak": {},
	"confusing": {}, "slow": {}, "predictable": {}, "cliche": {}, "annoying": {}, "frustrating": {},
	"ridiculous": {}, "stupid": {}, "pointless": {}, "uninteresting": {}, "bland": {},
}

// LexiconScorer counts matches against fixed positive and negative word sets.
// It is deterministic and needs no training.
type LexiconScorer struct{}

func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{}
}

// Score returns 0.5 when no sentiment word is present. Otherwise the positive
// ratio is pushed away from 0.5 by a density boost of at most 0.1.
func (s *LexiconScorer) Score(text string) float64 {
	return safeScore(text, s.score)
}

func (s *LexiconScorer) ScoreBatch(texts []string) []float64 {
	return scoreBatch(texts, s.score)
}

func (s *LexiconScorer) score(text string) (float64, error) {
	words := strings.Fields(cleanLetters(text))
	if len(words) == 0 {
		return Neutral, nil
	}

	var positive, negative int
	for _, w := range words {
		if _, ok := positiveWords[w]; ok {
			positive++
		} else if _, ok := negativeWords[w]; ok {
			negative++
		}
	}

	total := positive + negative
	if total == 0 {
		return Neutral, nil
	}

	ratio := float64(positive) / float64(total)
	density := float64(total) / float64(len(words))
	boost := math.Min(0.1, density*0.2)

	var score float64
	if ratio > 0.5 {
		score = ratio + boost
	} else {
		score = ratio - boost
	}

	return math.Max(0, math.Min(1, score)), nil
}
