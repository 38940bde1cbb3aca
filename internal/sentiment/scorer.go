// Package sentiment scores free text on a [0,1] positivity scale.
//
// Two interchangeable scorers implement Scorer: a bag-of-words logistic
// regression trained on a curated review corpus, and a deterministic word-list
// scorer. New attempts the learned scorer and falls back to the lexicon on any
// initialization failure.
package sentiment

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/config"
	"github.com/temcen/bookrec/pkg/models"
)

// Neutral is returned for empty input and for items that fail to score.
const Neutral = 0.5

// Scorer maps text to a positivity score in [0,1].
type Scorer interface {
	Score(text string) float64
	ScoreBatch(texts []string) []float64
}

// Variant names the active implementation, for logs and metrics only.
type Variant string

const (
	VariantLearned Variant = "learned"
	VariantLexicon Variant = "lexicon"
)

// New builds the learned scorer from cfg, loading a persisted model when one
// exists and training (then persisting) one otherwise. Any failure along the
// way yields the lexicon scorer instead.
func New(cfg config.SentimentConfig, logger *logrus.Logger) (Scorer, Variant) {
	if cfg.Disabled {
		logger.Info("Learned sentiment disabled, using lexicon scorer")
		return NewLexiconScorer(), VariantLexicon
	}

	learned, err := initLearned(cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize learned sentiment scorer, using lexicon fallback")
		return NewLexiconScorer(), VariantLexicon
	}

	return learned, VariantLearned
}

func initLearned(cfg config.SentimentConfig, logger *logrus.Logger) (s *LearnedScorer, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("learned scorer panicked: %v", r)
		}
	}()

	if cfg.ModelPath != "" {
		model, loadErr := LoadModel(cfg.ModelPath)
		if loadErr == nil {
			logger.WithFields(logrus.Fields{
				"path":       cfg.ModelPath,
				"vocabulary": len(model.Vocabulary),
			}).Info("Sentiment model loaded")
			return NewLearnedScorer(model), nil
		}
		logger.WithError(loadErr).Info("No usable sentiment model on disk, training a new one")
	}

	model, report, err := Train(DefaultCorpus(), TrainOptions{
		VocabularyCap: cfg.VocabularyCap,
		LearningRate:  cfg.LearningRate,
		Epochs:        cfg.Epochs,
		L2:            cfg.L2,
		TestSplit:     cfg.TestSplit,
		Seed:          cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to train sentiment model: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"train_accuracy": report.TrainAccuracy,
		"test_accuracy":  report.TestAccuracy,
		"features":       report.NumFeatures,
		"samples":        report.TrainingSamples,
	}).Info("Sentiment model trained")

	if cfg.ModelPath != "" {
		if err := model.Save(cfg.ModelPath); err != nil {
			logger.WithError(err).Warn("Failed to persist sentiment model")
		}
	}

	return NewLearnedScorer(model), nil
}

// Analyze labels a score: above 0.6 is positive, below 0.4 negative, otherwise neutral.
func Analyze(s Scorer, text string) models.SentimentResult {
	score := s.Score(text)

	switch {
	case score > 0.6:
		return models.SentimentResult{Label: models.SentimentPositive, Confidence: score, Score: score}
	case score < 0.4:
		return models.SentimentResult{Label: models.SentimentNegative, Confidence: 1 - score, Score: score}
	default:
		return models.SentimentResult{Label: models.SentimentNeutral, Confidence: Neutral, Score: score}
	}
}

// scoreBatch applies score to each text, isolating failures to a neutral value
// for the failing item.
func scoreBatch(texts []string, score func(string) (float64, error)) []float64 {
	out := make([]float64, len(texts))
	for i, text := range texts {
		out[i] = safeScore(text, score)
	}
	return out
}

func safeScore(text string, score func(string) (float64, error)) (result float64) {
	defer func() {
		if r := recover(); r != nil {
			result = Neutral
		}
	}()

	v, err := score(text)
	if err != nil {
		return Neutral
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	if v != v { // NaN
		return Neutral
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
