package sentiment

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"

	"github.com/temcen/bookrec/internal/apperrors"
	"github.com/temcen/bookrec/pkg/models"
)

const modelVersion = 1

// Model is a fitted bag-of-words logistic regression over unigrams and bigrams.
type Model struct {
	Version    int                   `json:"version"`
	Vocabulary []string              `json:"vocabulary"`
	Weights    []float64             `json:"weights"`
	Bias       float64               `json:"bias"`
	TrainedAt  time.Time             `json:"trained_at"`
	Report     models.TrainingReport `json:"report"`

	index map[string]int
}

// TrainOptions controls vocabulary size, gradient descent and the holdout split.
type TrainOptions struct {
	VocabularyCap int
	LearningRate  float64
	Epochs        int
	L2            float64
	TestSplit     float64
	Seed          int64
}

func (o TrainOptions) validate() error {
	switch {
	case o.VocabularyCap <= 0:
		return apperrors.Validation("vocabulary cap must be positive, got %d", o.VocabularyCap)
	case o.LearningRate <= 0:
		return apperrors.Validation("learning rate must be positive, got %g", o.LearningRate)
	case o.Epochs <= 0:
		return apperrors.Validation("epochs must be positive, got %d", o.Epochs)
	case o.L2 < 0:
		return apperrors.Validation("l2 penalty must not be negative, got %g", o.L2)
	case o.TestSplit <= 0 || o.TestSplit >= 1:
		return apperrors.Validation("test split must be in (0,1), got %g", o.TestSplit)
	}
	return nil
}

type sample struct {
	grams []string
	label float64
}

// Train fits a model on corpus using a seeded shuffle and holdout split.
func Train(corpus Corpus, opts TrainOptions) (*Model, models.TrainingReport, error) {
	if err := opts.validate(); err != nil {
		return nil, models.TrainingReport{}, err
	}
	if len(corpus.Positive) == 0 || len(corpus.Negative) == 0 {
		return nil, models.TrainingReport{}, apperrors.Validation("corpus needs both positive and negative examples")
	}

	samples := make([]sample, 0, len(corpus.Positive)+len(corpus.Negative))
	for _, text := range corpus.Positive {
		samples = append(samples, sample{grams: ngrams(tokenize(text)), label: 1})
	}
	for _, text := range corpus.Negative {
		samples = append(samples, sample{grams: ngrams(tokenize(text)), label: 0})
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(samples), func(i, j int) { samples[i], samples[j] = samples[j], samples[i] })

	testN := int(math.Ceil(float64(len(samples)) * opts.TestSplit))
	trainN := len(samples) - testN
	if trainN <= 0 {
		return nil, models.TrainingReport{}, apperrors.Validation("test split %g leaves no training samples", opts.TestSplit)
	}
	train, test := samples[:trainN], samples[trainN:]

	model := &Model{
		Version:    modelVersion,
		Vocabulary: buildVocabulary(train, opts.VocabularyCap),
		TrainedAt:  time.Now().UTC(),
	}
	model.buildIndex()
	model.Weights = make([]float64, len(model.Vocabulary))

	xs := make([][]float64, len(train))
	ys := make([]float64, len(train))
	for i, s := range train {
		xs[i] = model.vectorize(s.grams)
		ys[i] = s.label
	}
	model.fit(xs, ys, opts)

	report := models.TrainingReport{
		TrainAccuracy:   model.accuracy(train),
		TestAccuracy:    model.accuracy(test),
		NumFeatures:     len(model.Vocabulary),
		TrainingSamples: len(samples),
	}
	model.Report = report

	return model, report, nil
}

// buildVocabulary keeps the cap most frequent terms, ties broken
// alphabetically, and returns them in alphabetical order.
func buildVocabulary(train []sample, limit int) []string {
	counts := make(map[string]int)
	for _, s := range train {
		for _, g := range s.grams {
			counts[g]++
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	sort.Strings(terms)
	return terms
}

func (m *Model) buildIndex() {
	m.index = make(map[string]int, len(m.Vocabulary))
	for i, term := range m.Vocabulary {
		m.index[term] = i
	}
}

func (m *Model) vectorize(grams []string) []float64 {
	vec := make([]float64, len(m.Vocabulary))
	for _, g := range grams {
		if i, ok := m.index[g]; ok {
			vec[i]++
		}
	}
	return vec
}

// fit runs full-batch gradient descent on the L2-regularized log loss.
func (m *Model) fit(xs [][]float64, ys []float64, opts TrainOptions) {
	n := float64(len(xs))
	grad := make([]float64, len(m.Weights))

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		floats.ScaleTo(grad, opts.L2, m.Weights)
		var biasGrad float64

		for i, x := range xs {
			residual := sigmoid(floats.Dot(m.Weights, x)+m.Bias) - ys[i]
			floats.AddScaled(grad, residual/n, x)
			biasGrad += residual / n
		}

		floats.AddScaled(m.Weights, -opts.LearningRate, grad)
		m.Bias -= opts.LearningRate * biasGrad
	}
}

func (m *Model) probability(grams []string) float64 {
	return sigmoid(floats.Dot(m.Weights, m.vectorize(grams)) + m.Bias)
}

func (m *Model) accuracy(samples []sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var correct int
	for _, s := range samples {
		predicted := 0.0
		if m.probability(s.grams) >= 0.5 {
			predicted = 1
		}
		if predicted == s.label {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Save writes the model as JSON, replacing any previous file atomically.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return apperrors.Internal(err, "failed to encode sentiment model")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Internal(err, "failed to create model directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return apperrors.Internal(err, "failed to create temp model file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.Internal(err, "failed to write sentiment model")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Internal(err, "failed to close sentiment model")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.Internal(err, "failed to move sentiment model into place")
	}
	return nil
}

// LoadModel reads a model written by Save.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("sentiment model %s does not exist", path)
		}
		return nil, apperrors.Internal(err, "failed to read sentiment model")
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.Parse(err, "failed to decode sentiment model %s", path)
	}
	if m.Version != modelVersion {
		return nil, apperrors.Parse(nil, "unsupported sentiment model version %d", m.Version)
	}
	if len(m.Vocabulary) == 0 || len(m.Vocabulary) != len(m.Weights) {
		return nil, apperrors.Parse(nil, "sentiment model has %d terms but %d weights", len(m.Vocabulary), len(m.Weights))
	}

	m.buildIndex()
	return &m, nil
}

// LearnedScorer returns P(positive) under a fitted Model.
type LearnedScorer struct {
	model *Model
}

func NewLearnedScorer(model *Model) *LearnedScorer {
	return &LearnedScorer{model: model}
}

func (s *LearnedScorer) Score(text string) float64 {
	return safeScore(text, s.score)
}

func (s *LearnedScorer) ScoreBatch(texts []string) []float64 {
	return scoreBatch(texts, s.score)
}

// Report returns the metrics recorded when the model was trained.
func (s *LearnedScorer) Report() models.TrainingReport {
	return s.model.Report
}

func (s *LearnedScorer) score(text string) (float64, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Neutral, nil
	}
	return s.model.probability(ngrams(tokens)), nil
}
