// Package engine owns the serving model: it builds or restores a snapshot on
// first use, answers queries against it, and swaps in a new one on retrain.
//
// Build order on first use:
//
//  1. load the persisted snapshot from the store
//  2. full build: catalog, synthetic reviews, sentiment, full features
//  3. basic build: catalog, reduced features, smaller neighbor count
//
// Only when every step fails does a query see ErrModelUnavailable.
package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/apperrors"
	"github.com/temcen/bookrec/internal/catalog"
	"github.com/temcen/bookrec/internal/config"
	"github.com/temcen/bookrec/internal/features"
	"github.com/temcen/bookrec/internal/genre"
	"github.com/temcen/bookrec/internal/index"
	"github.com/temcen/bookrec/internal/metrics"
	"github.com/temcen/bookrec/internal/sentiment"
	"github.com/temcen/bookrec/internal/store"
	"github.com/temcen/bookrec/pkg/models"
)

// BuildObserver is told about every model the engine builds. Restoring a
// persisted snapshot is not a build.
type BuildObserver interface {
	ModelBuilt(info models.ModelInfo)
}

// state is immutable once published.
type state struct {
	snapshot *store.Snapshot
	catalog  *catalog.Catalog
	index    *index.Index
	finder   *genre.Finder
}

func (s *state) info() models.ModelInfo {
	return models.ModelInfo{
		SnapshotID:   s.snapshot.ID,
		Mode:         string(s.snapshot.Mode),
		Books:        s.index.Len(),
		Features:     s.snapshot.Matrix.Width(),
		FeatureNames: s.index.FeatureNames(),
		Neighbors:    s.index.Neighbors(),
		BuiltAt:      s.snapshot.BuiltAt,
	}
}

type Engine struct {
	catalogCfg   config.CatalogConfig
	engineCfg    config.EngineConfig
	sentimentCfg config.SentimentConfig

	store    store.Store
	loader   *catalog.Loader
	lexicon  *genre.Lexicon
	metrics  *metrics.Collector
	observer BuildObserver
	logger   *logrus.Logger

	current atomic.Pointer[state]
	mu      sync.Mutex // serializes builds

	scorerOnce sync.Once
	scorer     sentiment.Scorer
}

type Option func(*Engine)

// WithStore persists built snapshots and restores them on first use.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithObserver(o BuildObserver) Option {
	return func(e *Engine) { e.observer = o }
}

// WithScorer skips sentiment model initialization.
func WithScorer(s sentiment.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// New returns an engine that builds nothing until the first query.
func New(cfg *config.Config, logger *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		catalogCfg:   cfg.Catalog,
		engineCfg:    cfg.Engine,
		sentimentCfg: cfg.Sentiment,
		loader:       catalog.NewLoader(cfg.Catalog.Delimiter, logger),
		lexicon:      genre.DefaultLexicon(),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ready reports whether a model is serving.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// SnapshotID names the serving model, or is empty before the first build.
func (e *Engine) SnapshotID() string {
	if st := e.current.Load(); st != nil {
		return st.snapshot.ID
	}
	return ""
}

// Warm builds or restores the model now instead of on the first query.
func (e *Engine) Warm() (models.ModelInfo, error) {
	st, err := e.ensure()
	if err != nil {
		return models.ModelInfo{}, err
	}
	return st.info(), nil
}

// ensure returns the serving state, initializing it exactly once even under
// concurrent first callers. A failed initialization is retried by the next call.
func (e *Engine) ensure() (*state, error) {
	if st := e.current.Load(); st != nil {
		return st, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if st := e.current.Load(); st != nil {
		return st, nil
	}

	st, built, err := e.initialize()
	if err != nil {
		return nil, err
	}
	e.publish(st, built)
	return st, nil
}

func (e *Engine) initialize() (*state, bool, error) {
	if st := e.restore(); st != nil {
		return st, false, nil
	}

	cat, err := e.loadCatalog()
	if err != nil {
		e.logger.WithError(err).Error("Failed to load catalog, no model can be built")
		return nil, false, apperrors.ModelUnavailable(err, "no recommendation model available")
	}

	if !e.engineCfg.ForceBasic {
		st, err := e.buildAndActivate(store.ModeFull, cat)
		if err == nil {
			e.save(st.snapshot)
			return st, true, nil
		}
		e.logger.WithError(err).Warn("Full model build failed, falling back to basic model")
	}

	st, err := e.buildAndActivate(store.ModeBasic, cat)
	if err != nil {
		e.logger.WithError(err).Error("Basic model build failed")
		return nil, false, apperrors.ModelUnavailable(err, "no recommendation model available")
	}
	return st, true, nil
}

// restore activates the persisted snapshot, or returns nil when there is none
// or it cannot serve.
func (e *Engine) restore() *state {
	if e.store == nil {
		return nil
	}

	start := time.Now()
	snap, err := e.store.Load()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			e.logger.Info("No persisted model snapshot, building a new one")
		} else {
			e.logger.WithError(err).Warn("Failed to load model snapshot, rebuilding")
			e.metrics.RecordBuild("snapshot", time.Since(start), err)
		}
		return nil
	}

	st, err := e.activate(snap)
	e.metrics.RecordBuild("snapshot", time.Since(start), err)
	if err != nil {
		e.logger.WithError(err).Warn("Persisted model snapshot is unusable, rebuilding")
		return nil
	}

	e.logger.WithFields(logrus.Fields{
		"snapshot_id": snap.ID,
		"mode":        snap.Mode,
		"books":       len(snap.Books),
	}).Info("Restored model snapshot")
	return st
}

func (e *Engine) loadCatalog() (*catalog.Catalog, error) {
	raw, err := e.loader.Load(e.catalogCfg.Path)
	if err != nil {
		return nil, err
	}
	cat := catalog.Preprocess(raw)
	if cat.Len() == 0 {
		return nil, apperrors.State("catalog %s has no usable rows", e.catalogCfg.Path)
	}
	return cat, nil
}

func (e *Engine) buildAndActivate(mode store.Mode, cat *catalog.Catalog) (*state, error) {
	start := time.Now()

	var snap *store.Snapshot
	var err error
	switch mode {
	case store.ModeFull:
		snap, err = e.buildFull(cat)
	default:
		snap, err = e.buildBasic(cat)
	}

	var st *state
	if err == nil {
		st, err = e.activate(snap)
	}
	duration := time.Since(start)
	e.metrics.RecordBuild(string(mode), duration, err)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"mode":      mode,
		"books":     st.index.Len(),
		"features":  snap.Matrix.Width(),
		"neighbors": st.index.Neighbors(),
		"duration":  duration,
	}).Info("Recommendation model built")
	return st, nil
}

// buildFull attaches synthetic reviews and their sentiment to a copy of cat,
// then engineers and scales the full feature set.
func (e *Engine) buildFull(cat *catalog.Catalog) (*store.Snapshot, error) {
	books := make([]catalog.Book, cat.Len())
	copy(books, cat.Books)

	ratings := make([]float64, len(books))
	for i, b := range books {
		ratings[i] = b.AverageRating
	}
	reviews := sentiment.SyntheticReviews(ratings, e.engineCfg.ReviewSeed)
	scores := e.sentimentScorer().ScoreBatch(reviews)
	for i := range books {
		books[i].ReviewText = reviews[i]
		books[i].SentimentScore = scores[i]
	}

	scored := catalog.Restore(books, cat.Columns)
	matrix, scaler, err := features.Build(scored)
	if err != nil {
		return nil, err
	}
	return store.NewSnapshot(store.ModeFull, scored, matrix, scaler, e.engineCfg.Neighbors), nil
}

func (e *Engine) buildBasic(cat *catalog.Catalog) (*store.Snapshot, error) {
	matrix, err := features.Basic(cat)
	if err != nil {
		return nil, err
	}
	return store.NewSnapshot(store.ModeBasic, cat, matrix, nil, e.engineCfg.BasicNeighbors), nil
}

func (e *Engine) activate(snap *store.Snapshot) (*state, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	idx, err := index.New(snap.Books, snap.Matrix, index.Options{
		Neighbors:      snap.Neighbors,
		FuzzyThreshold: e.engineCfg.FuzzyThreshold,
	})
	if err != nil {
		return nil, err
	}

	return &state{
		snapshot: snap,
		catalog:  snap.Catalog(),
		index:    idx,
		finder:   genre.NewFinder(e.lexicon, snap.Books),
	}, nil
}

// save persists full snapshots only, so that a degraded start retries the
// full build next time. Failures are logged; the model keeps serving.
func (e *Engine) save(snap *store.Snapshot) {
	if e.store == nil || snap.Mode != store.ModeFull {
		return
	}
	if err := e.store.Save(snap); err != nil {
		e.logger.WithError(err).WithField("snapshot_id", snap.ID).Warn("Failed to persist model snapshot")
	}
}

// publish swaps st in and notifies the observer. Callers hold mu.
func (e *Engine) publish(st *state, built bool) {
	e.current.Store(st)
	e.metrics.SetCatalogSize(st.index.Len())
	if built && e.observer != nil {
		e.observer.ModelBuilt(st.info())
	}
}

// Retrain rebuilds the model from the catalog and swaps it in atomically.
// Queries keep using the previous model until the swap, and keep it for good
// when the rebuild fails.
func (e *Engine) Retrain() (models.ModelInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cat, err := e.loadCatalog()
	if err != nil {
		return models.ModelInfo{}, err
	}

	mode := store.ModeFull
	if e.engineCfg.ForceBasic {
		mode = store.ModeBasic
	}

	st, err := e.buildAndActivate(mode, cat)
	if err != nil {
		e.logger.WithError(err).Error("Retrain failed, keeping current model")
		return models.ModelInfo{}, err
	}

	e.save(st.snapshot)
	e.publish(st, true)
	return st.info(), nil
}

// sentimentScorer initializes the scorer on first use. It is needed by full
// builds and sentiment analysis but not by restored snapshots.
func (e *Engine) sentimentScorer() sentiment.Scorer {
	e.scorerOnce.Do(func() {
		if e.scorer != nil {
			return
		}
		var variant sentiment.Variant
		e.scorer, variant = sentiment.New(e.sentimentCfg, e.logger)
		e.metrics.SetSentimentVariant(string(variant), string(sentiment.VariantLearned), string(sentiment.VariantLexicon))
		e.logger.WithField("variant", variant).Info("Sentiment scorer ready")
	})
	return e.scorer
}
