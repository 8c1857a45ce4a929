package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/storefront-promo/internal/models"
)

// PromoStore is the document database holding the promotion.
type PromoStore interface {
	// Probe lists collection; only used to check the store is reachable.
	Probe(ctx context.Context, collection string) (int, error)
	// Get reads one document. exists is false when it is missing.
	Get(ctx context.Context, collection, key string) (fields map[string]any, exists bool, err error)
}

// LoadResult is the outcome of one promotion load. Config is nil only when
// the load was aborted before any configuration could be chosen.
type LoadResult struct {
	Config     *models.PromoConfig
	Resolution Resolution
	Trace      []TraceEntry
}

// PromoLoader performs the probe → read → resolve sequence.
type PromoLoader struct {
	store      PromoStore
	collection string
	key        string
	now        func() time.Time
	log        logrus.FieldLogger
}

// NewPromoLoader builds a loader for the document collection/key.
func NewPromoLoader(store PromoStore, collection, key string, log logrus.FieldLogger) *PromoLoader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PromoLoader{
		store:      store,
		collection: collection,
		key:        key,
		now:        time.Now,
		log:        log.WithField("component", "promo_loader"),
	}
}

// WithClock replaces the clock used for expiry checks.
func (l *PromoLoader) WithClock(now func() time.Time) *PromoLoader {
	l.now = now
	return l
}

// Load never fails: every store error degrades to the default promotion.
func (l *PromoLoader) Load(ctx context.Context) LoadResult {
	trace := NewTrace(l.now)
	trace.Add("loading special promotion")

	count, err := l.store.Probe(ctx, l.collection)
	if err != nil {
		l.log.WithError(err).Warn("promotion store unreachable, using default promotion")
		trace.Addf("store probe failed: %v", err)
		return l.fallback(trace, "store unreachable, using default promotion")
	}
	trace.Addf("store reachable, %d documents in %q", count, l.collection)
	if count == 0 {
		return l.fallback(trace, "collection is empty, using default promotion")
	}

	trace.Addf("reading %s/%s", l.collection, l.key)
	fields, exists, err := l.store.Get(ctx, l.collection, l.key)
	if err != nil {
		l.log.WithError(err).Warn("promotion read failed, using default promotion")
		trace.Addf("read failed: %v", err)
		return l.fallback(trace, "using default promotion")
	}
	if !exists {
		return l.fallback(trace, "promotion document not found, using default promotion")
	}

	if raw, err := json.Marshal(fields); err == nil {
		trace.Addf("document found: %s", raw)
	} else {
		trace.Add("document found")
	}

	doc, issues := DecodePromoDocument(fields)
	for _, issue := range issues {
		trace.Add(issue)
	}

	cfg, resolution := ResolvePromo(doc, DefaultPromoConfig(), l.now(), trace)
	trace.Addf("resolved promotion: %s", resolution)
	l.log.WithFields(logrus.Fields{
		"resolution": resolution,
		"title":      cfg.Title,
	}).Debug("promotion resolved")

	return LoadResult{Config: &cfg, Resolution: resolution, Trace: trace.Entries()}
}

func (l *PromoLoader) fallback(trace *Trace, reason string) LoadResult {
	trace.Add(reason)
	cfg := DefaultPromoConfig()
	return LoadResult{Config: &cfg, Resolution: ResolutionDefault, Trace: trace.Entries()}
}

// PromoWriter publishes the promotion document.
type PromoWriter interface {
	Put(ctx context.Context, collection, key string, fields map[string]any) error
}
