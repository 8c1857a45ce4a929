package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/storefront-promo/internal/models"
)

// BannerState is the render state of a mounted banner.
type BannerState string

const (
	BannerLoading  BannerState = "loading"
	BannerNoData   BannerState = "no_data"
	BannerDisabled BannerState = "disabled"
	BannerActive   BannerState = "active"
)

var (
	ErrRetryDisabled = errors.New("retry is only available in development mode")
	ErrUnmounted     = errors.New("banner is unmounted")
)

// DefaultRetryDelay is how long a manual retry waits before loading again.
const DefaultRetryDelay = 2 * time.Second

// Loader produces a promotion. *PromoLoader implements it.
type Loader interface {
	Load(ctx context.Context) LoadResult
}

// BannerOptions are injected at construction.
type BannerOptions struct {
	// Debug enables diagnostic panels and the manual retry action.
	Debug      bool
	RetryDelay time.Duration
	Log        logrus.FieldLogger
}

// BannerSnapshot is a consistent view of a banner's state.
type BannerSnapshot struct {
	State      BannerState         `json:"state"`
	Resolution Resolution          `json:"resolution,omitempty"`
	Config     *models.PromoConfig `json:"config,omitempty"`
	Trace      []TraceEntry        `json:"trace,omitempty"`
	Token      uuid.UUID           `json:"token"`
	Debug      bool                `json:"-"`
}

// StateFor maps a load result to its terminal state.
func StateFor(res LoadResult) BannerState {
	switch {
	case res.Config == nil:
		return BannerNoData
	case !res.Config.Enabled:
		return BannerDisabled
	default:
		return BannerActive
	}
}

// Banner is one mounted promotion banner. Each Mount or Retry starts a
// request identified by a fresh token; starting a request cancels the
// previous one, and only the result of the latest token is applied.
type Banner struct {
	loader Loader
	opts   BannerOptions
	log    logrus.FieldLogger

	mu         sync.RWMutex
	base       context.Context
	state      BannerState
	resolution Resolution
	config     *models.PromoConfig
	trace      []TraceEntry
	token      uuid.UUID
	cancel     context.CancelFunc
	done       chan struct{}
	settled    bool
	unmounted  bool
}

// NewBanner creates an unmounted banner in the loading state.
func NewBanner(loader Loader, opts BannerOptions) *Banner {
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Banner{
		loader: loader,
		opts:   opts,
		log:    log.WithField("component", "promo_banner"),
		base:   context.Background(),
		state:  BannerLoading,
		done:   make(chan struct{}),
	}
}

// Mount starts the initial load. ctx supplies values only; the load keeps
// running after ctx is cancelled, until the banner is unmounted.
func (b *Banner) Mount(ctx context.Context) error {
	b.mu.Lock()
	b.base = context.WithoutCancel(ctx)
	b.mu.Unlock()
	return b.start(0, "mounting banner")
}

// Retry resets the banner to loading and reloads after the retry delay.
func (b *Banner) Retry() error {
	if !b.opts.Debug {
		return ErrRetryDisabled
	}
	return b.start(b.opts.RetryDelay, fmt.Sprintf("retrying in %s", b.opts.RetryDelay))
}

// Unmount cancels any in-flight load; later results are discarded.
func (b *Banner) Unmount() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unmounted {
		return
	}
	b.unmounted = true
	if b.cancel != nil {
		b.cancel()
	}
	b.settleLocked()
}

// Snapshot returns the current state.
func (b *Banner) Snapshot() BannerSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

// Wait blocks until the latest request settles or ctx is done.
func (b *Banner) Wait(ctx context.Context) (BannerSnapshot, error) {
	for {
		b.mu.RLock()
		done := b.done
		snap := b.snapshotLocked()
		unmounted := b.unmounted
		b.mu.RUnlock()

		if snap.State != BannerLoading {
			return snap, nil
		}
		if unmounted {
			return snap, ErrUnmounted
		}

		select {
		case <-done:
		case <-ctx.Done():
			return b.Snapshot(), ctx.Err()
		}
	}
}

func (b *Banner) start(delay time.Duration, reason string) error {
	b.mu.Lock()
	if b.unmounted {
		b.mu.Unlock()
		return ErrUnmounted
	}
	if b.cancel != nil {
		b.cancel()
	}
	// wake waiters on the superseded request
	b.settleLocked()

	token := uuid.New()
	ctx, cancel := context.WithCancel(b.base)
	b.token = token
	b.cancel = cancel
	b.state = BannerLoading
	b.resolution = ""
	b.config = nil
	b.trace = []TraceEntry{{At: time.Now(), Message: reason}}
	b.done = make(chan struct{})
	b.settled = false
	b.mu.Unlock()

	go b.run(ctx, token, delay)
	return nil
}

func (b *Banner) run(ctx context.Context, token uuid.UUID, delay time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithField("token", token).Errorf("promotion load panicked: %v", r)
			b.finish(token, LoadResult{Trace: []TraceEntry{{At: time.Now(), Message: fmt.Sprintf("load aborted: %v", r)}}})
		}
	}()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}

	res := b.loader.Load(ctx)
	if ctx.Err() != nil {
		b.log.WithField("token", token).Debug("discarding cancelled promotion load")
		return
	}
	b.finish(token, res)
}

func (b *Banner) finish(token uuid.UUID, res LoadResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unmounted || token != b.token {
		b.log.WithField("token", token).Debug("discarding stale promotion load")
		return
	}

	b.state = StateFor(res)
	b.resolution = res.Resolution
	b.config = res.Config
	b.trace = append(b.trace, res.Trace...)
	b.settleLocked()

	entry := b.log.WithFields(logrus.Fields{"state": b.state, "resolution": b.resolution})
	if b.config != nil {
		entry = entry.WithField("title", b.config.Title)
	}
	entry.Info("promotion banner settled")
}

func (b *Banner) settleLocked() {
	if !b.settled {
		close(b.done)
		b.settled = true
	}
}

func (b *Banner) snapshotLocked() BannerSnapshot {
	snap := BannerSnapshot{
		State:      b.state,
		Resolution: b.resolution,
		Trace:      append([]TraceEntry(nil), b.trace...),
		Token:      b.token,
		Debug:      b.opts.Debug,
	}
	if b.config != nil {
		cfg := *b.config
		snap.Config = &cfg
	}
	return snap
}
