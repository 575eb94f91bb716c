// Package presenter turns weather queries into display-ready snapshots and
// coordinates the network client with the local cache.
package presenter

import (
	"context"
	"log/slog"
	"sync"
	"weak"

	"github.com/neexbeast/weather-now/internal/units"
	"github.com/neexbeast/weather-now/internal/weather"
)

// State is the presenter's position in Idle -> Loading -> Ready | Failed.
// Any state may move back to Loading on a new query.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Fetcher is the interface satisfied by weather.Client.
type Fetcher interface {
	FetchCurrent(ctx context.Context, q weather.Query) (*weather.Result, error)
	FetchIcon(ctx context.Context, iconID string) ([]byte, error)
}

// Cache is the interface satisfied by cache.WeatherCache. Implementations
// swallow their own failures.
type Cache interface {
	Save(ctx context.Context, r *weather.Result)
	LoadLast(ctx context.Context) (*weather.Result, bool)
	Icon(ctx context.Context, iconID string) ([]byte, bool)
	StoreIcon(ctx context.Context, iconID string, img []byte)
}

// Snapshot is what the sink reads after a state-changed notification.
// Weather keeps the last successful derivation even while Failed.
type Snapshot struct {
	State   State
	Weather Display
	Icon    []byte
	Err     *weather.Error
}

// Presenter is the weather state machine. Queries are fire-and-forget;
// results are applied on the Dispatcher, after which observers are told the
// state changed and re-read a Snapshot.
//
// Overlapping fetches resolve as last-request-wins: every Fetch takes a new
// sequence number and completions carrying an older one are dropped.
type Presenter struct {
	fetcher  Fetcher
	cache    Cache
	dispatch Dispatcher
	clock    *units.Clock
	log      *slog.Logger

	// saveMu serialises cache writes of fetch results.
	saveMu sync.Mutex

	mu        sync.Mutex
	seq       uint64
	state     State
	raw       *weather.Result
	display   Display
	icon      []byte
	iconID    string
	err       *weather.Error
	closed    bool
	observers map[int]func()
	nextObs   int
}

// New constructs a Presenter. A nil dispatcher runs completions inline on
// the fetching goroutine; a nil clock uses the local zone.
func New(fetcher Fetcher, cache Cache, dispatch Dispatcher, clock *units.Clock, log *slog.Logger) *Presenter {
	if dispatch == nil {
		dispatch = Inline
	}
	if clock == nil {
		clock = units.NewClock(nil)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Presenter{
		fetcher:   fetcher,
		cache:     cache,
		dispatch:  dispatch,
		clock:     clock,
		log:       log,
		observers: make(map[int]func()),
	}
}

// Subscribe registers fn to be called on the Dispatcher whenever the state
// changes. The returned func unsubscribes.
func (p *Presenter) Subscribe(fn func()) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextObs
	p.nextObs++
	p.observers[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.observers, id)
	}
}

// Snapshot returns a copy of the current state.
func (p *Presenter) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		State:   p.state,
		Weather: p.display,
		Icon:    p.icon,
		Err:     p.err,
	}
}

// Raw returns the result the current Display was derived from, if any.
func (p *Presenter) Raw() *weather.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.raw
}

// ConsumeError returns the pending error and clears it, so a re-render does
// not alert twice. A later successful fetch does not clear it.
func (p *Presenter) ConsumeError() *weather.Error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.err
	p.err = nil
	return err
}

// ReportError routes a failure that happened outside the weather fetch
// (such as the location provider) through the same error channel.
func (p *Presenter) ReportError(err error) {
	we := weather.AsError(err)
	if we == nil {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.err = we
	p.state = Failed
	p.mu.Unlock()

	p.log.Error("weather error reported", "kind", we.Kind.String(), "err", we)
	p.dispatch.Dispatch(p.notify)
}

// Close detaches the presenter. Completions still in flight become no-ops
// and observers are dropped.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.observers = make(map[int]func())
}

// LoadFromCacheIfAvailable hydrates the presenter from the last saved
// result without touching the network. It only applies while Idle and
// reports whether it did. A cache miss is silent.
func (p *Presenter) LoadFromCacheIfAvailable(ctx context.Context) bool {
	raw, ok := p.cache.LoadLast(ctx)
	if !ok {
		return false
	}
	display := Derive(raw, p.clock)

	iconID := primaryIcon(raw)
	icon, _ := p.cache.Icon(ctx, iconID)

	p.mu.Lock()
	if p.closed || p.state != Idle {
		p.mu.Unlock()
		return false
	}
	p.raw = raw
	p.display = display
	p.iconID = iconID
	p.icon = icon
	p.state = Ready
	p.mu.Unlock()

	p.log.Info("weather hydrated from cache", "city", display.City)
	p.dispatch.Dispatch(p.notify)
	return true
}

// Fetch starts a query and returns immediately. ctx supplies values only:
// an in-flight fetch is never cancelled.
func (p *Presenter) Fetch(ctx context.Context, q weather.Query) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.seq++
	seq := p.seq
	p.state = Loading
	p.mu.Unlock()

	p.log.Info("fetching weather", "query", q.String(), "seq", seq)

	// The goroutine holds the presenter weakly so that a discarded
	// presenter can be collected and its late completions ignored.
	go run(weak.Make(p), p.fetcher, p.cache, p.dispatch, context.WithoutCancel(ctx), seq, q)
}

func run(wp weak.Pointer[Presenter], fetcher Fetcher, cache Cache, dispatch Dispatcher, ctx context.Context, seq uint64, q weather.Query) {
	res, err := fetcher.FetchCurrent(ctx, q)
	if err != nil {
		dispatch.Dispatch(func() {
			if p := wp.Value(); p != nil {
				p.fail(seq, q, err)
			}
		})
		return
	}

	if p := wp.Value(); p == nil || !p.current(seq) {
		return
	}

	iconID := primaryIcon(res)
	icon, cached := cache.Icon(ctx, iconID)
	dispatch.Dispatch(func() {
		if p := wp.Value(); p != nil {
			p.succeed(seq, res, iconID, icon)
		}
	})
	if p := wp.Value(); p != nil {
		p.persist(ctx, seq, res)
	}
	if cached || iconID == "" {
		return
	}

	img, err := fetcher.FetchIcon(ctx, iconID)
	if err != nil {
		if p := wp.Value(); p != nil {
			p.log.Warn("icon fetch failed", "icon", iconID, "err", err)
		}
		return
	}
	cache.StoreIcon(ctx, iconID, img)
	dispatch.Dispatch(func() {
		if p := wp.Value(); p != nil {
			p.iconArrived(seq, iconID, img)
		}
	})
}

func (p *Presenter) current(seq uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed && seq == p.seq
}

// persist saves res unless a newer fetch has started. saveMu spans the check
// and the write, so a superseded result can never land after a newer one.
func (p *Presenter) persist(ctx context.Context, seq uint64, res *weather.Result) {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	if !p.current(seq) {
		p.log.Debug("skipping cache save for superseded result", "seq", seq)
		return
	}
	p.cache.Save(ctx, res)
}

func (p *Presenter) fail(seq uint64, q weather.Query, err error) {
	we := weather.AsError(err)

	p.mu.Lock()
	if p.closed || seq != p.seq {
		p.mu.Unlock()
		p.log.Debug("dropping superseded weather failure", "seq", seq, "err", we)
		return
	}
	p.err = we
	p.state = Failed
	p.mu.Unlock()

	p.log.Error("weather fetch failed", "query", q.String(), "kind", we.Kind.String(), "err", we)
	p.notify()
}

func (p *Presenter) succeed(seq uint64, res *weather.Result, iconID string, icon []byte) {
	display := Derive(res, p.clock)

	p.mu.Lock()
	if p.closed || seq != p.seq {
		p.mu.Unlock()
		p.log.Debug("dropping superseded weather result", "seq", seq)
		return
	}
	p.raw = res
	p.display = display
	p.iconID = iconID
	p.icon = icon
	p.state = Ready
	p.mu.Unlock()

	p.notify()
}

func (p *Presenter) iconArrived(seq uint64, iconID string, img []byte) {
	p.mu.Lock()
	if p.closed || seq != p.seq || p.iconID != iconID || p.state != Ready {
		p.mu.Unlock()
		return
	}
	p.icon = img
	p.mu.Unlock()

	p.notify()
}

// notify must run on the Dispatcher.
func (p *Presenter) notify() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	observers := make([]func(), 0, len(p.observers))
	for _, fn := range p.observers {
		observers = append(observers, fn)
	}
	p.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

func primaryIcon(r *weather.Result) string {
	c, ok := r.Primary()
	if !ok {
		return ""
	}
	return c.Icon
}
