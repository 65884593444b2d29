package reader

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/sync/semaphore"
)

const (
	DefaultConcurrency = 8
	DefaultCachePages  = 64

	queueSize = 64
)

// PageSource downloads the raw bytes of a page image.
type PageSource interface {
	DownloadBytes(ctx context.Context, url string) ([]byte, error)
}

// Decoder turns downloaded bytes into a bitmap.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// ProtocolBuilder encodes a bitmap for drawing into area.
type ProtocolBuilder interface {
	Build(img image.Image, area Rect) (Protocol, error)
}

// PageStatus is what the renderer knows about a page.
type PageStatus int

const (
	PageIdle PageStatus = iota
	PageLoading
	PageReady
	PageFailed
)

type Config struct {
	// Concurrency bounds page downloads running at once.
	Concurrency int
	// BuildConcurrency bounds protocol encodes running at once.
	BuildConcurrency int
	// CachePages is the decoded bitmap ceiling.
	CachePages int
	Direction  Direction
	Logger     *slog.Logger
}

type buildKey struct {
	key    ProtocolKey
	width  int
	height int
}

// Coordinator schedules page fetches and protocol builds for the chapter
// being read and applies their results. Every exported method must be
// called from the UI goroutine; workers only talk back through channels.
type Coordinator struct {
	source  PageSource
	decoder Decoder
	builder ProtocolBuilder
	log     *slog.Logger
	dir     Direction

	pages     *PageCache
	protocols *ProtocolCache
	capacity  int

	fetchPermits *semaphore.Weighted
	buildPermits *semaphore.Weighted
	fetchDone    chan fetchResult
	protoDone    chan protocolResult

	root        context.Context
	stop        context.CancelFunc
	epochCtx    context.Context
	epochCancel context.CancelFunc

	epoch   uint64
	gen     uint64
	urls    []string
	current int
	panels  [2]Rect

	fetching    map[int]struct{}
	failed      map[int]error
	building    map[buildKey]struct{}
	buildFailed map[buildKey]struct{}

	spawn func(func())
}

func NewCoordinator(cfg Config, source PageSource, decoder Decoder, builder ProtocolBuilder) (*Coordinator, error) {
	if source == nil || decoder == nil || builder == nil {
		return nil, errors.New("coordinator requires a page source, a decoder and a protocol builder")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.BuildConcurrency < 1 {
		cfg.BuildConcurrency = cfg.Concurrency
	}
	if cfg.CachePages < 1 {
		cfg.CachePages = DefaultCachePages
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	c := &Coordinator{
		source:       source,
		decoder:      decoder,
		builder:      builder,
		log:          cfg.Logger,
		dir:          cfg.Direction,
		protocols:    NewProtocolCache(),
		capacity:     cfg.CachePages,
		fetchPermits: semaphore.NewWeighted(int64(cfg.Concurrency)),
		buildPermits: semaphore.NewWeighted(int64(cfg.BuildConcurrency)),
		fetchDone:    make(chan fetchResult, queueSize),
		protoDone:    make(chan protocolResult, queueSize),
		fetching:     make(map[int]struct{}),
		failed:       make(map[int]error),
		building:     make(map[buildKey]struct{}),
		buildFailed:  make(map[buildKey]struct{}),
		spawn:        func(fn func()) { go fn() },
	}
	pages, err := NewPageCache(cfg.CachePages, c.protocols.RemovePage)
	if err != nil {
		return nil, err
	}
	c.pages = pages
	c.root, c.stop = context.WithCancel(context.Background())
	c.epochCtx, c.epochCancel = context.WithCancel(c.root)
	return c, nil
}

// Close abandons all background work. The coordinator is unusable afterwards.
func (c *Coordinator) Close() {
	c.epochCancel()
	c.stop()
}

// Load starts a new chapter session with the given page URLs.
func (c *Coordinator) Load(urls []string) {
	c.InvalidateChapter()
	c.urls = append([]string(nil), urls...)
}

// InvalidateChapter clears both caches and all in-flight tracking and moves
// to a new epoch, so completions of earlier work are discarded on drain.
func (c *Coordinator) InvalidateChapter() {
	c.epochCancel()
	c.epoch++
	c.epochCtx, c.epochCancel = context.WithCancel(c.root)

	c.pages.Clear()
	c.protocols.Clear()
	clear(c.fetching)
	clear(c.failed)
	clear(c.building)
	clear(c.buildFailed)
	c.urls = nil
	c.current = 0
}

// SetBuilder swaps the protocol encoder. Protocols built by the previous
// one are dropped, including those still being encoded.
func (c *Coordinator) SetBuilder(b ProtocolBuilder) {
	if b == nil {
		return
	}
	c.builder = b
	c.gen++
	c.protocols.Clear()
	clear(c.building)
	clear(c.buildFailed)
}

// SetPanel records the area side is drawn into. Call EnsureSpread
// afterwards to rebuild protocols that became stale.
func (c *Coordinator) SetPanel(side Side, rect Rect) {
	c.panels[side] = rect
}

func (c *Coordinator) Panel(side Side) Rect {
	return c.panels[side]
}

// EnsureSpread makes the spread starting at current the one being served:
// visible pages are fetched or encoded first, then the next spread's
// protocols are prepared and the rest of the chapter is warmed up.
func (c *Coordinator) EnsureSpread(current int) {
	n := len(c.urls)
	if n == 0 {
		return
	}
	c.current = ClampSpread(current, n)

	for page := c.current; page < c.current+4 && page < n; page++ {
		visible := page < c.current+2
		img, ok := c.cached(page, visible)
		if !ok {
			if visible {
				c.submitFetch(page)
			}
			continue
		}
		for _, side := range InterestedSides(page, c.current, c.dir) {
			c.scheduleBuild(page, side, img)
		}
	}

	lo, hi := c.warmWindow()
	for page := lo; page < hi; page++ {
		c.submitFetch(page)
	}
}

// Drain applies every completion already queued without blocking and
// returns how many were applied.
func (c *Coordinator) Drain() int {
	applied := 0
	for {
		select {
		case res := <-c.fetchDone:
			if c.onFetchComplete(res) {
				applied++
			}
		case res := <-c.protoDone:
			if c.onProtocolComplete(res) {
				applied++
			}
		default:
			return applied
		}
	}
}

func (c *Coordinator) onFetchComplete(res fetchResult) bool {
	if res.epoch != c.epoch {
		c.log.Debug("dropping stale fetch", "page", res.page, "epoch", res.epoch, "current_epoch", c.epoch)
		return false
	}
	delete(c.fetching, res.page)
	if res.err != nil {
		c.failed[res.page] = res.err
		c.log.Warn("page fetch failed", "page", res.page, "error", res.err)
		return true
	}

	c.pages.Put(res.page, res.img)
	for _, side := range InterestedSides(res.page, c.current, c.dir) {
		c.scheduleBuild(res.page, side, res.img)
	}
	return true
}

func (c *Coordinator) onProtocolComplete(res protocolResult) bool {
	if res.epoch != c.epoch || res.gen != c.gen {
		c.log.Debug("dropping stale protocol", "page", res.page, "side", res.side.String())
		return false
	}
	bk := buildKey{key: ProtocolKey{Page: res.page, Side: res.side}, width: res.rect.Width, height: res.rect.Height}
	delete(c.building, bk)
	if res.err != nil {
		c.buildFailed[bk] = struct{}{}
		c.log.Warn("protocol build failed", "page", res.page, "side", res.side.String(), "error", res.err)
		return true
	}
	// A resize or an eviction may have happened while encoding.
	if !res.rect.SameSize(c.panels[res.side]) || !c.pages.Contains(res.page) {
		return false
	}
	c.protocols.Put(bk.key, ProtocolEntry{Rect: res.rect, Protocol: res.proto})
	return true
}

func (c *Coordinator) cached(page int, touch bool) (image.Image, bool) {
	if touch {
		return c.pages.Get(page)
	}
	return c.pages.Peek(page)
}

// warmWindow bounds bulk prefetch so it never pushes the spread being read
// out of the page cache.
func (c *Coordinator) warmWindow() (int, int) {
	n := len(c.urls)
	if n <= c.capacity {
		return 0, n
	}
	return c.current, min(n, c.current+c.capacity)
}

func (c *Coordinator) submitFetch(page int) {
	if page < 0 || page >= len(c.urls) {
		return
	}
	if c.pages.Contains(page) {
		return
	}
	if _, ok := c.fetching[page]; ok {
		return
	}
	if _, ok := c.failed[page]; ok {
		return
	}
	c.fetching[page] = struct{}{}

	ctx, epoch, url := c.epochCtx, c.epoch, c.urls[page]
	c.spawn(func() { c.fetchPage(ctx, epoch, page, url) })
}

func (c *Coordinator) scheduleBuild(page int, side Side, img image.Image) {
	rect := c.panels[side]
	if rect.Empty() {
		return
	}
	key := ProtocolKey{Page: page, Side: side}
	if !c.protocols.IsStale(key, rect) {
		return
	}
	bk := buildKey{key: key, width: rect.Width, height: rect.Height}
	if _, ok := c.building[bk]; ok {
		return
	}
	if _, ok := c.buildFailed[bk]; ok {
		return
	}
	c.building[bk] = struct{}{}

	job := buildJob{
		epoch:   c.epoch,
		gen:     c.gen,
		page:    page,
		side:    side,
		rect:    rect,
		img:     img,
		builder: c.builder,
	}
	ctx := c.epochCtx
	c.spawn(func() { c.buildProtocol(ctx, job) })
}

// Pages exposes the bitmap cache to the renderer.
func (c *Coordinator) Pages() *PageCache {
	return c.pages
}

// Protocols exposes the protocol cache to the renderer.
func (c *Coordinator) Protocols() *ProtocolCache {
	return c.protocols
}

// Visible returns the page drawn on side, or false when the spread has no
// page there.
func (c *Coordinator) Visible(side Side) (int, bool) {
	page := c.dir.PageAt(side, c.current)
	if page >= len(c.urls) {
		return 0, false
	}
	return page, true
}

func (c *Coordinator) PageStatus(page int) PageStatus {
	if _, ok := c.failed[page]; ok {
		return PageFailed
	}
	if c.pages.Contains(page) {
		return PageReady
	}
	if _, ok := c.fetching[page]; ok {
		return PageLoading
	}
	return PageIdle
}

// Failure returns the error recorded for a failed page.
func (c *Coordinator) Failure(page int) error {
	return c.failed[page]
}

// Pending reports whether any worker result is still outstanding.
func (c *Coordinator) Pending() bool {
	return len(c.fetching) > 0 || len(c.building) > 0
}

func (c *Coordinator) InFlight() int {
	return len(c.fetching)
}

func (c *Coordinator) PageCount() int {
	return len(c.urls)
}

func (c *Coordinator) Current() int {
	return c.current
}

func (c *Coordinator) Direction() Direction {
	return c.dir
}

func (c *Coordinator) Epoch() uint64 {
	return c.epoch
}

func (c *Coordinator) String() string {
	return fmt.Sprintf("coordinator{epoch=%d current=%d/%d cached=%d fetching=%d failed=%d}",
		c.epoch, c.current, len(c.urls), c.pages.Len(), len(c.fetching), len(c.failed))
}
