package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/doree-nobuu/adventures/internal/local"
	"github.com/doree-nobuu/adventures/internal/remote"
	"github.com/doree-nobuu/adventures/internal/wire"
)

// DefaultTimeout bounds each remote call.
const DefaultTimeout = 10 * time.Second

// Kind describes one record kind to a Collection.
type Kind[T any] struct {
	// Name is the remote collection name.
	Name string

	// Key and NextIDKey are the local store namespaces.
	Key       string
	NextIDKey string

	ID    func(*T) int64
	SetID func(*T, int64)

	CreatedAt func(*T) time.Time
	// Stamp sets the creation stamp and refreshes the update stamp.
	Stamp func(rec *T, created, now time.Time)

	Clone    func(*T) *T
	Validate func(*T) error

	// Prepare fills defaults and derived fields before validation.
	Prepare func(rec *T, now time.Time)

	Encode func(*T) (wire.Document, error)
	Decode func(wire.Document) (*T, error)

	// Blobs returns pointers to fields that may hold inline data: URIs.
	Blobs func(*T) []*string

	// Seed returns the default dataset for an empty store.
	Seed func(now time.Time) []*T
}

// Options wires a Collection to its stores.
type Options struct {
	Local   local.Store
	Session *Session

	// Remote is nil for collections that never leave the local store.
	Remote remote.DocumentStore
	Blobs  remote.BlobStore

	// Timeout bounds each remote call and the wait for the first
	// snapshot (default: DefaultTimeout).
	Timeout time.Duration

	// Clock returns the current time (default: time.Now).
	Clock func() time.Time

	// Logger (default: stderr logger with a [sync] prefix).
	Logger *log.Logger
}

// Collection is the orchestrator for one record kind.
type Collection[T any] struct {
	kind    Kind[T]
	local   local.Store
	session *Session
	remote  remote.DocumentStore
	blobs   remote.BlobStore
	timeout time.Duration
	clock   func() time.Time
	logger  *log.Logger

	// writeMu serializes mutations; mu guards state. Remote calls run
	// holding writeMu only, so a snapshot can land while one is in flight.
	writeMu sync.Mutex
	mu      sync.Mutex
	items   []*T
	nextID  int64
	loaded  bool
	unsub   remote.Unsubscribe

	listeners map[int]func([]T)
	nextKey   int
}

// NewCollection creates a collection. Call Start before using it.
func NewCollection[T any](kind Kind[T], opts Options) *Collection[T] {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if opts.Session == nil {
		opts.Session = NewSession(opts.Remote != nil, opts.Logger)
	}
	if opts.Local == nil {
		opts.Local = local.NewMemory(opts.Logger)
	}

	c := &Collection[T]{
		kind:      kind,
		local:     opts.Local,
		session:   opts.Session,
		remote:    opts.Remote,
		blobs:     opts.Blobs,
		timeout:   opts.Timeout,
		clock:     opts.Clock,
		logger:    opts.Logger,
		nextID:    1,
		listeners: make(map[int]func([]T)),
	}
	c.session.onDowngrade(c.detach)
	return c
}

// Name returns the remote collection name of the kind.
func (c *Collection[T]) Name() string {
	return c.kind.Name
}

// Mode reports the effective mode of this collection.
func (c *Collection[T]) Mode() Mode {
	if c.remoteBacked() {
		return RemoteBacked
	}
	return LocalOnly
}

func (c *Collection[T]) remoteBacked() bool {
	return c.remote != nil && c.session.Mode() == RemoteBacked
}

// Start loads the collection: it subscribes to the remote store in
// RemoteBacked mode and reads the local store otherwise. In RemoteBacked
// mode it waits for the first snapshot, bounded by the remote timeout.
// A failed subscription or a missing first snapshot downgrades the
// session and falls back to the local store.
func (c *Collection[T]) Start(ctx context.Context) error {
	if c.remoteBacked() {
		c.raiseFromCachedNextID()

		first := make(chan struct{})
		var once sync.Once
		signal := func() { once.Do(func() { close(first) }) }
		onSnapshot := func(docs []wire.Document) {
			c.applySnapshot(docs)
			signal()
		}
		onError := func(err error) {
			c.feedFailed(err)
			signal()
		}
		stopWaiting := c.session.OnStatus(func(Status) { signal() })
		defer stopWaiting()

		unsub, err := c.remote.Subscribe(ctx, c.kind.Name, onSnapshot, onError)
		if err == nil {
			c.mu.Lock()
			c.unsub = unsub
			c.mu.Unlock()
			if !c.remoteBacked() {
				c.detach()
				signal()
			}
			return c.awaitFirstSnapshot(ctx, first)
		}
		c.logger.Printf("Subscribe to %s failed: %v", c.kind.Name, err)
		c.session.Downgrade(remote.Reason(err))
	}
	c.loadLocal()
	return nil
}

// awaitFirstSnapshot blocks until first is closed by a snapshot, a feed
// error or a downgrade. If none of them happens within the timeout the
// session is downgraded and the local copy loaded instead.
func (c *Collection[T]) awaitFirstSnapshot(ctx context.Context, first <-chan struct{}) error {
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-first:
		if c.isLoaded() {
			return nil
		}
	case <-timer.C:
		err := remote.NewError("subscribe", c.kind.Name, remote.CodeTimeout, context.DeadlineExceeded)
		c.logger.Printf("No snapshot for %s after %s", c.kind.Name, c.timeout)
		c.session.Downgrade(remote.Reason(err))
	case <-ctx.Done():
		c.detach()
		return ctx.Err()
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.loadLocal()
	return nil
}

// raiseFromCachedNextID raises nextID to the value last persisted
// locally so ids handed out before the first snapshot cannot collide.
func (c *Collection[T]) raiseFromCachedNextID() {
	var stored int64
	if err := c.local.Load(c.kind.NextIDKey, &stored); err != nil {
		return
	}
	c.mu.Lock()
	if stored > c.nextID {
		c.nextID = stored
	}
	c.mu.Unlock()
}

func (c *Collection[T]) isLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Stop ends the remote subscription, if any.
func (c *Collection[T]) Stop() {
	c.detach()
}

// Reload re-reads the local store. It does nothing in RemoteBacked mode,
// where the remote feed is authoritative.
func (c *Collection[T]) Reload() {
	if c.remoteBacked() {
		return
	}
	c.loadLocal()
}

func (c *Collection[T]) detach() {
	c.mu.Lock()
	unsub := c.unsub
	c.unsub = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (c *Collection[T]) feedFailed(err error) {
	c.logger.Printf("Feed for %s failed: %v", c.kind.Name, err)
	c.session.Downgrade(remote.Reason(err))

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.loadLocal()
}

// applySnapshot replaces the canonical collection with a remote snapshot.
func (c *Collection[T]) applySnapshot(docs []wire.Document) {
	if !c.remoteBacked() {
		return
	}

	items := make([]*T, 0, len(docs))
	for _, d := range docs {
		rec, err := c.kind.Decode(d)
		if err != nil {
			c.logger.Printf("Warning: skipping undecodable %s document: %v", c.kind.Name, err)
			continue
		}
		items = append(items, rec)
	}
	c.sortItems(items)

	c.mu.Lock()
	c.items = items
	c.raiseNextID()
	c.loaded = true
	next := c.nextID
	c.mu.Unlock()

	c.local.Save(c.kind.Key, items)
	c.local.Save(c.kind.NextIDKey, next)
	c.publish()
}

// loadLocal replaces the canonical collection with the local store's
// copy, seeding defaults when it is missing or malformed.
func (c *Collection[T]) loadLocal() {
	var items []*T
	seeded := false
	if err := c.local.Load(c.kind.Key, &items); err != nil {
		items = nil
		if c.kind.Seed != nil {
			items = c.kind.Seed(c.clock())
		}
		seeded = true
	}
	items = compact(items)
	c.sortItems(items)

	var stored int64
	if err := c.local.Load(c.kind.NextIDKey, &stored); err != nil {
		stored = 0
	}

	c.mu.Lock()
	c.items = items
	if stored > c.nextID {
		c.nextID = stored
	}
	c.raiseNextID()
	c.loaded = true
	next := c.nextID
	c.mu.Unlock()

	if seeded {
		c.local.Save(c.kind.Key, items)
		c.local.Save(c.kind.NextIDKey, next)
	}
	c.publish()
}

// raiseNextID lifts nextID above every id in the collection. It never
// lowers it. Callers hold mu.
func (c *Collection[T]) raiseNextID() {
	for _, rec := range c.items {
		if id := c.kind.ID(rec); id >= c.nextID {
			c.nextID = id + 1
		}
	}
}

func (c *Collection[T]) sortItems(items []*T) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := c.kind.CreatedAt(items[i]), c.kind.CreatedAt(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return c.kind.ID(items[i]) > c.kind.ID(items[j])
	})
}

// Create adds a new record. The id and timestamps of rec are ignored and
// assigned here. The stored record is returned.
func (c *Collection[T]) Create(ctx context.Context, rec T) (T, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var zero T
	now := c.clock()
	item := c.kind.Clone(&rec)
	c.kind.Stamp(item, now, now)
	if c.kind.Prepare != nil {
		c.kind.Prepare(item, now)
	}
	if err := c.kind.Validate(item); err != nil {
		return zero, fmt.Errorf("invalid %s record: %w", c.kind.Name, err)
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	next := c.nextID
	c.mu.Unlock()
	c.kind.SetID(item, id)
	c.local.Save(c.kind.NextIDKey, next)

	if c.remoteBacked() {
		err := c.uploadBlobs(ctx, item)
		if err == nil {
			var doc wire.Document
			doc, err = c.kind.Encode(item)
			if err == nil {
				err = c.call(ctx, func(ctx context.Context) error {
					return c.remote.Create(ctx, c.kind.Name, formatID(id), doc)
				})
			}
		}
		if err == nil {
			return *c.kind.Clone(item), nil
		}
		c.fallback("create", err)
	}

	c.mu.Lock()
	c.items = append([]*T{item}, c.items...)
	c.sortItems(c.items)
	c.mu.Unlock()
	c.persist()
	c.publish()
	return *c.kind.Clone(item), nil
}

// Update applies fn to a copy of the record and stores the result. The
// id and creation stamp cannot be changed by fn.
func (c *Collection[T]) Update(ctx context.Context, id int64, fn func(*T) error) (T, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var zero T
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return zero, fmt.Errorf("%s %d: %w", c.kind.Name, id, ErrNotFound)
	}
	prev := c.kind.Clone(c.items[idx])
	c.mu.Unlock()

	item := c.kind.Clone(prev)
	if err := fn(item); err != nil {
		return zero, err
	}
	now := c.clock()
	c.kind.SetID(item, id)
	c.kind.Stamp(item, c.kind.CreatedAt(prev), now)
	if c.kind.Prepare != nil {
		c.kind.Prepare(item, now)
	}
	if err := c.kind.Validate(item); err != nil {
		return zero, fmt.Errorf("invalid %s record: %w", c.kind.Name, err)
	}

	if c.remoteBacked() {
		err := c.uploadBlobs(ctx, item)
		if err == nil {
			err = c.remoteUpdate(ctx, id, prev, item)
		}
		if err == nil {
			return *c.kind.Clone(item), nil
		}
		c.fallback("update", err)
	}

	c.mu.Lock()
	if idx := c.indexOf(id); idx >= 0 {
		c.items[idx] = item
	} else {
		c.items = append(c.items, item)
	}
	c.sortItems(c.items)
	c.mu.Unlock()
	c.persist()
	c.publish()
	return *c.kind.Clone(item), nil
}

func (c *Collection[T]) remoteUpdate(ctx context.Context, id int64, prev, next *T) error {
	prevDoc, err := c.kind.Encode(prev)
	if err != nil {
		return err
	}
	nextDoc, err := c.kind.Encode(next)
	if err != nil {
		return err
	}
	partial := wire.EncodeUpdate(prevDoc, nextDoc)
	return c.call(ctx, func(ctx context.Context) error {
		return c.remote.Update(ctx, c.kind.Name, formatID(id), partial)
	})
}

// Delete removes a record.
func (c *Collection[T]) Delete(ctx context.Context, id int64) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	exists := c.indexOf(id) >= 0
	c.mu.Unlock()
	if !exists {
		return fmt.Errorf("%s %d: %w", c.kind.Name, id, ErrNotFound)
	}

	if c.remoteBacked() {
		err := c.call(ctx, func(ctx context.Context) error {
			return c.remote.Delete(ctx, c.kind.Name, formatID(id))
		})
		if err == nil {
			return nil
		}
		c.fallback("delete", err)
	}

	c.mu.Lock()
	if idx := c.indexOf(id); idx >= 0 {
		c.items = append(c.items[:idx:idx], c.items[idx+1:]...)
	}
	c.mu.Unlock()
	c.persist()
	c.publish()
	return nil
}

// call runs a remote operation under the per-call timeout.
func (c *Collection[T]) call(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return op(ctx)
}

// fallback downgrades the session after a failed remote write.
func (c *Collection[T]) fallback(op string, err error) {
	var re *remote.Error
	if !errors.As(err, &re) {
		err = remote.Wrap(op, c.kind.Name, err)
	}
	c.logger.Printf("Remote %s on %s failed, applying locally: %v", op, c.kind.Name, err)
	c.session.Downgrade(remote.Reason(err))
}

func (c *Collection[T]) persist() {
	c.mu.Lock()
	items := make([]*T, len(c.items))
	copy(items, c.items)
	next := c.nextID
	c.mu.Unlock()

	c.local.Save(c.kind.Key, items)
	c.local.Save(c.kind.NextIDKey, next)
}

// List returns a copy of the collection, newest created first.
func (c *Collection[T]) List() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

// Get returns a copy of one record.
func (c *Collection[T]) Get(id int64) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	idx := c.indexOf(id)
	if idx < 0 {
		return zero, fmt.Errorf("%s %d: %w", c.kind.Name, id, ErrNotFound)
	}
	return *c.kind.Clone(c.items[idx]), nil
}

// Filter returns copies of the records matching pred, in collection order.
func (c *Collection[T]) Filter(pred func(*T) bool) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []T{}
	for _, rec := range c.items {
		if pred(rec) {
			out = append(out, *c.kind.Clone(rec))
		}
	}
	return out
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// NextID returns the id the next Create will assign.
func (c *Collection[T]) NextID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextID
}

// Subscribe registers fn to receive the full collection after every
// change. If the collection is already loaded fn is called right away.
func (c *Collection[T]) Subscribe(fn func([]T)) (cancel func()) {
	c.mu.Lock()
	key := c.nextKey
	c.nextKey++
	c.listeners[key] = fn
	loaded := c.loaded
	items := c.copyLocked()
	c.mu.Unlock()

	if loaded {
		fn(items)
	}
	return func() {
		c.mu.Lock()
		delete(c.listeners, key)
		c.mu.Unlock()
	}
}

func (c *Collection[T]) publish() {
	c.mu.Lock()
	listeners := make([]func([]T), 0, len(c.listeners))
	keys := make([]int, 0, len(c.listeners))
	for k := range c.listeners {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		listeners = append(listeners, c.listeners[k])
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(c.List())
	}
}

func (c *Collection[T]) copyLocked() []T {
	out := make([]T, len(c.items))
	for i, rec := range c.items {
		out[i] = *c.kind.Clone(rec)
	}
	return out
}

func (c *Collection[T]) indexOf(id int64) int {
	for i, rec := range c.items {
		if c.kind.ID(rec) == id {
			return i
		}
	}
	return -1
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func compact[T any](items []*T) []*T {
	out := make([]*T, 0, len(items))
	for _, rec := range items {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out
}
