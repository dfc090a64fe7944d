// Package remotetest provides an in-memory remote store for tests.
package remotetest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/doree-nobuu/adventures/internal/remote"
	"github.com/doree-nobuu/adventures/internal/wire"
)

// Fake is an in-memory remote.DocumentStore and remote.BlobStore.
//
// Snapshots are delivered synchronously after every successful write, in
// insertion order (oldest first), so subscribers must sort them. The
// snapshot a subscription starts with is delivered before Subscribe
// returns unless SetAsync or Withhold say otherwise.
type Fake struct {
	mu       sync.Mutex
	docs     map[string][]entry
	subs     map[string]map[int]*subscriber
	next     int
	fail     map[string]error
	calls    map[string]int
	blobs    map[string][]byte
	async    bool
	withhold bool
}

type entry struct {
	id  string
	doc wire.Document
}

type subscriber struct {
	onSnapshot func([]wire.Document)
	onError    func(error)
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		docs:  make(map[string][]entry),
		subs:  make(map[string]map[int]*subscriber),
		fail:  make(map[string]error),
		calls: make(map[string]int),
		blobs: make(map[string][]byte),
	}
}

// FailOn makes every later call of op ("create", "update", "delete",
// "subscribe", "upload") fail with err. A nil err clears the failure.
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

// SetAsync makes Subscribe deliver the first snapshot from a separate
// goroutine after it has returned, the way a network feed does.
func (f *Fake) SetAsync(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.async = on
}

// Withhold makes Subscribe never deliver a first snapshot. Later writes
// and Push still reach the subscriber.
func (f *Fake) Withhold(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.withhold = on
}

// Calls returns how many times op was invoked, failures included.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Seed stores documents without notifying subscribers.
func (f *Fake) Seed(collection string, docs ...wire.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		id, err := d.ID()
		if err != nil {
			return err
		}
		f.put(collection, fmt.Sprint(id), d)
	}
	return nil
}

// Docs returns the stored documents of a collection.
func (f *Fake) Docs(collection string) []wire.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot(collection)
}

// Blob returns an uploaded blob.
func (f *Fake) Blob(name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blobs[name]
	return b, ok
}

// Push delivers the current collection to its subscribers.
func (f *Fake) Push(collection string) {
	f.mu.Lock()
	docs := f.snapshot(collection)
	subs := f.subscribers(collection)
	f.mu.Unlock()

	for _, s := range subs {
		s.onSnapshot(cloneDocs(docs))
	}
}

// Break fires the error callback of every subscriber of collection and
// drops them, the way a lost connection would.
func (f *Fake) Break(collection string, err error) {
	f.mu.Lock()
	subs := f.subscribers(collection)
	delete(f.subs, collection)
	f.mu.Unlock()

	for _, s := range subs {
		if s.onError != nil {
			s.onError(remote.NewError("subscribe", collection, remote.CodeUnavailable, err))
		}
	}
}

// Create implements remote.DocumentStore.
func (f *Fake) Create(ctx context.Context, collection, id string, doc wire.Document) error {
	if err := f.begin(ctx, "create", collection); err != nil {
		return err
	}
	f.mu.Lock()
	f.put(collection, id, doc.Clone())
	f.mu.Unlock()
	f.Push(collection)
	return nil
}

// Update implements remote.DocumentStore.
func (f *Fake) Update(ctx context.Context, collection, id string, partial wire.Document) error {
	if err := f.begin(ctx, "update", collection); err != nil {
		return err
	}
	f.mu.Lock()
	idx := f.index(collection, id)
	if idx < 0 {
		f.mu.Unlock()
		return remote.NewError("update", collection, remote.CodeNotFound, fmt.Errorf("document %s not found", id))
	}
	merged := f.docs[collection][idx].doc.Clone()
	for k, v := range partial {
		switch {
		case k == wire.FieldCreatedAt:
		case wire.IsNull(v):
			delete(merged, k)
		default:
			merged[k] = v
		}
	}
	f.docs[collection][idx].doc = merged
	f.mu.Unlock()
	f.Push(collection)
	return nil
}

// Delete implements remote.DocumentStore.
func (f *Fake) Delete(ctx context.Context, collection, id string) error {
	if err := f.begin(ctx, "delete", collection); err != nil {
		return err
	}
	f.mu.Lock()
	if idx := f.index(collection, id); idx >= 0 {
		list := f.docs[collection]
		f.docs[collection] = append(list[:idx:idx], list[idx+1:]...)
	}
	f.mu.Unlock()
	f.Push(collection)
	return nil
}

// Subscribe implements remote.DocumentStore. The current collection is
// delivered before Subscribe returns, or from a goroutine in async mode.
func (f *Fake) Subscribe(ctx context.Context, collection string, onSnapshot func([]wire.Document), onError func(error)) (remote.Unsubscribe, error) {
	if err := f.begin(ctx, "subscribe", collection); err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.subs[collection] == nil {
		f.subs[collection] = make(map[int]*subscriber)
	}
	key := f.next
	f.next++
	f.subs[collection][key] = &subscriber{onSnapshot: onSnapshot, onError: onError}
	docs := f.snapshot(collection)
	async, withhold := f.async, f.withhold
	f.mu.Unlock()

	switch {
	case withhold:
	case async:
		go func() {
			f.mu.Lock()
			_, live := f.subs[collection][key]
			docs := f.snapshot(collection)
			f.mu.Unlock()
			if live {
				onSnapshot(docs)
			}
		}()
	default:
		onSnapshot(cloneDocs(docs))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[collection], key)
			f.mu.Unlock()
		})
	}, nil
}

// Upload implements remote.BlobStore.
func (f *Fake) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := f.begin(ctx, "upload", ""); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.blobs[name] = append([]byte(nil), data...)
	f.mu.Unlock()
	return "https://blobs.example.test/" + name, nil
}

// Close implements remote.DocumentStore.
func (f *Fake) Close() error {
	f.mu.Lock()
	f.subs = make(map[string]map[int]*subscriber)
	f.mu.Unlock()
	return nil
}

func (f *Fake) begin(ctx context.Context, op, collection string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.fail[op]
	f.mu.Unlock()

	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		return nil
	}
	var re *remote.Error
	if errors.As(err, &re) {
		return re
	}
	return remote.Wrap(op, collection, err)
}

func (f *Fake) put(collection, id string, doc wire.Document) {
	if idx := f.index(collection, id); idx >= 0 {
		f.docs[collection][idx].doc = doc
		return
	}
	f.docs[collection] = append(f.docs[collection], entry{id: id, doc: doc})
}

func (f *Fake) index(collection, id string) int {
	for i, e := range f.docs[collection] {
		if e.id == id {
			return i
		}
	}
	return -1
}

func (f *Fake) snapshot(collection string) []wire.Document {
	out := make([]wire.Document, 0, len(f.docs[collection]))
	for _, e := range f.docs[collection] {
		out = append(out, e.doc.Clone())
	}
	return out
}

func (f *Fake) subscribers(collection string) []*subscriber {
	out := make([]*subscriber, 0, len(f.subs[collection]))
	for _, s := range f.subs[collection] {
		out = append(out, s)
	}
	return out
}

func cloneDocs(in []wire.Document) []wire.Document {
	out := make([]wire.Document, len(in))
	for i, d := range in {
		out[i] = d.Clone()
	}
	return out
}
