package remote

import (
	"context"

	"github.com/doree-nobuu/adventures/internal/wire"
)

// Unsubscribe stops a live feed. It is safe to call more than once.
type Unsubscribe func()

// DocumentStore is a remote collection-of-documents store.
type DocumentStore interface {
	// Create writes a new document under id.
	Create(ctx context.Context, collection, id string, doc wire.Document) error

	// Update merges partial into an existing document. Fields set to
	// wire.Null are removed. A missing document is a CodeNotFound error.
	Update(ctx context.Context, collection, id string, partial wire.Document) error

	// Delete removes a document. Deleting a missing document succeeds.
	Delete(ctx context.Context, collection, id string) error

	// Subscribe establishes a live feed. onSnapshot receives the full
	// collection after every change; onError fires at most once, after
	// which the feed is dead. The returned error covers failures to
	// establish the feed at all.
	Subscribe(ctx context.Context, collection string, onSnapshot func([]wire.Document), onError func(error)) (Unsubscribe, error)

	Close() error
}

// BlobStore accepts binary uploads and returns a URL to fetch them.
type BlobStore interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Pinger is implemented by stores that can check reachability up front.
type Pinger interface {
	Ping(ctx context.Context) error
}
