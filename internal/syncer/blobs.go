package syncer

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// IsInlineBlob reports whether s is a data: URI rather than a URL.
func IsInlineBlob(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// decodeDataURI splits a base64 data: URI into content type and bytes.
func decodeDataURI(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	contentType := "application/octet-stream"
	isBase64 := false
	for i, part := range strings.Split(meta, ";") {
		switch {
		case i == 0 && part != "":
			contentType = part
		case part == "base64":
			isBase64 = true
		}
	}
	if !isBase64 {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("failed to unescape data URI: %w", err)
		}
		return contentType, []byte(text), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return contentType, data, nil
}

// uploadBlobs replaces inline blobs in rec with URLs from the blob store.
// Without a blob store inline data is kept as-is.
func (c *Collection[T]) uploadBlobs(ctx context.Context, rec *T) error {
	if c.blobs == nil || c.kind.Blobs == nil {
		return nil
	}
	for _, field := range c.kind.Blobs(rec) {
		if field == nil || !IsInlineBlob(*field) {
			continue
		}
		contentType, data, err := decodeDataURI(*field)
		if err != nil {
			c.logger.Printf("Warning: keeping undecodable inline blob: %v", err)
			continue
		}
		name := uuid.NewString()
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			name += exts[0]
		}
		var link string
		err = c.call(ctx, func(ctx context.Context) error {
			var err error
			link, err = c.blobs.Upload(ctx, name, contentType, data)
			return err
		})
		if err != nil {
			return err
		}
		*field = link
	}
	return nil
}
