package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/doree-nobuu/adventures/internal/wire"
)

// Snapshot is one message on a subscription feed.
type Snapshot struct {
	Collection string          `json:"collection"`
	Version    int64           `json:"version"`
	Docs       []wire.Document `json:"docs"`
}

// ErrorPayload is the JSON body of a non-2xx document server response.
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// UploadResponse is returned by the blob endpoint.
type UploadResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MaxMessageSize bounds a single snapshot frame. Inline photos make
// collections large.
const MaxMessageSize = 64 << 20

// APIError represents a non-2xx response from the document server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("document server error: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("document server error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("document server error (%d)", e.Status)
}

// HTTPConfig configures an HTTPStore.
type HTTPConfig struct {
	// BaseURL of the document server, including scheme.
	BaseURL string

	// Token is sent as a bearer token when set.
	Token string

	// Timeout bounds each HTTP request (default: 20s).
	Timeout time.Duration

	// Logger for feed activity (default: stderr logger).
	Logger *log.Logger
}

// HTTPStore is a DocumentStore and BlobStore backed by the document server.
type HTTPStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *log.Logger

	mu    sync.Mutex
	feeds map[*feed]struct{}
}

// NewHTTPStore constructs a client for the document server.
func NewHTTPStore(cfg HTTPConfig) (*HTTPStore, error) {
	normalized, err := NormalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[remote] ", log.LstdFlags)
	}
	return &HTTPStore{
		baseURL:    normalized,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
		feeds:      make(map[*feed]struct{}),
	}, nil
}

// NormalizeBaseURL trims a base URL and ensures it has a scheme.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("remote url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid remote url: %w", err)
	}
	if parsed.Scheme == "" {
		return "", fmt.Errorf("remote url must include scheme (https://)")
	}
	return strings.TrimRight(value, "/"), nil
}

// Ping checks the server's health endpoint.
func (s *HTTPStore) Ping(ctx context.Context) error {
	return Wrap("ping", "", s.doJSON(ctx, http.MethodGet, "/health", nil, nil))
}

// Create implements DocumentStore.
func (s *HTTPStore) Create(ctx context.Context, collection, id string, doc wire.Document) error {
	return Wrap("create", collection, s.doJSON(ctx, http.MethodPut, docPath(collection, id), doc, nil))
}

// Update implements DocumentStore.
func (s *HTTPStore) Update(ctx context.Context, collection, id string, partial wire.Document) error {
	return Wrap("update", collection, s.doJSON(ctx, http.MethodPatch, docPath(collection, id), partial, nil))
}

// Delete implements DocumentStore.
func (s *HTTPStore) Delete(ctx context.Context, collection, id string) error {
	return Wrap("delete", collection, s.doJSON(ctx, http.MethodDelete, docPath(collection, id), nil, nil))
}

// List fetches the current collection once.
func (s *HTTPStore) List(ctx context.Context, collection string) ([]wire.Document, error) {
	var snap Snapshot
	if err := s.doJSON(ctx, http.MethodGet, collectionPath(collection)+"/docs", nil, &snap); err != nil {
		return nil, Wrap("list", collection, err)
	}
	return snap.Docs, nil
}

// Upload implements BlobStore.
func (s *HTTPStore) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	query := url.Values{}
	query.Set("name", name)
	endpoint, err := s.buildURL("/v1/blobs", query)
	if err != nil {
		return "", Wrap("upload", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", Wrap("upload", "", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	s.authorize(req.Header)

	var resp UploadResponse
	if err := s.do(req, &resp); err != nil {
		return "", Wrap("upload", "", err)
	}
	if strings.HasPrefix(resp.URL, "/") {
		return s.baseURL + resp.URL, nil
	}
	return resp.URL, nil
}

// Subscribe implements DocumentStore over a WebSocket feed.
func (s *HTTPStore) Subscribe(ctx context.Context, collection string, onSnapshot func([]wire.Document), onError func(error)) (Unsubscribe, error) {
	endpoint, err := s.buildURL(collectionPath(collection)+"/subscribe", nil)
	if err != nil {
		return nil, Wrap("subscribe", collection, err)
	}

	header := http.Header{}
	s.authorize(header)

	dialCtx, cancelDial := context.WithTimeout(ctx, s.httpClient.Timeout)
	conn, resp, err := websocket.Dial(dialCtx, endpoint, &websocket.DialOptions{HTTPHeader: header})
	cancelDial()
	if err != nil {
		if resp != nil && resp.StatusCode >= 300 {
			err = &APIError{Status: resp.StatusCode, Message: err.Error()}
		}
		return nil, Wrap("subscribe", collection, err)
	}
	conn.SetReadLimit(MaxMessageSize)

	feedCtx, cancel := context.WithCancel(ctx)
	f := &feed{conn: conn, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.feeds[f] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer close(f.done)
		defer func() {
			s.mu.Lock()
			delete(s.feeds, f)
			s.mu.Unlock()
		}()

		for {
			_, data, err := conn.Read(feedCtx)
			if err != nil {
				if feedCtx.Err() != nil {
					return
				}
				s.logger.Printf("Feed for %s closed: %v", collection, err)
				_ = conn.Close(websocket.StatusInternalError, "read failed")
				if onError != nil {
					onError(NewError("subscribe", collection, CodeUnavailable, err))
				}
				return
			}

			var snap Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				s.logger.Printf("Warning: skipping malformed snapshot for %s: %v", collection, err)
				continue
			}
			onSnapshot(snap.Docs)
		}
	}()

	return f.stop, nil
}

// Close stops every open feed.
func (s *HTTPStore) Close() error {
	s.mu.Lock()
	feeds := make([]*feed, 0, len(s.feeds))
	for f := range s.feeds {
		feeds = append(feeds, f)
	}
	s.mu.Unlock()

	for _, f := range feeds {
		f.stop()
		<-f.done
	}
	s.httpClient.CloseIdleConnections()
	return nil
}

// feed is one live subscription. stop does not wait for the reader to
// exit because it may be called from inside an onError callback.
type feed struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (f *feed) stop() {
	f.once.Do(func() {
		f.cancel()
		_ = f.conn.Close(websocket.StatusNormalClosure, "")
	})
}

func (s *HTTPStore) authorize(h http.Header) {
	if s.token != "" {
		h.Set("Authorization", "Bearer "+s.token)
	}
}

func (s *HTTPStore) doJSON(ctx context.Context, method, path string, reqBody any, respBody any) error {
	endpoint, err := s.buildURL(path, nil)
	if err != nil {
		return err
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	s.authorize(req.Header)

	return s.do(req, respBody)
}

func (s *HTTPStore) do(req *http.Request, respBody any) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload ErrorPayload
		if err := json.Unmarshal(respData, &payload); err == nil {
			apiErr.Code = payload.Error
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(respData))
		}
		return apiErr
	}

	if respBody == nil || len(respData) == 0 {
		return nil
	}
	if err := json.Unmarshal(respData, respBody); err != nil {
		return errors.Join(fmt.Errorf("failed to decode response"), err)
	}
	return nil
}

func (s *HTTPStore) buildURL(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	endpoint := base.ResolveReference(ref)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}

func collectionPath(collection string) string {
	return "/v1/collections/" + url.PathEscape(collection)
}

func docPath(collection, id string) string {
	return collectionPath(collection) + "/docs/" + url.PathEscape(id)
}
