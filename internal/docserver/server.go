// Package docserver is a small document server that plays the remote
// store for Remote-backed mode.
//
// It keeps collections of JSON documents in a docdb database, accepts
// create/merge/delete calls over HTTP and pushes the full collection to
// every WebSocket subscriber of that collection after each change. It also
// stores uploaded blobs (photos) on disk and serves them back.
package docserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/doree-nobuu/adventures/internal/docdb"
	"github.com/doree-nobuu/adventures/internal/remote"
)

// Config holds server configuration
type Config struct {
	// Port to listen on (default: 8787)
	Port int

	// DB holds the documents. Required.
	DB *docdb.DB

	// BlobDir stores uploaded blobs. Empty disables the blob endpoints.
	BlobDir string

	// Token, when set, must be presented as a bearer token.
	Token string

	// MaxBlobSize bounds a single upload (default: 32 MiB)
	MaxBlobSize int64

	// Logger for server activity (default: stderr logger)
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Port:        8787,
		MaxBlobSize: 32 << 20,
		Logger:      log.New(os.Stderr, "[docserver] ", log.LstdFlags),
	}
}

// Server serves documents and live snapshots.
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server
	db       *docdb.DB
	blobs    *blobStore
	token    string

	// Subscribers per collection
	clients   map[string]map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	// Collections with pending changes
	changes chan string

	handlerOnce sync.Once
	handler     http.Handler

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewServer creates a new document server
func NewServer(config *Config) (*Server, error) {
	if config == nil || config.DB == nil {
		return nil, fmt.Errorf("docserver requires a database")
	}
	defaults := DefaultConfig()
	if config.Port == 0 {
		config.Port = defaults.Port
	}
	if config.MaxBlobSize <= 0 {
		config.MaxBlobSize = defaults.MaxBlobSize
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	var blobs *blobStore
	if config.BlobDir != "" {
		b, err := newBlobStore(config.BlobDir, config.MaxBlobSize)
		if err != nil {
			return nil, err
		}
		blobs = b
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:    fmt.Sprintf(":%d", config.Port),
		db:      config.DB,
		blobs:   blobs,
		token:   config.Token,
		clients: make(map[string]map[*websocket.Conn]bool),
		changes: make(chan string, 100),
		ctx:     ctx,
		cancel:  cancel,
		logger:  config.Logger,
	}, nil
}

// Handler returns the HTTP handler and starts the broadcast loop on first use.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /health", s.handleHealth)
		mux.HandleFunc("GET /v1/collections/{collection}/docs", s.auth(s.handleList))
		mux.HandleFunc("PUT /v1/collections/{collection}/docs/{id}", s.auth(s.handlePut))
		mux.HandleFunc("PATCH /v1/collections/{collection}/docs/{id}", s.auth(s.handleMerge))
		mux.HandleFunc("DELETE /v1/collections/{collection}/docs/{id}", s.auth(s.handleDelete))
		mux.HandleFunc("GET /v1/collections/{collection}/subscribe", s.auth(s.handleSubscribe))
		mux.HandleFunc("POST /v1/blobs", s.auth(s.handleUpload))
		mux.HandleFunc("GET /v1/blobs/{name}", s.handleBlob)
		s.handler = mux

		s.wg.Add(1)
		go s.broadcastLoop()
	})
	return s.handler
}

// Start begins serving on the configured port
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Document server listening on %s", s.addr)
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.logger.Println("Stopping document server")
	s.cancel()

	s.clientsMu.Lock()
	for collection, conns := range s.clients {
		for conn := range conns {
			_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		}
		delete(s.clients, collection)
	}
	s.clientsMu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	s.wg.Wait()
	s.logger.Println("Document server stopped")
	return nil
}

// GetAddr returns the server's listening address
func (s *Server) GetAddr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the number of live subscriptions across collections
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	n := 0
	for _, conns := range s.clients {
		n += len(conns)
	}
	return n
}

// notify queues a snapshot push for collection
func (s *Server) notify(collection string) {
	select {
	case s.changes <- collection:
	case <-s.ctx.Done():
	default:
		s.logger.Printf("Warning: change queue full, dropping notification for %s", collection)
	}
}

// broadcastLoop pushes fresh snapshots to subscribers of changed collections
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case collection := <-s.changes:
			s.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(s.clients[collection]))
			for conn := range s.clients[collection] {
				conns = append(conns, conn)
			}
			s.clientsMu.RUnlock()
			if len(conns) == 0 {
				continue
			}

			data, err := s.snapshot(s.ctx, collection)
			if err != nil {
				s.logger.Printf("Failed to build snapshot for %s: %v", collection, err)
				continue
			}
			for _, conn := range conns {
				if err := s.send(conn, data); err != nil {
					s.logger.Printf("Failed to send to client: %v", err)
					s.removeClient(collection, conn)
				}
			}
		}
	}
}

func (s *Server) snapshot(ctx context.Context, collection string) ([]byte, error) {
	docs, err := s.db.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	version, err := s.db.Version(ctx, collection)
	if err != nil {
		return nil, err
	}
	return json.Marshal(remote.Snapshot{Collection: collection, Version: version, Docs: docs})
}

func (s *Server) send(conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

// handleSubscribe upgrades to a WebSocket and streams snapshots
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	if s.clients[collection] == nil {
		s.clients[collection] = make(map[*websocket.Conn]bool)
	}
	s.clients[collection][conn] = true
	s.clientsMu.Unlock()

	s.logger.Printf("Subscriber connected to %s", collection)

	data, err := s.snapshot(r.Context(), collection)
	if err != nil {
		s.logger.Printf("Failed to build snapshot for %s: %v", collection, err)
		s.removeClient(collection, conn)
		return
	}
	if err := s.send(conn, data); err != nil {
		s.removeClient(collection, conn)
		return
	}

	go s.readLoop(collection, conn)
}

// readLoop keeps the connection alive until the client goes away
func (s *Server) readLoop(collection string, conn *websocket.Conn) {
	defer s.removeClient(collection, conn)
	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(collection string, conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, ok := s.clients[collection][conn]; ok {
		delete(s.clients[collection], conn)
		s.clientsMu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Printf("Subscriber disconnected from %s", collection)
		return
	}
	s.clientsMu.Unlock()
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	docs, err := s.db.List(r.Context(), collection)
	if err != nil {
		s.writeError(w, remote.CodeUnavailable, err)
		return
	}
	version, err := s.db.Version(r.Context(), collection)
	if err != nil {
		s.writeError(w, remote.CodeUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, remote.Snapshot{Collection: collection, Version: version, Docs: docs})
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	collection, id := r.PathValue("collection"), r.PathValue("id")
	doc, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	if err := s.db.Put(r.Context(), collection, id, doc); err != nil {
		s.writeError(w, remote.CodeUnavailable, err)
		return
	}
	s.notify(collection)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	collection, id := r.PathValue("collection"), r.PathValue("id")
	partial, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	if err := s.db.Merge(r.Context(), collection, id, partial); err != nil {
		if errors.Is(err, docdb.ErrNotFound) {
			s.writeError(w, remote.CodeNotFound, err)
			return
		}
		s.writeError(w, remote.CodeUnavailable, err)
		return
	}
	s.notify(collection)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	collection, id := r.PathValue("collection"), r.PathValue("id")
	if err := s.db.Delete(r.Context(), collection, id); err != nil {
		s.writeError(w, remote.CodeUnavailable, err)
		return
	}
	s.notify(collection)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, bool) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, remote.MaxMessageSize)).Decode(&doc); err != nil {
		s.writeError(w, remote.CodeFailedPrecondition, fmt.Errorf("invalid document: %w", err))
		return nil, false
	}
	if doc == nil {
		s.writeError(w, remote.CodeFailedPrecondition, fmt.Errorf("document must be a JSON object"))
		return nil, false
	}
	return doc, true
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.writeError(w, remote.CodeUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.ClientCount(),
		"blobs":   s.blobs != nil,
	})
}

// auth rejects requests without the configured bearer token
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	want := []byte("Bearer " + s.token)
	return func(w http.ResponseWriter, r *http.Request) {
		got := []byte(strings.TrimSpace(r.Header.Get("Authorization")))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			s.writeError(w, remote.CodePermissionDenied, fmt.Errorf("missing or invalid token"))
			return
		}
		next(w, r)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code remote.Code, err error) {
	if code != remote.CodeNotFound && code != remote.CodePermissionDenied {
		s.logger.Printf("Request failed (%s): %v", code, err)
	}
	writeJSON(w, remote.CodeStatus(code), remote.ErrorPayload{Error: string(code), Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
