// Package testutil provides shared test helpers, including an in-process
// Docker Hub API stub used by integration tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

type TagFixture struct {
	Name        string
	LastUpdated time.Time
}

// HubServer is an httptest-backed stand-in for the Docker Hub v2 API. It
// accepts any login, serves the seeded repositories and tags, and records
// tag deletions.
type HubServer struct {
	*httptest.Server

	namespace    string
	repositories map[string][]TagFixture
	failListing  map[string]bool

	mu      sync.Mutex
	deleted []string
}

func NewHubServer(namespace string, repositories map[string][]TagFixture) *HubServer {
	hub := &HubServer{
		namespace:    namespace,
		repositories: repositories,
		failListing:  map[string]bool{},
	}
	hub.Server = httptest.NewServer(http.HandlerFunc(hub.handle))
	return hub
}

// FailTagListing makes the tag listing for the given repository return 500.
func (h *HubServer) FailTagListing(repository string) {
	h.failListing[repository] = true
}

// Deleted returns "repository:tag" entries in deletion order.
func (h *HubServer) Deleted() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.deleted...)
}

func (h *HubServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/users/login" {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "stub-jwt"})
		return
	}
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	prefix := "/repositories/" + h.namespace + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if rest == "" {
		h.listRepositories(w)
		return
	}
	parts := strings.Split(rest, "/")
	repository := parts[0]
	tags, ok := h.repositories[repository]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch {
	case len(parts) == 2 && parts[1] == "tags":
		if h.failListing[repository] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		h.listTags(w, tags)
	case len(parts) == 3 && parts[1] == "tags" && r.Method == http.MethodDelete:
		h.mu.Lock()
		h.deleted = append(h.deleted, repository+":"+parts[2])
		h.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *HubServer) listRepositories(w http.ResponseWriter) {
	names := make([]map[string]string, 0, len(h.repositories))
	for name := range h.repositories {
		names = append(names, map[string]string{"name": name})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"next": nil, "results": names})
}

func (h *HubServer) listTags(w http.ResponseWriter, tags []TagFixture) {
	results := make([]map[string]string, 0, len(tags))
	for _, tag := range tags {
		results = append(results, map[string]string{
			"name":         tag.Name,
			"last_updated": tag.LastUpdated.Format(time.RFC3339Nano),
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"next": nil, "results": results})
}
