package remote

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ticlog/internal/models"
)

var testKey = base64.StdEncoding.EncodeToString([]byte("test key material"))

// isQuery reports whether a request is a document query (as opposed to
// an upsert, which shares the POST .../docs path).
func isQuery(r *http.Request) bool {
	return r.Header.Get("Content-Type") == "application/query+json"
}

// newTestClient spins up a fake document store endpoint and returns an
// initialized client pointed at it. The handler sees every request
// except it must let the probe query succeed for Initialize to pass.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New()
	ok := c.Initialize(Config{
		Endpoint:  srv.URL,
		Key:       testKey,
		Database:  "ticlog",
		Container: "events",
	})
	if !ok {
		t.Fatal("Initialize failed against test server")
	}
	return c
}

func emptyQueryOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"Documents":[]}`))
}

func testEvent() models.Event {
	return models.Event{
		ID:         "ev-1",
		EventType:  models.TypeTic,
		StartedAt:  time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC),
		CreatedAt:  time.Date(2026, 8, 25, 14, 0, 5, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 8, 25, 14, 0, 5, 0, time.UTC),
		SyncStatus: models.SyncPending,
	}
}

func TestInitializeIncompleteConfig(t *testing.T) {
	c := New()
	if c.Initialize(Config{Endpoint: "https://x", Key: testKey}) {
		t.Error("Initialize accepted incomplete config")
	}
	if c.IsInitialized() {
		t.Error("client reports initialized after rejected config")
	}
}

func TestInitializeBadKey(t *testing.T) {
	c := New()
	ok := c.Initialize(Config{Endpoint: "https://x", Key: "!!!", Database: "d", Container: "c"})
	if ok {
		t.Error("Initialize accepted invalid base64 key")
	}
}

func TestInitializeProbeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New()
	ok := c.Initialize(Config{Endpoint: srv.URL, Key: testKey, Database: "d", Container: "c"})
	if ok {
		t.Error("Initialize succeeded despite failing probe")
	}
	if c.IsInitialized() {
		t.Error("client reports initialized after failed probe")
	}
}

func TestUploadSuccess(t *testing.T) {
	var sawUpsert bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if isQuery(r) {
			emptyQueryOK(w)
			return
		}
		sawUpsert = true

		if got := r.Header.Get("x-ms-documentdb-is-upsert"); got != "true" {
			t.Errorf("upsert header = %q, want true", got)
		}
		if got := r.Header.Get("x-ms-documentdb-partitionkey"); got != `["tic"]` {
			t.Errorf("partition key header = %q", got)
		}
		if got := r.Header.Get("x-ms-version"); got != apiVersion {
			t.Errorf("version header = %q", got)
		}
		if r.Header.Get("x-ms-date") == "" || r.Header.Get("Authorization") == "" {
			t.Error("missing date or authorization header")
		}
		if !strings.HasSuffix(r.URL.Path, "/dbs/ticlog/colls/events/docs") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var doc models.Event
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			t.Errorf("body is not an event document: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	ok, err := c.Upload(testEvent())
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !ok {
		t.Error("Upload returned false on 201")
	}
	if !sawUpsert {
		t.Error("server never saw the upsert request")
	}
}

func TestUploadErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
		wantOK   bool
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized, false},
		{"forbidden", http.StatusForbidden, ErrForbidden, false},
		{"missing container", http.StatusNotFound, ErrNotFound, false},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited, false},
		{"server error is silent false", http.StatusInternalServerError, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if isQuery(r) {
					emptyQueryOK(w)
					return
				}
				w.WriteHeader(tt.status)
			})

			ok, err := c.Upload(testEvent())
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("err = %v, want %v", err, tt.sentinel)
			}
			if tt.sentinel == nil && err != nil {
				t.Errorf("err = %v, want nil", err)
			}
		})
	}
}

func TestUploadUninitialized(t *testing.T) {
	c := New()
	_, err := c.Upload(testEvent())
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestFetchAll(t *testing.T) {
	probed := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !probed {
			probed = true
			emptyQueryOK(w)
			return
		}

		if !isQuery(r) {
			t.Error("FetchAll request is not a query")
		}
		if r.Header.Get("x-ms-documentdb-query-enablecrosspartition") != "true" {
			t.Error("cross-partition header missing")
		}

		var q struct {
			Query string `json:"query"`
		}
		json.NewDecoder(r.Body).Decode(&q)
		if !strings.Contains(q.Query, "ORDER BY c.started_at DESC") {
			t.Errorf("query missing sort: %q", q.Query)
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"Documents": []models.Event{testEvent()},
		})
	})

	events, err := c.FetchAll()
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(events) != 1 || events[0].ID != "ev-1" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestFetchAllUninitialized(t *testing.T) {
	c := New()
	events, err := c.FetchAll()
	if err != nil || events != nil {
		t.Errorf("uninitialized FetchAll = (%v, %v), want (nil, nil)", events, err)
	}
}

func TestFetchByTypeParameterized(t *testing.T) {
	probed := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !probed {
			probed = true
			emptyQueryOK(w)
			return
		}

		var q struct {
			Query  string `json:"query"`
			Params []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"parameters"`
		}
		json.NewDecoder(r.Body).Decode(&q)
		if len(q.Params) != 1 || q.Params[0].Name != "@type" || q.Params[0].Value != "emotional" {
			t.Errorf("unexpected parameters: %+v", q.Params)
		}
		emptyQueryOK(w)
	})

	if _, err := c.FetchByType(models.TypeEmotional); err != nil {
		t.Fatalf("FetchByType failed: %v", err)
	}
}

func TestDelete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if isQuery(r) {
			emptyQueryOK(w)
			return
		}
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/docs/ev-1") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-ms-documentdb-partitionkey"); got != `["tic"]` {
			t.Errorf("partition key header = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	ok, err := c.Delete("ev-1", models.TypeTic)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !ok {
		t.Error("Delete returned false on 204")
	}
}

func TestDeleteNotFoundIsSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if isQuery(r) {
			emptyQueryOK(w)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	ok, err := c.Delete("gone", models.TypeTic)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !ok {
		t.Error("Delete of absent document should count as success")
	}
}

func TestDeleteUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if isQuery(r) {
			emptyQueryOK(w)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Delete("ev-1", models.TypeTic)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestDateHeaderMatchesSignature(t *testing.T) {
	// The probe request carries both headers; recompute the signature
	// from the date header and compare.
	var checked bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		date := r.Header.Get("x-ms-date")
		key, _ := decodeKey(testKey)
		want := authHeader(key, r.Method, "docs", "dbs/ticlog/colls/events", date)
		if got := r.Header.Get("Authorization"); got != want {
			t.Errorf("authorization does not match date header: got %q want %q", got, want)
		}
		checked = true
		emptyQueryOK(w)
	}))
	defer srv.Close()

	c := New()
	if !c.Initialize(Config{Endpoint: srv.URL, Key: testKey, Database: "ticlog", Container: "events"}) {
		t.Fatal("Initialize failed")
	}
	if !checked {
		t.Fatal("probe never reached the server")
	}
}
