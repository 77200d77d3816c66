// Package remote is the gateway to the cloud document store: a
// partitioned collection of event documents keyed by id, with the
// event type as partition key. Cloud sync is an optional capability:
// initialization failures surface as a boolean, never a panic, so the
// application runs fully offline when no remote is configured.
package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ticlog/internal/models"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrNotInitialized = errors.New("remote client not initialized")
)

const apiVersion = "2018-12-31"

// Config holds the connection parameters for the remote document store.
// A partially populated config is treated the same as no config at all.
type Config struct {
	Endpoint  string `json:"endpoint"`
	Key       string `json:"key"`
	Database  string `json:"database"`
	Container string `json:"container"`
}

// Complete reports whether every field is populated.
func (c Config) Complete() bool {
	return c.Endpoint != "" && c.Key != "" && c.Database != "" && c.Container != ""
}

// Client performs authenticated CRUD against the remote collection.
type Client struct {
	cfg         Config
	key         []byte
	httpClient  *http.Client
	initialized bool
}

// New creates an unconfigured client. Call Initialize before use.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Initialize validates the configuration, decodes the key material, and
// probes connectivity with a bounded top-1 query. It returns false on
// any failure, never an error, leaving the client uninitialized.
func (c *Client) Initialize(cfg Config) bool {
	c.initialized = false

	if !cfg.Complete() {
		slog.Debug("remote: incomplete configuration, staying offline")
		return false
	}

	key, err := decodeKey(cfg.Key)
	if err != nil {
		slog.Warn("remote: invalid credential", "err", err)
		return false
	}

	c.cfg = cfg
	c.key = key

	if !c.TestConnection() {
		slog.Warn("remote: connectivity probe failed", "endpoint", cfg.Endpoint)
		return false
	}

	c.initialized = true
	return true
}

// IsInitialized reports whether the client is ready for remote calls.
func (c *Client) IsInitialized() bool {
	return c.initialized
}

// collLink is the resource id of the event collection.
func (c *Client) collLink() string {
	return fmt.Sprintf("dbs/%s/colls/%s", c.cfg.Database, c.cfg.Container)
}

// newSignedRequest builds a request whose x-ms-date header carries the
// exact date value used in the signature.
func (c *Client) newSignedRequest(verb, urlPath, resourceType, resourceID string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(verb, c.cfg.Endpoint+"/"+urlPath, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	date := time.Now().UTC().Format(http.TimeFormat)
	req.Header.Set("x-ms-date", date)
	req.Header.Set("x-ms-version", apiVersion)
	req.Header.Set("Authorization", authHeader(c.key, verb, resourceType, resourceID, date))
	return req, nil
}

// partitionKeyHeader renders the partition key as the JSON array the
// service expects.
func partitionKeyHeader(eventType models.EventType) string {
	b, _ := json.Marshal([]string{string(eventType)})
	return string(b)
}

// Upload upserts an event document into the collection. The partition
// key is the event's type. Returns true only on confirmed acceptance;
// auth, missing-resource and rate-limit responses surface as sentinel
// errors, any other non-success returns false.
func (c *Client) Upload(ev models.Event) (bool, error) {
	if !c.initialized {
		return false, ErrNotInitialized
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return false, fmt.Errorf("marshal event: %w", err)
	}

	req, err := c.newSignedRequest("POST", c.collLink()+"/docs", "docs", c.collLink(), bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-ms-documentdb-is-upsert", "true")
	req.Header.Set("x-ms-documentdb-partitionkey", partitionKeyHeader(ev.EventType))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("upload %s: %w", ev.ID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return true, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return false, fmt.Errorf("upload %s: %w", ev.ID, ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		return false, fmt.Errorf("upload %s: %w", ev.ID, ErrForbidden)
	case resp.StatusCode == http.StatusNotFound:
		return false, fmt.Errorf("upload %s: database or container missing: %w", ev.ID, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return false, fmt.Errorf("upload %s: %w", ev.ID, ErrRateLimited)
	default:
		slog.Debug("remote: upload rejected", "id", ev.ID, "status", resp.StatusCode)
		return false, nil
	}
}

// queryParam is a single bound parameter in a document query.
type queryParam struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// queryRequest is the query API request body. Queries are always
// parameterized, never string-concatenated.
type queryRequest struct {
	Query  string       `json:"query"`
	Params []queryParam `json:"parameters,omitempty"`
}

// queryResponse is the query API response envelope.
type queryResponse struct {
	Documents []models.Event `json:"Documents"`
}

// query executes a document query against the collection.
func (c *Client) query(q queryRequest, crossPartition bool) ([]models.Event, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := c.newSignedRequest("POST", c.collLink()+"/docs", "docs", c.collLink(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/query+json")
	req.Header.Set("x-ms-documentdb-isquery", "true")
	if crossPartition {
		req.Header.Set("x-ms-documentdb-query-enablecrosspartition", "true")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read query response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("query: %w", ErrUnauthorized)
	case http.StatusForbidden:
		return nil, fmt.Errorf("query: %w", ErrForbidden)
	case http.StatusNotFound:
		return nil, fmt.Errorf("query: database or container missing: %w", ErrNotFound)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("query: %w", ErrRateLimited)
	default:
		return nil, fmt.Errorf("query: HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var qr queryResponse
	if err := json.Unmarshal(respBody, &qr); err != nil {
		return nil, fmt.Errorf("unmarshal query response: %w", err)
	}
	return qr.Documents, nil
}

// FetchAll returns every remote event, server-sorted by started_at
// descending. An uninitialized client yields an empty list, not an error.
func (c *Client) FetchAll() ([]models.Event, error) {
	if !c.initialized {
		return nil, nil
	}
	return c.query(queryRequest{
		Query: "SELECT * FROM c ORDER BY c.started_at DESC",
	}, true)
}

// FetchByType returns remote events of one type, filtered server-side.
func (c *Client) FetchByType(eventType models.EventType) ([]models.Event, error) {
	if !c.initialized {
		return nil, nil
	}
	return c.query(queryRequest{
		Query: "SELECT * FROM c WHERE c.event_type = @type ORDER BY c.started_at DESC",
		Params: []queryParam{
			{Name: "@type", Value: string(eventType)},
		},
	}, false)
}

// Delete removes an event document. Deletes need both the id and the
// partition key. A remote "not found" counts as success; the document
// being absent is the desired end state.
func (c *Client) Delete(id string, eventType models.EventType) (bool, error) {
	if !c.initialized {
		return false, ErrNotInitialized
	}

	docLink := c.collLink() + "/docs/" + id
	req, err := c.newSignedRequest("DELETE", docLink, "docs", docLink, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("x-ms-documentdb-partitionkey", partitionKeyHeader(eventType))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		return true, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return false, fmt.Errorf("delete %s: %w", id, ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		return false, fmt.Errorf("delete %s: %w", id, ErrForbidden)
	default:
		slog.Debug("remote: delete rejected", "id", id, "status", resp.StatusCode)
		return false, nil
	}
}

// TestConnection issues a minimal bounded query. Any failure, transport
// or otherwise, converts to false.
func (c *Client) TestConnection() bool {
	if len(c.key) == 0 || !c.cfg.Complete() {
		return false
	}
	_, err := c.query(queryRequest{
		Query: "SELECT TOP 1 c.id FROM c",
	}, true)
	if err != nil {
		slog.Debug("remote: probe failed", "err", err)
		return false
	}
	return true
}
