package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"faceless/internal/logging"
	"faceless/internal/services"
	"faceless/internal/workflowgraph"
)

const (
	defaultPingTimeout    = 2500 * time.Millisecond
	defaultRequestTimeout = 30 * time.Second
	defaultPollInterval   = 500 * time.Millisecond
	defaultWaitTimeout    = 180 * time.Second
	defaultBusyExtension  = 120 * time.Second
)

// HTTPDoer describes the HTTP client used by the ComfyUI service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ImageRef locates one generated image on the ComfyUI server.
type ImageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// Client talks to one ComfyUI instance. Every client carries a stable
// random client id so the server can attribute queued prompts to it.
type Client struct {
	baseURL       string
	clientID      string
	httpClient    HTTPDoer
	logger        *slog.Logger
	pollInterval  time.Duration
	waitTimeout   time.Duration
	busyExtension time.Duration
}

// Option customizes the ComfyUI client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimings overrides the history polling cadence. Zero values keep the
// corresponding default.
func WithTimings(pollInterval, waitTimeout, busyExtension time.Duration) Option {
	return func(c *Client) {
		if pollInterval > 0 {
			c.pollInterval = pollInterval
		}
		if waitTimeout > 0 {
			c.waitTimeout = waitTimeout
		}
		if busyExtension > 0 {
			c.busyExtension = busyExtension
		}
	}
}

// NewClient constructs a ComfyUI API client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	client := &Client{
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		clientID:      uuid.NewString(),
		httpClient:    &http.Client{Timeout: defaultRequestTimeout},
		logger:        logger.With(logging.String(logging.FieldComponent, "comfy")),
		pollInterval:  defaultPollInterval,
		waitTimeout:   defaultWaitTimeout,
		busyExtension: defaultBusyExtension,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Ping verifies the server is reachable. It uses a short deadline so a
// down server fails the preflight quickly instead of stalling a turn.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if _, err := c.get(ctx, "/system_stats", nil); err != nil {
		return services.Wrap(services.ErrConnectivity, "comfy", "ping", "image backend unreachable", err)
	}
	return nil
}

// Loras lists the LoRA files the server can load. Catalog lookups are
// advisory: on any failure the list is empty and the UI keeps working.
func (c *Client) Loras(ctx context.Context) []string {
	return c.objectInfoChoices(ctx, "LoraLoader", "lora_name")
}

// Checkpoints lists the checkpoint files the server can load.
func (c *Client) Checkpoints(ctx context.Context) []string {
	return c.objectInfoChoices(ctx, "CheckpointLoaderSimple", "ckpt_name")
}

func (c *Client) objectInfoChoices(ctx context.Context, class, field string) []string {
	body, err := c.get(ctx, "/object_info/"+class, nil)
	if err != nil {
		c.logger.Warn("catalog lookup failed", logging.String("class", class), logging.Error(err))
		return []string{}
	}

	// Response shape: {class: {"input": {"required": {field: [choices, ...]}}}}.
	var payload map[string]struct {
		Input struct {
			Required map[string][]json.RawMessage `json:"required"`
		} `json:"input"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Warn("catalog response malformed", logging.String("class", class), logging.Error(err))
		return []string{}
	}
	spec, ok := payload[class].Input.Required[field]
	if !ok || len(spec) == 0 {
		return []string{}
	}
	var choices []string
	if err := json.Unmarshal(spec[0], &choices); err != nil {
		c.logger.Warn("catalog choices malformed", logging.String("class", class), logging.Error(err))
		return []string{}
	}
	sort.Strings(choices)
	return choices
}

// SubmitPrompt queues a patched graph for execution and returns the
// server-assigned prompt id.
func (c *Client) SubmitPrompt(ctx context.Context, graph workflowgraph.Graph) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"prompt":    graph,
		"client_id": c.clientID,
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "comfy", "submit", "encode prompt payload", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prompt", bytes.NewReader(payload))
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "comfy", "submit", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "comfy", "submit", "queue prompt", err)
	}

	var decoded struct {
		PromptID string `json:"prompt_id"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrExternalService, "comfy", "submit", "decode queue response", err)
	}
	if decoded.PromptID == "" {
		return "", services.Wrap(services.ErrExternalService, "comfy", "submit", "server returned no prompt id", nil)
	}
	return decoded.PromptID, nil
}

// HistoryEntry is the per-prompt execution record ComfyUI publishes once
// a graph finishes.
type HistoryEntry struct {
	Outputs map[string]struct {
		Images []ImageRef `json:"images"`
	} `json:"outputs"`
}

// WaitForHistory polls until the prompt appears in the server history.
// When the base deadline passes while the prompt is still visible in the
// server queue, the deadline is extended exactly once: long sampler runs
// are normal, a vanished prompt is not.
func (c *Client) WaitForHistory(ctx context.Context, promptID string) (*HistoryEntry, error) {
	deadline := time.Now().Add(c.waitTimeout)
	extended := false
	for {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrExternalService, "comfy", "wait", "wait canceled", err)
		}

		entry, ok, err := c.fetchHistory(ctx, promptID)
		if err != nil {
			c.logger.Warn("history poll failed", logging.String(logging.FieldPromptID, promptID), logging.Error(err))
		} else if ok {
			return entry, nil
		}

		if time.Now().After(deadline) {
			if !extended && c.promptQueued(ctx, promptID) {
				extended = true
				deadline = deadline.Add(c.busyExtension)
				c.logger.Warn("generation still queued past deadline, extending wait",
					logging.String(logging.FieldPromptID, promptID),
					logging.Duration("extension", c.busyExtension))
				continue
			}
			return nil, services.Wrap(services.ErrTimeout, "comfy", "wait",
				"generation timed out; check the ComfyUI console for OOM or VRAM errors", nil)
		}

		select {
		case <-ctx.Done():
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) fetchHistory(ctx context.Context, promptID string) (*HistoryEntry, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()
	body, err := c.get(ctx, "/history/"+promptID, nil)
	if err != nil {
		return nil, false, err
	}
	var decoded map[string]*HistoryEntry
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, false, fmt.Errorf("decode history response: %w", err)
	}
	entry, ok := decoded[promptID]
	if !ok || entry == nil {
		return nil, false, nil
	}
	return entry, true, nil
}

// promptQueued reports whether the prompt is still running or pending on
// the server. Any lookup failure counts as not queued.
// queueState mirrors the /queue response. Older servers expose
// running/pending, newer ones queue_running and queue_pending. Entries
// are tuples whose second element is the prompt id.
type queueState struct {
	QueueRunning [][]any `json:"queue_running"`
	QueuePending [][]any `json:"queue_pending"`
	Running      [][]any `json:"running"`
	Pending      [][]any `json:"pending"`
}

func (q *queueState) buckets() [][][]any {
	return [][][]any{q.QueueRunning, q.QueuePending, q.Running, q.Pending}
}

func (q *queueState) contains(promptID string) bool {
	for _, bucket := range q.buckets() {
		for _, item := range bucket {
			if len(item) >= 2 {
				if id, ok := item[1].(string); ok && id == promptID {
					return true
				}
			}
		}
	}
	return false
}

func (q *queueState) occupied() bool {
	for _, bucket := range q.buckets() {
		if len(bucket) > 0 {
			return true
		}
	}
	return false
}

func (c *Client) fetchQueue(ctx context.Context) (*queueState, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()
	body, err := c.get(ctx, "/queue", nil)
	if err != nil {
		return nil, err
	}
	var decoded queueState
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, err
	}
	return &decoded, nil
}

// QueueBusy reports whether the server has any running or pending
// prompts. Lookup failures read as idle so a flaky queue endpoint never
// reroutes providers on its own.
func (c *Client) QueueBusy(ctx context.Context) bool {
	queue, err := c.fetchQueue(ctx)
	if err != nil {
		c.logger.Warn("queue lookup failed", logging.Error(err))
		return false
	}
	return queue.occupied()
}

func (c *Client) promptQueued(ctx context.Context, promptID string) bool {
	queue, err := c.fetchQueue(ctx)
	if err != nil {
		c.logger.Warn("queue lookup failed", logging.Error(err))
		return false
	}
	return queue.contains(promptID)
}

// ExtractFirstImage returns the first image reference in the history
// entry. Output node iteration order is irrelevant for this workflow
// shape: the templates produce exactly one save node.
func (c *Client) ExtractFirstImage(entry *HistoryEntry) (ImageRef, error) {
	if entry != nil {
		for _, output := range entry.Outputs {
			if len(output.Images) == 0 {
				continue
			}
			ref := output.Images[0]
			if ref.Type == "" {
				ref.Type = "output"
			}
			return ref, nil
		}
	}
	return ImageRef{}, services.Wrap(services.ErrExternalService, "comfy", "extract", "history entry contains no images", nil)
}

// Download fetches the image bytes for a reference via the view endpoint.
func (c *Client) Download(ctx context.Context, ref ImageRef) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()
	query := url.Values{}
	query.Set("filename", ref.Filename)
	query.Set("subfolder", ref.Subfolder)
	query.Set("type", ref.Type)
	body, err := c.get(ctx, "/view", query)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "comfy", "download", "fetch image", err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s %s returned %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return body, nil
}
