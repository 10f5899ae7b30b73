// Package telemetry fans filtered series out to whatever renders them. The
// hub holds the latest filtered snapshot per topic and exposes the HTTP
// surface a plotting front end consumes; rendering itself lives elsewhere.
package telemetry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rjboer/jsonplot/internal/filter"
	"github.com/rjboer/jsonplot/internal/logging"
)

// SeriesUpdate is one filtered series snapshot for a topic.
type SeriesUpdate struct {
	Topic  string    `json:"topic"`
	Values []float64 `json:"values"`
	At     time.Time `json:"at"`
}

// Hub stores the latest update per topic and fans updates out to
// subscribers. It also fronts the filter chain for the editing endpoints.
type Hub struct {
	mu          sync.RWMutex
	latest      map[string]SeriesUpdate
	order       []string
	subscribers map[chan SeriesUpdate]struct{}
	chain       *filter.Chain
	logger      logging.Logger
}

// NewHub builds a hub around the given chain.
func NewHub(chain *filter.Chain, logger logging.Logger) *Hub {
	if chain == nil {
		chain = filter.NewChain()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		latest:      make(map[string]SeriesUpdate),
		subscribers: make(map[chan SeriesUpdate]struct{}),
		chain:       chain,
		logger:      logger,
	}
}

// Chain returns the chain the hub edits and the runner applies.
func (h *Hub) Chain() *filter.Chain { return h.chain }

// Publish records the latest series for a topic and notifies subscribers.
// Slow subscribers miss updates rather than blocking the publisher.
func (h *Hub) Publish(u SeriesUpdate) {
	if u.At.IsZero() {
		u.At = time.Now()
	}

	h.mu.Lock()
	if _, ok := h.latest[u.Topic]; !ok {
		h.order = append(h.order, u.Topic)
	}
	h.latest[u.Topic] = u
	for ch := range h.subscribers {
		select {
		case ch <- u:
		default:
		}
	}
	h.mu.Unlock()
}

// Latest returns the most recent update for the topic.
func (h *Hub) Latest(topic string) (SeriesUpdate, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	u, ok := h.latest[topic]
	return u, ok
}

// Topics returns the topics with at least one published update, in
// first-published order.
func (h *Hub) Topics() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Subscribe registers a listener for live updates.
func (h *Hub) Subscribe() (chan SeriesUpdate, func()) {
	ch := make(chan SeriesUpdate, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		delete(h.subscribers, ch)
		close(ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) handleTopics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.Topics())
}

func (h *Hub) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		http.Error(w, "missing topic parameter", http.StatusBadRequest)
		return
	}
	u, ok := h.Latest(topic)
	if !ok {
		http.Error(w, fmt.Sprintf("no series published for topic %q", topic), http.StatusNotFound)
		return
	}
	writeJSON(w, u)
}

// filterInfo describes one chain stage for the editing surface.
type filterInfo struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params"`
}

func describeChain(c *filter.Chain) []filterInfo {
	stages := c.Filters()
	out := make([]filterInfo, len(stages))
	for i, f := range stages {
		params := make(map[string]string, len(f.Params()))
		for name, typ := range f.Params() {
			params[name] = typ.String()
		}
		out[i] = filterInfo{Kind: f.Name(), Params: params}
	}
	return out
}

func (h *Hub) handleFilters(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]any{
			"kinds": filter.Kinds(),
			"chain": describeChain(h.chain),
		})
	case http.MethodPost:
		var req struct {
			Kind   string         `json:"kind"`
			Params map[string]any `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
			return
		}
		f, err := filter.New(req.Kind)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for name, value := range req.Params {
			if err := f.Set(name, value); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		h.chain.Add(f)
		h.logger.Info("filter added", logging.Field{Key: "kind", Value: req.Kind})
		writeJSON(w, describeChain(h.chain))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Hub) handleFilterRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	if !h.chain.RemoveAt(req.Index) {
		http.Error(w, "no filter at index "+strconv.Itoa(req.Index), http.StatusNotFound)
		return
	}
	writeJSON(w, describeChain(h.chain))
}

func (h *Hub) handleFilterSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Index int    `json:"index"`
		Name  string `json:"name"`
		Value any    `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	ok, err := h.chain.SetAt(req.Index, req.Name, req.Value)
	if !ok {
		http.Error(w, "no filter at index "+strconv.Itoa(req.Index), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, describeChain(h.chain))
}

func (h *Hub) handleLive(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := h.Subscribe()
	defer cancel()

	// replay latest snapshots for immediate display
	for _, topic := range h.Topics() {
		if u, ok := h.Latest(topic); ok {
			writeEvent(w, u)
		}
	}
	flusher.Flush()

	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, u)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, u SeriesUpdate) {
	payload, _ := json.Marshal(u)
	w.Write([]byte("data: "))
	w.Write(payload)
	w.Write([]byte("\n\n"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
