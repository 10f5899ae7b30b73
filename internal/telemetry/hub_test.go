package telemetry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rjboer/jsonplot/internal/filter"
	"github.com/rjboer/jsonplot/internal/logging"
)

func newTestHub() *Hub {
	return NewHub(filter.NewChain(), logging.NewRecorder())
}

func TestPublishAndLatest(t *testing.T) {
	hub := newTestHub()
	hub.Publish(SeriesUpdate{Topic: "distance", Values: []float64{1, 2, 3}})

	u, ok := hub.Latest("distance")
	if !ok {
		t.Fatal("expected a latest update for distance")
	}
	if !reflect.DeepEqual(u.Values, []float64{1, 2, 3}) {
		t.Errorf("Values = %v", u.Values)
	}
	if u.At.IsZero() {
		t.Error("Publish should stamp the update time")
	}

	if got := hub.Topics(); !reflect.DeepEqual(got, []string{"distance"}) {
		t.Errorf("Topics() = %v", got)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	hub := newTestHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish(SeriesUpdate{Topic: "rssi", Values: []float64{-70}})

	select {
	case u := <-ch:
		if u.Topic != "rssi" {
			t.Errorf("Topic = %q", u.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestHandleSeries(t *testing.T) {
	hub := newTestHub()
	hub.Publish(SeriesUpdate{Topic: "distance", Values: []float64{4.2}})

	rr := httptest.NewRecorder()
	hub.handleSeries(rr, httptest.NewRequest(http.MethodGet, "/api/series?topic=distance", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var u SeriesUpdate
	if err := json.NewDecoder(rr.Body).Decode(&u); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(u.Values, []float64{4.2}) {
		t.Errorf("Values = %v", u.Values)
	}

	rr = httptest.NewRecorder()
	hub.handleSeries(rr, httptest.NewRequest(http.MethodGet, "/api/series?topic=unknown", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown topic status = %d, want 404", rr.Code)
	}

	rr = httptest.NewRecorder()
	hub.handleSeries(rr, httptest.NewRequest(http.MethodGet, "/api/series", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing topic status = %d, want 400", rr.Code)
	}
}

func TestHandleFiltersListsKinds(t *testing.T) {
	hub := newTestHub()

	rr := httptest.NewRecorder()
	hub.handleFilters(rr, httptest.NewRequest(http.MethodGet, "/api/filters", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp struct {
		Kinds []string     `json:"kinds"`
		Chain []filterInfo `json:"chain"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(resp.Kinds, filter.Kinds()) {
		t.Errorf("kinds = %v", resp.Kinds)
	}
	if len(resp.Chain) != 0 {
		t.Errorf("chain = %v, want empty", resp.Chain)
	}
}

func TestHandleFiltersAddsToChain(t *testing.T) {
	hub := newTestHub()

	body := strings.NewReader(`{"kind": "MovingAverage", "params": {"width": 5}}`)
	rr := httptest.NewRecorder()
	hub.handleFilters(rr, httptest.NewRequest(http.MethodPost, "/api/filters", body))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}

	stages := hub.Chain().Filters()
	if len(stages) != 1 || stages[0].Name() != filter.KindMovingAverage {
		t.Fatalf("chain = %v", stages)
	}

	// the configured chain transforms data end to end
	out := hub.Chain().Apply([]float64{1, 2, 3, 4, 5, 6, 7})
	if len(out) != 2 {
		t.Errorf("Apply produced %d samples, want 2", len(out))
	}
}

func TestHandleFiltersRejectsUnknownKind(t *testing.T) {
	hub := newTestHub()

	body := strings.NewReader(`{"kind": "Butterworth"}`)
	rr := httptest.NewRecorder()
	hub.handleFilters(rr, httptest.NewRequest(http.MethodPost, "/api/filters", body))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHandleFilterRemove(t *testing.T) {
	hub := newTestHub()
	f, _ := filter.New(filter.KindMeanCentering)
	hub.Chain().Add(f)

	rr := httptest.NewRecorder()
	hub.handleFilterRemove(rr, httptest.NewRequest(http.MethodPost, "/api/filters/remove", strings.NewReader(`{"index": 0}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if hub.Chain().Len() != 0 {
		t.Error("filter not removed")
	}

	rr = httptest.NewRecorder()
	hub.handleFilterRemove(rr, httptest.NewRequest(http.MethodPost, "/api/filters/remove", strings.NewReader(`{"index": 3}`)))
	if rr.Code != http.StatusNotFound {
		t.Errorf("out-of-range status = %d, want 404", rr.Code)
	}
}

func TestHandleFilterSet(t *testing.T) {
	hub := newTestHub()
	f, _ := filter.New(filter.KindMovingMedian)
	hub.Chain().Add(f)

	rr := httptest.NewRecorder()
	hub.handleFilterSet(rr, httptest.NewRequest(http.MethodPost, "/api/filters/set", strings.NewReader(`{"index": 0, "name": "ratio", "value": 2.0}`)))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("out-of-range ratio status = %d, want 400", rr.Code)
	}

	rr = httptest.NewRecorder()
	hub.handleFilterSet(rr, httptest.NewRequest(http.MethodPost, "/api/filters/set", strings.NewReader(`{"index": 0, "name": "width", "value": 3}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}

	// undeclared names remain a silent no-op even over HTTP
	rr = httptest.NewRecorder()
	hub.handleFilterSet(rr, httptest.NewRequest(http.MethodPost, "/api/filters/set", strings.NewReader(`{"index": 0, "name": "wdith", "value": 9}`)))
	if rr.Code != http.StatusOK {
		t.Errorf("undeclared param status = %d, want 200", rr.Code)
	}
}
