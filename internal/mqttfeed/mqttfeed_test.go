package mqttfeed

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rjboer/jsonplot/internal/logging"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func deliver(f *Feed, topic, payload string) {
	f.onMessage(nil, fakeMessage{topic: topic, payload: []byte(payload)})
}

func TestTopicDiscoveryFirstSeenOrder(t *testing.T) {
	f := New(logging.NewRecorder())
	deliver(f, "sensors/distance", "1.0")
	deliver(f, "sensors/rssi", "-70")
	deliver(f, "sensors/distance", "2.0")

	want := []string{"sensors/distance", "sensors/rssi"}
	if got := f.Topics(); !reflect.DeepEqual(got, want) {
		t.Errorf("Topics() = %v, want %v", got, want)
	}
}

func TestPayloadsRetainedOnlyForSubscribedTopics(t *testing.T) {
	f := New(logging.NewRecorder())
	// Subscribe with no client marks intent but reports the missing broker
	if err := f.Subscribe("sensors/distance"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Subscribe = %v, want ErrNotConnected", err)
	}

	deliver(f, "sensors/distance", "1.5")
	deliver(f, "sensors/other", "9")
	deliver(f, "sensors/distance", "2.5")

	if got := f.Values("sensors/distance"); !reflect.DeepEqual(got, []float64{1.5, 2.5}) {
		t.Errorf("Values(distance) = %v", got)
	}
	if got := f.Values("sensors/other"); got != nil {
		t.Errorf("unsubscribed topic retained payloads: %v", got)
	}
	// discovery still saw both
	if got := f.Topics(); len(got) != 2 {
		t.Errorf("Topics() = %v, want both topics discovered", got)
	}
}

func TestValuesCastPolicy(t *testing.T) {
	rec := logging.NewRecorder()
	f := New(rec)
	f.Subscribe("t")

	deliver(f, "t", "3.5")
	deliver(f, "t", " 4 ")
	deliver(f, "t", "not a number")

	if got := f.Values("t"); !reflect.DeepEqual(got, []float64{3.5, 4}) {
		t.Errorf("Values(t) = %v", got)
	}
	if n := rec.Count(logging.Warn); n != 1 {
		t.Errorf("expected 1 cast diagnostic, got %d", n)
	}
	if got := f.RawValues("t"); !reflect.DeepEqual(got, []any{"3.5", " 4 ", "not a number"}) {
		t.Errorf("RawValues(t) = %v", got)
	}
}

func TestConnectRejectsUnauthorizedPort(t *testing.T) {
	f := New(logging.NewRecorder())
	if err := f.Connect("127.0.0.1", 1884); !errors.Is(err, ErrUnauthorizedPort) {
		t.Fatalf("Connect = %v, want ErrUnauthorizedPort", err)
	}
}

func TestScanRequiresConnection(t *testing.T) {
	f := New(logging.NewRecorder())
	if err := f.StartScan(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("StartScan = %v, want ErrNotConnected", err)
	}
	if err := f.StopScan(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("StopScan = %v, want ErrNotConnected", err)
	}
}

func TestClearKeepsDiscoveredTopics(t *testing.T) {
	f := New(logging.NewRecorder())
	f.Subscribe("t")
	deliver(f, "t", "1")
	f.Clear()

	if got := f.Values("t"); got != nil {
		t.Errorf("Values after Clear = %v", got)
	}
	if got := f.Topics(); !reflect.DeepEqual(got, []string{"t"}) {
		t.Errorf("Topics after Clear = %v", got)
	}
}
