// Package serialfeed reads newline-delimited JSON telemetry from serial
// ports into per-port sample stores.
package serialfeed

import (
	"bufio"
	"context"
	"errors"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/cenkalti/backoff"
	"go.bug.st/serial"

	"github.com/rjboer/jsonplot/internal/logging"
	"github.com/rjboer/jsonplot/internal/samplestore"
	"github.com/rjboer/jsonplot/internal/source"
)

// DefaultBaudRate matches the firmware shipping telemetry frames.
const DefaultBaudRate = 115200

// Feed errors.
var (
	// ErrAlreadyConnected indicates a reader is already running for the port.
	ErrAlreadyConnected = errors.New("port is already connected")

	// ErrNotConnected indicates no reader is running for the port.
	ErrNotConnected = errors.New("port is not connected")
)

// listPorts is a seam for tests.
var listPorts = serial.GetPortsList

// portPrefix returns the device-name prefix considered a telemetry port on
// this platform.
func portPrefix() string {
	if runtime.GOOS == "windows" {
		return "COM"
	}
	return "/dev/ttyACM"
}

// ScanPorts enumerates serial devices matching the platform prefix.
func ScanPorts() ([]string, error) {
	all, err := listPorts()
	if err != nil {
		return nil, err
	}
	var ports []string
	for _, p := range all {
		if strings.HasPrefix(p, portPrefix()) {
			ports = append(ports, p)
		}
	}
	return ports, nil
}

// openFunc opens a port at the given baud rate. Tests substitute pipes.
type openFunc func(port string, baud int) (io.ReadCloser, error)

func openSerial(port string, baud int) (io.ReadCloser, error) {
	return serial.Open(port, &serial.Mode{BaudRate: baud})
}

type conn struct {
	cancel context.CancelFunc
	done   chan struct{}
	store  *samplestore.Store
}

// Manager owns one background reader goroutine per connected port. Each
// port accumulates records in its own store, readable while the reader
// appends.
type Manager struct {
	mu     sync.Mutex
	baud   int
	logger logging.Logger
	open   openFunc
	conns  map[string]*conn
}

// NewManager builds a port manager. A baud of 0 selects the default rate.
func NewManager(baud int, logger logging.Logger) *Manager {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		baud:   baud,
		logger: logger,
		open:   openSerial,
		conns:  make(map[string]*conn),
	}
}

// Start launches a reader goroutine for the port. The reader reopens the
// port with exponential backoff after I/O errors and stops when the context
// is canceled or Stop is called.
func (m *Manager) Start(ctx context.Context, port string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conns[port]; ok {
		return ErrAlreadyConnected
	}

	readerCtx, cancel := context.WithCancel(ctx)
	c := &conn{
		cancel: cancel,
		done:   make(chan struct{}),
		store:  samplestore.New(m.logger.With(logging.Field{Key: "port", Value: port})),
	}
	m.conns[port] = c

	go func() {
		defer close(c.done)
		m.readLoop(readerCtx, port, c.store)
	}()
	return nil
}

// Stop terminates the reader for the port and waits for it to exit. The
// collected records remain readable.
func (m *Manager) Stop(port string) error {
	m.mu.Lock()
	c, ok := m.conns[port]
	if ok {
		delete(m.conns, port)
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotConnected
	}
	c.cancel()
	<-c.done
	return nil
}

// Connected returns the ports with a running reader.
func (m *Manager) Connected() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ports := make([]string, 0, len(m.conns))
	for p := range m.conns {
		ports = append(ports, p)
	}
	return ports
}

// Source returns the per-port source adapter.
func (m *Manager) Source(port string) (source.Source, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[port]
	if !ok {
		return nil, false
	}
	return c.store, true
}

func (m *Manager) readLoop(ctx context.Context, port string, store *samplestore.Store) {
	for ctx.Err() == nil {
		var rc io.ReadCloser
		open := func() error {
			var err error
			rc, err = m.open(port, m.baud)
			if err != nil {
				m.logger.Warn("cannot connect to port",
					logging.Field{Key: "port", Value: port},
					logging.Field{Key: "error", Value: err},
				)
			}
			return err
		}
		if err := backoff.Retry(open, backoff.WithContext(backoff.NewExponentialBackOff(), ctx)); err != nil {
			m.logger.Error("giving up on port",
				logging.Field{Key: "port", Value: port},
				logging.Field{Key: "error", Value: err},
			)
			return
		}
		m.consume(ctx, rc, store)
	}
}

// consume reads lines until the reader fails or the context is canceled.
func (m *Manager) consume(ctx context.Context, rc io.ReadCloser, store *samplestore.Store) {
	closed := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			rc.Close()
		case <-closed:
		}
	}()
	defer func() {
		close(closed)
		rc.Close()
	}()

	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		store.IngestLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		m.logger.Warn("serial read failed, reconnecting",
			logging.Field{Key: "error", Value: err},
		)
	}
}
