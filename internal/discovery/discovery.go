// Package discovery locates MQTT brokers advertised over mDNS.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// Broker represents a discovered MQTT broker.
type Broker struct {
	Instance  string // advertised name: "mosquitto on lab-pi"
	Hostname  string // DNS hostname: "lab-pi.local."
	Addresses []net.IP
	Port      int
	TXT       []string
}

// Brokers performs a blocking mDNS browse for _mqtt._tcp.local services.
// It returns cleaned and deduplicated broker entries.
func Brokers(timeout time.Duration) ([]Broker, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("resolver error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	resultMap := make(map[string]Broker)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					close(done)
					return
				}
				if e == nil {
					continue
				}

				addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
				addrs = append(addrs, e.AddrIPv4...)
				addrs = append(addrs, e.AddrIPv6...)

				key := fmt.Sprintf("%s|%d", e.HostName, e.Port)
				resultMap[key] = Broker{
					Instance:  cleanInstance(e.Instance),
					Hostname:  e.HostName,
					Addresses: addrs,
					Port:      e.Port,
					TXT:       append([]string{}, e.Text...),
				}

			case <-ctx.Done():
				close(done)
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, "_mqtt._tcp", "local.", entries); err != nil {
		return nil, fmt.Errorf("browse error: %w", err)
	}

	<-done

	out := make([]Broker, 0, len(resultMap))
	for _, b := range resultMap {
		out = append(out, b)
	}
	return out, nil
}

// cleanInstance removes zeroconf escape sequences: "\ " => " "
func cleanInstance(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}
