// Package source defines the adapter interface every transport satisfies:
// anything that can hand the filter pipeline a per-topic series of floats.
package source

// Source is the entire surface the filter pipeline requires from a
// transport, whether file-backed, serial-backed, or broker-backed.
type Source interface {
	// Topics returns all distinct topic names seen so far, first-seen order.
	Topics() []string

	// Values returns all collected values for the topic, cast to float64,
	// in arrival order. Non-convertible values are absent from the result.
	Values(topic string) []float64
}
