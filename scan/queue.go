/*
Package scan is the ingestion boundary for barcode scans.

PURPOSE:
  Camera decoders and the HTTP scan receiver are inherently concurrent
  with ledger calls. They never invoke the ledger directly: raw codes
  are handed off through a thread-safe single-producer/single-consumer
  queue, and exactly one consumer loop resolves them against the
  catalog.

KEY CONCEPTS:
  - Queue: bounded hand-off channel; producers never block
  - DecodePayload: extracts a code from a posted JSON or form body
  - Resolver: the single consumer loop, delivering ScanEvents

SEE ALSO:
  - payload.go: HTTP payload decoding
  - resolver.go: Consumer loop
  - api/handlers.go: The POST /scan producer
*/
package scan

import "sync"

// DefaultQueueSize bounds how many scans may be pending before new ones
// are dropped.
const DefaultQueueSize = 64

// Queue is a bounded hand-off between scan producers and the single
// consumer loop.
type Queue struct {
	ch chan string

	closeOnce sync.Once
}

// NewQueue creates a queue holding up to size pending codes. A size
// below 1 falls back to DefaultQueueSize.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan string, size)}
}

// Publish enqueues a scanned code without blocking. Returns false when
// the queue is full and the code was dropped; scan sources retry by
// rescanning, they never wait.
func (q *Queue) Publish(code string) bool {
	select {
	case q.ch <- code:
		return true
	default:
		return false
	}
}

// Codes exposes the consumer side of the queue. Only the single
// Resolver loop may receive from it.
func (q *Queue) Codes() <-chan string {
	return q.ch
}

// Close stops the queue. Safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.ch) })
}
