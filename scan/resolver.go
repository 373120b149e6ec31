package scan

import (
	"context"

	"github.com/stockroom/inventory-engine/catalog"
	"github.com/stockroom/inventory-engine/logger"
)

// ItemLookup resolves a scanned code to a catalog item. Returns
// (nil, nil) for unknown codes.
type ItemLookup interface {
	ItemByBarcode(ctx context.Context, barcode string) (*catalog.Item, error)
}

// ScanEvent is delivered to the handler for every consumed code.
// Item is nil when the code did not resolve.
type ScanEvent struct {
	Code string
	Item *catalog.Item
}

// Handler receives resolved scan events on the consumer goroutine.
type Handler func(ScanEvent)

// Resolver is the single consumer of a Queue. It resolves each code
// against the catalog and hands the event to the registered handler.
// The handler is the only place allowed to feed scans into ledger
// requests.
type Resolver struct {
	queue   *Queue
	lookup  ItemLookup
	handler Handler
	log     *logger.Logger
}

// NewResolver wires a resolver to its queue, catalog lookup, and
// handler.
func NewResolver(queue *Queue, lookup ItemLookup, handler Handler, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{queue: queue, lookup: lookup, handler: handler, log: log}
}

// Run consumes codes until the context is cancelled or the queue is
// closed. It must be the only reader of the queue.
func (r *Resolver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case code, ok := <-r.queue.Codes():
			if !ok {
				return
			}
			item, err := r.lookup.ItemByBarcode(ctx, code)
			if err != nil {
				r.log.Errorw("scan lookup failed", "code", code, "error", err)
				continue
			}
			if item == nil {
				r.log.Warnw("scan did not resolve", "code", code)
			}
			if r.handler != nil {
				r.handler(ScanEvent{Code: code, Item: item})
			}
		}
	}
}
