/*
Package barcode generates external item identifiers and renders them as
scannable Code128 images.

PURPOSE:
  Every item carries a unique, human/barcode-scannable external
  identifier. When the operator does not supply one, the Generator
  derives one from a fixed prefix and a microsecond-resolution timestamp,
  so two calls in the same process cannot collide under normal clock
  resolution.

COLLISION HANDLING:
  Uniqueness is enforced by the catalog store, not here. On a duplicate
  the caller regenerates and retries under a RetryPolicy (bounded, no
  backoff). See catalog.Service.CreateItem.

FORMAT:
  <prefix><yymmddHHMMSS><microseconds>, e.g. INV250810123045123456

SEE ALSO:
  - image.go: Code128 PNG rendering
  - catalog/catalog.go: Retry loop on DuplicateBarcode
*/
package barcode

import (
	"fmt"
	"time"
)

// DefaultPrefix is prepended to generated identifiers.
const DefaultPrefix = "INV"

// Generator produces collision-resistant identifier strings.
type Generator struct {
	Prefix string

	now func() time.Time
}

// NewGenerator creates a Generator with the given prefix.
// An empty prefix falls back to DefaultPrefix.
func NewGenerator(prefix string) *Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Generator{Prefix: prefix, now: time.Now}
}

// Next returns a new identifier string.
func (g *Generator) Next() string {
	now := g.now
	if now == nil {
		now = time.Now
	}
	t := now()
	return fmt.Sprintf("%s%s%06d", g.Prefix, t.Format("060102150405"), t.Nanosecond()/1000)
}

// RetryPolicy bounds identifier regeneration on duplicate collisions.
// No backoff: a fresh timestamp is already a new candidate.
type RetryPolicy struct {
	MaxAttempts int
}

// DefaultRetryPolicy matches the catalog contract: up to 5 attempts,
// then the create fails with ExhaustedRetries.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5}
