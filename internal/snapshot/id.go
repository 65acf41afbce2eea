package snapshot

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID returns a time-sortable snapshot id: a millisecond-resolution
// timestamp prefix followed by a uuid suffix, so lexical order of ids
// matches creation order (spec §3 "id (time-sortable)") even across
// multiple snapshots created within the same process tick.
func NewID(now time.Time) string {
	return fmt.Sprintf("%s-%s", now.UTC().Format("20060102T150405.000000000"), uuid.NewString())
}
