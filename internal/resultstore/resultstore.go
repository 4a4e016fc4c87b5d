package resultstore

import (
	"github.com/vk/optgridgo/internal/experiment"
)

// Store is the sink every finished experiment result flows into. Append may
// be called concurrently from the engine's workers; Flush and Close are
// called once by the app at the end of a run.
type Store interface {
	Append(res experiment.Result) error
	Flush() error
	Close() error
}
