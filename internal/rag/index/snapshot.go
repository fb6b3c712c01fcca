package index

import (
	"sync/atomic"

	"github.com/AlenaSalanevich/financeadviser/internal/rag/ragerrors"
)

// Holder is the handoff point between the builder and the query path. A
// finished index is published with Swap; readers either see the previous
// complete snapshot or the new one, never a partial state. Replaces the
// shared vectorstore singleton the original design leaned on.
type Holder struct {
	current atomic.Pointer[Index]
}

func NewHolder() *Holder {
	return &Holder{}
}

// Swap publishes ix as the serving snapshot and returns the one it
// replaced (nil on first publish).
func (h *Holder) Swap(ix *Index) *Index {
	return h.current.Swap(ix)
}

// Current returns the serving snapshot, or ErrNotReady when nothing has
// been published yet.
func (h *Holder) Current() (*Index, error) {
	ix := h.current.Load()
	if ix == nil {
		return nil, ragerrors.ErrNotReady
	}
	return ix, nil
}

// Ready reports whether a snapshot has been published, for health checks.
func (h *Holder) Ready() bool {
	return h.current.Load() != nil
}
