package registry

import (
	"sync"

	"github.com/wippyai/encbridge"
)

// A handle packs a slot number (low bits, 1-based) and the slot's generation
// (high bits). Releasing a slot bumps its generation, so a handle kept past
// its close never resolves to the session that reuses the slot. A slot whose
// generation is exhausted is retired rather than wrapped to zero.
const (
	slotBits = 20
	slotMask = 1<<slotBits - 1
	genMask  = 1<<(32-slotBits) - 1

	// MaxSessions is the largest number of sessions that can be live at once.
	MaxSessions = slotMask
)

func makeHandle(idx, gen uint32) encbridge.Handle {
	return encbridge.Handle(gen<<slotBits | (idx + 1))
}

func splitHandle(h encbridge.Handle) (idx, gen uint32, ok bool) {
	n := uint32(h) & slotMask
	if n == 0 {
		return 0, 0, false
	}
	return n - 1, uint32(h) >> slotBits, true
}

// slab is the storage behind Registry: a slot array with a free list.
type slab struct {
	slots    []slot
	freeList []uint32
	limit    int
	live     int
	mu       sync.RWMutex
	closed   bool
}

type slot struct {
	sess  *session
	gen   uint32
	valid bool
}

func newSlab(limit int) *slab {
	if limit <= 0 || limit > MaxSessions {
		limit = MaxSessions
	}
	return &slab{
		slots:    make([]slot, 0, 64),
		freeList: make([]uint32, 0, 16),
		limit:    limit,
	}
}

// create reserves a slot and stores the session built for its handle.
func (b *slab) create(build func(encbridge.Handle) *session) (*session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errClosed
	}
	if b.live >= b.limit {
		return nil, errExhausted(b.limit)
	}

	var idx uint32
	if n := len(b.freeList); n > 0 {
		idx = b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
	} else {
		if len(b.slots) >= MaxSessions {
			return nil, errExhausted(b.limit)
		}
		b.slots = append(b.slots, slot{})
		idx = uint32(len(b.slots) - 1)
	}

	s := &b.slots[idx]
	sess := build(makeHandle(idx, s.gen))
	s.sess = sess
	s.valid = true
	b.live++

	return sess, nil
}

// get resolves a handle to its live session.
func (b *slab) get(h encbridge.Handle) (*session, bool) {
	idx, gen, ok := splitHandle(h)
	if !ok {
		return nil, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if int(idx) >= len(b.slots) {
		return nil, false
	}
	s := b.slots[idx]
	if !s.valid || s.gen != gen {
		return nil, false
	}
	return s.sess, true
}

// remove releases the slot if h still names its live session.
func (b *slab) remove(h encbridge.Handle) (*session, bool) {
	idx, gen, ok := splitHandle(h)
	if !ok {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if int(idx) >= len(b.slots) {
		return nil, false
	}
	s := &b.slots[idx]
	if !s.valid || s.gen != gen {
		return nil, false
	}

	sess := s.sess
	s.sess = nil
	s.valid = false
	b.live--
	if s.gen == genMask {
		return sess, true
	}
	s.gen++
	b.freeList = append(b.freeList, idx)

	return sess, true
}

// close marks the slab closed and returns the sessions that were still live.
func (b *slab) close() []*session {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var live []*session
	for i := range b.slots {
		if b.slots[i].valid {
			live = append(live, b.slots[i].sess)
		}
	}
	b.slots = nil
	b.freeList = nil
	b.live = 0
	return live
}

func (b *slab) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// each visits live sessions in slot order until fn returns false.
func (b *slab) each(fn func(*session) bool) {
	b.mu.RLock()
	live := make([]*session, 0, b.live)
	for _, s := range b.slots {
		if s.valid {
			live = append(live, s.sess)
		}
	}
	b.mu.RUnlock()

	for _, sess := range live {
		if !fn(sess) {
			return
		}
	}
}
