package pools

import "sync"

// BytePool is a multi-tiered byte slice pool for connection buffers
type BytePool struct {
	pools []*sync.Pool
	sizes []int
}

// Tiers cover a typical request head up to a large header block.
var defaultSizes = []int{
	2048,
	8192,
	32768,
	65536,
}

// NewBytePool creates a new byte pool with standard size tiers
func NewBytePool() *BytePool {
	return NewBytePoolWithSizes(defaultSizes)
}

// NewBytePoolWithSizes creates a byte pool with custom size tiers, smallest first
func NewBytePoolWithSizes(sizes []int) *BytePool {
	bp := &BytePool{
		pools: make([]*sync.Pool, len(sizes)),
		sizes: sizes,
	}

	for i, size := range sizes {
		bp.pools[i] = &sync.Pool{
			New: func() any {
				buf := make([]byte, size)
				return &buf
			},
		}
	}

	return bp
}

// Get returns a byte slice of length size, pooled when a tier fits
func (bp *BytePool) Get(size int) []byte {
	for i, poolSize := range bp.sizes {
		if size <= poolSize {
			buf := *bp.pools[i].Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns a byte slice to the pool; slices of foreign capacity are dropped
func (bp *BytePool) Put(buf []byte) {
	capacity := cap(buf)
	for i, poolSize := range bp.sizes {
		if capacity == poolSize {
			buf = buf[:capacity]
			bp.pools[i].Put(&buf)
			return
		}
	}
}

// Grow returns a buffer of length size holding the first used bytes of buf.
// buf goes back to the pool when it had to be replaced.
func (bp *BytePool) Grow(buf []byte, used, size int) []byte {
	if size <= cap(buf) {
		return buf[:size]
	}
	next := bp.Get(size)
	copy(next, buf[:used])
	bp.Put(buf)
	return next
}
