package pools

import (
	"sync"
	"sync/atomic"
)

// BytePool is a tiered byte slice pool used for chunk and copy buffers
type BytePool struct {
	pools []*sync.Pool
	sizes []int

	gets      atomic.Uint64
	oversized atomic.Uint64
}

// Size tiers covering typical chunk sizes
var defaultSizes = []int{
	512,
	2048,
	8192,
	32768,
}

// NewBytePool creates a byte pool with the default tiers
func NewBytePool() *BytePool {
	return NewBytePoolWithSizes(defaultSizes)
}

// NewBytePoolWithSizes creates a byte pool with custom ascending tiers
func NewBytePoolWithSizes(sizes []int) *BytePool {
	bp := &BytePool{
		pools: make([]*sync.Pool, len(sizes)),
		sizes: sizes,
	}

	for i, size := range sizes {
		sz := size
		bp.pools[i] = &sync.Pool{
			New: func() any {
				buf := make([]byte, sz)
				return &buf
			},
		}
	}

	return bp
}

// Get returns a slice of exactly size bytes, pooled when a tier fits
func (bp *BytePool) Get(size int) []byte {
	bp.gets.Add(1)

	for i, poolSize := range bp.sizes {
		if size <= poolSize {
			buf := *bp.pools[i].Get().(*[]byte)
			return buf[:size]
		}
	}

	bp.oversized.Add(1)
	return make([]byte, size)
}

// Put returns a slice obtained from Get. Slices whose capacity matches no
// tier are left to the GC.
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

// BytePoolStats reports pool usage
type BytePoolStats struct {
	Gets      uint64
	Oversized uint64
}

func (bp *BytePool) Stats() BytePoolStats {
	return BytePoolStats{
		Gets:      bp.gets.Load(),
		Oversized: bp.oversized.Load(),
	}
}

var globalBytePool = NewBytePool()

// GetBytes gets a buffer from the global pool
func GetBytes(size int) []byte {
	return globalBytePool.Get(size)
}

// PutBytes returns a buffer to the global pool
func PutBytes(buf []byte) {
	globalBytePool.Put(buf)
}

// GlobalByteStats returns statistics for the global pool
func GlobalByteStats() BytePoolStats {
	return globalBytePool.Stats()
}
