package pools

import "testing"

func TestBytePoolGet(t *testing.T) {
	bp := NewBytePool()

	tests := []struct {
		size    int
		wantCap int
	}{
		{1, 512},
		{512, 512},
		{513, 2048},
		{8000, 8192},
		{32768, 32768},
		{40000, 40000},
	}

	for _, tt := range tests {
		buf := bp.Get(tt.size)
		if len(buf) != tt.size {
			t.Errorf("Get(%d): len %d", tt.size, len(buf))
		}
		if cap(buf) != tt.wantCap {
			t.Errorf("Get(%d): cap %d, want %d", tt.size, cap(buf), tt.wantCap)
		}
		bp.Put(buf)
	}

	stats := bp.Stats()
	if stats.Gets != uint64(len(tests)) {
		t.Errorf("Expected %d gets, got %d", len(tests), stats.Gets)
	}
	if stats.Oversized != 1 {
		t.Errorf("Expected 1 oversized get, got %d", stats.Oversized)
	}
}

func TestBytePoolCustomSizes(t *testing.T) {
	bp := NewBytePoolWithSizes([]int{64})

	buf := bp.Get(10)
	if cap(buf) != 64 {
		t.Errorf("Expected cap 64, got %d", cap(buf))
	}
	bp.Put(buf)

	// foreign slices are ignored
	bp.Put(make([]byte, 100))
}

func BenchmarkBytePool(b *testing.B) {
	bp := NewBytePool()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf := bp.Get(512)
		bp.Put(buf)
	}
}
