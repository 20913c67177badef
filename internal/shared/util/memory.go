package util

import (
	"runtime"
)

// HeapAllocBytes returns the bytes of allocated heap objects.
func HeapAllocBytes() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc
}
