package atomics

import "sync/atomic"

// Raises target to value if value is larger. Safe under contention.
func StoreMax(target *atomic.Uint64, value uint64) {
	for {
		current := target.Load()
		if value <= current {
			return
		}
		// CAS will only succeed if the value has not changed since we last read it.
		if target.CompareAndSwap(current, value) {
			return
		}
	}
}
