package highlight

import "sync/atomic"

func storeCancelled(n *uint32) {
	atomic.StoreUint32(n, 1)
}

func loadCancelled(n *uint32) bool {
	return atomic.LoadUint32(n) != 0
}
