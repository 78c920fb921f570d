package heap

// Bytes returns a slice over the usable payload of p, the Go-idiomatic
// replacement for dereferencing the raw pointer Allocate would return in
// the reference allocator: blocks are represented by indices into a
// single owned byte buffer, and accessors become functions on
// (buffer, index) rather than on raw pointers. The slice aliases the
// Heap's backing Arena directly; it is invalidated by any
// subsequent call that grows the Arena (Allocate, Reallocate,
// ZeroAllocate), just as a raw pointer would be invalidated by realloc.
func (h *Heap) Bytes(p Ptr) []byte {
	if p == 0 {
		return nil
	}
	off := headerFromPayload(int(p))
	buf := h.mem()
	size := blockSize(buf, off)
	start := payloadOffset(off)
	return buf[start : start+payloadCapacity(size)]
}

// PayloadSize returns the number of usable bytes available at p — always
// at least the size originally requested.
func (h *Heap) PayloadSize(p Ptr) int {
	if p == 0 {
		return 0
	}
	off := headerFromPayload(int(p))
	return payloadCapacity(blockSize(h.mem(), off))
}
