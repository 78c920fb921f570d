package heap

// Reallocate resizes the block p to hold at least n bytes.
// Reallocate(0, n) behaves as Allocate(n); Reallocate(p, 0) behaves as
// Release(p) and returns the zero Ptr. If the existing block already has
// room, p is returned unchanged — there is no shrink-in-place split, a
// deliberate simplicity tradeoff carried over from the reference.
func (h *Heap) Reallocate(p Ptr, n int) (Ptr, error) {
	if p == 0 {
		return h.Allocate(n)
	}
	if n == 0 {
		err := h.Release(p)
		return 0, err
	}

	off := headerFromPayload(int(p))
	if off < h.firstBlock || off >= h.wilderness {
		return 0, &InvalidArgError{Op: "Reallocate", Arg: p}
	}

	buf := h.mem()
	usable := payloadCapacity(blockSize(buf, off))
	if usable >= n {
		return p, nil
	}

	q, err := h.Allocate(n)
	if err != nil {
		return 0, err
	}

	copy(h.Bytes(q), h.Bytes(p)[:usable])
	if err := h.Release(p); err != nil {
		return 0, err
	}
	return q, nil
}

// ZeroAllocate allocates space for count objects of size bytes each,
// zeroing the returned payload, mirroring the standard calloc contract.
func (h *Heap) ZeroAllocate(count, size int) (Ptr, error) {
	n := count * size
	p, err := h.Allocate(n)
	if err != nil || p == 0 {
		return p, err
	}
	b := h.Bytes(p)
	for i := range b {
		b[i] = 0
	}
	return p, nil
}
