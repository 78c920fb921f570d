package heap

// Allocate returns a Ptr to a payload of at least n usable bytes, or the
// zero Ptr if n is 0. It returns a non-nil error only when the heap had
// to grow and the Arena refused (out of memory); a nil Ptr with a nil
// error never happens for n > 0.
func (h *Heap) Allocate(n int) (Ptr, error) {
	if n == 0 {
		return 0, nil
	}
	if n < 0 {
		return 0, &InvalidArgError{Op: "Allocate", Arg: n}
	}

	size := paddedSize(n)
	buf := h.mem()
	if off, blockSz, ok := h.findFree(buf, size); ok {
		return h.place(off, blockSz, size), nil
	}

	return h.allocateFromWilderness(size)
}

// place satisfies a request of size bytes from the free block at off
// (itself sized blockSz): unlink it from its bin, split off a new free
// block if the remainder is large enough to hold one, write the
// allocated block's boundary tags and return its payload.
func (h *Heap) place(off, blockSz, size int) Ptr {
	buf := h.mem()
	h.unlinkFree(buf, off, blockSz)

	remainder := blockSz - size
	if remainder >= minBlockSize {
		writeBoundaryTags(buf, off, size, true)
		tailOff := off + size
		writeBoundaryTags(buf, tailOff, remainder, false)
		h.linkFree(buf, tailOff, remainder)
	} else {
		writeBoundaryTags(buf, off, blockSz, true)
	}

	return Ptr(payloadOffset(off))
}

// allocateFromWilderness satisfies a request of size bytes by carving it
// off the low end of the wilderness block, growing the arena first if the
// wilderness isn't big enough.
func (h *Heap) allocateFromWilderness(size int) (Ptr, error) {
	if h.wildernessSize() < size+minBlockSize {
		deficit := size - h.wildernessSize() + minBlockSize
		if err := h.growWilderness(deficit); err != nil {
			return 0, err
		}
	}

	buf := h.mem()
	off := h.wilderness
	writeBoundaryTags(buf, off, size, true)

	h.wilderness = off + size
	writeBoundaryTags(buf, h.wilderness, h.wildernessSize(), false)

	return Ptr(payloadOffset(off)), nil
}
