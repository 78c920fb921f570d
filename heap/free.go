package heap

// Release deallocates the block p previously returned by Allocate or
// Reallocate. Release is idempotent on the zero Ptr; releasing a Ptr
// outside the heap's block area, or one whose block is already marked
// free, is an InvalidArgError rather than undefined behaviour — the
// reference C allocator leaves this case undefined, but a bounds check
// costs nothing extra here since Go cannot deref arbitrary memory anyway.
// A Ptr inside the block area that is not a payload start is not detected.
func (h *Heap) Release(p Ptr) error {
	if p == 0 {
		return nil
	}

	off := headerFromPayload(int(p))
	if off < h.firstBlock || off >= h.wilderness {
		return &InvalidArgError{Op: "Release", Arg: p}
	}

	buf := h.mem()
	if !blockAllocated(buf, off) {
		return &InvalidArgError{Op: "Release: double free", Arg: p}
	}

	size := blockSize(buf, off)

	// Step 1: mark the header free. The footer is rewritten once below,
	// after any coalescing has settled on a final size.
	putWord(buf, off, pack(size, false))

	start, mergedSize := off, size

	// Step 2: merge with the previous physical block, if it is free.
	if hasPrevPhysical(off, h.firstBlock) {
		if pOff := prevPhysical(buf, off); !blockAllocated(buf, pOff) {
			pSize := blockSize(buf, pOff)
			h.unlinkFree(buf, pOff, pSize)
			start = pOff
			mergedSize += pSize
		}
	}

	nextOff := off + size

	// Step 3: if the next physical block is the wilderness, the freed
	// (possibly already prev-merged) block is absorbed into it.
	if nextOff == h.wilderness {
		h.wilderness = start
		writeBoundaryTags(buf, h.wilderness, len(buf)-h.wilderness, false)
		return nil
	}

	// Step 4: otherwise, merge with the next physical block if it's free.
	if !blockAllocated(buf, nextOff) {
		nSize := blockSize(buf, nextOff)
		h.unlinkFree(buf, nextOff, nSize)
		mergedSize += nSize
	}

	// Step 5: register the resulting free block in its bin.
	writeBoundaryTags(buf, start, mergedSize, false)
	h.linkFree(buf, start, mergedSize)
	return nil
}
