package heap

import (
	"fmt"
	"io"
)

// Verify walks the heap from the first real block through the wilderness,
// then walks every bin's free list, and confirms the heap's structural
// invariants:
//
//   - every block's size is a multiple of 8 and >= minBlockSize
//   - header.size == footer.size for every block
//   - no two adjacent free non-wilderness blocks (coalescing is complete)
//   - the wilderness is free and is the physically last block
//   - every free block belongs to exactly the bin its size selects, and
//     its bin's list is correctly doubly linked
//   - the number of free blocks found by the heap walk equals the number
//     found by the bin walk
//
// It returns nil if the heap is structurally sound. When Verbose is set,
// a returned *InconsistencyError carries a diagnostic string describing
// the offending block; Verify never panics and never mutates the heap.
func (h *Heap) Verify() error {
	buf := h.mem()

	heapFreeCount := 0
	off := h.firstBlock
	for off < h.wilderness {
		size := blockSize(buf, off)
		if size < minBlockSize || size%8 != 0 || off+size > len(buf) {
			return h.fail(ErrBadSize, off, -1, "block size %d invalid", size)
		}

		foot := int(getWord(buf, footerOffset(off, size)))
		if foot != size {
			return h.fail(ErrHeaderFooterMismatch, off, -1, "header size %d != footer size %d", size, foot)
		}

		if !blockAllocated(buf, off) {
			heapFreeCount++
			next := off + size
			if next <= h.wilderness && !blockAllocated(buf, next) {
				return h.fail(ErrAdjacentFreeBlocks, off, -1, "free block at %d adjoins another free block at %d", off, next)
			}
		}

		off += size
	}
	if off != h.wilderness {
		return h.fail(ErrWildernessNotLast, off, -1, "block walk did not land on wilderness at %d", h.wilderness)
	}
	if blockAllocated(buf, h.wilderness) {
		return h.fail(ErrWildernessAllocated, h.wilderness, -1, "wilderness marked allocated")
	}
	if h.wilderness+blockSize(buf, h.wilderness) != len(buf) {
		return h.fail(ErrWildernessNotLast, h.wilderness, -1, "wilderness does not abut end of arena")
	}
	wSize := blockSize(buf, h.wilderness)
	if wSize < minBlockSize || wSize%8 != 0 {
		return h.fail(ErrBadSize, h.wilderness, -1, "wilderness size %d invalid", wSize)
	}
	if foot := int(getWord(buf, footerOffset(h.wilderness, wSize))); foot != wSize {
		return h.fail(ErrHeaderFooterMismatch, h.wilderness, -1, "wilderness header size %d != footer size %d", wSize, foot)
	}

	binFreeCount := 0
	for bin := 0; bin < numBins; bin++ {
		prevOff := 0
		cur := h.getBinHead(buf, bin)
		for cur != 0 {
			if cur < h.firstBlock || cur+minBlockSize > h.wilderness {
				return h.fail(ErrNotInExpectedBin, cur, bin, "bin %d links to offset %d outside the block area", bin, cur)
			}
			if blockAllocated(buf, cur) {
				return h.fail(ErrNotInExpectedBin, cur, bin, "bin %d holds an allocated block", bin)
			}
			size := blockSize(buf, cur)
			if binIndex(size) != bin {
				return h.fail(ErrNotInExpectedBin, cur, bin, "block of size %d found in bin %d, belongs in bin %d", size, bin, binIndex(size))
			}
			if freeBlockPrev(buf, cur) != prevOff {
				return h.fail(ErrBackLinkBroken, cur, bin, "prev link %d != expected %d", freeBlockPrev(buf, cur), prevOff)
			}
			binFreeCount++
			prevOff = cur
			cur = freeBlockNext(buf, cur)
		}
	}

	if heapFreeCount != binFreeCount {
		return h.fail(ErrFreeCountMismatch, -1, -1, "heap walk found %d free blocks, bin walk found %d", heapFreeCount, binFreeCount)
	}

	return nil
}

func (h *Heap) fail(kind InconsistencyKind, off, bin int, format string, args ...interface{}) error {
	e := &InconsistencyError{Kind: kind, Off: off, Bin: bin}
	if h.Verbose {
		e.Msg = fmt.Sprintf(format, args...)
	} else {
		e.Msg = "invariant violation"
	}
	return e
}

// Stats summarises the current occupancy of a Heap, the Go analogue of
// lldb.AllocStats as filled in by a successful Allocator.Verify.
type Stats struct {
	TotalBytes   int
	AllocBytes   int
	FreeBytes    int
	AllocBlocks  int
	FreeBlocks   int
	BinOccupancy [numBins]int
}

// Stats walks the heap and reports occupancy. It does not check
// invariants; call Verify first if that matters to the caller.
func (h *Heap) Stats() Stats {
	buf := h.mem()
	var st Stats
	st.TotalBytes = len(buf) - h.firstBlock

	off := h.firstBlock
	for off < h.wilderness {
		size := blockSize(buf, off)
		if blockAllocated(buf, off) {
			st.AllocBytes += size
			st.AllocBlocks++
		} else {
			st.FreeBytes += size
			st.FreeBlocks++
			st.BinOccupancy[binIndex(size)]++
		}
		off += size
	}
	st.FreeBytes += blockSize(buf, h.wilderness)
	return st
}

// Dump writes a verbose, block-by-block description of the heap to w:
// offset, size, and allocated/free state for every block from the first
// real block through the wilderness. It is the Verbose-mode counterpart
// Verify's diagnostic strings are meant to be used alongside.
func (h *Heap) Dump(w io.Writer) error {
	buf := h.mem()
	off := h.firstBlock
	for off < h.wilderness {
		size := blockSize(buf, off)
		state := "free"
		if blockAllocated(buf, off) {
			state = "alloc"
		}
		if _, err := fmt.Fprintf(w, "%8d %6d %s\n", off, size, state); err != nil {
			return err
		}
		off += size
	}
	_, err := fmt.Fprintf(w, "%8d %6d wilderness\n", h.wilderness, blockSize(buf, h.wilderness))
	return err
}
