package heap

// binIndex maps a padded block size (>= minBlockSize, a multiple of 8) to
// the bin that holds free blocks of that size:
//
//	[16, 16+8*smallBins)                 exact-fit, 8-byte quanta
//	next medBins * 64 bytes              64-byte quanta
//	next bigBins * 3072 bytes            3072-byte quanta
//	anything larger                      a single overflow bin
func binIndex(size int) int {
	switch {
	case size < minBlockSize+smallBinsSpan:
		return (size - minBlockSize) / smallQuantum
	case size < minBlockSize+smallBinsSpan+medBinsSpan:
		return smallBins + (size-minBlockSize-smallBinsSpan)/medQuantum
	case size < minBlockSize+smallBinsSpan+medBinsSpan+bigBinsSpan:
		return smallBins + medBins + (size-minBlockSize-smallBinsSpan-medBinsSpan)/bigQuantum
	default:
		return overflowBin
	}
}

func isExactBin(bin int) bool { return bin < smallBins }

func (h *Heap) binHeadOffset(bin int) int { return h.dirBase + bin*wordSize }

func (h *Heap) getBinHead(buf []byte, bin int) int {
	return int(getWord(buf, h.binHeadOffset(bin)))
}

func (h *Heap) setBinHead(buf []byte, bin, off int) {
	putWord(buf, h.binHeadOffset(bin), uint32(off))
}

// linkFree pushes the free block at off (of the given size) onto the head
// of its bin's list. Free lists are doubly linked so unlinkFree is O(1);
// unlike the reference C allocator's sentinel-per-bin trick, an empty
// slot or a list end is simply 0 rather than a self-referential sentinel
// node — equivalent for every observable invariant, and a more natural
// fit for a buffer-and-indices model (see DESIGN.md).
func (h *Heap) linkFree(buf []byte, off, size int) {
	bin := binIndex(size)
	head := h.getBinHead(buf, bin)
	setFreeBlockPrev(buf, off, 0)
	setFreeBlockNext(buf, off, head)
	if head != 0 {
		setFreeBlockPrev(buf, head, off)
	}
	h.setBinHead(buf, bin, off)
}

// unlinkFree removes the free block at off (of the given size) from its
// bin's list.
func (h *Heap) unlinkFree(buf []byte, off, size int) {
	bin := binIndex(size)
	prev := freeBlockPrev(buf, off)
	next := freeBlockNext(buf, off)
	if prev != 0 {
		setFreeBlockNext(buf, prev, next)
	} else {
		h.setBinHead(buf, bin, next)
	}
	if next != 0 {
		setFreeBlockPrev(buf, next, prev)
	}
}

// findFree searches bins starting at binIndex(want) for a free block able
// to satisfy a request of want bytes: exact bins yield their head
// unconditionally, other bins get a bounded best-fit scan of
// their first bestFitScan elements. It returns the header offset of the
// chosen block and its size, or ok=false if none of the bins hold one.
func (h *Heap) findFree(buf []byte, want int) (off, size int, ok bool) {
	for bin := binIndex(want); bin < numBins; bin++ {
		head := h.getBinHead(buf, bin)
		if head == 0 {
			continue
		}

		if isExactBin(bin) {
			return head, blockSize(buf, head), true
		}

		bestOff, bestSize := 0, 0
		cur := head
		for i := 0; i < bestFitScan && cur != 0; i++ {
			sz := blockSize(buf, cur)
			if sz >= want && (bestOff == 0 || sz < bestSize) {
				bestOff, bestSize = cur, sz
			}
			cur = freeBlockNext(buf, cur)
		}
		if bestOff != 0 {
			return bestOff, bestSize, true
		}
	}
	return 0, 0, false
}
