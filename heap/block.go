package heap

import "encoding/binary"

// Word size and block overhead. A block is laid out as:
//
//	header (wordSize bytes, offset 8n+4 relative to heapLo)
//	payload or free-list links (8-byte aligned, starts at header+wordSize)
//	footer (wordSize bytes, ends at offset 8m)
//
// Every block is a multiple of 8 bytes and at least minBlockSize, so that a
// free block always has room for both link words between its header and
// its footer.
const (
	wordSize     = 4
	headerSize   = wordSize
	footerSize   = wordSize
	overhead     = headerSize + footerSize // 8
	minBlockSize = 16
	allocBit     = uint32(1)
)

func getWord(buf []byte, off int) uint32 {
	return binary.BigEndian.Uint32(buf[off : off+wordSize])
}

func putWord(buf []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(buf[off:off+wordSize], v)
}

func pack(size int, allocated bool) uint32 {
	v := uint32(size)
	if allocated {
		v |= allocBit
	}
	return v
}

// blockSize returns the total size, in bytes, of the block whose header
// starts at off.
func blockSize(buf []byte, off int) int {
	return int(getWord(buf, off) &^ allocBit)
}

// blockAllocated reports whether the block whose header starts at off is
// currently allocated.
func blockAllocated(buf []byte, off int) bool {
	return getWord(buf, off)&allocBit != 0
}

func footerOffset(off, size int) int {
	return off + size - footerSize
}

// writeBoundaryTags writes both the header and the footer of a block of
// the given size and allocation state.
func writeBoundaryTags(buf []byte, off, size int, allocated bool) {
	w := pack(size, allocated)
	putWord(buf, off, w)
	putWord(buf, footerOffset(off, size), uint32(size))
}

// payloadOffset returns the byte offset of the first usable payload byte
// of the (allocated) block whose header starts at off.
func payloadOffset(off int) int { return off + headerSize }

// headerFromPayload recovers a block's header offset from a Ptr previously
// handed back by Allocate.
func headerFromPayload(p int) int { return p - headerSize }

// payloadCapacity returns the number of usable bytes in a block of the
// given total size.
func payloadCapacity(size int) int { return size - overhead }

// Free-block link area: two words immediately following the header, each
// holding a byte offset into the arena (0 meaning "no link"). A
// position-independent on-disk layout would store these as word-offsets
// from heap base to keep the image compact; since this Heap never
// persists its arena, the words simply hold raw byte offsets — the same
// information, without the division.
func prevLinkOffset(off int) int { return off + headerSize }
func nextLinkOffset(off int) int { return off + headerSize + wordSize }

func freeBlockPrev(buf []byte, off int) int { return int(getWord(buf, prevLinkOffset(off))) }
func freeBlockNext(buf []byte, off int) int { return int(getWord(buf, nextLinkOffset(off))) }

func setFreeBlockPrev(buf []byte, off, v int) { putWord(buf, prevLinkOffset(off), uint32(v)) }
func setFreeBlockNext(buf []byte, off, v int) { putWord(buf, nextLinkOffset(off), uint32(v)) }

// nextPhysical returns the header offset of the block physically adjacent
// to, and immediately following, the block at off.
func nextPhysical(buf []byte, off int) int {
	return off + blockSize(buf, off)
}

// hasPrevPhysical reports whether a block exists immediately before off;
// false when off is the first real block in the heap.
func hasPrevPhysical(off, firstBlock int) bool { return off > firstBlock }

// prevPhysical returns the header offset of the block physically adjacent
// to, and immediately preceding, the block at off. The caller must have
// checked hasPrevPhysical first.
func prevPhysical(buf []byte, off int) int {
	prevSize := int(getWord(buf, off-footerSize))
	return off - prevSize
}

// roundUp8 rounds n up to the next multiple of 8.
func roundUp8(n int) int { return (n + 7) &^ 7 }
