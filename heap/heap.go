package heap

import "github.com/cznic/mathutil"

// Bin-layout constants, matching the reference allocator's bin directory:
// S exact-fit small bins, M medium bins, B big bins, plus one overflow
// bin. See binIndex for the piecewise mapping from block size to bin.
const (
	smallBins = 8 // S
	medBins   = 2 // M
	bigBins   = 8 // B
	numBins   = smallBins + medBins + bigBins + 1 // + overflow == 19

	smallQuantum = 8
	medQuantum   = 64
	bigQuantum   = 3072

	smallBinsSpan = smallQuantum * smallBins // bytes covered by all small bins
	medBinsSpan   = medQuantum * medBins
	bigBinsSpan   = bigQuantum * bigBins

	overflowBin = numBins - 1

	// bestFitScan bounds the bounded best-fit search in non-exact bins,
	// trading optimal packing for latency determinism.
	bestFitScan = 6

	// directoryWords is numBins rounded up to an even count so that,
	// together with the single alignment pad word below, the first real
	// block's payload lands on an 8-byte boundary.
	directoryWords = numBins + (numBins & 1)

	alignPad = wordSize

	minPayload = minBlockSize - overhead // 8

	// CHUNKSIZE is the minimum number of bytes requested from the Arena
	// on each wilderness growth, amortising the cost of extending it.
	CHUNKSIZE = 400
)

// Ptr identifies a live allocation: the byte offset of its payload's first
// byte. The zero Ptr denotes "no block", mirroring a nil pointer or an
// lldb handle of 0 — offset 0 always falls inside the heap's private
// prologue and can never be a real payload.
type Ptr int

// Heap is a segregated-fit allocator context: the allocator equivalent of
// a single process's heap_base/wilderness_head pair, bundled with the
// Arena it allocates from. The zero Heap is not usable; use NewHeap.
type Heap struct {
	arena      Arena
	dirBase    int  // byte offset of directory word 0
	firstBlock int  // byte offset of the first block header
	wilderness int  // header offset of the current wilderness block
	Verbose    bool // attach a verbose diagnostic string to Verify errors
}

// NewHeap creates a Heap over a fresh, unbounded in-process Arena.
func NewHeap() (*Heap, error) {
	return NewHeapWithArena(NewArena(0))
}

// NewHeapWithArena creates a Heap over an already-constructed Arena,
// letting callers install a size-bounded Arena (see NewArena) to exercise
// the allocator's out-of-memory behaviour deterministically.
func NewHeapWithArena(a Arena) (*Heap, error) {
	h := &Heap{arena: a}
	if err := h.init(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Heap) init() error {
	dirBytes := directoryWords * wordSize
	if _, err := h.arena.ExtendHeap(alignPad + dirBytes); err != nil {
		return err
	}
	h.dirBase = alignPad
	h.firstBlock = alignPad + dirBytes
	h.wilderness = h.firstBlock
	return h.growWilderness(CHUNKSIZE)
}

func (h *Heap) mem() []byte { return h.arena.Bytes() }

// wildernessSize returns the current size of the wilderness block.
func (h *Heap) wildernessSize() int { return len(h.mem()) - h.wilderness }

// growWilderness extends the arena by at least minExtra bytes (and always
// at least CHUNKSIZE) and folds the new space into the wilderness block.
func (h *Heap) growWilderness(minExtra int) error {
	need := roundUp8(mathutil.Max(minExtra, CHUNKSIZE))
	if _, err := h.arena.ExtendHeap(need); err != nil {
		return err
	}
	buf := h.mem()
	writeBoundaryTags(buf, h.wilderness, len(buf)-h.wilderness, false)
	return nil
}

// paddedSize computes the total block size needed to satisfy a user
// request of n bytes: the larger of n and minPayload, plus header and
// footer overhead, rounded up to the next multiple of 8.
func paddedSize(n int) int {
	return roundUp8(mathutil.Max(n, minPayload) + overhead)
}
