package heap

import "fmt"

// InvalidArgError reports a caller error: a negative size, a Ptr outside
// the heap's block area, or the release of a block that is already free.
type InvalidArgError struct {
	Op  string
	Arg interface{}
}

func (e *InvalidArgError) Error() string {
	return fmt.Sprintf("heap: %s: invalid argument %v", e.Op, e.Arg)
}

// InconsistencyKind enumerates the distinct invariants a heap walk or a
// free-list walk can find broken. Values are assigned so a diagnostic
// string can name the invariant that failed.
type InconsistencyKind int

const (
	_ InconsistencyKind = iota
	ErrBadSize                 // block size not a multiple of 8, or < minBlockSize
	ErrHeaderFooterMismatch    // header.size != footer.size
	ErrBackLinkBroken          // prev(next(b)) != b
	ErrAdjacentFreeBlocks      // two physically adjacent free non-wilderness blocks
	ErrNotInExpectedBin        // bin list holds a block of the wrong size, an allocated block, or a link outside the block area
	ErrWildernessNotLast       // wilderness is not the physically last block
	ErrWildernessAllocated     // the wilderness block is marked allocated
	ErrFreeCountMismatch       // heap-walk free count != bin-walk free count
)

// InconsistencyError reports a structural problem found by Verify. Off is
// the byte offset of the offending block's header, or -1 when the error is
// not block-local (e.g. ErrFreeCountMismatch).
type InconsistencyError struct {
	Kind InconsistencyKind
	Off  int
	Bin  int
	Msg  string
}

func (e *InconsistencyError) Error() string {
	if e.Off < 0 {
		return fmt.Sprintf("heap: inconsistent: %s", e.Msg)
	}
	return fmt.Sprintf("heap: inconsistent at offset %d (bin %d): %s", e.Off, e.Bin, e.Msg)
}
