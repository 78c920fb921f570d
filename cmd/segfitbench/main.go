// Command segfitbench drives the allocator through a randomized
// alloc/realloc/free workload and reports timing and occupancy, in the
// spirit of the reference FLT-comparison driver this package's tests are
// grounded on.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/go-segfit/segfit/heap"
	"github.com/spf13/pflag"
)

func main() {
	var (
		n       = pflag.IntP("n", "n", 1000, "target number of live allocations")
		maxSize = pflag.Int("max-size", 1<<16, "maximum single allocation size")
		verify  = pflag.Bool("verify", true, "run the heap validator after every mutation")
		dump    = pflag.Bool("dump", false, "print a full block dump when finished")
		seed    = pflag.Int64("seed", 42, "PRNG seed")
	)
	pflag.Parse()

	h, err := heap.NewHeap()
	if err != nil {
		fmt.Fprintln(os.Stderr, "segfitbench:", err)
		os.Exit(1)
	}
	h.Verbose = true

	rng := rand.New(rand.NewSource(*seed))
	var ptrs []heap.Ptr
	t0 := time.Now()

	for len(ptrs) < *n {
		for nalloc := len(ptrs)/2 + 1; nalloc != 0; nalloc-- {
			sz := rng.Intn(*maxSize + 1)
			p, err := h.Allocate(sz)
			if err != nil {
				fmt.Fprintln(os.Stderr, "segfitbench: allocate:", err)
				os.Exit(1)
			}
			ptrs = append(ptrs, p)
			mustVerify(h, *verify)
		}

		for nrealloc := len(ptrs) / 2; nrealloc != 0; nrealloc-- {
			i := rng.Intn(len(ptrs))
			sz := rng.Intn(*maxSize + 1)
			q, err := h.Reallocate(ptrs[i], sz)
			if err != nil {
				fmt.Fprintln(os.Stderr, "segfitbench: reallocate:", err)
				os.Exit(1)
			}
			ptrs[i] = q
			mustVerify(h, *verify)
		}

		for ndel := len(ptrs) / 4; ndel != 0 && len(ptrs) > 1; ndel-- {
			i := rng.Intn(len(ptrs))
			if err := h.Release(ptrs[i]); err != nil {
				fmt.Fprintln(os.Stderr, "segfitbench: release:", err)
				os.Exit(1)
			}
			ptrs[i] = ptrs[len(ptrs)-1]
			ptrs = ptrs[:len(ptrs)-1]
			mustVerify(h, *verify)
		}
	}

	elapsed := time.Since(t0)
	st := h.Stats()
	fmt.Printf("n=%d live=%d total=%d alloc=%d free=%d time=%s\n",
		*n, len(ptrs), st.TotalBytes, st.AllocBytes, st.FreeBytes, elapsed)

	if *dump {
		h.Dump(os.Stdout)
	}
}

func mustVerify(h *heap.Heap, enabled bool) {
	if !enabled {
		return
	}
	if err := h.Verify(); err != nil {
		fmt.Fprintln(os.Stderr, "segfitbench: inconsistent heap:", err)
		os.Exit(1)
	}
}
