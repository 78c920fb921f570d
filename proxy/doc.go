// Package proxy implements a concurrent HTTP/1.0 caching forward proxy: an
// acceptor loop hands each accepted connection to its own goroutine, which
// parses the request line, rewrites a fixed set of headers, forwards the
// request to the origin, and opportunistically caches small responses in an
// LRU object cache shared across all connection goroutines.
//
// The cache is the only state shared between goroutines; it is guarded by a
// classic readers-preferred gate (see Gate) rather than sync.RWMutex, to
// match the reference implementation's starvation characteristics exactly.
package proxy
