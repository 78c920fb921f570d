// Command proxyd runs the caching HTTP/1.0 forward proxy.
package main

import (
	"fmt"
	"os"

	"github.com/go-segfit/segfit/proxy"
	"github.com/spf13/pflag"
)

func main() {
	var (
		verbose       = pflag.BoolP("verbose", "v", false, "enable debug logging")
		maxObjectSize = pflag.Int("max-object-size", proxy.DefaultMaxObjectSize, "largest response body the cache will store, in bytes")
		maxCacheSize  = pflag.Int("max-cache-size", proxy.DefaultMaxCacheSize, "total cache byte budget")
	)
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: proxyd [flags] <port>")
		os.Exit(1)
	}

	cfg := proxy.Config{
		Addr:          ":" + pflag.Arg(0),
		MaxObjectSize: *maxObjectSize,
		MaxCacheSize:  *maxCacheSize,
		Verbose:       *verbose,
	}

	srv := proxy.NewServer(cfg, nil)
	if err := srv.ListenAndServe(); err != nil {
		fmt.Fprintln(os.Stderr, "proxyd:", err)
		os.Exit(1)
	}
}
