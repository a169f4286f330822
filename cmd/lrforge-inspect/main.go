/*
Lrforge-inspect serves a read-only HTTP view over a build cache directory,
for poking at cached tables from a browser.

Usage:

	lrforge-inspect [flags]

The flags are:

	-d, --dir DIR
		Cache directory to serve. Defaults to the current directory.

	-p, --port PORT
		TCP port to listen on. Defaults to 8080.
*/
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/dekarrin/lrforge/buildcache"
	"github.com/dekarrin/lrforge/inspectsrv"
	"github.com/spf13/pflag"
)

const (
	ExitSuccess = iota
	ExitInitError
	ExitServeError
)

var (
	cacheDir = pflag.StringP("dir", "d", ".", "Cache directory to serve")
	port     = pflag.IntP("port", "p", 8080, "TCP port to listen on")
)

func main() {
	returnCode := ExitSuccess
	defer func() { os.Exit(returnCode) }()
	pflag.Parse()

	st, err := buildcache.Open(*cacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lrforge-inspect: opening cache: %v\n", err)
		returnCode = ExitInitError
		return
	}
	defer st.Close()

	addr := fmt.Sprintf(":%d", *port)
	fmt.Printf("lrforge-inspect: serving %s on %s\n", *cacheDir, addr)

	if err := http.ListenAndServe(addr, inspectsrv.Router(st)); err != nil {
		fmt.Fprintf(os.Stderr, "lrforge-inspect: %v\n", err)
		returnCode = ExitServeError
	}
}
