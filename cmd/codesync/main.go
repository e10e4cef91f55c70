package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/augmentcode/codesync/internal/debug"
	"github.com/augmentcode/codesync/internal/errors"
)

func init() {
	// don't import `go.uber.org/automaxprocs` to disable the log output
	_, _ = maxprocs.Set()
}

var cmdRoot = &cobra.Command{
	Use:   "codesync",
	Short: "Sync a workspace's source files to the Augment backend index",
	Long: `
codesync scans a workspace directory, turns its files into content-addressed
blobs, and keeps the backend's index of those blobs up to date.
`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

var globalOptions struct {
	CacheDir string
	Verbose  bool
}

func init() {
	flags := cmdRoot.PersistentFlags()
	flags.StringVar(&globalOptions.CacheDir, "cache-dir", "", "override the default ~/.augment cache directory")
	flags.BoolVarP(&globalOptions.Verbose, "verbose", "v", false, "print verbose progress output")
}

// Verbosef prints to stderr only when --verbose was given, independent of
// the CODESYNC_DEBUG_LOG/CODESYNC_DEBUG_FUNCS env-var gated debug.Log trace.
func Verbosef(format string, args ...interface{}) {
	if !globalOptions.Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

func main() {
	err := cmdRoot.Execute()
	if err == nil {
		return
	}

	if errors.IsFatal(err) {
		fmt.Fprintf(os.Stderr, "codesync: %v\n", err)
		os.Exit(1)
	}

	debug.Log("command failed: %v", err)
	fmt.Fprintf(os.Stderr, "codesync: %v\n", err)
	os.Exit(1)
}
