package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/augmentcode/codesync/internal/cache"
	"github.com/augmentcode/codesync/internal/metadata"
	"github.com/augmentcode/codesync/internal/runtime"
	"github.com/augmentcode/codesync/internal/session"
	"github.com/augmentcode/codesync/internal/startup"
	"github.com/augmentcode/codesync/internal/tool"
)

// cmdServe is a minimal stand-in for a real MCP stdio server: it validates
// startup state once, publishes it to internal/runtime, then serves
// codebase-retrieval requests read one per line from stdin. Real MCP
// JSON-RPC framing is out of scope; this only exercises the tool surface
// end to end against a single workspace.
var cmdServe = &cobra.Command{
	Use:   "serve-stub [workspace]",
	Short: "Serve codebase-retrieval requests read line-by-line from stdin (debug/dev use)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		return runServe(cmd, root)
	},
}

func init() {
	cmdRoot.AddCommand(cmdServe)
}

func runServe(cmd *cobra.Command, root string) error {
	sessionStore, err := session.NewStore(globalOptions.CacheDir)
	if err != nil {
		return err
	}
	metadataManager, err := metadata.NewManager(globalOptions.CacheDir)
	if err != nil {
		return err
	}

	state, err := startup.Ensure(cmd.Context(), sessionStore, metadataManager, newAPIClient)
	if err != nil {
		return err
	}
	client := newAPIClient(state.Session.TenantURL, state.Session.AccessToken)
	runtime.Set(&runtime.Runtime{State: state, Client: client})

	cachePath, err := cache.FilePath(root)
	if err != nil {
		return err
	}
	blobCache, err := cache.Load(cachePath)
	if err != nil {
		return err
	}

	surface := tool.NewSurface(client)

	cmd.Println("serve-stub: ready, one codebase-retrieval request per stdin line")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		request := strings.TrimSpace(scanner.Text())
		if request == "" {
			continue
		}

		result, err := surface.CodebaseRetrieval(cmd.Context(), root, blobCache, request)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "codebase-retrieval failed: %v\n", err)
			continue
		}
		cmd.Println(result)

		if err := blobCache.Save(cachePath); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to persist cache: %v\n", err)
		}
	}
	return scanner.Err()
}
