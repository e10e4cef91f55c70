package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/augmentcode/codesync/internal/cache"
	"github.com/augmentcode/codesync/internal/metadata"
	"github.com/augmentcode/codesync/internal/session"
	"github.com/augmentcode/codesync/internal/startup"
	sync2 "github.com/augmentcode/codesync/internal/sync"
)

var syncOptions struct {
	Full     bool
	Watch    bool
	Interval time.Duration
}

var cmdSync = &cobra.Command{
	Use:   "sync [workspace]",
	Short: "Scan a workspace and upload changed blobs to the backend index",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		return runSync(cmd, root)
	},
}

func init() {
	flags := cmdSync.Flags()
	flags.BoolVar(&syncOptions.Full, "full", false, "force a full rescan and upload instead of an incremental sync")
	flags.BoolVar(&syncOptions.Watch, "watch", false, "keep syncing in the background on --interval until interrupted")
	flags.DurationVar(&syncOptions.Interval, "interval", 30*time.Second, "background sync interval, used with --watch")

	cmdRoot.AddCommand(cmdSync)
}

func runSync(cmd *cobra.Command, root string) error {
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

	cachePath, err := cache.FilePath(root)
	if err != nil {
		return err
	}
	Verbosef("using cache file %s\n", cachePath)
	blobCache, err := cache.Load(cachePath)
	if err != nil {
		return err
	}

	engine := sync2.New(root, client, blobCache)

	if syncOptions.Watch {
		cmd.Println("watching", root, "every", syncOptions.Interval)
		defer func() { _ = blobCache.Save(cachePath) }()
		return engine.RunBackground(cmd.Context(), syncOptions.Interval)
	}

	var progress sync2.Progress
	if syncOptions.Full {
		progress, err = engine.SyncFull(cmd.Context())
	} else {
		progress, err = engine.SyncIncremental(cmd.Context())
	}
	if err != nil {
		return err
	}

	if err := blobCache.Save(cachePath); err != nil {
		return err
	}

	cmd.Printf("scanned %d files, uploaded %d blobs, %d unchanged, %d deleted\n",
		progress.FilesScanned, progress.BlobsUploaded, progress.BlobsUnchanged, progress.BlobsDeleted)
	return nil
}
