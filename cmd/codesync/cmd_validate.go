package main

import (
	"github.com/spf13/cobra"

	"github.com/augmentcode/codesync/internal/api"
	"github.com/augmentcode/codesync/internal/metadata"
	"github.com/augmentcode/codesync/internal/session"
	"github.com/augmentcode/codesync/internal/startup"
	"github.com/augmentcode/codesync/internal/transport"
)

var cmdValidate = &cobra.Command{
	Use:   "validate",
	Short: "Validate credentials and API connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	cmdRoot.AddCommand(cmdValidate)
}

func newAPIClient(tenantURL, token string) *api.Client {
	t := transport.New(transport.Config{
		BaseURL:   tenantURL,
		Token:     token,
		UserAgent: "codesync/" + metadata.Version,
	})
	return api.New(t, "")
}

func runValidate(cmd *cobra.Command) error {
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

	cmd.Printf("connected to %s\n", state.Session.TenantURL)
	if state.DefaultModel != nil {
		cmd.Printf("default model: %s\n", *state.DefaultModel)
	}
	return nil
}
