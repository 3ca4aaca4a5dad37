package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/torfstack/jumble/internal/cache"
	"github.com/torfstack/jumble/internal/config"
	"github.com/torfstack/jumble/internal/github"
	"github.com/torfstack/jumble/internal/logging"
	"github.com/torfstack/jumble/internal/service"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "jumble",
		Short:         "Fetch JSON files from a GitHub repository tree and merge them into one document",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var debugFlag bool
	rootCmd.PersistentFlags().
		BoolVarP(&debugFlag, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.SetDebug(debugFlag)
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Download and merge all JSON files under the configured remote path",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Get()
			if err != nil {
				return err
			}

			blobs := openCache(ctx)
			if blobs != nil {
				defer func() {
					if errClose := blobs.Close(); errClose != nil {
						logging.Debugf("Could not close cache: %s", errClose)
					}
				}()
			}

			client := github.NewClient(ctx, cfg, asBlobCache(blobs))
			return service.NewService(cfg, client).Run(ctx)
		},
	}

	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create the config file interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetInteractive()
			if err != nil {
				return err
			}
			fmt.Printf("Configured %s/%s path '%s', output '%s'\n", cfg.Owner, cfg.Repo, cfg.Path, cfg.OutputFile)
			return nil
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch [dir]",
		Short: "Merge JSON files from a local directory and re-merge on changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Get()
			if err != nil {
				return err
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return service.NewService(cfg, nil).Watch(cmd.Context(), dir)
		},
	}

	var cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage the download cache",
	}
	var cachePurgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "Drop all cached downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			blobs, err := cache.New(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if errClose := blobs.Close(); errClose != nil {
					logging.Debugf("Could not close cache: %s", errClose)
				}
			}()
			return blobs.Purge(ctx)
		},
	}
	cacheCmd.AddCommand(cachePurgeCmd)

	rootCmd.AddCommand(runCmd, initCmd, watchCmd, cacheCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		report(err)
	}
}

// openCache never fails a run, a broken cache only means every file is
// downloaded directly.
func openCache(ctx context.Context) *cache.Cache {
	blobs, err := cache.New(ctx)
	if err != nil {
		logging.Debugf("Running without download cache: %s", err)
		return nil
	}
	return blobs
}

func asBlobCache(c *cache.Cache) github.BlobCache {
	if c == nil {
		return nil
	}
	return c
}

func report(err error) {
	var listingErr *github.ListingError
	var urlErr *url.Error
	switch {
	case errors.As(err, &listingErr):
		fmt.Fprintf(os.Stderr, "Error: %s\n", listingErr)
	case errors.As(err, &urlErr):
		fmt.Fprintf(os.Stderr, "Network error: %s\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n%s", err, debug.Stack())
	}
	os.Exit(1)
}
