package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"voro-editor/internal/library"
	"voro-editor/internal/snapshot"
)

type libraryFlags struct {
	cfg     library.Config
	driver  string
	timeout time.Duration
}

// open applies the environment, then any flags given explicitly.
func (f *libraryFlags) open(cmd *cobra.Command) (library.Store, context.Context, context.CancelFunc, error) {
	cfg := library.FromEnv(library.Config{Driver: library.DriverFS, Path: "."})
	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Driver = library.Driver(f.driver)
	}
	if flags.Changed("path") {
		cfg.Path = f.cfg.Path
	}
	if flags.Changed("bucket") {
		cfg.Bucket = f.cfg.Bucket
	}
	if flags.Changed("region") {
		cfg.Region = f.cfg.Region
	}
	if flags.Changed("endpoint") {
		cfg.Endpoint = f.cfg.Endpoint
	}
	if flags.Changed("prefix") {
		cfg.Prefix = f.cfg.Prefix
	}
	if flags.Changed("path-style") {
		cfg.PathStyle = f.cfg.PathStyle
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	store, err := library.Open(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return store, ctx, cancel, nil
}

func newLibraryCmd() *cobra.Command {
	f := &libraryFlags{}
	cmd := &cobra.Command{
		Use:     "lib",
		Aliases: []string{"library"},
		Short:   "Manage the snapshot library",
		Long: `Manage the snapshot library.

The backend is chosen by flags or by the VORO_LIBRARY_* environment variables.
S3 credentials come from the standard AWS environment and config files.`,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.driver, "driver", "", "Backend: fs, sqlite, s3 or memory")
	pf.StringVar(&f.cfg.Path, "path", "", "Directory (fs) or database file (sqlite)")
	pf.StringVar(&f.cfg.Bucket, "bucket", "", "S3 bucket")
	pf.StringVar(&f.cfg.Region, "region", "", "S3 region")
	pf.StringVar(&f.cfg.Endpoint, "endpoint", "", "S3 endpoint URL (MinIO)")
	pf.StringVar(&f.cfg.Prefix, "prefix", "", "S3 key prefix")
	pf.BoolVar(&f.cfg.PathStyle, "path-style", false, "S3 path-style addressing")
	pf.DurationVar(&f.timeout, "timeout", 30*time.Second, "Request timeout")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored snapshots",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, ctx, cancel, err := f.open(cmd)
				if err != nil {
					return err
				}
				defer cancel()
				defer store.Close()
				entries, err := store.List(ctx)
				if err != nil {
					return err
				}
				sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
				out := cmd.OutOrStdout()
				for _, e := range entries {
					fmt.Fprintf(out, "%-32s %10d  %s\n", e.Name, e.Size, e.Modified.UTC().Format(time.RFC3339))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "put <name> <snapshot>",
			Short: "Store a snapshot file under name",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := os.ReadFile(args[1])
				if err != nil {
					return err
				}
				if _, err := snapshot.Decode(data); err != nil {
					return fmt.Errorf("%s: %w", args[1], err)
				}
				store, ctx, cancel, err := f.open(cmd)
				if err != nil {
					return err
				}
				defer cancel()
				defer store.Close()
				e, err := store.Put(ctx, args[0], data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%d bytes)\n", e.Name, e.Size)
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <name> <snapshot>",
			Short: "Fetch a stored snapshot into a file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, ctx, cancel, err := f.open(cmd)
				if err != nil {
					return err
				}
				defer cancel()
				defer store.Close()
				data, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return os.WriteFile(args[1], data, 0644)
			},
		},
		&cobra.Command{
			Use:     "rm <name>",
			Aliases: []string{"delete"},
			Short:   "Delete a stored snapshot",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, ctx, cancel, err := f.open(cmd)
				if err != nil {
					return err
				}
				defer cancel()
				defer store.Close()
				found, err := store.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("%s: %w", args[0], library.ErrNotFound)
				}
				return nil
			},
		},
	)
	return cmd
}
