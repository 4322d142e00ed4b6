package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tanq16/dl/internal/cleanup"
)

func newCleanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [path]",
		Short: "Remove leftover chunk files (defaults to the active directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closer, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer closer.Close()
			req := cleanup.Default()
			if len(args) > 0 {
				req = cleanup.WithPath(args[0])
			}
			_, err = runCleanup(cmd, req, "", "")
			return err
		},
	}
}
