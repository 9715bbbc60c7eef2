package cli

import (
	"github.com/spf13/cobra"

	"github.com/ByLCY/labelmaker/layout"
)

func newLayoutCmd() *cobra.Command {
	var (
		opts labelOpts
		file string
	)

	cmd := &cobra.Command{
		Use:   "layout [code...]",
		Short: "Print the computed label layout as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			codes, err := collectCodes(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			gen, _, err := opts.newGenerator(ctx)
			if err != nil {
				return err
			}
			res, err := gen.Layout(ctx, codes)
			if err != nil {
				return err
			}
			return layout.EncodeDebugJSON(cmd.OutOrStdout(), res)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "read codes from file, one per line (- for stdin)")

	return cmd
}
