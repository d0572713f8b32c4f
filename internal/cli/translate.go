package cli

import (
	"github.com/spf13/cobra"
)

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate <path> [query]",
		Short: "Print the SQL statement for a request",
		Long: `Print the SQL statement and bound parameters for an OData read request.

The query may also be appended to the path:

  odatasql translate "Entities1?\$filter=Status eq 'DONE'&\$top=5"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(rootOpts, cmd, args)
		},
	}
	return cmd
}

func runTranslate(opts *RootOptions, cmd *cobra.Command, args []string) error {
	f := &formatter{format: opts.Format, w: cmd.OutOrStdout()}

	tr, err := opts.translator(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	stmt, err := tr.Translate(cmd.Context(), requestPath(args), nil)
	if err != nil {
		return f.failure(err)
	}
	return f.statement(stmt)
}
