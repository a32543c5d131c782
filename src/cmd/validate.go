package cmd

import (
	"github.com/contre95/soulsearch/src/features/matching"
	"github.com/spf13/cobra"
)

func cmdValidate() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <expression>",
		Short: "Check a filter expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := matching.ValidateExpression(args[0])
			if res.Valid {
				okColor.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			}
			for _, msg := range res.Errors {
				errColor.Fprintln(cmd.ErrOrStderr(), msg)
			}
			return &exitError{code: 1}
		},
	}
}
