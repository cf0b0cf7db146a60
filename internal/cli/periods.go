package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/cardrank/internal/domain/model"
)

func newPeriodsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "periods",
		Short: "List the accepted --period values",
		Args:  cobra.NoArgs,
		// Listing needs neither config nor the upstream client.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range model.TimePeriods() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
