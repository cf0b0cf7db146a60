package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/cardrank/internal/domain/model"
	"github.com/okian/cardrank/internal/domain/types"
)

const defaultScoresLimit = 25

func newScoresCommand(env *runtimeEnv) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "scores <commander> [commander...]",
		Short: "Print ranked card scores for one or more commanders",
		Long: `Fetch tournament entries for each commander and print the cards ranked by
score. Commanders are fetched concurrently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qs := make([]model.Query, len(args))
			for i, name := range args {
				qs[i] = env.query(name)
				if err := qs[i].Validate(); err != nil {
					return err
				}
			}
			results, err := env.svc.AnalyzeMany(cmd.Context(), qs)
			if err != nil {
				return err
			}

			out := make([]types.Analysis, len(results))
			for i, a := range results {
				out[i] = types.FromAnalysis(a, limit)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return writeTable(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultScoresLimit, "Cards to show per commander (0 shows all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, analyses []types.Analysis) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, a := range analyses {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s (%d entries, %d cards, min size %d, %s)\n",
			a.Commander, a.EntryCount, a.CardCount, a.MinEventSize, a.TimePeriod)
		fmt.Fprintln(tw, "RANK\tSCORE\tCARD")
		for _, c := range a.Cards {
			fmt.Fprintf(tw, "%d\t%.3f\t%s\n", c.Rank, c.Score, c.Name)
		}
	}
	return tw.Flush()
}
