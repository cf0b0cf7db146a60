package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// defaultExportTop fills a 100 card singleton deck around the commander.
const defaultExportTop = 99

func newExportCommand(env *runtimeEnv) *cobra.Command {
	var (
		top int
		out string
	)
	cmd := &cobra.Command{
		Use:   "export <commander>",
		Short: "Write the top cards for a commander as an importable deck list",
		Long: `Export the top N cards as "1 <name>" lines followed by a blank line and the
commander. The list goes to stdout unless --out names a file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if top > env.cfg.MaxExportSize {
				return fmt.Errorf("--top %d exceeds the maximum of %d", top, env.cfg.MaxExportSize)
			}
			text, err := env.svc.Export(cmd.Context(), env.query(args[0]), top)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			}
			if err := os.WriteFile(out, []byte(text+"\n"), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", defaultExportTop, "Number of cards to include")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}
