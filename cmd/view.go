package cmd

import (
	"fmt"

	"github.com/mabhi256/swotrace/internal/viewer"
	"github.com/mabhi256/swotrace/utils"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view <trace.csv>",
	Short: "View a saved trace file",
	Long: `View opens a trace previously saved with 's' in the watch view. The log,
timeline and profile tabs work the same without a capture source.

Examples:
  swotrace view trace.csv
  swotrace view <TAB>                   # Tab completion for .csv files`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension([]string{".csv"}, false),
	RunE: func(cmd *cobra.Command, args []string) error {
		session := viewer.NewSession(nil)

		n, err := session.Store.Load(args[0], session.Table)
		if err != nil {
			return fmt.Errorf("unable to load %s: %w", args[0], err)
		}
		if n == 0 {
			return fmt.Errorf("%s contains no trace lines", args[0])
		}

		session.Timeline.Rebuild(session.Store, session.Table, 0, true)
		if err := viewer.StartTUI(session); err != nil {
			return fmt.Errorf("unable to start TUI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
