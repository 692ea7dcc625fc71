package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nsserial/archive"
)

var (
	historySystem string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history <archive>",
	Short: "List the runs recorded in an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := archive.Open(args[0])
		if err != nil {
			return err
		}
		defer a.Close()
		runs, err := a.Recent(cmd.Context(), historySystem, historyLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSYSTEM\tVERDICT\tSTARTED\tDURATION\tMESSAGE")
		for _, r := range runs {
			fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\t%v\n", r.ID, r.System, r.Verdict, r.Started.Format("2006-01-02 15:04:05"), r.Duration, r.Message)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historySystem, "system", "", "Only list runs of this system")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs")
}
