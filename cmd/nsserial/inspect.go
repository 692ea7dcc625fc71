package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dotOutput string

var automatonCmd = &cobra.Command{
	Use:   "automaton <system>",
	Short: "Print the serialized automaton of a network system",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadSystem(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Serialized automaton:")
		for _, s := range n.SerializedAutomaton() {
			fmt.Fprintf(out, "  %v\n", s)
		}
		fmt.Fprintf(out, "Regular expression: %v\n", n.SerializedRegex())
		fmt.Fprintf(out, "Completed requests: %v\n", n.SerializedSemilinear())
		return nil
	},
}

var dotCmd = &cobra.Command{
	Use:   "dot <system>",
	Short: "Export a network system and its serialized automaton to Graphviz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := loadSystem(args[0])
		if err != nil {
			return err
		}
		if dotOutput == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), n.ToGraphviz())
			return err
		}
		return os.WriteFile(dotOutput, []byte(n.ToGraphviz()), 0o644)
	},
}

func init() {
	dotCmd.Flags().StringVarP(&dotOutput, "output", "o", "", "Output file (default: stdout)")
}
