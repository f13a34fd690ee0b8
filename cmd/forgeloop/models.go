package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/forgeloop/forgeloop/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the known models",
	RunE: func(_ *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tPROVIDER\tCONTEXT\tMAX OUTPUT")
		for _, m := range llm.Models {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", m.ID, m.Provider, m.ContextWindow, m.MaxOutput)
		}
		return w.Flush()
	},
}
