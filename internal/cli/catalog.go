package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"biodiversity-quiz/internal/bank"
	"biodiversity-quiz/internal/domain"
)

// NewCatalogCmd validates a catalog file and prints per age group stats.
func NewCatalogCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate a question catalog and print its contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := bank.Load(cmd.Context(), bank.FileLoader{Path: file})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "AGE GROUP\tNAME\tQUESTIONS\tEASY\tMEDIUM\tHARD\tPOINTS")
			for _, set := range b.Sets() {
				counts := map[domain.Difficulty]int{}
				points := 0
				for _, q := range set.Questions {
					counts[q.Difficulty]++
					points += q.Points
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
					set.ID, set.Name, len(set.Questions),
					counts[domain.DifficultyEasy], counts[domain.DifficultyMedium], counts[domain.DifficultyHard],
					points,
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "catalog YAML (defaults to the embedded catalog)")
	return cmd
}
