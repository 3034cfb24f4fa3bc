package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/calltimeline/metrics"
)

func newMetricsCmd() *cobra.Command {
	var asJSON bool
	c := &cobra.Command{
		Use:   "metrics",
		Short: "List the metric catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if asJSON {
				type entry struct {
					ID          metrics.ID        `json:"id"`
					Version     string            `json:"version"`
					Category    metrics.Category  `json:"category"`
					Description string            `json:"description"`
					Units       map[string]string `json:"units"`
				}
				list := make([]entry, 0, len(metrics.Catalog))
				for _, d := range metrics.Catalog {
					list = append(list, entry{d.ID, d.Version, d.Category, d.Description, d.Units})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVERSION\tCATEGORY\tDESCRIPTION\tFIELDS")
			for _, d := range metrics.Catalog {
				fields := make([]string, 0, len(d.Units))
				for k := range d.Units {
					fields = append(fields, k)
				}
				sort.Strings(fields)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Version, d.Category, d.Description, strings.Join(fields, ","))
			}
			return tw.Flush()
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return c
}
