package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/calltimeline/orchestrator"
)

func newComputeCmd(o *rootOptions) *cobra.Command {
	c := &cobra.Command{
		Use:   "compute [batch.(json|yaml|csv)]",
		Short: "Compute metrics for a batch of calls",
		Long: "Compute reads a batch file, or fetches one from services.ingest.url when\n" +
			"no file is given, and writes calls, speakers and a run manifest to a new\n" +
			"run directory under paths.outputs.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := o.load()
			if err != nil {
				return err
			}
			log := newLogger(conf, cmd.ErrOrStderr())

			var src orchestrator.Source
			if len(args) == 1 {
				src.Path = args[0]
			}
			res, err := orchestrator.NewPipeline(conf, log).Run(cmd.Context(), src)
			if res != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "run %s: %d computed, %d failed, %d skipped\n",
					res.RunID, len(res.Reports), len(res.Failures), res.Skipped)
				for _, f := range res.Failures {
					fmt.Fprintf(out, "  %v\n", f)
				}
				if res.Dir != "" {
					fmt.Fprintf(out, "output: %s\n", res.Dir)
				}
			}
			return err
		},
	}
	f := c.Flags()
	f.String("out", "", "outputs root directory")
	f.String("format", "", "output format: json or yaml")
	f.Int("workers", 0, "concurrent calls")
	f.StringSlice("metrics", nil, "metric groups to compute (default all)")
	_ = o.v.BindPFlag("paths.outputs", f.Lookup("out"))
	_ = o.v.BindPFlag("output.format", f.Lookup("format"))
	_ = o.v.BindPFlag("metrics.workers", f.Lookup("workers"))
	_ = o.v.BindPFlag("metrics.enabled", f.Lookup("metrics"))
	return c
}
