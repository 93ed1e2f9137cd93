package main

import (
	"fmt"

	"github.com/cephlite/radosim/internal/cluster"
	"github.com/cephlite/radosim/internal/monitor"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap and print the canonical default topology (5 OSDs, default+metadata pools)",
	Long: `Bootstrap and print the canonical default topology: 5 OSDs across
racks rack1,rack1,rack2,rack2,rack3, with a 3x replicated "default"
pool (pg_num=32) and a 3x replicated "metadata" pool (pg_num=16).

This ignores --racks/--pool/--size/--min-size/--pg-num; it exists to
demonstrate the canonical cluster shape of cluster.DefaultTopology.
`,
	Run: func(cmd *cobra.Command, args []string) {
		mon := monitor.New()
		racks, pools := cluster.DefaultTopology()

		for i, rack := range racks {
			mon.AddOSD(cluster.OSDID(i), rack, 1.0)
		}
		for _, spec := range pools {
			if _, err := mon.CreatePool(spec.Name, spec.Size, spec.MinSize, spec.PGNum); err != nil {
				panic(errors.Wrapf(err, "create pool %q", spec.Name))
			}
		}

		ds := mon.DetailedStatus()
		fmt.Printf("%s  epoch %d\n", ds.Health, ds.Epoch)
		for _, p := range ds.Pools {
			fmt.Printf("  pool %-10s size=%d min_size=%d pg_num=%d\n", p.Name, p.Size, p.MinSize, p.PGNum)
		}
		for _, o := range ds.OSDs {
			fmt.Printf("  osd.%-4d rack=%-8s %s\n", o.ID, o.Rack, o.State)
		}
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
