// Command radosim is a small operator CLI over the in-process
// simulated cluster of internal/monitor and internal/rados.
//
// Unlike a real Ceph client, radosim has no daemon of its own to talk
// to: each invocation (other than "serve") builds a fresh cluster from
// flags (or the default topology), performs one operation, and prints
// the result. State is not persisted between invocations; "serve" is
// the one subcommand that keeps a cluster resident in memory.
package main

import (
	"fmt"
	"os"

	"github.com/cephlite/radosim/internal/cluster"
	"github.com/cephlite/radosim/internal/monitor"
	"github.com/cephlite/radosim/internal/rados"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var gitCommit string

var (
	racks       []string
	osdsPerRack int
	poolName    string
	poolSize    int
	poolMinSize int
	poolPGNum   int

	rootCmd = &cobra.Command{
		Use:   "radosim",
		Short: "Drive a simulated RADOS-style replicated object cluster",
		Long: `Drive a simulated RADOS-style replicated object cluster.

Every subcommand other than "serve" bootstraps a fresh cluster from the
--racks/--osds-per-rack/--pool/--size/--min-size/--pg-num flags (the
default topology is rack1,rack1,rack2,rack2,rack3 with a 3x "default"
pool, matching Scenario 1 of the replication protocol), performs a
single operation, and prints the outcome. State is not persisted
between invocations; use "radosim serve" for a long-lived process that
keeps the cluster in memory and exposes it over HTTP.
`,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("git sha %s\n", gitCommit)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&racks, "racks", nil,
		"rack names to bootstrap OSDs into (default: rack1,rack1,rack2,rack2,rack3, one OSD per entry)")
	rootCmd.PersistentFlags().IntVar(&osdsPerRack, "osds-per-rack", 0,
		"if set with --racks naming distinct racks, place this many OSDs in each named rack")
	rootCmd.PersistentFlags().StringVar(&poolName, "pool", "default", "pool name to bootstrap/operate on")
	rootCmd.PersistentFlags().IntVar(&poolSize, "size", 3, "pool replication factor")
	rootCmd.PersistentFlags().IntVar(&poolMinSize, "min-size", 2, "pool minimum replicas for a write to succeed")
	rootCmd.PersistentFlags().IntVar(&poolPGNum, "pg-num", 8, "number of placement groups in the bootstrapped pool")

	rootCmd.AddCommand(osdCmd)
	rootCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				fmt.Fprintf(os.Stderr, "%+v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "%v\n", r)
			}
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

// bootstrap builds a monitor+RADOS pair from the persistent topology
// flags. With no --racks given it places one OSD per entry of
// cluster.DefaultRacks; the single pool always comes from the
// --pool/--size/--min-size/--pg-num flags.
func bootstrap() (*monitor.Monitor, *rados.RADOS) {
	mon := monitor.New()

	rackList := racks
	if len(rackList) == 0 {
		rackList = cluster.DefaultRacks()
	} else if osdsPerRack > 0 {
		expanded := make([]string, 0, len(rackList)*osdsPerRack)
		for _, r := range rackList {
			for i := 0; i < osdsPerRack; i++ {
				expanded = append(expanded, r)
			}
		}
		rackList = expanded
	}

	for i, rack := range rackList {
		mon.AddOSD(cluster.OSDID(i), rack, 1.0)
	}

	if _, err := mon.CreatePool(poolName, poolSize, poolMinSize, poolPGNum); err != nil {
		panic(errors.Wrapf(err, "bootstrap pool %q", poolName))
	}

	return mon, rados.New(mon)
}

func mustGetString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(errors.WithStack(err))
	}
	return v
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(errors.WithStack(err))
	}
	return v
}
