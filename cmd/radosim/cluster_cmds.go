package main

import (
	"fmt"
	"strconv"

	"github.com/cephlite/radosim/internal/cluster"
	"github.com/cephlite/radosim/internal/monitor"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var osdCmd = &cobra.Command{
	Use:   "osd add|up|down|out <id>",
	Short: "Add an OSD to the bootstrapped cluster, or change its admission state",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return errors.New("expected a subcommand (add|up|down|out) and an OSD id")
		}
		if _, err := strconv.Atoi(args[1]); err != nil {
			return errors.Wrapf(err, "invalid OSD id %q", args[1])
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		mon, _ := bootstrap()

		action := args[0]
		idInt, _ := strconv.Atoi(args[1])
		id := cluster.OSDID(idInt)

		if action == "add" {
			rack := mustGetString(cmd, "rack")
			mon.AddOSD(id, rack, 1.0)
			fmt.Printf("osd.%d added to rack %q\n", id, rack)
			return
		}

		state, err := cluster.ParseOSDState(action)
		if err != nil {
			panic(errors.Errorf("unknown osd subcommand %q", action))
		}
		mustSetOSDState(mon, id, state)
	},
}

func mustSetOSDState(mon *monitor.Monitor, id cluster.OSDID, state cluster.OSDState) {
	if err := mon.SetOSDState(id, state); err != nil {
		panic(errors.Wrapf(err, "set osd.%d to %s", id, state))
	}

	var c *color.Color
	switch state {
	case cluster.OSDUp:
		c = color.New(color.FgGreen)
	case cluster.OSDDown:
		c = color.New(color.FgRed)
	case cluster.OSDOut:
		c = color.New(color.FgYellow)
	}
	fmt.Printf("osd.%d is now %s\n", id, c.Sprint(state.String()))
}

var poolCmd = &cobra.Command{
	Use:   "pool create <name>",
	Short: "Create a pool with the given replication policy",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 || args[0] != "create" {
			return errors.New("expected: pool create <name>")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		mon, _ := bootstrap()

		name := args[1]
		id, err := mon.CreatePool(name, poolSize, poolMinSize, poolPGNum)
		if err != nil {
			panic(errors.Wrapf(err, "create pool %q", name))
		}
		fmt.Printf("pool %q created (id=%d, size=%d, min_size=%d, pg_num=%d)\n",
			name, id, poolSize, poolMinSize, poolPGNum)
	},
}

var pgCmd = &cobra.Command{
	Use:   "pg <pool_id>.<pg_index>",
	Short: "Print a placement group's acting set and state",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("expected: pg <pool_id>.<pg_index>")
		}
		if _, _, err := cluster.PGIndexFromPGID(args[0]); err != nil {
			return err
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		mon, _ := bootstrap()

		pgid := args[0]
		poolID, pgIndex, err := cluster.PGIndexFromPGID(pgid)
		if err != nil {
			panic(errors.WithStack(err))
		}

		actingSet, state, ok := mon.ActingSetSnapshot(pgid)
		if !ok {
			panic(errors.Errorf("pg %q not found (pool=%d index=%d)", pgid, poolID, pgIndex))
		}

		c := color.New(color.FgGreen)
		if state != cluster.PGActiveClean {
			c = color.New(color.FgYellow)
		}
		fmt.Printf("pg %s (pool=%d index=%d) %s acting=%v\n", pgid, poolID, pgIndex, c.Sprint(state.String()), actingSet)
	},
}

func init() {
	osdCmd.Flags().String("rack", "rack1", "rack to place a newly added OSD in")
	rootCmd.AddCommand(pgCmd)
}
