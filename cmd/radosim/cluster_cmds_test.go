package main

import (
	"testing"

	"github.com/cephlite/radosim/internal/cluster"
	"github.com/stretchr/testify/require"
)

func TestPgCmdArgsRejectsMalformedPGID(t *testing.T) {
	err := pgCmd.Args(pgCmd, []string{"not-a-pgid"})
	require.Error(t, err)
}

func TestPgCmdArgsAcceptsWellFormedPGID(t *testing.T) {
	err := pgCmd.Args(pgCmd, []string{"0.3"})
	require.NoError(t, err)
}

func TestPgCmdRunPrintsActingSetForBootstrappedPG(t *testing.T) {
	defer resetFlags()
	resetFlags()

	mon, _ := bootstrap()
	ds := mon.DetailedStatus()
	require.NotEmpty(t, ds.Pools)

	pgid := "0.0"
	_, _, ok := mon.ActingSetSnapshot(pgid)
	require.True(t, ok)

	require.NotPanics(t, func() {
		pgCmd.Run(pgCmd, []string{pgid})
	})
}

func TestOsdCmdWiresParseOSDState(t *testing.T) {
	defer resetFlags()
	resetFlags()

	mon, _ := bootstrap()
	require.NotPanics(t, func() {
		osdCmd.Run(osdCmd, []string{"down", "0"})
	})
	require.Panics(t, func() {
		osdCmd.Run(osdCmd, []string{"sideways", "0"})
	})
	// osdCmd bootstraps its own fresh cluster on every run, so this
	// separately bootstrapped monitor is left untouched.
	osd, ok := mon.LookupOSD(cluster.OSDID(0))
	require.True(t, ok)
	require.Equal(t, cluster.OSDUp, osd.State())
}
