// Copyright 2024 The Ksck Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package cli implements the ksck command surface.
package cli

import (
	"context"
	"time"

	"github.com/bigbytest/kudu/pkg/client"
	"github.com/bigbytest/kudu/pkg/ksck"
	"github.com/bigbytest/kudu/pkg/rpc"
	"github.com/bigbytest/kudu/pkg/util/log"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliContext holds the flag values shared by the ksck subcommands.
type cliContext struct {
	masterAddr        string
	configPath        string
	verbosity         int
	dialTimeout       time.Duration
	rpcTimeout        time.Duration
	consistencyBudget time.Duration
	retryInterval     time.Duration
	checksumTimeout   time.Duration
	tables            []string
	tablets           []string
	withChecksum      bool
}

var cliCtx = cliContext{
	dialTimeout:       5 * time.Second,
	rpcTimeout:        10 * time.Second,
	consistencyBudget: 30 * time.Second,
	retryInterval:     time.Second,
	checksumTimeout:   time.Minute,
}

// resolve merges the config file (if any) under flags that were not set
// explicitly.
func (c *cliContext) resolve(f *pflag.FlagSet) error {
	if c.configPath == "" {
		return nil
	}
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	if !f.Changed("master") && cfg.MasterAddress != "" {
		c.masterAddr = cfg.MasterAddress
	}
	if !f.Changed("dial-timeout") && cfg.DialTimeout > 0 {
		c.dialTimeout = time.Duration(cfg.DialTimeout)
	}
	if !f.Changed("rpc-timeout") && cfg.RPCTimeout > 0 {
		c.rpcTimeout = time.Duration(cfg.RPCTimeout)
	}
	if !f.Changed("consistency-timeout") && cfg.ConsistencyBudget > 0 {
		c.consistencyBudget = time.Duration(cfg.ConsistencyBudget)
	}
	if !f.Changed("retry-interval") && cfg.RetryInterval > 0 {
		c.retryInterval = time.Duration(cfg.RetryInterval)
	}
	if !f.Changed("checksum-timeout") && cfg.ChecksumTimeout > 0 {
		c.checksumTimeout = time.Duration(cfg.ChecksumTimeout)
	}
	return nil
}

// newChecker dials nothing; it wires the live client stack together. The
// returned cleanup closes cached connections.
func (c *cliContext) newChecker() (*ksck.Ksck, func()) {
	rpcCtx := rpc.NewContext(rpc.Options{DialTimeout: c.dialTimeout})
	master := client.NewMaster(rpcCtx, c.masterAddr, c.rpcTimeout)
	cluster := ksck.NewCluster(master)
	checker := ksck.New(cluster, ksck.Options{
		ConsistencyBudget: c.consistencyBudget,
		RetryInterval:     c.retryInterval,
	})
	return checker, rpcCtx.Close
}

func addFilterFlags(f *pflag.FlagSet) {
	f.StringSliceVar(&cliCtx.tables, "tables", nil,
		"restrict the checksum scan to the named tables")
	f.StringSliceVar(&cliCtx.tablets, "tablets", nil,
		"restrict the checksum scan to the named tablets")
	f.DurationVar(&cliCtx.checksumTimeout, "checksum-timeout", cliCtx.checksumTimeout,
		"maximum total time to wait for checksum results")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "run all consistency checks against the cluster",
	Long: `
Connects to the master, fetches the cluster topology, and verifies that all
tablet servers are reachable, that every tablet has the expected number of
replicas and exactly one leader, and that tablet server assignments agree
with the master. With --checksum, additionally verifies that all replicas of
each tablet return identical data checksums.
`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var checksumCmd = &cobra.Command{
	Use:   "checksum",
	Short: "verify data checksums across tablet replicas",
	Long: `
Fetches the cluster topology and runs a checksum scan on every replica of
the selected tablets, comparing the results within each tablet. The working
set is the intersection of --tables and --tablets; leaving a filter empty
imposes no restriction from that filter.
`,
	Args: cobra.NoArgs,
	RunE: runChecksum,
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if err := cliCtx.resolve(cmd.Flags()); err != nil {
		return err
	}
	log.SetVerbosity(cliCtx.verbosity)
	ctx := context.Background()
	checker, cleanup := cliCtx.newChecker()
	defer cleanup()
	rep := newReporter(cmd.OutOrStdout())

	if err := checker.CheckMasterRunning(ctx); err != nil {
		rep.step("connect to master", nil, err)
		return err
	}
	rep.step("connect to master", nil, nil)

	if err := checker.FetchTableAndTabletInfo(ctx); err != nil {
		rep.step("fetch cluster topology", nil, err)
		return err
	}
	rep.step("fetch cluster topology", nil, nil)

	var total int
	runStep := func(name string, fn func(context.Context) ([]ksck.Finding, error)) error {
		findings, err := fn(ctx)
		rep.step(name, findings, err)
		total += len(findings)
		return err
	}

	if err := runStep("tablet servers reachable", checker.CheckTabletServersRunning); err != nil {
		return err
	}
	if err := runStep("table consistency", checker.CheckTablesConsistency); err != nil {
		return err
	}
	if err := runStep("assignments", checker.CheckAssignments); err != nil {
		return err
	}
	if cliCtx.withChecksum {
		err := runStep("data checksums", func(ctx context.Context) ([]ksck.Finding, error) {
			return checker.ChecksumData(ctx, cliCtx.tables, cliCtx.tablets, cliCtx.checksumTimeout)
		})
		if err != nil {
			return err
		}
	}

	if total > 0 {
		return errors.Newf("cluster check discovered %s findings",
			humanize.Comma(int64(total)))
	}
	return nil
}

func runChecksum(cmd *cobra.Command, _ []string) error {
	if err := cliCtx.resolve(cmd.Flags()); err != nil {
		return err
	}
	log.SetVerbosity(cliCtx.verbosity)
	ctx := context.Background()
	checker, cleanup := cliCtx.newChecker()
	defer cleanup()
	rep := newReporter(cmd.OutOrStdout())

	if err := checker.CheckMasterRunning(ctx); err != nil {
		return err
	}
	if err := checker.FetchTableAndTabletInfo(ctx); err != nil {
		return err
	}
	findings, err := checker.ChecksumData(ctx, cliCtx.tables, cliCtx.tablets, cliCtx.checksumTimeout)
	rep.step("data checksums", findings, err)
	if err != nil {
		return err
	}
	if len(findings) > 0 {
		return errors.Newf("checksum scan discovered %s findings",
			humanize.Comma(int64(len(findings))))
	}
	return nil
}

func init() {
	checkFlags := checkCmd.Flags()
	checkFlags.DurationVar(&cliCtx.consistencyBudget, "consistency-timeout", cliCtx.consistencyBudget,
		"total time budget for a table to converge during the consistency check")
	checkFlags.DurationVar(&cliCtx.retryInterval, "retry-interval", cliCtx.retryInterval,
		"pause between consistency verification attempts")
	checkFlags.BoolVar(&cliCtx.withChecksum, "checksum", false,
		"also verify data checksums across replicas")
	addFilterFlags(checkFlags)
	addFilterFlags(checksumCmd.Flags())
}

func makeKsckCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ksck",
		Short:         "kudu cluster consistency checker",
		Long:          "\nksck verifies the topology and data consistency of a live cluster.\nIt is read-only: it reports problems and never repairs them.\n",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cliCtx.masterAddr, "master", "localhost:7051",
		"address of the cluster master")
	pf.StringVar(&cliCtx.configPath, "config", "",
		"path to an optional YAML config file")
	pf.IntVarP(&cliCtx.verbosity, "verbosity", "v", 0,
		"log verbosity level")
	pf.DurationVar(&cliCtx.dialTimeout, "dial-timeout", cliCtx.dialTimeout,
		"timeout for establishing a connection to a peer")
	pf.DurationVar(&cliCtx.rpcTimeout, "rpc-timeout", cliCtx.rpcTimeout,
		"timeout for a single remote call")

	rootCmd.AddCommand(checkCmd, checksumCmd)
	return rootCmd
}

// Run executes the ksck command line.
func Run(args []string) error {
	cmd := makeKsckCommand()
	cmd.SetArgs(args)
	defer log.Flush()
	return cmd.Execute()
}
