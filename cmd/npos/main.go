// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/npos/api"
	"github.com/vechain/npos/cmd/npos/node"
	"github.com/vechain/npos/genesis"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/metrics"
	"github.com/vechain/npos/runtime"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "npos",
		Usage:     "Nominated proof of stake election and staking node",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			persistFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiBacktraceLimitFlag,
			apiLogsLimitFlag,
			enableAPILogsFlag,
			pprofFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			blockIntervalFlag,
			noMinerFlag,
			devValidatorsFlag,
			devNominatorsFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { log.Info("exited") }()

	initLogger(ctx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer closeFunc()
		log.Info("metrics server started", "url", url)
	}

	gene, err := loadGenesis(ctx)
	if err != nil {
		return err
	}

	store, logDB, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer func() { log.Info("closing state database..."); store.Close() }()
	defer func() { log.Info("closing event database..."); logDB.Close() }()

	rt, err := runtime.New(store, logDB, gene.ChainConfig())
	if err != nil {
		return err
	}
	if err := genesis.Build(rt, gene); err != nil {
		if !errors.Is(err, runtime.ErrGenesisDone) {
			return err
		}
		log.Info("resuming from stored state")
	}

	apiHandler, apiCloser := api.New(rt, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		BacktraceLimit:  uint32(ctx.Uint64(apiBacktraceLimitFlag.Name)),
		LogsLimit:       ctx.Uint64(apiLogsLimitFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})
	defer func() { log.Info("closing API..."); apiCloser() }()

	apiURL, srvCloser, err := startAPIServer(ctx.String(apiAddrFlag.Name), apiHandler)
	if err != nil {
		return err
	}
	defer func() { log.Info("stopping API server..."); srvCloser() }()

	head, err := rt.Head()
	if err != nil {
		return err
	}
	log.Info("node ready", "api", apiURL, "head", head, "persist", ctx.Bool(persistFlag.Name))

	return node.New(rt, node.Options{
		BlockInterval: time.Duration(ctx.Uint64(blockIntervalFlag.Name)) * time.Second,
		Mine:          !ctx.Bool(noMinerFlag.Name),
	}).Run(exitSignal)
}
