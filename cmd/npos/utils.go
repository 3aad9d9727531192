// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/npos/co"
	"github.com/vechain/npos/genesis"
	"github.com/vechain/npos/kv"
	"github.com/vechain/npos/log"
	"github.com/vechain/npos/logdb"
	"github.com/vechain/npos/metrics"
)

func initLogger(ctx *cli.Context) {
	lvl := log.LevelFromVerbosity(int(ctx.Uint64(verbosityFlag.Name)))

	var handler = log.NewTerminalHandler(os.Stderr, lvl, useColor(os.Stderr))
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandler(os.Stderr, lvl)
	}
	log.SetDefault(log.NewLogger(handler))
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) && os.Getenv("TERM") != "dumb"
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".org.vechain.npos")
	}
	return ""
}

func loadGenesis(ctx *cli.Context) (*genesis.Config, error) {
	if path := ctx.String(genesisFlag.Name); path != "" {
		cfg, err := genesis.Load(path)
		if err != nil {
			return nil, errors.Wrap(err, "load genesis")
		}
		return cfg, nil
	}
	return genesis.DevConfig(ctx.Int(devValidatorsFlag.Name), ctx.Int(devNominatorsFlag.Name)), nil
}

func makeDataDir(ctx *cli.Context) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", fmt.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	return dataDir, nil
}

func openStores(ctx *cli.Context) (kv.Store, *logdb.LogDB, error) {
	if !ctx.Bool(persistFlag.Name) {
		db, err := logdb.NewMem()
		if err != nil {
			return nil, nil, err
		}
		return kv.NewMem(), db, nil
	}

	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := kv.Open(filepath.Join(dataDir, "state.db"), 128, 256)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open state database")
	}
	db, err := logdb.New(filepath.Join(dataDir, "events.db"))
	if err != nil {
		store.Close()
		return nil, nil, errors.Wrap(err, "open event database")
	}
	return store, db, nil
}

func startAPIServer(addr string, handler http.Handler) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		goes.Wait()
	}, nil
}

func startMetricsServer(addr string) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics API addr [%v]", addr)
	}

	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	handler := handlers.CompressHandler(router)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/metrics", func() {
		srv.Close()
		goes.Wait()
	}, nil
}
