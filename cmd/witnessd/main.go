// witnessd is the WitnessChain backend daemon: it serves the evidence REST
// API over the Postgres store and the Filecoin storage boundary.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/witnesschain/witnesschain-go/pkg/config"
	"github.com/witnesschain/witnesschain-go/pkg/witness"
)

func main() {
	cfg := config.FromEnv()

	core, err := witness.New(cfg)
	if err != nil {
		zap.L().Fatal("initialization failed", zap.Error(err))
	}

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      core.Handler(),
		ReadTimeout:  cfg.Timeouts.Request,
		WriteTimeout: cfg.Timeouts.Request,
	}

	go func() {
		zap.L().Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zap.L().Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zap.L().Error("shutdown failed", zap.Error(err))
	}
}
