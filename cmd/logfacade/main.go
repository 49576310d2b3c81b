// Copyright (c) 2025 Vladimer Grigalashvili
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vgrigalashvili/logfacade/internal/async"
	"github.com/vgrigalashvili/logfacade/internal/config"
	"github.com/vgrigalashvili/logfacade/internal/logger"
)

const drainTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	rt := async.Default()
	log := logger.Init(*cfg, rt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	go rt.Run(ctx)

	log.Info("Log facade started", logger.Fields{
		"sinks":  log.Sinks(),
		"isProd": cfg.IsProd,
		"isTest": cfg.IsTest,
	})

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down gracefully...", nil)
	cancel()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), drainTimeout)
	defer drainCancel()
	if err := rt.Drain(drainCtx); err != nil {
		log.Error(err, logger.Fields{"step": "drain"})
	}
}
