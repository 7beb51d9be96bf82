// Command clob-server runs the exchange: a TCP-framed matching engine for
// a single instrument. Grounded on the teacher's cmd/server/server.go
// (signal.NotifyContext, the engine+net server wiring, Run blocking until
// ctx is cancelled), ported to this repo's config/conn/engine packages.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"clob/internal/clock"
	"clob/internal/config"
	"clob/internal/conn"
	"clob/internal/engine"
	"clob/internal/eventlog"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.ParseExchange(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("clob-server: invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := conn.NewServer(cfg.Address, cfg.Port)
	eng := engine.New(clock.System{}, srv, cfg.MaxOrders)
	srv.SetHandler(eng)

	if cfg.EventLogDir != "" {
		w, err := eventlog.Open(cfg.EventLogDir)
		if err != nil {
			log.Fatal().Err(err).Msg("clob-server: event log open failed")
		}
		defer w.Close()
		eng.SetEventLog(w)
		log.Info().Str("dir", cfg.EventLogDir).Msg("clob-server: persisting event log")
	}

	log.Info().Str("address", cfg.Address).Int("port", cfg.Port).Msg("clob-server: starting")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case <-ctx.Done():
		srv.Shutdown()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("clob-server: exited with error")
		}
	}
}
