// Package config parses process-level settings from flags and environment
// overrides. Grounded on cmd/client/client.go's bare flag.String/flag.Float64
// usage — the teacher reaches for nothing beyond the standard flag package,
// so this repo doesn't either (see DESIGN.md's "stdlib justified" entry).
package config

import (
	"flag"
	"os"
	"strconv"
)

// Exchange holds the exchange server's bootstrap configuration.
type Exchange struct {
	Address     string
	Port        int
	LogLevel    string
	MaxOrders   int
	EventLogDir string
}

// ParseExchange parses flags from args (use os.Args[1:] in main), then
// applies environment overrides (CLOB_ADDRESS, CLOB_PORT, CLOB_LOG_LEVEL)
// on top of whatever the flags produced, matching the precedence order
// "flags set defaults, environment wins" common to the teacher's
// cmd/client flag usage extended with env indirection for container
// deployment.
func ParseExchange(args []string) (Exchange, error) {
	fs := flag.NewFlagSet("clob-server", flag.ContinueOnError)
	address := fs.String("address", "0.0.0.0", "listen address")
	port := fs.Int("port", 16000, "listen port")
	logLevel := fs.String("log-level", "info", "zerolog level: debug|info|warn|error")
	maxOrders := fs.Int("max-orders", 100_000, "fixed order pool capacity per side")
	eventLogDir := fs.String("event-log-dir", "", "if set, append every outbound frame to a timestamped file under this directory")

	if err := fs.Parse(args); err != nil {
		return Exchange{}, err
	}

	cfg := Exchange{Address: *address, Port: *port, LogLevel: *logLevel, MaxOrders: *maxOrders, EventLogDir: *eventLogDir}
	if v := os.Getenv("CLOB_ADDRESS"); v != "" {
		cfg.Address = v
	}
	if v := os.Getenv("CLOB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("CLOB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// Simulator holds the liquidity simulator's bootstrap configuration.
type Simulator struct {
	ExchangeAddress string
	ExchangePort    int
	Seed            uint64
	LogLevel        string
}

// ParseSimulator parses the simulator binary's flags.
func ParseSimulator(args []string) (Simulator, error) {
	fs := flag.NewFlagSet("clob-simulator", flag.ContinueOnError)
	address := fs.String("exchange-address", "127.0.0.1", "exchange host to connect to")
	port := fs.Int("exchange-port", 16000, "exchange port to connect to")
	seed := fs.Uint64("seed", 1, "PCG32 RNG seed")
	logLevel := fs.String("log-level", "info", "zerolog level: debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return Simulator{}, err
	}
	cfg := Simulator{ExchangeAddress: *address, ExchangePort: *port, Seed: *seed, LogLevel: *logLevel}
	if v := os.Getenv("CLOB_SIM_SEED"); v != "" {
		if s, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Seed = s
		}
	}
	return cfg, nil
}
