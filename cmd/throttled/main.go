// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command throttled hosts the throttle core: it loads configuration,
// wires the REST API, the tick loop, and the message bus around an
// internal/throttle.Controller, and runs until interrupted.
//
// Motor/encoder/fault device drivers are out of scope for this module
// (spec.md §1 lists them as external collaborators addressed only at
// their interfaces). This binary wires internal/hal/mock's in-memory
// collaborators in their place, so it runs end to end for local
// development and integration testing; an embedded build swaps those for
// real driver implementations satisfying the same internal/hal
// interfaces.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/trainctl/throttle/internal/api"
	"github.com/trainctl/throttle/internal/bus"
	"github.com/trainctl/throttle/internal/command"
	"github.com/trainctl/throttle/internal/config"
	"github.com/trainctl/throttle/internal/daemon"
	"github.com/trainctl/throttle/internal/hal/clockutil"
	"github.com/trainctl/throttle/internal/hal/mock"
	xglog "github.com/trainctl/throttle/internal/log"
	"github.com/trainctl/throttle/internal/throttle"
	"github.com/trainctl/throttle/internal/wire"
)

var (
	version = "v0.1.0"
	commit  = "none"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("throttled %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "throttled"})
	logger := xglog.WithComponent("main")

	cfg, err := config.NewLoader(*configPath).Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	motor := mock.NewMotor()
	faults := mock.NewFault()
	sysClock := clockutil.NewSystem()

	controller := throttle.New(motor)
	controller.SetLockoutDurationMS(uint64(cfg.Throttle.DefaultLockoutMS))

	messageBus := bus.NewMemoryBus()
	busLogger := xglog.WithComponent("bus")
	if err := messageBus.Subscribe(ctx, cfg.Bus.CommandTopic, func(msg bus.CommandMessage) {
		handleBusCommand(controller, sysClock, busLogger, msg)
	}); err != nil {
		logger.Fatal().Err(err).Msg("failed to subscribe to command topic")
	}

	tickLoop := daemon.New(controller, sysClock, faults, cfg.TickInterval(),
		daemon.WithLogger(xglog.WithComponent("daemon")),
		daemon.WithOnTick(func(now uint64, st throttle.State) {
			publishState(ctx, messageBus, cfg.Bus.StateTopic, st, busLogger)
		}))

	server := api.New(controller, sysClock, api.WithLogger(xglog.WithComponent("api")))

	errCh := make(chan error, 2)

	go func() {
		errCh <- tickLoop.Run(ctx)
	}()
	go func() {
		errCh <- server.ListenAndServe(ctx, cfg.API.ListenAddr)
	}()

	logger.Info().Str("listen_addr", cfg.API.ListenAddr).Msg("throttled started")

	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("subsystem exited with error")
		}
	}

	logger.Info().Msg("throttled stopped")
}

// handleBusCommand decodes a CommandMessage into a domain command and
// submits it through the controller's one entry point, attributed to
// Mqtt, per spec.md's CommandSource set. Malformed payloads are logged
// and dropped rather than panicking the subscriber.
func handleBusCommand(controller *throttle.Controller, clk *clockutil.System, logger zerolog.Logger, msg bus.CommandMessage) {
	var env wire.CommandEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		logger.Warn().Err(err).Str("topic", msg.Topic).Msg("dropping malformed bus command")
		return
	}
	cmd, err := env.ToDomain()
	if err != nil {
		logger.Warn().Err(err).Str("topic", msg.Topic).Msg("dropping undecodable bus command")
		return
	}
	controller.ApplyCommand(cmd, command.Mqtt, clk.NowMS())
}

// publishState marshals the controller's current state and publishes it
// to the configured state topic.
func publishState(ctx context.Context, b *bus.MemoryBus, topic string, st throttle.State, logger zerolog.Logger) {
	resp := wire.StateFromDomain(st.CurrentSpeed, st.TargetSpeed, st.Direction, st.IsTransitioning,
		st.TransitionProgress, st.MaxSpeed, st.LockoutRemainingMS, st.CurrentSource)
	payload, err := json.Marshal(resp)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal state for bus publish")
		return
	}
	if err := b.Publish(ctx, bus.StateMessage{Topic: topic, Payload: payload}); err != nil {
		logger.Error().Err(err).Msg("failed to publish state")
	}
}
