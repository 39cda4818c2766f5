package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/turtacn/Anima/internal/controlloop"
	"github.com/turtacn/Anima/internal/hardware"
	"github.com/turtacn/Anima/internal/monitor"
	"github.com/turtacn/Anima/internal/sim"
	"github.com/turtacn/Anima/internal/timebase"
	"github.com/turtacn/Anima/pkg/consts"
	"github.com/turtacn/Anima/pkg/logger"
	"github.com/turtacn/Anima/pkg/protocol"
)

var (
	cfgFile       string
	backend       string
	breaths       uint64
	standbyAfter  uint64
	inspHoldEvery uint64
	maxDuration   time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "anima",
	Short:         "Anima: volume-controlled ventilator control core",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the control loop in real time",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Config
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// 2. Init Logger & Metrics
		logger.Init(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
		monitor.InitMetrics(cfg.Observability.MetricsPort)

		logger.Log.Info("Booting Anima control core...",
			"service", cfg.Service.Name, "backend", cfg.Hardware.Backend)

		// 3. Bring up the rig and run
		rig, err := openRig(cfg)
		if err != nil {
			return err
		}
		engine, err := controlloop.NewEngine(cfg, timebase.NewSystemClock(), rig, logger.Log)
		if err != nil {
			_ = rig.Close()
			return err
		}
		defer func() {
			if err := engine.Close(); err != nil {
				logger.Log.Error("Rig release failed", "err", err)
			}
		}()

		if err := engine.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Ventilate the test lung faster than real time and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger.Init(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
		monitor.Register()

		clock := timebase.NewManualClock(0)
		engine, err := controlloop.NewEngine(cfg, clock, controlloop.NewSimRig(sim.NewBench(cfg.Sim)), logger.Log)
		if err != nil {
			return err
		}
		res := controlloop.Simulate(engine, clock, controlloop.SimOptions{
			Breaths:       breaths,
			StandbyAfter:  standbyAfter,
			InspHoldEvery: inspHoldEvery,
			MaxDuration:   maxDuration,
		})
		printSummary(cmd, engine.Session(), res)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "configuration ok")
		return nil
	},
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

// loadConfig reads --config, or the built-in defaults when none is given,
// then applies flag overrides.
func loadConfig() (*protocol.Config, error) {
	cfg := protocol.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = protocol.Load(cfgFile); err != nil {
			return nil, err
		}
	}
	if backend != "" {
		cfg.Hardware.Backend = backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func openRig(cfg *protocol.Config) (controlloop.Rig, error) {
	bench := sim.NewBench(cfg.Sim)
	if consts.Backend(cfg.Hardware.Backend) == consts.BackendGPIO {
		return hardware.OpenRig(cfg.Hardware, bench, logger.Log)
	}
	return controlloop.NewSimRig(bench), nil
}

func printSummary(cmd *cobra.Command, session string, res controlloop.SimResult) {
	w := cmd.OutOrStdout()
	r := res.Readout
	fmt.Fprintf(w, "session       %s\n", session)
	fmt.Fprintf(w, "breaths       %d in %s (%d ticks), final phase %s\n",
		res.Breaths, res.Elapsed, res.Ticks, res.Final)
	fmt.Fprintf(w, "rate          %.1f /min\n", r.Rate)
	fmt.Fprintf(w, "VTi / VTe     %.0f / %.0f cc\n", r.VolumeInsp, r.VolumeExp)
	fmt.Fprintf(w, "minute volume %.2f L/min\n", r.MinuteVolume)
	fmt.Fprintf(w, "peak / PEEP   %.1f / %.1f cmH2O\n", r.Peak, r.Peep)
	if r.Plateau > 0 {
		fmt.Fprintf(w, "plateau       %.1f cmH2O\n", r.Plateau)
	}
	fmt.Fprintf(w, "FiO2          %.0f %%\n", r.FiO2)
	if len(res.Alarms.Active) == 0 {
		fmt.Fprintln(w, "alarms        none")
		return
	}
	for _, c := range res.Alarms.Active {
		fmt.Fprintf(w, "alarm         %s (%s)\n", c, c.Text())
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (built-in defaults when empty)")
	runCmd.Flags().StringVar(&backend, "backend", "", "override hardware.backend (sim|gpio)")
	simulateCmd.Flags().Uint64Var(&breaths, "breaths", 10, "stop after this many completed breaths (0 = no limit)")
	simulateCmd.Flags().Uint64Var(&standbyAfter, "standby-after", 0, "request standby once this many breaths have started")
	simulateCmd.Flags().Uint64Var(&inspHoldEvery, "insp-hold-every", 0, "request an inspiratory hold on every Nth breath (0 = never)")
	simulateCmd.Flags().DurationVar(&maxDuration, "max-duration", 10*time.Minute, "cap on simulated time")

	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configPrintCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(configCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Personal.AI order the ending
