// Command reconfigctl is a demonstration CLI around the runtime
// reconfiguration core — explicitly not the PI C-ABI wrapper (spec.md
// §1's RPC framing and ABI are out of scope); it drives pi.Runtime the
// way an operator or a test harness would, over plan files on disk
// instead of a wire protocol.
//
// Grounded on coordinator/cmd/coordinator/main.go and
// controlplane/cmd/yncp-director/main.go (teacher): cobra root command
// with a required --config flag, errgroup.WithContext running the
// main work alongside a signal-wait goroutine.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dyc2021/runtime-programmable-switch/devctx"
	"github.com/dyc2021/runtime-programmable-switch/internal/logging"
	"github.com/dyc2021/runtime-programmable-switch/internal/metrics"
	"github.com/dyc2021/runtime-programmable-switch/pi"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	ConfigPath string
	DeviceID   uint64
	PipeID     uint32
	JSONPath   string
	PlanPath   string
	OutputPath string
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:   "reconfigctl",
	Short: "Drive the runtime reconfiguration core from plan files on disk",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "Path to the configuration file (required)")
	rootCmd.MarkPersistentFlagRequired("config")
	rootCmd.PersistentFlags().Uint64Var(&flags.DeviceID, "device", 0, "Device id")
	rootCmd.PersistentFlags().Uint32Var(&flags.PipeID, "pipe", 0, "Pipe id")

	applyCmd.Flags().StringVar(&flags.JSONPath, "json", "", "Path to the staged P4Objects JSON document")
	applyCmd.Flags().StringVar(&flags.PlanPath, "plan", "", "Path to the plan file")
	applyCmd.Flags().StringVar(&flags.OutputPath, "output", "", "Path to write the resulting snapshot (default: <plan>.new)")
	applyCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(applyCmd)

	watchCmd.Flags().StringVar(&flags.JSONPath, "json", "", "Path to the staged P4Objects JSON document")
	watchCmd.Flags().StringVar(&flags.PlanPath, "plan", "", "Path to the plan file to watch")
	watchCmd.Flags().StringVar(&flags.OutputPath, "output", "", "Path to write the resulting snapshot (default: <plan>.new)")
	watchCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

// buildRuntime wires a pi.Runtime from cfg, the one construction path
// every subcommand shares. The returned registry is the same one the
// runtime's command counters are registered against, so a caller that
// also serves /metrics exposes exactly the metrics this runtime emits.
func buildRuntime(cfg *Config) (*pi.Runtime, *prometheus.Registry, *zap.SugaredLogger, error) {
	log, _, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	manager := devctx.NewManager(log)
	return pi.NewRuntime(manager, m, log), reg, log, nil
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a plan file once and print the resulting status",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := LoadConfig(flags.ConfigPath)
		if err != nil {
			return err
		}

		rt, _, log, err := buildRuntime(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		code, snapshotText, applied := applyOnce(context.Background(), rt, log, flags)
		log.Infow("plan applied", zap.Stringer("status", code), zap.Int("applied", applied))
		if code != pi.StatusSuccess {
			return fmt.Errorf("plan apply failed: %s", code)
		}
		return writeSnapshot(flags, snapshotText)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reapply the plan file to running state each time it changes on disk",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := LoadConfig(flags.ConfigPath)
		if err != nil {
			return err
		}

		rt, reg, log, err := buildRuntime(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		wg, ctx := errgroup.WithContext(ctx)
		wg.Go(func() error {
			return watchPlan(ctx, rt, log, flags)
		})
		wg.Go(func() error {
			return serveMetrics(ctx, cfg.MetricsListen, reg, log)
		})
		wg.Go(func() error {
			err := waitInterrupted(ctx)
			log.Infow("caught signal", zap.Error(err))
			return err
		})

		err = wg.Wait()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// serveMetrics exposes reg's counters until ctx is canceled, the way
// gateway.go's runHTTPServer runs alongside the gRPC server in the same
// errgroup rather than as a separate process.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.SugaredLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warnw("failed to shut down metrics server", zap.Error(err))
		}
	}()

	log.Infow("serving metrics", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve metrics: %w", err)
	}
	return nil
}

func waitInterrupted(ctx context.Context) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ch:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}
