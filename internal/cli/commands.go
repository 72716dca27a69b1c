package cli

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/zenvex/voltagent/config"
	"github.com/zenvex/voltagent/internal/agent"
	"github.com/zenvex/voltagent/internal/checkpoint"
	"github.com/zenvex/voltagent/internal/execution"
	"github.com/zenvex/voltagent/internal/observe"
	"github.com/zenvex/voltagent/internal/reasoning"
	"github.com/zenvex/voltagent/internal/storage"
)

// Version is stamped at build time.
var Version = "dev"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voltagent",
		Short: "voltagent - autonomous options trading loop",
		Long: `voltagent runs an autonomous trading decision loop: it observes the
market, asks a reasoning service for a structured decision, checks hard
safety limits, manages option positions through their lifecycle, and
adapts its own tuning from realized results.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd)
		},
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().String("config", "", "YAML configuration file path")
	rootCmd.PersistentFlags().String("symbol", "", "Ticker symbol to trade")

	return rootCmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the trading agent",
		Long: `Start the decision loop for one symbol. The agent restores its last
checkpoint if one exists and runs until interrupted.
Example: voltagent run --symbol=SPY`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd)
		},
	}
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last checkpointed agent state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			store, err := storage.OpenSQLite(dbPath(cfg))
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			agentID := "voltagent-" + strings.ToLower(cfg.Symbol)
			cp, err := checkpoint.Load(cmd.Context(), store, agentID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					fmt.Printf("no checkpoint for %s yet\n", cfg.Symbol)
					return nil
				}
				return fmt.Errorf("load checkpoint: %w", err)
			}

			fmt.Println(RenderCheckpoint(cp))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("voltagent %s\n", Version)
		},
	}
}

func runAgent(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	DisplayBanner(Version)

	if cfg.Live {
		ok, err := ConfirmLiveTrading(cfg.Capital)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}
		log.Printf("[WARN] no broker executor configured, live session runs on the paper executor")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, err := storage.OpenSQLite(dbPath(cfg))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reasoner, err := reasoning.NewClientFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("reasoning client: %w", err)
	}

	var vols observe.VolSource
	if cfg.VolFeedURL != "" {
		vols = observe.NewVolFeedClient(cfg.VolFeedURL, cfg.CallTimeout())
	}
	observer := observe.NewComposite(observe.NewYahooQuoteSource(), vols, 10*time.Second)

	registry, err := agent.NewRegistry(cfg)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	defer registry.Close()

	agentID := "voltagent-" + strings.ToLower(cfg.Symbol)
	a := registry.GetOrCreate(agentID, func() *agent.Agent {
		return agent.New(cfg, observer, reasoner, execution.NewPaperExecutor(), store)
	})

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start agent: %w", err)
	}
	log.Printf("[INFO] agent %s running on %s, ctrl-c to stop", a.ID, cfg.Symbol)

	<-ctx.Done()
	fmt.Println("\nshutting down...")
	a.Stop()
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if symbol, _ := cmd.Flags().GetString("symbol"); symbol != "" {
		cfg.Symbol = strings.ToUpper(symbol)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func dbPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "voltagent.db")
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Printf("[INFO] metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("[WARN] metrics server: %v", err)
	}
}
