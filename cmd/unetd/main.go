// Command unetd is μNet's process entry point: a thin composition root
// that wires the config, storage, SNMP, polling, and policy packages
// together and blocks until an OS signal asks it to stop. No command
// framework and no HTTP server are included here by design; operators
// talk to the underlying storage backend directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/unet-io/unet/pkg/config"
	"github.com/unet-io/unet/pkg/errcode"
	"github.com/unet-io/unet/pkg/loader"
	"github.com/unet-io/unet/pkg/log"
	"github.com/unet-io/unet/pkg/metrics"
	"github.com/unet-io/unet/pkg/poller"
	"github.com/unet-io/unet/pkg/policy"
	"github.com/unet-io/unet/pkg/snmp"
	"github.com/unet-io/unet/pkg/storage"
	"github.com/unet-io/unet/pkg/storage/relational"
	"github.com/unet-io/unet/pkg/storage/tabular"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "unetd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the YAML settings document (optional)")
	envPrefix := flag.String("env-prefix", "UNET", "environment variable prefix for config overrides")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logJSON := flag.Bool("log-json", false, "emit structured JSON logs")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPrefix)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log.Init(log.Config{Level: log.Level(*logLevel), JSONOutput: *logJSON})

	store, err := openStorage(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()
	log.Logger.Info().Str("backend", store.Name()).Msg("storage backend opened")

	client := snmp.NewClient(cfg.Polling.MaxConcurrentPolls)

	p := poller.New(client, store, poller.Config{
		DefaultInterval:        cfg.PollingDefaultInterval(),
		MaxConcurrentPolls:     cfg.Polling.MaxConcurrentPolls,
		PollTimeout:            cfg.PollingTimeout(),
		MaxRetries:             cfg.Polling.MaxRetries,
		RetryBackoffMultiplier: cfg.Polling.RetryBackoffMultiplier,
		HealthCheckInterval:    cfg.PollingHealthCheckInterval(),
	})

	sessionFn := func(address string) snmp.SessionConfig {
		sc := snmp.DefaultSessionConfig(address, cfg.SNMP.Community)
		sc.Timeout = cfg.SNMPTimeout()
		sc.Retries = cfg.SNMP.Retries
		return sc
	}

	if err := seedPollingTasks(p, store, sessionFn, cfg.PollingDefaultInterval()); err != nil {
		return fmt.Errorf("seeding polling tasks: %w", err)
	}

	policyLoader := loader.NewLoader(loader.GitConfig{
		PoliciesRepo: cfg.Git.PoliciesRepo,
		Branch:       cfg.Git.Branch,
		SyncInterval: cfg.GitSyncInterval(),
	})
	if cfg.Git.LocalDirectory != "" {
		policyLoader = policyLoader.WithLocalDir(cfg.Git.LocalDirectory)
	}
	evaluator := policy.NewEvaluator(store)
	orchestrator := loader.NewOrchestrator(policyLoader, evaluator, store)

	collector := metrics.NewCollector(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector.Start()
	p.Start(ctx)
	sweepStop := startPolicySweep(ctx, orchestrator, cfg.PollingDefaultInterval())

	log.Logger.Info().Str("database", store.Name()).Msg("unetd started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")

	close(sweepStop)
	p.Stop()
	collector.Stop()
	cancel()

	log.Info("shutdown complete")
	return nil
}

// openStorage selects a storage backend from database.url's scheme:
// "sqlite:" or "sqlite://" opens the relational backend at the
// remaining path ("sqlite::memory:" yields the sqlite in-memory
// special path ":memory:"); "tabular://" opens the CSV-file backend at
// the remaining directory.
func openStorage(url string) (storage.Store, error) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return relational.Open(strings.TrimPrefix(url, "sqlite://"))
	case strings.HasPrefix(url, "sqlite:"):
		return relational.Open(strings.TrimPrefix(url, "sqlite:"))
	case strings.HasPrefix(url, "tabular://"):
		dir := strings.TrimPrefix(url, "tabular://")
		return tabular.Open(dir)
	default:
		return nil, errcode.ValidationError{
			Field:   "database.url",
			Message: "unrecognized scheme (expected \"sqlite:\" or \"tabular://\"): " + url,
		}
	}
}

// seedPollingTasks registers one system-scalar task and one interface
// task per node with a configured management IP. A later version may
// re-sync this table as nodes are added; today it runs once at startup.
func seedPollingTasks(p *poller.Poller, store storage.Store, sessionFn poller.SessionConfigFn, interval time.Duration) error {
	nodes, err := store.GetNodesForPolicyEvaluation(context.Background())
	if err != nil {
		return err
	}

	for i := range nodes {
		n := &nodes[i]
		if !n.HasManagementIP() {
			continue
		}
		p.AddTask(poller.NewSystemTask(n.ID, n.ManagementIP, sessionFn, interval))
		p.AddTask(poller.NewInterfaceTask(n.ID, n.ManagementIP, sessionFn, interval))
	}
	return nil
}

// startPolicySweep runs a full policy sweep every interval until the
// returned channel is closed or ctx is cancelled.
func startPolicySweep(ctx context.Context, orchestrator *loader.Orchestrator, interval time.Duration) chan struct{} {
	stop := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := orchestrator.EvaluateAllNodes(ctx); err != nil {
					log.Errorf("policy sweep failed", err)
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return stop
}
