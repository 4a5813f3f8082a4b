// Command checkpoint manages a directory of stored checkpoint configs:
// build a simple checkpoint, list/show/delete stored configs, and dry-run a
// checkpoint against the null validation engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/checkpoint"
)

type config struct {
	StoreDir     string
	Name         string
	SlackWebhook string
	NotifyOn     string
	NotifyWith   string
	SiteNames    string
	Sites        string
	RunName      string
	Timeout      time.Duration
	Verbose      bool
}

func main() {
	cfg, command := parseFlags()

	store, err := checkpoint.NewFileConfigStore(cfg.StoreDir)
	if err != nil {
		log.Fatalf("Failed to open config store: %v", err)
	}

	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	switch command {
	case "create":
		runCreate(ctx, cfg, store)
	case "list":
		runList(ctx, store)
	case "show":
		runShow(ctx, cfg, store)
	case "delete":
		runDelete(ctx, cfg, store)
	case "run":
		runDryRun(ctx, cfg, store)
	default:
		color.Red("Error: unknown command %q", command)
		flag.Usage()
		os.Exit(1)
	}
}

func parseFlags() (*config, string) {
	cfg := &config{}
	flag.StringVar(&cfg.StoreDir, "store", "", "Config store directory (default ~/.deepnoodle/checkpoints)")
	flag.StringVar(&cfg.Name, "name", "", "Checkpoint name")
	flag.StringVar(&cfg.SlackWebhook, "slack-webhook", "", "Slack webhook URL for notifications")
	flag.StringVar(&cfg.NotifyOn, "notify-on", "", "Notify condition: all, success or failure")
	flag.StringVar(&cfg.NotifyWith, "notify-with", "", "Comma-separated docs sites to link in notifications")
	flag.StringVar(&cfg.SiteNames, "site-names", "", `Docs sites to update: "all", "none", or comma-separated names`)
	flag.StringVar(&cfg.Sites, "sites", "", "Comma-separated registered docs site names")
	flag.StringVar(&cfg.RunName, "run-name", "", "Run name for the run command")
	flag.DurationVar(&cfg.Timeout, "timeout", 0, "Command timeout (e.g. 30s)")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: checkpoint [flags] <create|list|show|delete|run>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	return cfg, flag.Arg(0)
}

func (c *config) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	return checkpoint.NewLogger(level)
}

func requireName(cfg *config) {
	if cfg.Name == "" {
		color.Red("Error: -name is required")
		os.Exit(1)
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func runCreate(ctx context.Context, cfg *config, store checkpoint.ConfigStore) {
	requireName(cfg)

	opts := checkpoint.SimpleOptions{
		Name:         cfg.Name,
		Sites:        checkpoint.NewStaticSiteRegistry(splitList(cfg.Sites)...),
		SlackWebhook: cfg.SlackWebhook,
		NotifyOn:     checkpoint.NotifyCondition(cfg.NotifyOn),
	}
	if cfg.NotifyWith != "" {
		selection := checkpoint.NotifyWithSites(splitList(cfg.NotifyWith)...)
		opts.NotifyWith = &selection
	}
	switch cfg.SiteNames {
	case "", "all":
		// default: update all sites
	case "none":
		selection := checkpoint.NoSites()
		opts.SiteNames = &selection
	default:
		selection := checkpoint.SelectSites(splitList(cfg.SiteNames)...)
		opts.SiteNames = &selection
	}

	built, err := checkpoint.NewSimpleCheckpointConfigurator(opts).Build(ctx)
	if err != nil {
		log.Fatalf("Failed to build checkpoint: %v", err)
	}
	if err := store.Put(ctx, built); err != nil {
		log.Fatalf("Failed to store checkpoint: %v", err)
	}
	color.Green("Stored checkpoint %q with %d actions", built.Name, len(built.ActionList))
}

func runList(ctx context.Context, store checkpoint.ConfigStore) {
	names, err := store.List(ctx)
	if err != nil {
		log.Fatalf("Failed to list checkpoints: %v", err)
	}
	if len(names) == 0 {
		color.Yellow("No checkpoints stored")
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func runShow(ctx context.Context, cfg *config, store checkpoint.ConfigStore) {
	requireName(cfg)
	stored, err := store.Get(ctx, cfg.Name)
	if err != nil {
		log.Fatalf("Failed to load checkpoint: %v", err)
	}
	data, err := stored.ToYAML()
	if err != nil {
		log.Fatalf("Failed to render checkpoint: %v", err)
	}
	color.Cyan("Checkpoint: %s", stored.Name)
	fmt.Print(string(data))
}

func runDelete(ctx context.Context, cfg *config, store checkpoint.ConfigStore) {
	requireName(cfg)
	if err := store.Delete(ctx, cfg.Name); err != nil {
		log.Fatalf("Failed to delete checkpoint: %v", err)
	}
	color.Green("Deleted checkpoint %q", cfg.Name)
}

// runDryRun executes the stored checkpoint against the null engine with
// no-op action backends, which exercises resolution and the action order
// without touching external systems.
func runDryRun(ctx context.Context, cfg *config, store checkpoint.ConfigStore) {
	requireName(cfg)
	stored, err := store.Get(ctx, cfg.Name)
	if err != nil {
		log.Fatalf("Failed to load checkpoint: %v", err)
	}
	ckpt, err := checkpoint.New(checkpoint.Options{
		Config: stored,
		Engine: checkpoint.NewNullEngine(),
		Logger: cfg.logger(),
	})
	if err != nil {
		log.Fatalf("Failed to build checkpoint: %v", err)
	}

	color.Blue("Dry-running checkpoint %q", stored.Name)
	result, err := ckpt.Run(ctx, checkpoint.RunOptions{RunName: cfg.RunName})
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	color.Cyan("Run: %s (execution %s)", result.RunID().RunName, result.ExecutionID())
	for _, entry := range result.RunResults() {
		status := color.GreenString("passed")
		if !entry.ValidationResult.Success {
			status = color.RedString("failed")
		}
		fmt.Printf("  %s [%s] %s\n", entry.ID.ExpectationSuiteName, entry.ID.BatchIdentifier, status)
		for _, action := range entry.ActionResults {
			fmt.Printf("    action %-28s %s\n", action.Name, action.Status)
		}
	}
	if result.Success() {
		color.Green("Checkpoint succeeded (%d validations)", len(result.RunResults()))
	} else {
		color.Red("Checkpoint failed")
		os.Exit(1)
	}
}
