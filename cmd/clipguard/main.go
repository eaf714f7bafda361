// Package main is the CLI entry point for clipguard.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/clipguard/internal/codec"
	"github.com/eliteGoblin/clipguard/internal/config"
	"github.com/eliteGoblin/clipguard/internal/daemon"
	"github.com/eliteGoblin/clipguard/internal/detect"
	"github.com/eliteGoblin/clipguard/internal/domain"
	"github.com/eliteGoblin/clipguard/internal/infra"
	"github.com/eliteGoblin/clipguard/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "clipguard",
	Short: "Clipboard guard - detects accidentally copied secrets",
	Long: `clipguard watches the clipboard for accidentally copied credentials
(API keys, tokens, private keys, high-entropy secrets) and protects you
from leaking them: it prompts for recovery, auto-clears after a
temporary allow window, and can transform a secret into an encrypted
shareable token.`,
	Version: Version,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the clipboard guard in the foreground",
	Long: `Starts the guard poll loop. The loop reads the clipboard on a short
interval, classifies new content, and prompts when a secret is copied
in a blocked application. Runs until interrupted.`,
	RunE: runStart,
}

var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Classify a text blob (reads stdin if no argument)",
	RunE:  runCheck,
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt [text]",
	Short: "Produce the encrypted shareable token for a secret",
	RunE:  runEncrypt,
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt [token]",
	Short: "Decrypt a shared token back to the original text",
	RunE:  runDecrypt,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent clipboard history (redacted)",
	RunE:  runHistory,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	configPath   string
	jsonOutput   bool
	historyLimit int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.clipguard/config.yaml)")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(decryptCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logger := createLogger(cfg.LogFile)
	defer func() { _ = logger.Sync() }()

	// Build the detector over the validated custom pattern table.
	matcher, err := detect.NewMatcherWithCustom(customRules(cfg))
	if err != nil {
		return err
	}
	detector := detect.NewDetectorWithMatcher(matcher)

	// Encrypted history store keyed from the local key file.
	key, err := infra.NewFileKeyProvider(cfg.DataDir).EnsureKey()
	if err != nil {
		return fmt.Errorf("failed to set up history key: %w", err)
	}
	history, err := infra.NewEncryptedHistory(cfg.DataDir, key)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer history.Close()

	clip := infra.NewSystemClipboard()
	resolver := infra.NewAppResolver(logger)
	prompter := infra.NewDialogPrompter(logger)
	notifier := infra.NewDesktopNotifier(logger)

	guardCfg := usecase.DefaultGuardConfig()
	guardCfg.Policy = cfg.AppPolicy()
	guardCfg.AllowWindow = cfg.AllowWindow()
	guardCfg.PromptCooldown = cfg.PromptCooldown()
	guardCfg.AutoClearHighRisk = cfg.AutoClearHighRisk

	guard := usecase.NewGuard(guardCfg, detector, codec.NewSharing(),
		clip, resolver, history, prompter, notifier, logger)

	monitorCfg := daemon.DefaultMonitorConfig()
	monitorCfg.PollInterval = cfg.PollInterval()
	monitorCfg.HistoryTTL = cfg.HistoryTTL()

	monitor := daemon.NewMonitor(monitorCfg, guard, clip, history, logger)

	// Live reload of the policy fields on config file edits. The
	// reload channel is consumed inside the monitor's select, so the
	// swap runs on the poll loop goroutine that owns the guard.
	reload := make(chan domain.AppPolicy, 1)
	loader.Watch(
		func(next *config.Config) {
			select {
			case reload <- next.AppPolicy():
			default:
			}
		},
		func(err error) { logger.Warn("config reload error", zap.Error(err)) },
	)
	monitor.PolicyUpdates(reload)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	fmt.Println("clipguard is watching the clipboard (Ctrl-C to stop)")
	if err := monitor.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	text, err := argOrStdin(args)
	if err != nil {
		return err
	}

	match := detect.NewDetector().Classify(text)
	if !match.Detected {
		fmt.Println("not detected")
		return nil
	}

	fmt.Printf("detected: %s (confidence: %s)\n", match.Kind, match.Confidence)
	fmt.Printf("  %s\n", match.Explanation)
	fmt.Printf("  preview: %s\n", codec.Preview(text))
	return nil
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	text, err := argOrStdin(args)
	if err != nil {
		return err
	}

	token, err := codec.NewSharing().EncryptForSharing(text)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	token, err := argOrStdin(args)
	if err != nil {
		return err
	}

	plain, ok := codec.NewSharing().DecryptShared(token)
	if !ok {
		return fmt.Errorf("invalid format: not a clipguard encrypted token")
	}
	fmt.Println(plain)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	keyProvider := infra.NewFileKeyProvider(cfg.DataDir)
	if !keyProvider.KeyExists() {
		fmt.Println("No history yet. Run 'clipguard start' first.")
		return nil
	}
	key, err := keyProvider.GetKey()
	if err != nil {
		return err
	}
	history, err := infra.NewEncryptedHistory(cfg.DataDir, key)
	if err != nil {
		return err
	}
	defer history.Close()

	entries, err := history.Recent(context.Background(), historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("History is empty.")
		return nil
	}

	for _, e := range entries {
		marker := " "
		if e.IsSecret {
			marker = "!"
		}
		line := fmt.Sprintf("%s %s  %s", marker, e.Timestamp.Format(time.DateTime), e.RedactedPreview)
		if e.IsSecret {
			line += fmt.Sprintf("  [%s", e.Kind)
			if e.AppName != "" {
				line += " in " + e.AppName
			}
			line += "]"
		}
		fmt.Println(line)
	}
	return nil
}

// customRules converts configured patterns into detector rules,
// preserving file order.
func customRules(cfg *config.Config) []detect.CustomRule {
	rules := make([]detect.CustomRule, 0, len(cfg.CustomPatterns))
	for _, p := range cfg.CustomPatterns {
		rules = append(rules, detect.CustomRule{Label: p.Label, Pattern: p.Regex})
	}
	return rules
}

func argOrStdin(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func createLogger(logFile string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{logFile}
	config.ErrorOutputPaths = []string{logFile}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stdout if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("clipguard %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
