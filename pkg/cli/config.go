package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recap/pkg/adapter"
	"github.com/m-mizutani/recap/pkg/repository"
	"github.com/m-mizutani/recap/pkg/usecase/delivery"
	"github.com/m-mizutani/recap/pkg/usecase/summary"
	"github.com/m-mizutani/recap/pkg/usecase/watch"
	"github.com/m-mizutani/recap/pkg/utils/logging"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultChatName = "SLIMEZ surviving misandry "
	defaultTrigger  = "summarize chat"
	defaultHours    = 12
	defaultDBPath   = "~/Library/Messages/chat.db"

	keyringGeminiAPIKey = "gemini_api_key"
)

// config holds configuration values
type config struct {
	configFile string

	// Chat
	chatName string
	trigger  string
	schedule string
	hours    int64

	// Repository
	dbPath string

	// Adapters
	geminiAPIKey string
	geminiModel  string
	osascript    string

	// Set in tests to replace Gemini and osascript
	gemini adapter.Gemini
	runner adapter.ScriptRunner
}

// fileConfig is the schema of YAML configuration file
type fileConfig struct {
	Chat      string `yaml:"chat"`
	Trigger   string `yaml:"trigger"`
	Schedule  string `yaml:"schedule"`
	Hours     int64  `yaml:"hours"`
	DB        string `yaml:"db"`
	Model     string `yaml:"gemini_model"`
	Osascript string `yaml:"osascript"`
}

// loggingFlags are set on root command and shared by all subcommands
func loggingFlags(level, format *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("RECAP_LOG_LEVEL"),
			Destination: level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       logging.FormatConsole,
			Sources:     cli.EnvVars("RECAP_LOG_FORMAT"),
			Destination: format,
		},
	}
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML config file. Flags and env vars take precedence",
			Sources:     cli.EnvVars("RECAP_CONFIG"),
			Destination: &cfg.configFile,
		},
		&cli.StringFlag{
			Name:        "chat",
			Usage:       "Part of the chat display name to watch",
			Value:       defaultChatName,
			Sources:     cli.EnvVars("RECAP_CHAT"),
			Destination: &cfg.chatName,
		},
		&cli.StringFlag{
			Name:        "db",
			Usage:       "Path to Messages database",
			Value:       defaultDBPath,
			Sources:     cli.EnvVars("RECAP_DB"),
			Destination: &cfg.dbPath,
		},
	}
}

// watchFlags returns flags for polling behavior with destination config
func watchFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "trigger",
			Aliases:     []string{"t"},
			Usage:       "Message text that triggers a summary (case-insensitive)",
			Value:       defaultTrigger,
			Sources:     cli.EnvVars("RECAP_TRIGGER"),
			Destination: &cfg.trigger,
		},
		&cli.StringFlag{
			Name:        "schedule",
			Usage:       "Poll schedule in cron format",
			Value:       watch.DefaultSchedule,
			Sources:     cli.EnvVars("RECAP_SCHEDULE"),
			Destination: &cfg.schedule,
		},
	}
}

// summaryFlags returns flags for summarization and delivery with destination config
func summaryFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "hours",
			Usage:       "Hours of history to summarize",
			Value:       defaultHours,
			Sources:     cli.EnvVars("RECAP_HOURS"),
			Destination: &cfg.hours,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key. Falls back to OS keyring entry",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Value:       adapter.DefaultGenerativeModel,
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "osascript",
			Usage:       "Path to osascript command",
			Value:       "osascript",
			Sources:     cli.EnvVars("RECAP_OSASCRIPT"),
			Destination: &cfg.osascript,
		},
	}
}

// flagSetter reports whether a flag was given by command line or env var
type flagSetter interface {
	IsSet(name string) bool
}

// loadFile fills values that were not given by flags or env vars from the config file
func (cfg *config) loadFile(c flagSetter) error {
	if cfg.configFile == "" {
		return nil
	}

	raw, err := os.ReadFile(cfg.configFile)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", cfg.configFile))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", cfg.configFile))
	}

	setString := func(name string, dst *string, v string) {
		if v != "" && !c.IsSet(name) {
			*dst = v
		}
	}
	setString("chat", &cfg.chatName, fc.Chat)
	setString("trigger", &cfg.trigger, fc.Trigger)
	setString("schedule", &cfg.schedule, fc.Schedule)
	setString("db", &cfg.dbPath, fc.DB)
	setString("gemini-model", &cfg.geminiModel, fc.Model)
	setString("osascript", &cfg.osascript, fc.Osascript)
	if fc.Hours != 0 && !c.IsSet("hours") {
		cfg.hours = fc.Hours
	}

	return nil
}

func (cfg *config) window() (time.Duration, error) {
	if cfg.hours <= 0 {
		return 0, goerr.New("hours must be positive", goerr.V("hours", cfg.hours))
	}
	return time.Duration(cfg.hours) * time.Hour, nil
}

// expandHome replaces leading "~" with home directory
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// newRepository creates a new message store instance
func (cfg *config) newRepository() (*repository.SQLite, error) {
	if cfg.dbPath == "" {
		return nil, goerr.New("db is required")
	}

	path, err := expandHome(cfg.dbPath)
	if err != nil {
		return nil, err
	}

	repo, err := repository.NewSQLite(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// resolveAPIKey returns API key from flag or env var, then from OS keyring
func (cfg *config) resolveAPIKey(ctx context.Context) (string, error) {
	if cfg.geminiAPIKey != "" {
		return cfg.geminiAPIKey, nil
	}

	key, err := adapter.LookupSecret(keyringGeminiAPIKey)
	if err != nil {
		logging.From(ctx).Warn("keyring is not available", "error", err)
	}
	if key == "" {
		return "", goerr.New("gemini-api-key is required (set GEMINI_API_KEY or run `recap auth`)")
	}
	return key, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (*adapter.GeminiClient, error) {
	apiKey, err := cfg.resolveAPIKey(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.geminiModel == "" {
		return nil, goerr.New("gemini-model is required")
	}

	gemini, err := adapter.NewGemini(ctx, apiKey, adapter.WithGenerativeModel(cfg.geminiModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newSummarizer creates a new Summarizer backed by Gemini
func (cfg *config) newSummarizer(ctx context.Context) (*summary.Summarizer, error) {
	if cfg.gemini != nil {
		return summary.New(cfg.gemini), nil
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}
	return summary.New(gemini), nil
}

// newSender creates a new Sender that posts into the configured chat
func (cfg *config) newSender() (*delivery.Sender, error) {
	if cfg.chatName == "" {
		return nil, goerr.New("chat is required")
	}
	if cfg.runner != nil {
		return delivery.New(cfg.runner, cfg.chatName, int(cfg.hours)), nil
	}

	if cfg.osascript == "" {
		return nil, goerr.New("osascript is required")
	}
	runner := adapter.NewOsascript(adapter.WithOsascriptPath(cfg.osascript))
	return delivery.New(runner, cfg.chatName, int(cfg.hours)), nil
}

// newSchedule parses poll schedule
func (cfg *config) newSchedule() (cron.Schedule, error) {
	return watch.ParseSchedule(cfg.schedule)
}
