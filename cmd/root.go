package cmd

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"jobpilot/internal/ai"
	"jobpilot/internal/ai/gemini"
	"jobpilot/internal/feed"
	"jobpilot/internal/logger"
	"jobpilot/internal/secrets"
	"jobpilot/internal/store"
)

const (
	app = "jobpilot"

	defaultDBPath = "jobpilot.db"
)

type Config struct {
	DBPath   string        `mapstructure:"db-path"`
	Schedule string        `mapstructure:"schedule"`
	Feeds    []feed.Source `mapstructure:"feeds"`
	AI       *AIConfig     `mapstructure:"ai"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobpilot finds remote job postings matching your resume and applies to them",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobpilot.yaml in current directory)")
	rootCmd.PersistentFlags().Int64("user", 1, "user id to operate on")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	viper.SetDefault("db-path", defaultDBPath)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// Every setting has a default, so a missing config file is fine unless
	// one was requested explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func openStore(config *Config, zlog *zap.Logger) *store.DB {
	path := config.DBPath
	if path == "" {
		path = defaultDBPath
	}

	db, err := store.Open(path)
	if err != nil {
		zlog.Fatal("opening database", zap.Error(err), zap.String("path", path))
	}
	return db
}

// currentUser resolves the --user flag, creating the default user on first
// contact so a fresh database is usable without a setup step.
func currentUser(ctx context.Context, db *store.DB, zlog *zap.Logger) store.User {
	id := viper.GetInt64("user")

	user, err := db.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) && id == 1 {
		user, err = db.CreateUser(ctx, "Default User", "")
	}
	if err != nil {
		zlog.Fatal("resolving user", zap.Error(err), zap.Int64("user_id", id))
	}
	return user
}

// newGenerator builds the Gemini text generator when AI is enabled. A nil
// generator switches every AI consumer to its keyword fallback.
func newGenerator(ctx context.Context, config *AIConfig, zlog *zap.Logger) ai.Generator {
	if config == nil || !config.Enabled {
		return nil
	}

	if config.Provider != "" && config.Provider != "gemini" {
		zlog.Warn("unsupported ai provider, falling back to keyword matching",
			zap.String("provider", config.Provider))
		return nil
	}

	geminiCfg := config.Gemini
	if geminiCfg == nil {
		geminiCfg = &GeminiConfig{}
	}

	keyFile := geminiCfg.APIKeyFile
	if keyFile == "" {
		keyFile = viper.GetString("ai.gemini.api-key-file")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: geminiCfg.APIKey,
		File:  keyFile,
	})
	if err != nil {
		zlog.Warn("ai disabled, falling back to keyword matching",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY_FILE"),
		)
		return nil
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, geminiCfg.Model)
	if err != nil {
		zlog.Warn("building gemini client failed, falling back to keyword matching", zap.Error(err))
		return nil
	}

	zlog.Info("ai enabled", zap.String("provider", "gemini"), zap.String("model", generator.Model()))
	return generator
}
