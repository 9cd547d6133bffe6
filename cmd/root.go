package cmd

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/gig-assistant/internal/filtering"
	"github.com/spigell/gig-assistant/internal/logger"
)

const (
	app = "gig-assistant"

	defaultMaxFileSize = 50 << 20
)

type Config struct {
	Sandbox *SandboxConfig   `mapstructure:"sandbox"`
	AI      *AIConfig        `mapstructure:"ai"`
	Log     *LogConfig       `mapstructure:"log"`
	Filters filtering.Config `mapstructure:"filters"`
}

type SandboxConfig struct {
	Root        string `mapstructure:"root"`
	MaxFileSize int64  `mapstructure:"max-file-size"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey            string `mapstructure:"api-key"`
	APIKeyFile        string `mapstructure:"api-key-file"`
	Model             string `mapstructure:"model"`
	RequestsPerMinute int    `mapstructure:"requests-per-minute"`
}

type LogConfig struct {
	logger.FileOptions `mapstructure:",squash"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "gig-assistant scores freelance gigs against a profile, reviews and repairs code, and drafts proposals",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		renderError(os.Stderr, err)
	}
	return err
}

func init() {
	// A missing .env is fine; the variables may come from the environment.
	_ = godotenv.Load()

	bindEnv("sandbox.root", "GIG_ASSISTANT_SANDBOX_ROOT")
	bindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE")

	viper.SetDefault("sandbox.max-file-size", defaultMaxFileSize)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.timeout", 60*time.Second)
	viper.SetDefault("log.max-size", 10)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is gig-assistant.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func bindEnv(key, env string) {
	if err := viper.BindEnv(key, env); err != nil {
		log.Fatalf("binding %s environment variable: %v", env, err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// The default config file is optional, an explicit one is not.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return err
		}
	}

	return nil
}

func getConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	if config.Sandbox == nil {
		config.Sandbox = &SandboxConfig{}
	}
	if config.Sandbox.MaxFileSize <= 0 {
		config.Sandbox.MaxFileSize = defaultMaxFileSize
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	config.AI.Provider = strings.ToLower(strings.TrimSpace(config.AI.Provider))
	if config.Log == nil {
		config.Log = &LogConfig{}
	}

	return config, nil
}
