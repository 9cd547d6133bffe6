package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/gig-assistant/internal/advisory"
	"github.com/spigell/gig-assistant/internal/ai/gemini"
	"github.com/spigell/gig-assistant/internal/logger"
	"github.com/spigell/gig-assistant/internal/sandbox"
	"github.com/spigell/gig-assistant/internal/secrets"
	"github.com/spigell/gig-assistant/internal/tools"
)

// env is what every command needs: the config, a logger and the operations.
type env struct {
	config  *Config
	logger  *zap.Logger
	service *tools.Service
}

// setup reads the config and wires the service. Output is "stdout" or "stderr".
func setup(ctx context.Context, output string) (*env, error) {
	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	log, err := logger.New(logger.Options{
		JSON:   viper.GetBool("json"),
		Debug:  viper.GetBool("debug"),
		Output: output,
		File:   config.Log.FileOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	if viper.GetBool("debug") {
		// do not bother error since there is a valid parseable config
		pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
		log.Debug(fmt.Sprintf("starting with config: \n %s", pretty))
	}

	root := config.Sandbox.Root
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
	}

	files, err := sandbox.New(root, config.Sandbox.MaxFileSize, log)
	if err != nil {
		return nil, err
	}

	svc := &tools.Service{Files: files, Logger: log}

	if config.AI.Enabled {
		advisor, err := newAdvisor(ctx, config.AI, log)
		if err != nil {
			log.Warn("advisory operations are unavailable", zap.Error(err))
		} else {
			svc.Advisor = advisor
		}
	}

	return &env{config: config, logger: log, service: svc}, nil
}

func newAdvisor(ctx context.Context, cfg *AIConfig, log *zap.Logger) (*advisory.Composer, error) {
	if cfg.Provider != "" && cfg.Provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Options{
		APIKey:            apiKey,
		Model:             cfg.Gemini.Model,
		RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}

	return advisory.New(generator, advisory.Options{Timeout: cfg.Timeout, Logger: log}), nil
}

func redacted(config *Config) Config {
	out := *config
	if config.AI != nil && config.AI.Gemini != nil && config.AI.Gemini.APIKey != "" {
		ai := *config.AI
		gem := *config.AI.Gemini
		gem.APIKey = "***"
		ai.Gemini = &gem
		out.AI = &ai
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
