package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/hive-curator/pkg/hive"
)

// Config holds all configuration for the curator run command
type Config struct {
	// Application settings
	Verbose bool
	DryRun  bool

	// Reactions
	EnableVotes    bool
	EnableComments bool
	Cooldown       time.Duration

	// Accounts and command grammar
	CallerAccount string
	Account       string
	PostingKey    string
	CommandToken  string

	// Hive node
	APINode      string
	ChainID      string
	HTTPTimeout  time.Duration
	StreamMode   hive.Mode
	PollInterval time.Duration

	// Reply template; TemplateSet reports whether the path was configured
	// explicitly rather than defaulted.
	TemplatePath string
	TemplateSet  bool
	FrontendURL  string

	CheckpointFile string

	// Metrics settings
	MetricsHost   string
	MetricsPort   int
	Environment   string
	Region        string
	CloudProvider string
}

// MetricsAddr returns the formatted metrics address
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf("%s:%d", c.MetricsHost, c.MetricsPort)
}

// Broadcasts reports whether the run signs transactions.
func (c *Config) Broadcasts() bool {
	return !c.DryRun && (c.EnableVotes || c.EnableComments)
}

// buildConfig builds a Config from CLI context flags
func buildConfig(c *cli.Context) (*Config, error) {
	mode, err := hive.ParseMode(c.String("stream-mode"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Verbose:        c.Bool("verbose"),
		DryRun:         c.Bool("dry-run"),
		EnableVotes:    c.Bool("enable-upvotes"),
		EnableComments: c.Bool("enable-comments"),
		Cooldown:       c.Duration("cooldown"),
		CallerAccount:  strings.TrimSpace(c.String("caller-account")),
		Account:        strings.TrimSpace(c.String("account-name")),
		PostingKey:     strings.TrimSpace(c.String("posting-key")),
		CommandToken:   c.String("command-token"),
		APINode:        c.String("api-node"),
		ChainID:        c.String("chain-id"),
		HTTPTimeout:    c.Duration("http-timeout"),
		StreamMode:     mode,
		PollInterval:   c.Duration("poll-interval"),
		TemplatePath:   c.String("template"),
		TemplateSet:    c.IsSet("template"),
		FrontendURL:    c.String("frontend-url"),
		CheckpointFile: c.String("checkpoint-file"),
		MetricsHost:    c.String("metrics-host"),
		MetricsPort:    c.Int("metrics-port"),
		Environment:    c.String("environment"),
		Region:         c.String("region"),
		CloudProvider:  c.String("cloud-provider"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.CallerAccount == "" {
		errs = append(errs, errors.New("caller-account is required"))
	}
	if c.Account == "" {
		errs = append(errs, errors.New("account-name is required"))
	}
	if c.CommandToken == "" {
		errs = append(errs, errors.New("command-token must not be empty"))
	}
	if c.APINode == "" {
		errs = append(errs, errors.New("api-node is required"))
	}
	if c.Broadcasts() && c.PostingKey == "" {
		errs = append(errs, errors.New("posting-key is required unless running with --dry-run or with both reactions disabled"))
	}
	if c.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cooldown must not be negative, got %s", c.Cooldown))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http-timeout must be positive, got %s", c.HTTPTimeout))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll-interval must be positive, got %s", c.PollInterval))
	}
	if c.CheckpointFile == "" {
		errs = append(errs, errors.New("checkpoint-file must not be empty"))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metrics-port must be between 0 and 65535, got %d", c.MetricsPort))
	}
	return errors.Join(errs...)
}
