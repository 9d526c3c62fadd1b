package main

import (
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"

	"github.com/ava-labs/hive-curator/pkg/checkpointer"
	"github.com/ava-labs/hive-curator/pkg/dispatcher"
	"github.com/ava-labs/hive-curator/pkg/hive"
)

const (
	defaultAPINode        = "https://api.hive.blog"
	defaultCommandToken   = "!vote"
	defaultTemplatePath   = "templates/comment_curation.template"
	defaultFrontendURL    = "https://peakd.com"
	defaultMetricsPort    = 9090
	defaultCheckpointFile = checkpointer.DefaultPath
)

func configFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML file providing defaults for any flag, keyed by flag name",
		EnvVars: []string{"CURATOR_CONFIG"},
	}
}

func checkpointFileFlag() cli.Flag {
	return altsrc.NewStringFlag(&cli.StringFlag{
		Name:    "checkpoint-file",
		Usage:   "File holding the last processed block number",
		EnvVars: []string{"CHECKPOINT_FILE"},
		Value:   defaultCheckpointFile,
	})
}

// runFlags returns all CLI flags for the curator run command
func runFlags() []cli.Flag {
	return []cli.Flag{
		configFileFlag(),
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
			EnvVars: []string{"VERBOSE"},
		}),
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:    "dry-run",
			Usage:   "Resolve posts and log reactions without broadcasting them",
			EnvVars: []string{"DRY_RUN"},
		}),

		// Reactions
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:    "enable-upvotes",
			Usage:   "Vote on the posts referenced by commands",
			EnvVars: []string{"ENABLE_UPVOTES"},
			Value:   true,
		}),
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:    "enable-comments",
			Usage:   "Reply to the posts referenced by commands",
			EnvVars: []string{"ENABLE_COMMENTS"},
			Value:   true,
		}),
		altsrc.NewDurationFlag(&cli.DurationFlag{
			Name:    "cooldown",
			Usage:   "Pause after every successful vote or reply",
			EnvVars: []string{"COOLDOWN"},
			Value:   dispatcher.DefaultCooldown,
		}),

		// Accounts
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "caller-account",
			Usage:   "Account allowed to issue commands (substring match on the comment author)",
			EnvVars: []string{"CALLER_ACCOUNT"},
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "account-name",
			Aliases: []string{"a"},
			Usage:   "Account that votes and replies",
			EnvVars: []string{"ACCOUNT_NAME"},
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "posting-key",
			Usage:   "WIF posting key of the reacting account",
			EnvVars: []string{"ACCOUNT_POSTING_KEY"},
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "command-token",
			Usage:   "Token that marks a command in a comment body",
			EnvVars: []string{"BOT_COMMAND_STR"},
			Value:   defaultCommandToken,
		}),

		// Hive node
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "api-node",
			Aliases: []string{"r"},
			Usage:   "Hive API node URL",
			EnvVars: []string{"HIVE_API_NODE"},
			Value:   defaultAPINode,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "chain-id",
			Usage:   "Chain ID transactions are signed for",
			EnvVars: []string{"HIVE_CHAIN_ID"},
			Value:   hive.MainnetChainID,
		}),
		altsrc.NewDurationFlag(&cli.DurationFlag{
			Name:    "http-timeout",
			Usage:   "Timeout of a single API node request",
			EnvVars: []string{"HTTP_TIMEOUT"},
			Value:   hive.DefaultTimeout,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "stream-mode",
			Usage:   "Newest block to read: irreversible or head",
			EnvVars: []string{"STREAM_MODE"},
			Value:   string(hive.ModeIrreversible),
		}),
		altsrc.NewDurationFlag(&cli.DurationFlag{
			Name:    "poll-interval",
			Usage:   "Wait between chain state polls once caught up",
			EnvVars: []string{"POLL_INTERVAL"},
			Value:   hive.DefaultPollInterval,
		}),

		// Reply
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "template",
			Usage:   "Reply template file",
			EnvVars: []string{"TEMPLATE_FILE"},
			Value:   defaultTemplatePath,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "frontend-url",
			Usage:   "Front end used for the links in the logs",
			EnvVars: []string{"FRONTEND_URL"},
			Value:   defaultFrontendURL,
		}),

		checkpointFileFlag(),

		// Metrics
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "metrics-host",
			Usage:   "Host for Prometheus metrics server (empty for all interfaces)",
			EnvVars: []string{"METRICS_HOST"},
			Value:   "",
		}),
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:    "metrics-port",
			Usage:   "Port for Prometheus metrics server",
			EnvVars: []string{"METRICS_PORT"},
			Value:   defaultMetricsPort,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "environment",
			Usage:   "Deployment environment label for metrics (e.g., 'production', 'staging')",
			EnvVars: []string{"ENVIRONMENT"},
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "region",
			Usage:   "Cloud region label for metrics (e.g., 'us-east-1')",
			EnvVars: []string{"REGION"},
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "cloud-provider",
			Usage:   "Cloud provider label for metrics (e.g., 'aws', 'gcp')",
			EnvVars: []string{"CLOUD_PROVIDER"},
		}),
	}
}

// checkpointFlags returns the flags shared by the checkpoint subcommands
func checkpointFlags() []cli.Flag {
	return []cli.Flag{
		configFileFlag(),
		checkpointFileFlag(),
	}
}

func resetFlags() []cli.Flag {
	return append(checkpointFlags(), &cli.Uint64Flag{
		Name:  "height",
		Usage: "Store this block number instead of removing the checkpoint",
	})
}

// loadConfigFile layers the --config YAML file under flags and env vars.
func loadConfigFile(flags []cli.Flag) cli.BeforeFunc {
	return altsrc.InitInputSourceWithContext(flags, altsrc.NewYamlSourceFromFlagFunc("config"))
}
