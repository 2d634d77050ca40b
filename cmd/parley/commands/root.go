// Package commands implements the parley command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/casualjim/parley"
	"github.com/casualjim/parley/config"
	"github.com/casualjim/parley/provider"
	"github.com/urfave/cli/v3"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	return New(os.Stdin, os.Stdout).Run(ctx, args)
}

// New builds the root command reading input from in and printing replies to
// out. Logs go to the command's ErrWriter.
func New(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "parley",
		Usage:     "talk to chat-completion APIs from the terminal",
		Reader:    in,
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a TOML configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelWarn.String(),
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			askCommand(),
			batchCommand(),
			chatCommand(),
		},
	}
}

func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
		return ctx, fmt.Errorf("invalid log level: %w", err)
	}
	instrument(level, cmd.Root().ErrWriter)
	return ctx, nil
}

func providerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "provider",
			Aliases: []string{"p"},
			Usage:   "provider tag (openai|anthropic|google|custom)",
		},
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Usage:   "model name",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "override the provider endpoint",
		},
	}
}

func callOptions(cmd *cli.Command) []parley.CallOption {
	var options []parley.CallOption
	if v := cmd.String("provider"); v != "" {
		options = append(options, parley.WithProvider(provider.ParseTag(v)))
	}
	if v := cmd.String("model"); v != "" {
		options = append(options, parley.WithModel(v))
	}
	if v := cmd.String("endpoint"); v != "" {
		options = append(options, parley.WithEndpoint(v))
	}
	return options
}

func newToolkit(cmd *cli.Command) (*parley.Toolkit, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	return parley.New(parley.Config(cfg), parley.Logger(slog.Default()))
}
