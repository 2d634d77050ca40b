package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casualjim/parley"
	"github.com/fatih/color"
	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "send one prompt and print the reply",
		ArgsUsage: "PROMPT",
		Flags: append(providerFlags(),
			&cli.StringFlag{
				Name:  "system",
				Usage: "system prompt (defaults to the configured one)",
			},
			&cli.BoolFlag{
				Name:  "stream",
				Usage: "print the reply as it arrives",
			},
			&cli.BoolFlag{
				Name:  "render",
				Usage: "render the reply as markdown",
			},
			&cli.BoolFlag{
				Name:  "dump",
				Usage: "pretty-print the conversation afterwards",
			},
		),
		Action: askAction,
	}
}

func askAction(ctx context.Context, cmd *cli.Command) error {
	prompt := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if prompt == "" {
		return errors.New("ask: a prompt is required")
	}

	tk, err := newToolkit(cmd)
	if err != nil {
		return err
	}
	defer tk.Close()

	out := cmd.Root().Writer
	id := tk.CreateConversation(cmd.String("system"))
	options := callOptions(cmd)

	var reply string
	if cmd.Bool("stream") {
		reply, err = tk.StreamCompletion(ctx, id, prompt, func(chunk string) {
			fmt.Fprint(out, color.GreenString(chunk))
		}, options...)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
	} else {
		reply, err = tk.SendCompletion(ctx, id, prompt, options...)
		if err != nil {
			return err
		}
		if !cmd.Bool("render") {
			fmt.Fprintln(out, reply)
		}
	}

	if cmd.Bool("render") {
		if err := render(out, reply); err != nil {
			return err
		}
	}

	if cmd.Bool("dump") {
		return dump(cmd, tk, id)
	}
	return nil
}

func dump(cmd *cli.Command, tk *parley.Toolkit, id string) error {
	conv, err := tk.GetConversation(id)
	if err != nil {
		return err
	}
	_, err = pp.Fprintln(cmd.Root().Writer, conv)
	return err
}
