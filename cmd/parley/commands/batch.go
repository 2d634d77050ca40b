package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/casualjim/parley"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "send every prompt in its own conversation, concurrently",
		ArgsUsage: "PROMPT...",
		Flags: append(providerFlags(),
			&cli.StringFlag{
				Name:  "system",
				Usage: "system prompt for every conversation",
			},
		),
		Action: batchAction,
	}
}

func batchAction(ctx context.Context, cmd *cli.Command) error {
	prompts := cmd.Args().Slice()
	if len(prompts) == 0 {
		return errors.New("batch: at least one prompt is required")
	}

	tk, err := newToolkit(cmd)
	if err != nil {
		return err
	}
	defer tk.Close()

	options := callOptions(cmd)
	requests := make([]parley.BatchRequest, len(prompts))
	for i, p := range prompts {
		requests[i] = parley.BatchRequest{
			ConversationID: tk.CreateConversation(cmd.String("system")),
			Text:           p,
			Options:        options,
		}
	}

	replies, err := tk.BatchCompletions(ctx, requests)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	for i, reply := range replies {
		fmt.Fprintf(out, "%s %s\n%s\n", color.CyanString("[%d]", i+1), prompts[i], reply)
	}
	return nil
}
