package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"
)

func newMessageCommand(logger *log.Logger, configPath *string) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "message --from <identity> <body...>",
		Short: "Process one inbound message locally and print the replies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				return errors.New("--from is required")
			}
			a, err := loadApp(logger, *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			// Arguments are joined by spaces; a literal "\n" separates lines.
			body := strings.ReplaceAll(strings.Join(args, " "), `\n`, "\n")
			transcript := a.interpreter.Handle(cmd.Context(), from, body)
			if err := printReplies(cmd.OutOrStdout(), transcript.Replies); err != nil {
				return err
			}

			if pending := a.scheduler.PendingFor(from); len(pending) > 0 {
				logger.Printf("%d reminder(s) were recorded but will not fire after this command exits; use serve", len(pending))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "sender identity")
	return cmd
}

func printReplies(w io.Writer, replies []string) error {
	for i, r := range replies {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, r); err != nil {
			return err
		}
	}
	return nil
}
