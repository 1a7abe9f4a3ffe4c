package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"sample-logistics/internal/adapters/cli"
	"sample-logistics/internal/app"
)

var errExit = errors.New("exit")

// Run starts the interactive operator shell. Every line is a CLI command, with
// or without a leading slash; /new-dispatch starts an interactive wizard.
// It returns when the input is exhausted or the operator exits.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "Sample Logistics")
	fmt.Fprintln(out, "Type /help for commands, /new-dispatch to send samples, /exit to leave.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	dispatchSlash := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "new-dispatch", "nd":
			if len(args) < 2 {
				fmt.Fprintln(out, "Usage: /new-dispatch <store-id> <warehouse-id>")
				return nil
			}
			handleNewDispatch(ctx, reader, out, svc, args[0], args[1])

		case "help", "h":
			printHelp(out)

		case "exit", "quit", "e", "q":
			return errExit

		default:
			tokens[0] = cmd
			return cli.Run(ctx, svc, tokens, out)
		}
		return nil
	}

	for {
		fmt.Fprint(out, "\n> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			if derr := dispatchSlash(input); derr != nil {
				if errors.Is(derr, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return
				}
				fmt.Fprintf(out, "Error: %v\n", derr)
			}
		}
		if err != nil {
			return
		}
	}
}
