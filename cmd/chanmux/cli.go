package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Command is a subcommand of the tool.
type Command struct {
	Usage string
	Short string
	Long  string
	Args  func(args []string) error
	Run   func(ctx context.Context, args []string)

	commands []*Command
}

func (c *Command) AddCommand(sub *Command) {
	c.commands = append(c.commands, sub)
}

func (c *Command) help() {
	if c.Long != "" {
		fmt.Fprintln(os.Stderr, c.Long)
		fmt.Fprintln(os.Stderr)
	}
	fmt.Fprintf(os.Stderr, "Usage: %s\n", c.Usage)
	if len(c.commands) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "\nCommands:")
	for _, sub := range c.commands {
		name, _, _ := strings.Cut(sub.Usage, " ")
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", name, sub.Short)
	}
}

// Execute runs the subcommand of root named by the first argument.
func Execute(ctx context.Context, root *Command, args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		root.help()
		return nil
	}
	for _, sub := range root.commands {
		name, _, _ := strings.Cut(sub.Usage, " ")
		if name != args[0] {
			continue
		}
		if sub.Args != nil {
			if err := sub.Args(args[1:]); err != nil {
				sub.help()
				return err
			}
		}
		sub.Run(ctx, args[1:])
		return nil
	}
	root.help()
	return fmt.Errorf("unknown command %q", args[0])
}

// MinArgs requires at least n arguments.
func MinArgs(n int) func([]string) error {
	return func(args []string) error {
		if len(args) < n {
			return errors.New("not enough arguments")
		}
		return nil
	}
}
