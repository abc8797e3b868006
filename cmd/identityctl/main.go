// Command identityctl hashes passwords for seed configuration and load tests
// the goIdentity engine.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

// Options are the global flags shared by every command.
type Options struct {
	Verbose bool `short:"v" long:"verbose" description:"log engine background activity to stderr"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts := &Options{}
	parser := flags.NewParser(opts, flags.Default)

	if _, err := parser.AddCommand("hash", "Hash a password",
		"Reads a password from the terminal and prints its Argon2id PHC string.",
		&HashCommand{out: os.Stdout, prompt: os.Stderr}); err != nil {
		return err
	}
	if _, err := parser.AddCommand("verify", "Check a password against a hash",
		"Reads a password from the terminal and reports whether it matches the given PHC string.",
		&VerifyCommand{out: os.Stdout, prompt: os.Stderr}); err != nil {
		return err
	}
	if _, err := parser.AddCommand("loadtest", "Benchmark login, resolve and logout",
		"Seeds users, then measures concurrent Login, Resolve and Logout against the memory or Redis token store.",
		&LoadTestCommand{global: opts, out: os.Stdout}); err != nil {
		return err
	}

	_, err := parser.ParseArgs(args)
	return err
}
