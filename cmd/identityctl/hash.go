package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MrEthical07/goIdentity/password"
	"golang.org/x/term"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

// ArgonOptions selects Argon2id parameters. Zero values use the defaults.
type ArgonOptions struct {
	Memory      uint32 `long:"memory" description:"argon2 memory in KB"`
	Time        uint32 `long:"time" description:"argon2 iterations"`
	Parallelism uint8  `long:"parallelism" description:"argon2 lanes"`
}

func (o ArgonOptions) config() password.Config {
	cfg := password.DefaultConfig()
	if o.Memory > 0 {
		cfg.Memory = o.Memory
	}
	if o.Time > 0 {
		cfg.Time = o.Time
	}
	if o.Parallelism > 0 {
		cfg.Parallelism = o.Parallelism
	}
	return cfg
}

type HashCommand struct {
	Argon ArgonOptions `group:"argon2"`
	Stdin bool         `long:"stdin" description:"read the password from the first line of stdin"`

	out    io.Writer
	prompt io.Writer
	in     io.Reader
}

func (c *HashCommand) Execute([]string) error {
	hasher, err := password.NewArgon2(c.Argon.config())
	if err != nil {
		return err
	}
	pass, err := obtainPassword(c.Stdin, c.in, c.prompt)
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(pass)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, hash)
	return err
}

type VerifyCommand struct {
	Stdin bool `long:"stdin" description:"read the password from the first line of stdin"`
	Args  struct {
		Hash string `positional-arg-name:"hash" description:"argon2id PHC string"`
	} `positional-args:"yes" required:"yes"`

	out    io.Writer
	prompt io.Writer
	in     io.Reader
}

var errMismatch = errors.New("password does not match")

func (c *VerifyCommand) Execute([]string) error {
	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return err
	}
	pass, err := obtainPassword(c.Stdin, c.in, c.prompt)
	if err != nil {
		return err
	}
	ok, err := hasher.Verify(pass, c.Args.Hash)
	if err != nil {
		return err
	}
	if !ok {
		return errMismatch
	}
	upgrade, err := hasher.NeedsUpgrade(c.Args.Hash)
	if err != nil {
		return err
	}
	if upgrade {
		_, err = fmt.Fprintln(c.out, "match (hash uses outdated parameters)")
		return err
	}
	_, err = fmt.Fprintln(c.out, "match")
	return err
}

// obtainPassword reads one line from in when fromStdin is set, otherwise
// prompts on the terminal without echo.
func obtainPassword(fromStdin bool, in io.Reader, prompt io.Writer) (string, error) {
	if fromStdin {
		if in == nil {
			in = os.Stdin
		}
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return "", password.ErrEmptyPassword
		}
		return line, nil
	}

	if _, err := fmt.Fprint(prompt, "Password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
