package main

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/1broseidon/xveil/internal/auth"
)

type hashOptions struct {
	cost  int
	crypt bool
	salt  string
}

func runGenhash(args []string) int {
	fs := flag.NewFlagSet("genhash", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var opts hashOptions
	fs.IntVar(&opts.cost, "cost", 0, "bcrypt cost (default 10)")
	fs.BoolVar(&opts.crypt, "crypt", false, "print a crypt(3) SHA-512 hash instead of bcrypt")
	fs.StringVar(&opts.salt, "salt", "", "salt for -crypt (default random)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "genhash takes no arguments")
		return 2
	}

	var (
		password []byte
		err      error
	)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err = promptPassword(fd, os.Stderr)
	} else {
		password, err = readPasswordLine(os.Stdin)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "genhash:", err)
		return 1
	}
	defer clear(password)

	hash, err := makeHash(password, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "genhash:", err)
		return 1
	}
	fmt.Println(hash)
	return 0
}

// promptPassword asks twice without echo and insists both answers match.
func promptPassword(fd int, prompt io.Writer) ([]byte, error) {
	fmt.Fprint(prompt, "Enter password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return nil, err
	}
	fmt.Fprint(prompt, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	defer clear(second)
	if err != nil {
		clear(first)
		return nil, err
	}
	if !bytes.Equal(first, second) {
		clear(first)
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}

// readPasswordLine reads the first line of r, for scripted use.
func readPasswordLine(r io.Reader) ([]byte, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("no password on standard input")
	}
	line := bytes.TrimRight(sc.Bytes(), "\r")
	return bytes.Clone(line), nil
}

func makeHash(password []byte, opts hashOptions) (string, error) {
	if len(password) == 0 {
		return "", errors.New("empty password")
	}
	if len(password) >= auth.SecretSize-1 {
		return "", fmt.Errorf("password longer than the %d bytes the locker accepts", auth.SecretSize-2)
	}
	if opts.crypt {
		return auth.GenerateCryptHash(password, opts.salt)
	}
	if opts.salt != "" {
		return "", errors.New("-salt only applies to -crypt")
	}
	return auth.GenerateHash(password, opts.cost)
}
