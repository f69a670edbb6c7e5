package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/xveil/internal/config"
)

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xveil config validate [--config PATH]")
	fmt.Fprintln(w, "  xveil config print [--config PATH] [--defaults] [--format yaml|toml]")
	fmt.Fprintln(w, "  xveil config explain [--config PATH] <path>")
}

func runConfig(args []string) int {
	return runConfigTo(os.Stdout, os.Stderr, args)
}

func runConfigTo(stdout, stderr io.Writer, args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printConfigUsage(stderr)
		return 2
	}

	parse := func(name string) (*flag.FlagSet, *string) {
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		path := fs.String("config", "", "config file path (default: $XDG_CONFIG_HOME/xveil/config.yaml)")
		return fs, path
	}
	parseErr := func(err error) int {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	switch args[0] {
	case "validate":
		fs, path := parse("validate")
		if err := fs.Parse(args[1:]); err != nil {
			return parseErr(err)
		}
		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		if len(res.Files) == 0 {
			fmt.Fprintln(stdout, "config: ok (no file, defaults)")
			return 0
		}
		fmt.Fprintf(stdout, "config: ok (%s)\n", res.Files[0])
		return 0

	case "print":
		fs, path := parse("print")
		printDefaults := fs.Bool("defaults", false, "print built-in defaults (no files)")
		format := fs.String("format", "yaml", "output format: yaml or toml")
		if err := fs.Parse(args[1:]); err != nil {
			return parseErr(err)
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(stderr, err)
				return 1
			}
			config.ApplyEnv(res)
			cfg = res.Config
		}
		if err := encodeConfig(stdout, cfg, *format); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0

	case "explain":
		fs, path := parse("explain")
		if err := fs.Parse(args[1:]); err != nil {
			return parseErr(err)
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(stderr, "explain requires <path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		config.ApplyEnv(res)

		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}

		fmt.Fprintf(stdout, "path: %s\n", queryPath)
		fmt.Fprintf(stdout, "source: %s\n", config.FormatSource(src))
		fmt.Fprintf(stdout, "value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func encodeConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "toml":
		return toml.NewEncoder(w).Encode(cfg)
	default:
		return fmt.Errorf("unknown format %q (want yaml or toml)", format)
	}
}
