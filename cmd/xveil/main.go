package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/xveil/internal/auth"
	"github.com/1broseidon/xveil/internal/config"
	"github.com/1broseidon/xveil/internal/ipc"
	"github.com/1broseidon/xveil/internal/journal"
	"github.com/1broseidon/xveil/internal/lock"
	"github.com/1broseidon/xveil/internal/runtimepath"
	"github.com/1broseidon/xveil/internal/session"
	"github.com/1broseidon/xveil/internal/x11"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "genhash":
			os.Exit(runGenhash(os.Args[2:]))
		case "preview":
			os.Exit(runPreview(os.Args[2:]))
		case "config":
			os.Exit(runConfig(os.Args[2:]))
		case "status":
			os.Exit(runStatus(os.Args[2:]))
		case "help":
			printMainUsage(os.Stdout)
			os.Exit(0)
		}
	}
	os.Exit(runLock(os.Args[1:]))
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: xveil [options]")
	fmt.Fprintln(w, "       xveil <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Without a command the display is locked until the user's password is typed.")
	fmt.Fprintln(w, "Run 'xveil -h' for the lock options.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  genhash             Prompt for a password and print its hash")
	fmt.Fprintln(w, "  preview             Apply the filter pipeline to an image file")
	fmt.Fprintln(w, "  status              Query a running locker")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
}

// logLevel maps the debug and verbosity counters to a slog level.
func logLevel(debug, verbose int) slog.Level {
	switch {
	case debug > 0:
		return slog.LevelDebug
	case verbose > 0:
		return slog.LevelInfo
	case verbose < 0:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel(cfg.Debug, cfg.Verbose),
	}))
}

// loadConfig reads path, or the default location when path is empty.
func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

// resolveConfig loads the file, then layers the environment and the command
// line on top and validates the result.
func resolveConfig(o *config.Overrides) (*config.LoadResult, error) {
	res, err := loadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(res)
	o.Apply(res)
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// buildVerifier picks the credential to check: the configured hash, else
// the user's passwd/shadow entry. In debug sessions a missing credential
// falls back to Deny so the bypass can still be exercised.
func buildVerifier(cfg *config.Config, lookup func(uid int) (auth.Account, error), logger *slog.Logger) (auth.Verifier, error) {
	hash := cfg.Hash
	if hash == "" {
		acct, err := lookup(os.Getuid())
		if err != nil {
			if cfg.Debug > 0 {
				logger.Warn("no usable password, only the debug bypass unlocks", "error", err)
				return auth.Deny, nil
			}
			return nil, err
		}
		hash = acct.Hash
	}

	v, err := auth.NewHashVerifier(hash)
	if err != nil {
		if cfg.Debug > 0 {
			logger.Warn("password hash unusable, only the debug bypass unlocks", "error", err)
			return auth.Deny, nil
		}
		return nil, err
	}
	return v, nil
}

func displayName(cfg *config.Config) string {
	if cfg.Display != "" {
		return cfg.Display
	}
	return os.Getenv("DISPLAY")
}

func runLock(args []string) int {
	overrides, err := config.ParseFlags("xveil", args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "xveil:", err)
		return 1
	}
	res, err := resolveConfig(overrides)
	if err != nil {
		fmt.Fprintln(os.Stderr, "xveil:", err)
		return 1
	}
	cfg := res.Config

	pipeline, err := cfg.Pipeline()
	if err != nil {
		fmt.Fprintln(os.Stderr, "xveil:", err)
		return 1
	}

	logger := newLogger(os.Stderr, cfg)
	logger.Debug("configuration loaded",
		"files", res.Files,
		"timeout", cfg.Timeout,
		"border", cfg.Border,
		"filters", pipeline.String(),
		"debug", cfg.Debug)

	j := journal.Open(journal.Config{
		FilePath:  cfg.Journal.File,
		Verbose:   cfg.Verbose,
		MaxSizeMB: cfg.Journal.MaxSizeMB,
		MaxFiles:  cfg.Journal.MaxFiles,
	}, logger)
	defer j.Close()

	verifier, err := buildVerifier(cfg, auth.LookupHash, logger)
	if err != nil {
		logger.Error("no credential to check against", "error", err)
		return 1
	}

	if err := auth.DropPrivileges(); err != nil {
		logger.Error("failed to drop privileges", "error", err)
		return 1
	}
	if err := auth.DisableCoreDumps(); err != nil {
		logger.Warn("core dumps stay enabled", "error", err)
	}

	display := displayName(cfg)
	instance, err := runtimepath.AcquireInstance(display)
	if err != nil {
		if errors.Is(err, runtimepath.ErrAlreadyRunning) {
			fmt.Fprintln(os.Stderr, "xveil:", err)
		} else {
			logger.Error("failed to take the instance lock", "error", err)
		}
		return 1
	}
	defer instance.Release()

	secret, err := auth.NewSecret()
	if err != nil {
		logger.Info("secret buffer is not memory-locked", "error", err)
	}
	defer secret.Destroy()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-sigCh
		secret.Destroy()
		logger.Warn("terminated by signal", "signal", sig.String())
		os.Exit(1)
	}()

	conn, err := x11.NewConnection(cfg.Display, logger)
	if err != nil {
		logger.Error("failed to open display", "display", display, "error", err)
		return 1
	}
	defer conn.Close()

	locker, err := x11.Open(conn, x11.Options{
		Border:   cfg.Border,
		Colors:   cfg.ColorArray(),
		Pipeline: pipeline,
		Debug:    cfg.Debug,
	}, logger)
	if err != nil {
		logger.Error("failed to lock the display", "error", err)
		return 1
	}
	defer locker.Close()

	if cfg.Logind {
		hint, err := session.NewLogind("")
		if err != nil {
			logger.Warn("logind unavailable", "error", err)
		} else {
			defer hint.Close()
			if err := hint.SetLockedHint(true); err != nil {
				logger.Warn("failed to set LockedHint", "error", err)
			} else {
				defer func() {
					if err := hint.SetLockedHint(false); err != nil {
						logger.Warn("failed to clear LockedHint", "error", err)
					}
				}()
			}
		}
	}

	tracker := ipc.NewTracker()
	if socketPath, err := runtimepath.SocketPath(display); err != nil {
		logger.Warn("status socket unavailable", "error", err)
	} else {
		srv := ipc.NewServer(socketPath, ipc.Info{
			Display: display,
			Screens: len(locker.Screens()),
			Filters: pipeline.String(),
		}, tracker, logger)
		if err := srv.Start(); err != nil {
			logger.Warn("status socket unavailable", "error", err)
		} else {
			defer srv.Stop()
		}
	}

	ctrl := lock.NewController(lock.Options{
		Secret:   secret,
		Verifier: verifier,
		Debug:    cfg.Debug,
		Journal:  lock.Recorders{j, tracker},
		Logger:   logger,
		Timeout:  cfg.UnlockDelay(),
	})
	if err := ctrl.Run(locker); err != nil {
		logger.Error("session ended abnormally", "error", err)
		return 1
	}
	return 0
}
