package config

import (
	"fmt"
	"strings"
)

// Paths lists the config paths Explain accepts.
var Paths = []string{
	"timeout",
	"border",
	"colors.locked",
	"colors.input",
	"colors.erase",
	"colors.failed",
	"colors.unlock",
	"filters",
	"journal.file",
	"journal.max_size_mb",
	"journal.max_files",
	"hash",
	"logind",
	"display",
	"verbose",
}

// Explain returns the effective value at path and where it came from. The
// hash is reported as set or unset, never echoed.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch path {
	case "timeout":
		return cfg.Timeout, nil
	case "border":
		return cfg.Border, nil
	case "colors":
		return cfg.Colors, nil
	case "colors.locked":
		return cfg.Colors.Locked, nil
	case "colors.input":
		return cfg.Colors.Input, nil
	case "colors.erase":
		return cfg.Colors.Erase, nil
	case "colors.failed":
		return cfg.Colors.Failed, nil
	case "colors.unlock":
		return cfg.Colors.Unlock, nil
	case "filters":
		return cfg.Filters, nil
	case "journal":
		return cfg.Journal, nil
	case "journal.file":
		return cfg.Journal.File, nil
	case "journal.max_size_mb":
		return cfg.Journal.MaxSizeMB, nil
	case "journal.max_files":
		return cfg.Journal.MaxFiles, nil
	case "hash":
		if cfg.Hash == "" {
			return "<unset>", nil
		}
		return "<set>", nil
	case "logind":
		return cfg.Logind, nil
	case "display":
		return cfg.Display, nil
	case "verbose":
		return cfg.Verbose, nil
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}

// FormatSource renders src the way "config explain" prints it.
func FormatSource(src Source) string {
	switch src.Kind {
	case SourceFile:
		if src.Line > 0 {
			return fmt.Sprintf("%s:%d:%d", src.File, src.Line, src.Column)
		}
		return src.File
	case SourceEnv:
		return "env " + src.Name
	case SourceFlag:
		return "flag " + src.Name
	default:
		return string(src.Kind)
	}
}
