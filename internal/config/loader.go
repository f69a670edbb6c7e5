package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LogFileEnv overrides journal.file.
const LogFileEnv = "XVEIL_LOGFILE"

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
	SourceEnv     SourceKind = "env"
	SourceFlag    SourceKind = "flag"
)

type Source struct {
	Kind   SourceKind
	Name   string // env variable or flag name
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // config path -> source that set it
	Files   []string          // loaded files
}

// DefaultConfigPath returns the yaml config path under the XDG config
// directory, or the toml file next to it when only that one exists.
func DefaultConfigPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".config")
	}
	base := filepath.Join(dir, "xveil")
	yamlPath := filepath.Join(base, "config.yaml")

	if exists, err := pathExists(yamlPath); err != nil || exists {
		return yamlPath, err
	}
	tomlPath := filepath.Join(base, "config.toml")
	if exists, err := pathExists(tomlPath); err != nil {
		return "", err
	} else if exists {
		return tomlPath, nil
	}
	return yamlPath, nil
}

// Load reads the config from the default location.
func Load() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates the config at path. A missing file yields
// the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	raw := RawConfig{}
	sources := map[string]Source{}
	var files []string

	exists, err := pathExists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		var canon string
		raw, sources, canon, err = loadRaw(path)
		if err != nil {
			return nil, err
		}
		files = append(files, canon)
	}

	cfg := BuildEffectiveConfig(raw)
	if err := cfg.Validate(); err != nil {
		return nil, attachSourceContext(err, sources)
	}

	return &LoadResult{
		Config:  cfg,
		Sources: sources,
		Files:   files,
	}, nil
}

func loadRaw(path string) (RawConfig, map[string]Source, string, error) {
	canon, err := canonicalPath(path)
	if err != nil {
		return RawConfig{}, nil, "", err
	}
	data, err := os.ReadFile(canon)
	if err != nil {
		return RawConfig{}, nil, "", fmt.Errorf("%s: failed to read: %w", canon, err)
	}

	var raw RawConfig
	var sources map[string]Source
	switch strings.ToLower(filepath.Ext(canon)) {
	case ".toml":
		sources, err = decodeStrictTOML(data, canon, &raw)
		if err != nil {
			return RawConfig{}, nil, "", fmt.Errorf("%s: %w", canon, err)
		}
	case ".yaml", ".yml", "":
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return RawConfig{}, nil, "", fmt.Errorf("%s: failed to parse yaml: %w", canon, err)
		}
		if err := decodeStrictYAML(data, &raw); err != nil {
			return RawConfig{}, nil, "", fmt.Errorf("%s: %w", canon, err)
		}
		sources = collectSources(&doc, canon)
	default:
		return RawConfig{}, nil, "", fmt.Errorf("%s: unsupported config format %q", canon, filepath.Ext(canon))
	}
	return raw, sources, canon, nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// decodeStrictTOML decodes data into out and rejects keys out does not
// have. TOML metadata carries no positions, so sources only name the file.
func decodeStrictTOML(data []byte, file string, out any) (map[string]Source, error) {
	md, err := toml.Decode(string(data), out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown field(s): %s", strings.Join(keys, ", "))
	}

	sources := make(map[string]Source)
	for _, key := range md.Keys() {
		sources[strings.Join(key, ".")] = Source{Kind: SourceFile, File: file}
	}
	return sources, nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil
	}
	return real, nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func collectSources(doc *yaml.Node, file string) map[string]Source {
	out := make(map[string]Source)
	if doc == nil {
		return out
	}
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	collectSourcesRec(node, file, "", out)
	return out
}

func collectSourcesRec(node *yaml.Node, file string, prefix string, out map[string]Source) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		out[path] = Source{
			Kind:   SourceFile,
			File:   file,
			Line:   val.Line,
			Column: val.Column,
		}
		collectSourcesRec(val, file, path, out)
	}
}

func attachSourceContext(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return verr
}

// Validate re-checks the config after env and flag overrides and points an
// error at whatever set the offending value.
func (r *LoadResult) Validate() error {
	if err := r.Config.Validate(); err != nil {
		return attachSourceContext(err, r.Sources)
	}
	return nil
}

// ApplyEnv applies environment overrides to res.
func ApplyEnv(res *LoadResult) {
	if v, ok := os.LookupEnv(LogFileEnv); ok {
		res.Config.Journal.File = v
		res.Sources["journal.file"] = Source{Kind: SourceEnv, Name: LogFileEnv}
	}
}
