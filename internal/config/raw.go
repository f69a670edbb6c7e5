package config

// RawConfig mirrors Config with every field optional, so a file only
// overrides what it sets.
type RawConfig struct {
	Timeout *int        `yaml:"timeout" toml:"timeout"`
	Border  *int        `yaml:"border" toml:"border"`
	Colors  *RawColors  `yaml:"colors" toml:"colors"`
	Filters *[]string   `yaml:"filters" toml:"filters"`
	Journal *RawJournal `yaml:"journal" toml:"journal"`
	Hash    *string     `yaml:"hash" toml:"hash"`
	Logind  *bool       `yaml:"logind" toml:"logind"`
	Display *string     `yaml:"display" toml:"display"`
	Verbose *int        `yaml:"verbose" toml:"verbose"`
}

type RawColors struct {
	Locked *string `yaml:"locked" toml:"locked"`
	Input  *string `yaml:"input" toml:"input"`
	Erase  *string `yaml:"erase" toml:"erase"`
	Failed *string `yaml:"failed" toml:"failed"`
	Unlock *string `yaml:"unlock" toml:"unlock"`
}

type RawJournal struct {
	File      *string `yaml:"file" toml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files" toml:"max_files"`
}

// BuildEffectiveConfig lays raw over the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	setInt(&cfg.Timeout, raw.Timeout)
	setInt(&cfg.Border, raw.Border)
	if raw.Colors != nil {
		setString(&cfg.Colors.Locked, raw.Colors.Locked)
		setString(&cfg.Colors.Input, raw.Colors.Input)
		setString(&cfg.Colors.Erase, raw.Colors.Erase)
		setString(&cfg.Colors.Failed, raw.Colors.Failed)
		setString(&cfg.Colors.Unlock, raw.Colors.Unlock)
	}
	if raw.Filters != nil {
		cfg.Filters = append([]string{}, (*raw.Filters)...)
	}
	if raw.Journal != nil {
		setString(&cfg.Journal.File, raw.Journal.File)
		setInt(&cfg.Journal.MaxSizeMB, raw.Journal.MaxSizeMB)
		setInt(&cfg.Journal.MaxFiles, raw.Journal.MaxFiles)
	}
	setString(&cfg.Hash, raw.Hash)
	if raw.Logind != nil {
		cfg.Logind = *raw.Logind
	}
	setString(&cfg.Display, raw.Display)
	setInt(&cfg.Verbose, raw.Verbose)
	return cfg
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
