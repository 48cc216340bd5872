// Package config loads the rig configuration: display refresh rate, marker
// stream identity and listen address, journal location and key bindings.
//
// The file is TOML. Every key is optional; values not present keep their
// defaults. Unknown keys are rejected so a typo cannot silently fall back
// to a default.
package config

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/roach88/ssvep/internal/engine"
	"github.com/roach88/ssvep/internal/marker"
)

const (
	DefaultRefreshHz = 60.0
	DefaultListen    = "127.0.0.1:16571"
)

// Config is the resolved rig configuration.
type Config struct {
	RefreshHz   float64
	SourceID    string
	Listen      string
	JournalPath string
	AdvanceKeys []string
	AbortKeys   []string
	SkipGate    bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RefreshHz:   DefaultRefreshHz,
		SourceID:    marker.DefaultSource,
		Listen:      DefaultListen,
		AdvanceKeys: []string{engine.KeyAdvance},
		AbortKeys:   []string{engine.KeyAbort},
	}
}

type fileConfig struct {
	Display struct {
		RefreshHz float64 `toml:"refresh_hz"`
	} `toml:"display"`
	Stream struct {
		SourceID string `toml:"source_id"`
		Listen   string `toml:"listen"`
	} `toml:"stream"`
	Journal struct {
		Path string `toml:"path"`
	} `toml:"journal"`
	Keys struct {
		Advance []string `toml:"advance"`
		Abort   []string `toml:"abort"`
	} `toml:"keys"`
	Session struct {
		SkipGate bool `toml:"skip_gate"`
	} `toml:"session"`
}

// Load reads path over Default. The result is validated.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load rig config: %w", err)
	}
	return resolve(raw, meta)
}

// Parse is Load for in-memory content.
func Parse(data string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse rig config: %w", err)
	}
	return resolve(raw, meta)
}

func resolve(raw fileConfig, meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	cfg := Default()

	if meta.IsDefined("display", "refresh_hz") {
		cfg.RefreshHz = raw.Display.RefreshHz
	}
	if meta.IsDefined("stream", "source_id") {
		cfg.SourceID = strings.TrimSpace(raw.Stream.SourceID)
	}
	if meta.IsDefined("stream", "listen") {
		cfg.Listen = strings.TrimSpace(raw.Stream.Listen)
	}
	if meta.IsDefined("journal", "path") {
		cfg.JournalPath = strings.TrimSpace(raw.Journal.Path)
	}
	if meta.IsDefined("keys", "advance") {
		cfg.AdvanceKeys = normalizeKeys(raw.Keys.Advance)
	}
	if meta.IsDefined("keys", "abort") {
		cfg.AbortKeys = normalizeKeys(raw.Keys.Abort)
	}
	if meta.IsDefined("session", "skip_gate") {
		cfg.SkipGate = raw.Session.SkipGate
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the runtime cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.RefreshHz <= 0 {
		errs = append(errs, fmt.Errorf("display.refresh_hz must be positive, got %g", c.RefreshHz))
	}
	if c.SourceID == "" {
		errs = append(errs, errors.New("stream.source_id must not be empty"))
	}
	if c.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Listen); err != nil {
			errs = append(errs, fmt.Errorf("stream.listen: %w", err))
		}
	}
	if len(c.AdvanceKeys) == 0 {
		errs = append(errs, errors.New("keys.advance must name at least one key"))
	}
	if len(c.AbortKeys) == 0 {
		errs = append(errs, errors.New("keys.abort must name at least one key"))
	}
	for _, k := range c.AdvanceKeys {
		for _, a := range c.AbortKeys {
			if k == a {
				errs = append(errs, fmt.Errorf("key %q is bound to both advance and abort", k))
			}
		}
	}
	return errors.Join(errs...)
}

// KeyMap builds the scheduler key bindings.
func (c Config) KeyMap() engine.KeyMap {
	m := engine.KeyMap{}
	for _, k := range c.AdvanceKeys {
		m[k] = engine.CommandAdvance
	}
	for _, k := range c.AbortKeys {
		m[k] = engine.CommandAbort
	}
	return m
}

func normalizeKeys(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		v := strings.ToLower(strings.TrimSpace(k))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
