// Package config loads the YAML configuration file this server reads at
// startup. The raw tree is unmarshalled into a generic map first; on
// top of that, Load builds and validates a typed Config, failing fast
// on anything missing.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Config is the immutable set of attributes read from disk before the
// session starts.
type Config struct {
	ListenAddress string
	ListenPort    int

	SessionName     string
	ApplicationGUID [16]byte
	MaxPlayers      int

	LogFile  string
	LogLevel string
}

type raw map[interface{}]interface{}

// Load reads and validates path, returning a typed Config. Every error
// it returns is fatal at startup, per the missing-required-field
// contract.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	tree := make(raw)
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return build(tree)
}

func build(tree raw) (Config, error) {
	var cfg Config
	var err error

	if cfg.ListenAddress, err = requireString(tree, "listen:address"); err != nil {
		return Config{}, err
	}
	if cfg.ListenPort, err = requireInt(tree, "listen:port"); err != nil {
		return Config{}, err
	}
	if cfg.SessionName, err = requireString(tree, "session:name"); err != nil {
		return Config{}, err
	}

	guidStr, err := requireString(tree, "session:application_guid")
	if err != nil {
		return Config{}, err
	}
	cfg.ApplicationGUID, err = ParseGUID(guidStr)
	if err != nil {
		return Config{}, fmt.Errorf("config: session:application_guid: %w", err)
	}

	if cfg.MaxPlayers, err = requireInt(tree, "session:max_players"); err != nil {
		return Config{}, err
	}

	// log settings default rather than fail closed: a missing log
	// section falls back to stderr-only logging.
	cfg.LogFile, _ = optionalString(tree, "log:file")
	cfg.LogLevel, _ = optionalString(tree, "log:level")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// lookup walks a colon-separated key path through nested maps, which
// are either raw or, as yaml.v2 decodes them, map[interface{}]interface{}.
func lookup(tree raw, key string) interface{} {
	keys := strings.Split(key, ":")
	c := tree
	for i := 0; i < len(keys)-1; i++ {
		switch next := c[keys[i]].(type) {
		case raw:
			c = next
		case map[interface{}]interface{}:
			c = next
		default:
			return nil
		}
	}
	return c[keys[len(keys)-1]]
}

func requireString(tree raw, key string) (string, error) {
	v := lookup(tree, key)
	if v == nil {
		return "", fmt.Errorf("config: missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("config: field %q must be a string", key)
	}
	return s, nil
}

func optionalString(tree raw, key string) (string, bool) {
	v := lookup(tree, key)
	s, ok := v.(string)
	return s, ok
}

func requireInt(tree raw, key string) (int, error) {
	v := lookup(tree, key)
	if v == nil {
		return 0, fmt.Errorf("config: missing required field %q", key)
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("config: field %q must be an integer", key)
	}
	return n, nil
}

// ParseGUID parses a 36-character hyphenated hex GUID string the way
// Main.cpp does: hyphens are skipped and the remaining 32 hex digits are
// decoded in pairs. A malformed pair or a short tail is an error.
func ParseGUID(s string) ([16]byte, error) {
	var out [16]byte
	i := 0
	for _, r := range s {
		if r == '-' {
			continue
		}
		if i >= 32 {
			return [16]byte{}, fmt.Errorf("guid too long: %q", s)
		}
		i++
	}
	if i != 32 {
		return [16]byte{}, fmt.Errorf("guid must have 32 hex digits, got %d: %q", i, s)
	}

	hex := strings.ReplaceAll(s, "-", "")
	for b := 0; b < 16; b++ {
		v, err := parseHexByte(hex[b*2 : b*2+2])
		if err != nil {
			return [16]byte{}, fmt.Errorf("guid: bad hex pair %q: %w", hex[b*2:b*2+2], err)
		}
		out[b] = v
	}
	return out, nil
}

func parseHexByte(pair string) (byte, error) {
	var v byte
	for _, c := range pair {
		var nibble byte
		switch {
		case c >= '0' && c <= '9':
			nibble = byte(c - '0')
		case c >= 'a' && c <= 'f':
			nibble = byte(c-'a') + 10
		case c >= 'A' && c <= 'F':
			nibble = byte(c-'A') + 10
		default:
			return 0, fmt.Errorf("not a hex digit: %q", c)
		}
		v = v<<4 | nibble
	}
	return v, nil
}
