// Package configuration loads the guestio runner configuration from
// dotenv-style files.
package configuration

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
)

// Keys recognized in the runner configuration file.
const (
	KeySandboxDir  = "GUESTIO_SANDBOX_DIR"
	KeyInputScript = "GUESTIO_INPUT_SCRIPT"
	KeyDigests     = "GUESTIO_DIGESTS"
	KeyUI          = "GUESTIO_UI"
)

type envProvider interface {
	Read(filenames ...string) (map[string]string, error)
}

// Config is the runner configuration.
type Config struct {
	// SandboxDir is the host directory guest file names resolve against.
	SandboxDir string

	// InputScript is a file of pre-scripted guest input lines for
	// headless runs.
	InputScript string

	// Digests emits artifact digests for every guest-written file after
	// a run.
	Digests bool

	// UI enables the interactive console bridge.
	UI bool
}

// Handler reads the runner [Config] through a pluggable provider.
type Handler struct {
	provider envProvider
}

// NewHandler returns a pointer to a new configuration [Handler].
func NewHandler(provider envProvider) *Handler {
	return &Handler{
		provider: provider,
	}
}

// Load reads the configuration file at path. A missing file is not an
// error and yields the defaults.
func (c *Handler) Load(path string) (*Config, error) {
	cfg := &Config{
		SandboxDir: ".",
	}

	envMap, err := c.provider.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("(config) failed to read %q: %w", path, err)
	}

	if v := envMap[KeySandboxDir]; v != "" {
		cfg.SandboxDir = v
	}

	cfg.InputScript = envMap[KeyInputScript]
	cfg.Digests = mapKeyToBool(envMap, KeyDigests)
	cfg.UI = mapKeyToBool(envMap, KeyUI)

	return cfg, nil
}

// mapKeyToBool interprets a map value as boolean; absent or unparseable
// values read as false.
func mapKeyToBool(envMap map[string]string, key string) bool {
	v, ok := envMap[key]
	if !ok {
		return false
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}

	return b
}
