package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/zeebo/blake3"
)

// emitDigests logs a blake3 digest for every regular file inside the
// sandbox directory, so a surrounding test harness can compare run
// artifacts against expectations.
func (app *App) emitDigests() error {
	err := filepath.WalkDir(app.cfg.SandboxDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		digest, err := digestFile(path)
		if err != nil {
			slog.Warn("Skipped artifact: failed to digest.", "path", path, "err", err)

			return nil
		}

		rel, err := filepath.Rel(app.cfg.SandboxDir, path)
		if err != nil {
			rel = path
		}

		slog.Info("Artifact digest.",
			"path", rel,
			"size", humanize.Bytes(uint64(info.Size())),
			"blake3", digest,
		)

		return nil
	})
	if err != nil {
		return fmt.Errorf("(digests) failed to walk sandbox: %w", err)
	}

	return nil
}

// digestFile returns the hex blake3 digest of the file at path.
func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("(digests) failed to open: %w", err)
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("(digests) failed to hash: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
