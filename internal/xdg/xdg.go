// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package xdg resolves XDG Base Directory paths for the onoffice CLI.
// Config holds config.yaml; state holds the rotating log file. Both fall back
// to the traditional locations under the home directory when the XDG
// variables are unset.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under each XDG base.
const AppName = "onoffice"

// ConfigHome returns the config directory without creating it.
// It falls back to ~/.config/onoffice when XDG_CONFIG_HOME is unset.
func ConfigHome() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// ConfigDir returns the XDG config directory for onoffice.
// The directory is created with private permissions (0700) if missing.
func ConfigDir() (string, error) {
	dir, err := ConfigHome()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}

// ConfigFile returns the default config file path. The file may not exist.
func ConfigFile() (string, error) {
	dir, err := ConfigHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StateDir returns the XDG state directory for onoffice.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.local/state/onoffice when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	dir, err := resolve("XDG_STATE_HOME", filepath.Join(".local", "state"))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}

func resolve(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, AppName), nil
}
