// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"onoffice/cli/internal/config"
	clierrors "onoffice/cli/internal/errors"
	"onoffice/cli/internal/keychain"
	"onoffice/cli/internal/logging"
	"onoffice/cli/internal/onoffice"
	"onoffice/cli/internal/output"
	"onoffice/cli/internal/query"
	"onoffice/cli/internal/registry"
	"onoffice/cli/internal/terminal"
)

// session wires configuration, logging, the API client and the dispatcher
// for a single command invocation.
type session struct {
	cfg        config.Config
	log        zerolog.Logger
	closer     io.Closer
	registry   *registry.Registry
	dispatcher *query.Dispatcher
	formatter  *output.Formatter
	stderr     io.Writer
}

// newSession loads configuration and builds the command dependencies. When
// remote is false, credentials are not resolved and no request can be made.
func newSession(cmd *cobra.Command, remote bool) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, clierrors.Wrap(clierrors.Validation, "Configuration error", err)
	}

	if !terminal.IsTerminal(cmd.OutOrStdout()) {
		pterm.DisableStyling()
	}

	sess := &session{
		cfg:       cfg,
		log:       zerolog.Nop(),
		stderr:    cmd.ErrOrStderr(),
		formatter: output.NewFormatter(output.ModeFor(jsonOutput), cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}

	logger, closer, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Debug:      debugMode,
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		if debugMode {
			fmt.Fprintln(sess.stderr, logging.PresentError("logging disabled", err))
		}
	} else {
		sess.log = logger.With().Str("command", cmd.CommandPath()).Logger()
		sess.closer = closer
	}

	creds := onoffice.Credentials{
		Token:  cfg.API.Token,
		Secret: cfg.API.Secret,
		Claim:  cfg.API.Claim,
	}
	if apiClaim != "" {
		creds.Claim = apiClaim
	}
	if remote && (creds.Token == "" || creds.Secret == "") {
		sess.fillFromKeychain(&creds)
	}

	client := onoffice.New(cfg.API.URL, creds,
		onoffice.WithTimeout(cfg.API.Timeout),
		onoffice.WithLogger(sess.log),
	)
	sess.registry = registry.New(cfg.Entities, client.Repository)
	sess.dispatcher = query.New(sess.registry, client, cfg.FieldModules, sess.log)

	sess.log.Debug().
		Str("config", cfg.File).
		Str("api_url", cfg.API.URL).
		Dur("timeout", cfg.API.Timeout).
		Int("entities", len(cfg.Entities)).
		Msg("session ready")
	return sess, nil
}

// fillFromKeychain completes missing credentials from the OS keychain.
func (sess *session) fillFromKeychain(creds *onoffice.Credentials) {
	km, err := keychain.GetManager()
	if err != nil {
		sess.log.Debug().Err(err).Msg("keychain unavailable")
		return
	}
	stored, err := km.LoadCredentials()
	if err != nil {
		sess.log.Debug().Err(err).Msg("keychain read failed")
		return
	}
	if creds.Token == "" {
		creds.Token = stored.Token
	}
	if creds.Secret == "" {
		creds.Secret = stored.Secret
	}
}

// Close flushes and closes the log file.
func (sess *session) Close() {
	if sess.closer != nil {
		_ = sess.closer.Close()
	}
}

// spin runs fn while an inline spinner is shown on stderr. The spinner only
// appears in human mode when stderr is a terminal.
func (sess *session) spin(text string, fn func() error) error {
	if sess.formatter.Mode != output.Human || debugMode || !terminal.IsTerminal(sess.stderr) {
		return fn()
	}
	stop := startInlineSpinner(sess.stderr, text, spinnerFrames, 100*time.Millisecond)
	defer stop()
	return fn()
}
