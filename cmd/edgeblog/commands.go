package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/eringen/edgeblog"
	"github.com/eringen/edgeblog/auth"
	"github.com/eringen/edgeblog/logger"
)

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := edgeblog.LoadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			log := logger.Init(cfg.Log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := edgeblog.New(cfg, edgeblog.WithLogger(log))
			defer func() {
				if err := app.Close(); err != nil {
					log.Error("close stores", "error", err)
				}
			}()
			return app.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for ADMIN_PANEL_PASSWORD",
		Long:  `Reads a password from the terminal (or one line from stdin when piped) and prints its bcrypt hash.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("empty password")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect or revoke admin sessions",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "count",
			Short: "Print the number of live admin sessions",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSessions(cmd.Context(), func(ctx context.Context, s *auth.SessionStore) error {
					n, err := s.Count(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Log out every admin session",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSessions(cmd.Context(), func(ctx context.Context, s *auth.SessionStore) error {
					n, err := s.Clear(ctx)
					fmt.Fprintf(cmd.OutOrStdout(), "cleared %d session(s)\n", n)
					return err
				})
			},
		},
	)
	return cmd
}

// withSessions opens the configured key-value store for fn.
func withSessions(ctx context.Context, fn func(context.Context, *auth.SessionStore) error) error {
	cfg, err := edgeblog.LoadConfig()
	if err != nil {
		return err
	}
	log := logger.Init(cfg.Log)
	store, stop, err := edgeblog.OpenKV(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()
	defer stop()
	return fn(ctx, auth.NewSessionStore(store))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the edgeblog version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "edgeblog %s\n", version)
		},
	}
}
