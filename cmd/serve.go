// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cyber-survey/internal/report"
	"cyber-survey/internal/scanner"
	"cyber-survey/internal/web"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser review surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				a.config.Web.Port = port
			}
			if err := validatePort(a.config.Web.Port); err != nil {
				return err
			}

			updater, err := report.NewUpdater(a.config.ReportSettings(), a.observer)
			if err != nil {
				return err
			}
			server, err := web.NewWebServer(web.Config{
				Port:           a.config.Web.Port,
				MaxUploadBytes: a.config.Web.MaxUploadBytes,
				SessionIdle:    time.Duration(a.config.Web.SessionIdleMinutes) * time.Minute,
				TempDir:        a.config.Scan.TempDir,
				Catalog:        a.catalog,
				Scanner:        scanner.New(a.config.ScannerSettings(), a.observer),
				Updater:        updater,
				Observer:       a.observer,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serveUntilDone(ctx, server)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8501, "Port for the web server; the next nine are tried when it is busy")
	return cmd
}

// serveUntilDone runs the server until it fails or ctx is cancelled
func serveUntilDone(ctx context.Context, server *web.WebServer) error {
	errs := make(chan error, 1)
	go func() { errs <- server.Start() }()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		if err := server.Stop(); err != nil {
			return fmt.Errorf("failed to stop web server: %w", err)
		}
		return <-errs
	}
}

// validatePort validates that the port number is usable
func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}
	return nil
}
