package main

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/desertthunder/uus/internal/server"
	"github.com/desertthunder/uus/internal/shared"
	"github.com/desertthunder/uus/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web application until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return r.serve(ctx, ln, cmd.Bool("open"))
}

func (r *Runner) serve(ctx context.Context, ln net.Listener, open bool) error {
	backend, err := r.store()
	if err != nil {
		ln.Close()
		return err
	}

	cat, err := r.catalog()
	if err != nil {
		ln.Close()
		return err
	}

	app, err := web.New(cat, backend, r.logger)
	if err != nil {
		ln.Close()
		return fmt.Errorf("failed to build web app: %w", err)
	}

	srv := server.New(ln.Addr().String(), app.Handler(r.config.Server.RequestTimeoutDuration()), r.logger,
		r.config.Server.ShutdownTimeoutDuration())

	url := browseURL(ln.Addr())
	r.logger.Info("serving catalog", "url", url, "backend", backend.Name(), "video_host", r.videos.Provider().Host)

	if open {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("could not open browser", "err", err)
		}
	}

	return srv.Serve(ctx, ln)
}

// browseURL turns a listen address into something a browser can open; wildcard hosts become localhost.
func browseURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String() + "/"
	}

	switch {
	case host == "" || host == "0.0.0.0" || host == "::":
		host = "localhost"
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}
	return "http://" + host + ":" + port + "/"
}
