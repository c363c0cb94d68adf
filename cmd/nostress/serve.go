package main

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	nostress "github.com/PietroNarcisi/NostressAI"
	"github.com/PietroNarcisi/NostressAI/internal/config"
	"github.com/PietroNarcisi/NostressAI/internal/server"
	"github.com/PietroNarcisi/NostressAI/internal/watch"
)

// listenError reports a failure to bind the HTTP address.
type listenError struct {
	addr string
	err  error
}

func (e *listenError) Error() string {
	return fmt.Sprintf("listening on %s: %v", e.addr, e.err)
}

func (e *listenError) Unwrap() error { return e.err }

// runServe serves the JSON API until the context is cancelled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	var f serveFlags
	fs := newFlagSet("serve")
	addServeFlags(fs, &f)
	if err := parseFlags(fs, args, printServeUsage, env); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}

	a, err := newApp(fs, &f.common, env, func(cfg *config.Config) {
		if fs.Changed("addr") {
			cfg.Server.Addr = f.addr
		}
		if fs.Changed("base-url") {
			cfg.Server.BaseURL = f.baseURL
		}
		if fs.Changed("watch") {
			cfg.Server.Watch = f.watch
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	watching := a.cfg.Server.Watch
	if watching && a.cfg.Store.Driver != config.DriverFile {
		a.logger.Warn("watch ignored: only the file driver can be watched",
			zap.String("driver", a.cfg.Store.Driver))
		watching = false
	}

	var extra []nostress.Option
	if watching {
		extra = append(extra, nostress.WithListCache())
	}
	r, err := a.resolver(env, extra...)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return &listenError{addr: a.cfg.Server.Addr, err: err}
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "serving on http://%s\n", ln.Addr())
	}

	srv := server.New(r,
		server.WithLogger(a.logger),
		server.WithBaseURL(a.cfg.Server.BaseURL),
	)

	g, gctx := errgroup.WithContext(ctx)
	if watching {
		w, err := watch.New(a.cfg.Content.Dir, func(path string) {
			a.logger.Debug("content changed, dropping cached lists", zap.String("path", path))
			r.Invalidate()
		}, watch.WithLogger(a.logger))
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("watching %s: %w", a.cfg.Content.Dir, err)
		}
		g.Go(func() error { return w.Run(gctx) })
	}
	g.Go(func() error { return srv.ServeListener(gctx, ln) })

	return a.tag(g.Wait())
}
