package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/relayctl/relayctl"
)

type command struct {
	global *GlobalFlags
}

// open loads the configuration and wires the system. Every subcommand reads
// the config exactly once through here.
func (c command) open() (*relayctl.System, error) {
	path := relayctl.ResolveConfigPath(c.global.ConfigPath)
	cfg, err := relayctl.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return relayctl.New(cfg)
}

func (c command) Start() error {
	sys, err := c.open()
	if err != nil {
		return err
	}
	defer func() { _ = sys.Close() }()
	return sys.StartAll(context.Background())
}

func (c command) Stop() error {
	sys, err := c.open()
	if err != nil {
		return err
	}
	defer func() { _ = sys.Close() }()
	return sys.StopAll(context.Background())
}

func (c command) Restart() error {
	sys, err := c.open()
	if err != nil {
		return err
	}
	defer func() { _ = sys.Close() }()
	return sys.Restart(context.Background())
}

func (c command) Status() error {
	sys, err := c.open()
	if err != nil {
		return err
	}
	defer func() { _ = sys.Close() }()
	reports, err := sys.Status(context.Background())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SERVICE\tENABLED\tSTATE\tPID")
	for _, r := range reports {
		pid := "-"
		if r.PID > 0 {
			pid = strconv.Itoa(r.PID)
		}
		_, _ = fmt.Fprintf(w, "%s\t%v\t%s\t%s\n", r.Service, r.Enabled, r.State, pid)
	}
	return w.Flush()
}

func (c command) Logs(f LogsFlags) error {
	sys, err := c.open()
	if err != nil {
		return err
	}
	defer func() { _ = sys.Close() }()
	if f.Follow {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		err := sys.Follow(ctx, f.Service, os.Stdout)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	lines, err := sys.Tail(f.Service, f.Lines)
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	return nil
}

func (c command) History(f HistoryFlags) error {
	sys, err := c.open()
	if err != nil {
		return err
	}
	defer func() { _ = sys.Close() }()
	events, err := sys.History(context.Background(), f.Service, f.Limit)
	if err != nil {
		return err
	}
	if events == nil {
		fmt.Println("history backend not configured")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tSERVICE\tEVENT\tPID\tDETAIL")
	for _, ev := range events {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			ev.OccurredAt.Format("2006-01-02 15:04:05"), ev.Service, ev.Type, ev.PID, ev.Detail)
	}
	return w.Flush()
}

func (c command) Serve(f ServeFlags) error {
	sys, err := c.open()
	if err != nil {
		return err
	}
	defer func() { _ = sys.Close() }()
	srv := sys.HTTPServer()
	if f.Addr != "" {
		srv.Addr = f.Addr
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	fmt.Printf("status endpoint listening on %s\n", srv.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
