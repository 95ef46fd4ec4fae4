package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

const (
	defaultLogService = "router"
	defaultLogLines   = 100
	shutdownTimeout   = 5 * time.Second
)

func main() {
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	global := &GlobalFlags{}
	logsFlags := &LogsFlags{}
	serveFlags := &ServeFlags{}
	historyFlags := &HistoryFlags{}

	relayCommand := command{global: global}

	root := createRootCommand(global)
	root.AddCommand(
		createStartCommand(relayCommand),
		createStopCommand(relayCommand),
		createRestartCommand(relayCommand),
		createStatusCommand(relayCommand),
		createLogsCommand(relayCommand, logsFlags),
		createHistoryCommand(relayCommand, historyFlags),
		createServeCommand(relayCommand, serveFlags),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "relayctl",
		Short: "Supervise the local relay router and its provider workers",
		Long: `relayctl starts, stops and inspects the local relay router process and
the optional provider workers enabled in its configuration. Services run
detached; relayctl tracks them across invocations through pid records.

Examples:
  relayctl start
  relayctl status
  relayctl logs router 200
  relayctl logs openai --follow`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (default $RELAYCTL_CONFIG, then $RELAYCTL_HOME/relayctl.toml)")
	return root
}

func createStartCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the router and all enabled providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Start()
		},
	}
}

func createStopCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop all running services, providers first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Stop()
		},
	}
}

func createRestartCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Stop all services, settle, then start them again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Restart()
		},
	}
}

func createStatusCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the state of every known service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Status()
		},
	}
}

func createLogsCommand(c command, flags *LogsFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs [service] [lines]",
		Short: "Print or follow a service's log",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := LogsFlags{Service: defaultLogService, Lines: defaultLogLines, Follow: flags.Follow}
			if len(args) > 0 {
				f.Service = args[0]
			}
			if len(args) > 1 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid line count %q", args[1])
				}
				f.Lines = n
			}
			return c.Logs(f)
		},
	}
	cmd.Flags().BoolVarP(&flags.Follow, "follow", "f", false, "follow the live tail until interrupted")
	return cmd
}

func createHistoryCommand(c command, flags *HistoryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [service]",
		Short: "Show recent lifecycle events from the history store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := HistoryFlags{Limit: flags.Limit}
			if len(args) > 0 {
				f.Service = args[0]
			}
			return c.History(f)
		},
	}
	cmd.Flags().IntVar(&flags.Limit, "limit", 50, "maximum events to show")
	return cmd
}

func createServeCommand(c command, flags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only status and metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Serve(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.Addr, "addr", "", "listen address (default from config, loopback)")
	return cmd
}
