package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
	"github.com/chalkydri/chalkydri-cfg/internal/monitor"
	"github.com/chalkydri/chalkydri-cfg/internal/server"
	"github.com/chalkydri/chalkydri-cfg/internal/ui"
)

// Monitor command flags
var (
	listenAddr    string
	certPath      string
	keyPath       string
	recordDir     string
	serviceAction string
)

func init() {
	f := monitorCmd.Flags()
	f.StringVar(&listenAddr, "listen", "", "Serve state, WebSocket stream and metrics on host:port (e.g. :9642)")
	f.StringVar(&certPath, "cert", "", "TLS certificate for --listen")
	f.StringVar(&keyPath, "key", "", "TLS private key for --listen")
	f.StringVar(&recordDir, "record", "", "Append heartbeat snapshots to a JSON lines file in this directory")
	f.StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop")

	rootCmd.AddCommand(monitorCmd)
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor device connectivity",
	Long: `Send a heartbeat to the device every 500ms (configurable in the settings
file) and report when it connects or disconnects.

With --listen the state is also served over HTTP: /api/state, /api/stats,
a WebSocket stream at /ws/state and Prometheus metrics at /metrics.

The monitor can be installed as a system service with --service install.`,
	Example: `  # Watch the active profile's device
  chalkydri-cfg monitor

  # Expose metrics for a pit dashboard
  chalkydri-cfg monitor --listen :9642

  # Record a match worth of heartbeats
  chalkydri-cfg monitor --record ./heartbeats

  # Install and start as a service
  chalkydri-cfg monitor --profile deployed --listen :9642 --service install
  chalkydri-cfg monitor --service start`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

// program implements service.Interface around a heartbeat monitor.
type program struct {
	monitor *monitor.Monitor
	server  *server.Server
	out     *ui.Printer

	cancel context.CancelFunc
	wg     sync.WaitGroup
	err    error
}

// Start does not block; the monitor runs until Stop. With a server
// configured the listener is bound here so that a busy port fails the start.
func (p *program) Start(s service.Service) error {
	var listener net.Listener
	if p.server != nil {
		var err error
		if listener, err = p.server.Listen(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.err = p.run(ctx, listener)
	}()
	return nil
}

func (p *program) run(ctx context.Context, listener net.Listener) error {
	handle := p.monitor.Start(ctx)
	defer handle.Stop()

	if listener != nil {
		go p.report(ctx)
		return p.server.Serve(ctx, listener)
	}

	p.report(ctx)
	return nil
}

// report prints connectivity transitions until ctx is done.
func (p *program) report(ctx context.Context) {
	states, unsubscribe := p.monitor.Subscribe()
	defer unsubscribe()

	first := true
	var connected bool
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			if !first && state.Connected == connected {
				continue
			}
			first = false
			connected = state.Connected

			line := ui.ConnectionIndicator(state.Connected)
			if state.Info != nil {
				line += fmt.Sprintf("  v%s  cpu %d%%  mem %d%%", state.Info.Version, state.Info.CPUUsage, state.Info.MemUsage)
			} else if state.Error != "" {
				line += "  " + state.Error
			}
			p.out.Printf("%s  %s\n", state.CheckedAt.Format("15:04:05.000"), line)
		}
	}
}

// Stop cancels the monitor and waits for it to exit.
func (p *program) Stop(s service.Service) error {
	logging.Info("Stopping monitor")
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return p.err
}

// serverConfig turns the --listen flags into a server configuration.
func serverConfig() (*server.Config, error) {
	if listenAddr == "" {
		return nil, nil
	}
	if (certPath == "") != (keyPath == "") {
		return nil, fmt.Errorf("both --cert and --key must be provided together")
	}

	host, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid --listen address %q: %w", listenAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid --listen port %q", portStr)
	}

	return &server.Config{
		Host:      host,
		Port:      port,
		CertPath:  certPath,
		KeyPath:   keyPath,
		RecordDir: recordDir,
	}, nil
}

// serviceArguments rebuilds the command line the service manager runs.
func serviceArguments(baseURL string) []string {
	args := []string{"monitor", "--url", baseURL}
	if listenAddr != "" {
		args = append(args, "--listen", listenAddr)
	}
	if certPath != "" {
		args = append(args, "--cert", certPath, "--key", keyPath)
	}
	if recordDir != "" {
		args = append(args, "--record", recordDir)
	}
	if level := viper.GetString(keyLogLevel); level != "" {
		args = append(args, "--log-level", level)
	}
	if path := viper.GetString(keyConfig); path != "" {
		args = append(args, "--config", path)
	}
	return args
}

func runMonitor(cmd *cobra.Command, args []string) error {
	env, err := newDeviceEnv()
	if err != nil {
		return err
	}

	srvConfig, err := serverConfig()
	if err != nil {
		return err
	}
	if srvConfig == nil && recordDir != "" {
		return fmt.Errorf("--record requires --listen")
	}

	m := monitor.New(env.client, monitor.Options{
		Interval: heartbeatInterval(env.settings),
		Device:   env.baseURL,
	})

	prg := &program{
		monitor: m,
		out:     ui.NewPrinter(cmd.OutOrStdout()),
	}
	if srvConfig != nil {
		prg.server = server.New(srvConfig, m)
	}

	svcConfig := &service.Config{
		Name:        "chalkydri-monitor",
		DisplayName: "Chalkydri Connectivity Monitor",
		Description: "Heartbeats a Chalkydri vision device and exposes its state",
		Arguments:   serviceArguments(env.baseURL),
	}

	s, err := service.New(prg, svcConfig)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	if serviceAction != "" {
		if err := service.Control(s, serviceAction); err != nil {
			return fmt.Errorf("failed to %s service: %w", serviceAction, err)
		}
		fmt.Printf("Service action '%s' completed successfully.\n", serviceAction)
		return nil
	}

	logging.Info("Monitoring device",
		zap.String("device", env.baseURL),
		zap.Duration("interval", m.Options().Interval),
		zap.String("listen", listenAddr))

	// Run blocks until the service manager or an interrupt stops it.
	if err := s.Run(); err != nil {
		return fmt.Errorf("monitor stopped: %w", err)
	}
	return nil
}
