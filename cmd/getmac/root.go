package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"getmac/config"
	"getmac/internal/capture"
	"getmac/internal/logger"
	"getmac/internal/models"
	"getmac/internal/reporter"
	"getmac/internal/resolver"
	"getmac/pkg/utils"
)

type rootFlags struct {
	configPath    string
	iface         string
	fallbackIface string
	timeout       time.Duration
	sendTimeout   time.Duration
	maxFrames     int
	backend       string
	kernelFilter  bool
	dumpFile      string
	outputFile    string
	logLevel      string
	logFile       string
}

// privilegeCheck is swapped in tests.
var privilegeCheck = utils.CheckPrivileges

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "getmac [flags] <IPv4>",
		Short: "Resolve a neighbour's MAC address via ICMP Echo",
		Long: `getmac sends one ICMP Echo Request to an IPv4 host and reads the
Ethernet source address of the matching Echo Reply off the wire.
It does not consult the ARP cache. Requires root or CAP_NET_RAW.`,
		Example: `  getmac 192.168.1.10
  getmac --iface eth1 --timeout 500ms 10.0.0.7
  getmac --kernel-filter --dump attempt.pcap 10.0.0.7`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args[0], stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	def := config.Default()
	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "YAML configuration file")
	f.StringVar(&flags.iface, "iface", "", "Capture interface (skips automatic selection)")
	f.StringVar(&flags.fallbackIface, "fallback-iface", def.FallbackInterface, "Interface used when no local subnet contains the target")
	f.DurationVar(&flags.timeout, "timeout", def.ReceiveTimeout, "Time to wait for the echo reply")
	f.DurationVar(&flags.sendTimeout, "send-timeout", def.SendTimeout, "Time allowed for sending the echo request (0 disables)")
	f.IntVar(&flags.maxFrames, "max-frames", def.MaxFrames, "Maximum number of captured frames to inspect")
	f.StringVar(&flags.backend, "backend", def.Backend, "Capture backend: packet or pcap")
	f.BoolVar(&flags.kernelFilter, "kernel-filter", false, "Attach a kernel filter admitting only ICMP from the target")
	f.StringVar(&flags.dumpFile, "dump", "", "Write every inspected frame to this pcap file")
	f.StringVar(&flags.outputFile, "output", "", "Append the result to this CSV file")
	f.StringVar(&flags.logLevel, "log-level", def.LogLevel, "Log level: DEBUG, INFO, WARN or ERROR")
	f.StringVar(&flags.logFile, "log-file", "", "Also append logs to this file")

	return cmd
}

// loadConfig overlays explicitly set flags on the config file.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("iface") {
		cfg.Interface = flags.iface
	}
	if f.Changed("fallback-iface") {
		cfg.FallbackInterface = flags.fallbackIface
	}
	if f.Changed("timeout") {
		cfg.ReceiveTimeout = flags.timeout
	}
	if f.Changed("send-timeout") {
		cfg.SendTimeout = flags.sendTimeout
	}
	if f.Changed("max-frames") {
		cfg.MaxFrames = flags.maxFrames
	}
	if f.Changed("backend") {
		cfg.Backend = flags.backend
	}
	if f.Changed("kernel-filter") {
		cfg.KernelFilter = flags.kernelFilter
	}
	if f.Changed("dump") {
		cfg.DumpFile = flags.dumpFile
	}
	if f.Changed("output") {
		cfg.OutputFile = flags.outputFile
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if f.Changed("log-file") {
		cfg.LogFile = flags.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func resolverOptions(cfg *config.Config) resolver.Options {
	return resolver.Options{
		Interface:         cfg.Interface,
		FallbackInterface: cfg.FallbackInterface,
		ReceiveTimeout:    cfg.ReceiveTimeout,
		SendTimeout:       cfg.SendTimeout,
		MaxFrames:         cfg.MaxFrames,
		Backend:           capture.Backend(cfg.Backend),
		KernelFilter:      cfg.KernelFilter,
		DumpFile:          cfg.DumpFile,
	}
}

// resolve is swapped in tests.
var resolve = func(ctx context.Context, opts resolver.Options, logger *slog.Logger, target string) models.ResolveResult {
	return resolver.New(opts, logger).ResolveDetailed(ctx, target)
}

func run(ctx context.Context, cfg *config.Config, target string, stdout, stderr io.Writer) error {
	appLogger, closeLogFile, err := logger.New(stderr, cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLogFile()
	slog.SetDefault(appLogger)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	privilegeCheck(appLogger)
	appLogger.Debug("Configuration loaded.", "iface", cfg.Interface, "backend", cfg.Backend, "timeout", cfg.ReceiveTimeout, "max_frames", cfg.MaxFrames)

	res := resolve(ctx, resolverOptions(cfg), appLogger, target)

	if cfg.OutputFile != "" {
		if err := reporter.New(cfg.OutputFile, appLogger).Write(res); err != nil {
			appLogger.Error("Failed to write result.", "file", cfg.OutputFile, "error", err)
		}
	}

	if res.Error != nil {
		return res.Error
	}
	fmt.Fprintln(stdout, res.HardwareAddr.String())
	return nil
}
