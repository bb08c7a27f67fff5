package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/revault/revault-gui/internal/config"
	"github.com/revault/revault-gui/internal/core/application"
	"github.com/revault/revault-gui/internal/core/domain"
	"github.com/revault/revault-gui/internal/core/ports"
	hotsigner "github.com/revault/revault-gui/internal/infrastructure/hot-signer"
	"github.com/revault/revault-gui/internal/infrastructure/revaultd"
	"github.com/revault/revault-gui/internal/interfaces/tui"
	"github.com/revault/revault-gui/pkg/stats"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Set at build time with -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:  "datadir",
		Usage: "directory holding the config file, the logs and the stats",
	},
	&cli.StringFlag{
		Name:  "network",
		Usage: "bitcoin network of revaultd: bitcoin, testnet, regtest, signet",
	},
	&cli.StringFlag{
		Name:  "socket",
		Usage: "path of the revaultd JSON-RPC socket",
	},
	&cli.IntFlag{
		Name:  "loglevel",
		Usage: "logrus level, from 0 (panic) to 6 (trace)",
	},
	&cli.DurationFlag{
		Name:  "rpc-timeout",
		Usage: "timeout of every call to revaultd",
	},
	&cli.IntFlag{
		Name:  "rpc-rate-limit",
		Usage: "max calls per second to revaultd",
	},
	&cli.DurationFlag{
		Name:  "signing-timeout",
		Usage: "timeout of every round-trip with the signing device",
	},
	&cli.DurationFlag{
		Name:  "stats-interval",
		Usage: "interval of memory statistics logging, 0 disables it",
	},
	&cli.BoolFlag{
		Name:  "profiler",
		Usage: "dump prometheus metrics to the datadir on exit",
	},
}

// flagKeys maps every flag to the config key it overrides.
var flagKeys = map[string]string{
	"datadir":         config.DatadirKey,
	"network":         config.NetworkKey,
	"socket":          config.SocketPathKey,
	"loglevel":        config.LogLevelKey,
	"rpc-timeout":     config.RPCTimeoutKey,
	"rpc-rate-limit":  config.RPCRateLimitKey,
	"signing-timeout": config.SigningTimeoutKey,
	"stats-interval":  config.StatsIntervalKey,
	"profiler":        config.EnableProfilerKey,
}

func main() {
	app := cli.NewApp()

	app.Version = version
	app.Name = "revault-gui"
	app.Usage = "Terminal interface for revaultd stakeholders"
	app.Flags = flags
	app.Action = run
	app.Commands = append(
		app.Commands,
		&cli.Command{
			Name:  "version",
			Usage: "show the version, commit and build date",
			Action: func(*cli.Context) error {
				fmt.Printf("version: %s\ncommit: %s\ndate: %s\n", version, commit, date)
				return nil
			},
		},
	)

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func run(ctx *cli.Context) error {
	for name, key := range flagKeys {
		if ctx.IsSet(name) {
			config.Set(key, ctx.Value(name))
		}
	}

	if err := config.InitConfig(); err != nil {
		return application.NewConfigError(err)
	}

	logFile, err := initLogger()
	if err != nil {
		return application.NewConfigError(err)
	}
	defer logFile.Close()

	env, err := newEnv()
	if err != nil {
		return application.NewConfigError(err)
	}

	dumpPath := filepath.Join(config.GetDatadir(), config.StatsFile)
	if interval := config.GetDuration(config.StatsIntervalKey); interval > 0 {
		statsCtx, stopStats := context.WithCancel(context.Background())
		statsDone := stats.EnableMemoryStatistics(statsCtx, interval, dumpPath)
		// The metrics are dumped before the log file is closed.
		defer func() {
			stopStats()
			<-statsDone
		}()
	} else if config.GetBool(config.EnableProfilerKey) {
		defer func() {
			if err := stats.DumpPrometheusDefaults(dumpPath); err != nil {
				log.WithError(err).Warn("failed to dump metrics")
			}
		}()
	}

	log.Infof("revault-gui %s started on %s", version, config.GetString(config.NetworkKey))

	model := tui.NewModel(env, domain.NewConverter(config.GetNetwork()))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return err
	}

	log.Info("revault-gui stopped")
	return nil
}

// initLogger sends logs to the datadir, the terminal belongs to the UI.
func initLogger() (*os.File, error) {
	path := filepath.Join(config.GetDatadir(), config.LogFile)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %s", err)
	}
	log.SetOutput(file)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(config.GetLogLevel())
	return file, nil
}

func newEnv() (*application.Env, error) {
	client, err := revaultd.NewService(revaultd.Config{
		SocketPath: config.GetString(config.SocketPathKey),
		Timeout:    config.GetDuration(config.RPCTimeoutKey),
		RateLimit:  config.GetInt(config.RPCRateLimitKey),
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		return nil, err
	}

	var device ports.SigningDevice
	if xprv := config.GetString(config.SignerXprvKey); xprv != "" {
		device, err = hotsigner.NewService(xprv, config.GetNetwork())
		if err != nil {
			return nil, fmt.Errorf("invalid signer key: %s", err)
		}
	} else {
		log.Info("no signer key configured, signing is disabled")
	}

	return &application.Env{
		RevaultD:       client,
		Device:         device,
		CallTimeout:    config.GetDuration(config.RPCTimeoutKey),
		SigningTimeout: config.GetDuration(config.SigningTimeoutKey),
	}, nil
}

func fatal(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "[revault-gui] %v\n", err)
	os.Exit(1)
}
