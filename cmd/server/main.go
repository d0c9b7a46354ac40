package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Netflix/go-env"

	"github.com/NicolasHaas/gotalk/pkg/datastore"
	"github.com/NicolasHaas/gotalk/pkg/logging"
	"github.com/NicolasHaas/gotalk/pkg/server"
	"github.com/NicolasHaas/gotalk/pkg/version"
)

// envConfig is the GOTALK_* environment overlay. Pointer fields distinguish
// "unset" from an explicit empty value.
type envConfig struct {
	Addr         string  `env:"GOTALK_ADDR"`
	DBPath       string  `env:"GOTALK_DB_PATH"`
	MetricsAddr  *string `env:"GOTALK_METRICS_ADDR"`
	HistoryLimit *int    `env:"GOTALK_HISTORY_LIMIT"`
	MOTD         string  `env:"GOTALK_MOTD"`
	LogLevel     string  `env:"GOTALK_LOG_LEVEL"`
	LogFormat    string  `env:"GOTALK_LOG_FORMAT"`
}

func main() {
	cfg := server.DefaultConfig()

	configPath := flag.String("config", "", "YAML config file path")
	addr := flag.String("addr", cfg.Addr, "TCP bind address for the chat server")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database file path")
	metricsAddr := flag.String("metrics", cfg.MetricsAddr, "HTTP bind address for Prometheus /metrics (empty to disable)")
	historyLimit := flag.Int("history", cfg.HistoryLimit, "Number of stored messages replayed on login")
	motd := flag.String("motd", "", "Extra line sent after the welcome banner")
	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Full())
		return
	}

	// Config precedence: defaults, then YAML file, then environment, then
	// flags the caller actually set.
	if *configPath != "" {
		if err := server.LoadConfigFile(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}

	var envCfg envConfig
	if _, err := env.UnmarshalFromEnviron(&envCfg); err != nil {
		fmt.Fprintf(os.Stderr, "environment config: %v\n", err)
		os.Exit(1)
	}

	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	if envCfg.Addr != "" && !setFlags["addr"] {
		cfg.Addr = envCfg.Addr
	}
	if envCfg.DBPath != "" && !setFlags["db"] {
		cfg.DBPath = envCfg.DBPath
	}
	if envCfg.MetricsAddr != nil && !setFlags["metrics"] {
		cfg.MetricsAddr = *envCfg.MetricsAddr
	}
	if envCfg.HistoryLimit != nil && *envCfg.HistoryLimit >= 0 && !setFlags["history"] {
		cfg.HistoryLimit = *envCfg.HistoryLimit
	}
	if envCfg.MOTD != "" && !setFlags["motd"] {
		cfg.MOTD = envCfg.MOTD
	}
	if envCfg.LogLevel != "" && !setFlags["log-level"] {
		*logLevel = envCfg.LogLevel
	}
	if envCfg.LogFormat != "" && !setFlags["log-format"] {
		*logFormat = envCfg.LogFormat
	}

	if setFlags["addr"] {
		cfg.Addr = *addr
	}
	if setFlags["db"] {
		cfg.DBPath = *dbPath
	}
	if setFlags["metrics"] {
		cfg.MetricsAddr = *metricsAddr
	}
	if setFlags["history"] {
		cfg.HistoryLimit = *historyLimit
	}
	if setFlags["motd"] {
		cfg.MOTD = *motd
	}

	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	st, err := datastore.NewProviderFactory(cfg.DBPath)
	if err != nil {
		slog.Error("open database", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	srv := server.New(cfg, server.Dependencies{Store: st})
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
