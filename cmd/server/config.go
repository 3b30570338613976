package main

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment first; flags override it.
type Config struct {
	Addr       string `env:"UNDERCROFT_ADDR"         envDefault:":8080"`
	ConfigDir  string `env:"UNDERCROFT_CONFIGS"      envDefault:"./configs"`
	Level      string `env:"UNDERCROFT_LEVEL"        envDefault:"churchyard"`
	DataDir    string `env:"UNDERCROFT_DATA"         envDefault:"./data"`
	RunID      string `env:"UNDERCROFT_RUN_ID"`
	Seed       uint64 `env:"UNDERCROFT_SEED"         envDefault:"1337"`
	TuningPath string `env:"UNDERCROFT_TUNING"`
	DisableDB  bool   `env:"UNDERCROFT_DISABLE_DB"`
	LoadLatest bool   `env:"UNDERCROFT_LOAD_LATEST"  envDefault:"true"`
	AdminHTTP  bool   `env:"UNDERCROFT_ADMIN_HTTP"   envDefault:"true"`
	PprofHTTP  bool   `env:"UNDERCROFT_PPROF_HTTP"`
}

func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "http listen address")
	fs.StringVar(&cfg.ConfigDir, "configs", cfg.ConfigDir, "config directory")
	fs.StringVar(&cfg.Level, "level", cfg.Level, "level name under <configs>/levels")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "runtime data directory")
	fs.StringVar(&cfg.RunID, "run", cfg.RunID, "run id to resume or start (default: new uuid)")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "dice seed (used only when starting a fresh run)")
	fs.StringVar(&cfg.TuningPath, "tuning", cfg.TuningPath, "path to tuning.yaml (default: <configs>/tuning.yaml)")
	fs.BoolVar(&cfg.DisableDB, "disable_db", cfg.DisableDB, "disable the sqlite index")
	fs.BoolVar(&cfg.LoadLatest, "load_latest_snapshot", cfg.LoadLatest, "resume from the run's latest snapshot if present")
	fs.BoolVar(&cfg.AdminHTTP, "admin_http", cfg.AdminHTTP, "serve loopback-only admin endpoints")
	fs.BoolVar(&cfg.PprofHTTP, "pprof_http", cfg.PprofHTTP, "serve /debug/pprof")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
