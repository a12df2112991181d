package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kselvad/scoregrid/logger"
	"github.com/kselvad/scoregrid/server"
	"github.com/kselvad/scoregrid/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// roster is the seed file format: the initial board layout used when the
// snapshot database is empty.
type roster struct {
	Criteria []types.Criterion `json:"criteria"`
	Judges   []types.Judge     `json:"judges"`
	Users    []types.User      `json:"users"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "scoregrid-server",
		Short:         "Authoritative scoring board server",
		Long:          "Serves the shared judging board over a websocket: arbitrates field locks, applies writes, and broadcasts every change to all connected judges.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", server.DefaultListenAddr, "HTTP listen address")
	flags.String("snapshot", server.DefaultSnapshotPath, "bbolt snapshot file (empty disables persistence)")
	flags.String("seed", "", "JSON roster file used to seed an empty board")
	flags.Bool("read-only", false, "start the board frozen")
	flags.String("contest", "", "contest name announced to clients")
	flags.String("task", "", "task name announced to clients")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	v.BindPFlags(flags)
	v.SetEnvPrefix("SCOREGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	log := logger.NewStdLogger(v.GetString("log-level"))

	cfg := server.DefaultConfig()
	cfg.ListenAddr = v.GetString("addr")
	cfg.SnapshotPath = v.GetString("snapshot")
	cfg.ReadOnly = v.GetBool("read-only")
	cfg.ContestName = v.GetString("contest")
	cfg.TaskName = v.GetString("task")
	cfg.Logger = log

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	if path := v.GetString("seed"); path != "" {
		seed, err := loadRoster(path)
		if err != nil {
			return err
		}
		srv.Hub().Bootstrap(seed.Criteria, seed.Judges, seed.Users)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func loadRoster(path string) (roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return roster{}, fmt.Errorf("read roster %q: %w", path, err)
	}
	var r roster
	if err := json.Unmarshal(data, &r); err != nil {
		return roster{}, fmt.Errorf("parse roster %q: %w", path, err)
	}
	return r, nil
}
