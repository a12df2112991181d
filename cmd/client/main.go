package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kselvad/scoregrid/client"
	"github.com/kselvad/scoregrid/grid"
	"github.com/kselvad/scoregrid/logger"
	"github.com/kselvad/scoregrid/transport"
	"github.com/kselvad/scoregrid/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "scoregrid",
		Short:         "Judge-side client for the shared scoring board",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("url", "ws://localhost:8081/ws", "server websocket URL")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	v.BindPFlags(pf)
	v.SetEnvPrefix("SCOREGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(newWatchCmd(v), newSetCmd(v))
	return root
}

// newWatchCmd streams every broadcast the server emits, one line per event.
func newWatchCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print every board event as it arrives",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, conn, err := connect(v, func(action string, payload json.RawMessage) {
				fmt.Printf("%s %s\n", action, payload)
			})
			if err != nil {
				return err
			}
			defer conn.Close()
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
}

// newSetCmd performs one locked edit: focus the field, write the value,
// wait for the authoritative echo, blur, disconnect.
func newSetCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <user> <criterion> <value>",
		Short: "Write one score (criterion \"comment\" writes the comment)",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			key := types.FieldKey{User: types.UserID(args[0]), Criterion: types.CriterionID(args[1])}

			c, conn, err := connect(v, nil)
			if err != nil {
				return err
			}
			defer conn.Close()
			defer c.Close()

			if err := awaitReady(c); err != nil {
				return err
			}
			eng := c.Engine()
			if err := eng.Focus(key); err != nil {
				return err
			}
			if err := awaitLock(eng, key); err != nil {
				return err
			}
			if err := eng.Change(key, args[2]); err != nil {
				return err
			}
			if err := awaitClean(eng, key); err != nil {
				return err
			}
			if err := eng.Blur(key); err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", key, eng.Value(key))
			return nil
		},
	}
	return cmd
}

// connect dials the server and binds the transport to a client. Events go
// through the client's dispatcher first, then to tap when set.
func connect(v *viper.Viper, tap transport.Handler) (*client.Client, *transport.Conn, error) {
	log := logger.NewStdLogger(v.GetString("log-level"))

	var conn *transport.Conn
	performer := grid.PerformerFunc(func(action string, payload any) error {
		return conn.Perform(action, payload)
	})
	c, err := client.New(performer,
		client.WithLogger(log),
		client.WithConfirmer(client.ConfirmerFunc(confirmOnTerminal)),
	)
	if err != nil {
		return nil, nil, err
	}

	conn, err = transport.Dial(transport.DefaultConfig(v.GetString("url")), func(action string, payload json.RawMessage) {
		if err := c.HandleEvent(action, payload); err != nil {
			log.Warnw("event not applied", "event", action, "error", err)
		}
		if tap != nil {
			tap(action, payload)
		}
	})
	if err != nil {
		c.Close()
		return nil, nil, err
	}
	return c, conn, nil
}

func confirmOnTerminal(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	var answer string
	fmt.Scanln(&answer)
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

func awaitReady(c *client.Client) error {
	deadline := time.Now().Add(10 * time.Second)
	for !c.Ready() {
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for server greeting")
		}
		time.Sleep(20 * time.Millisecond)
	}
	return nil
}

func awaitLock(eng *grid.Engine, key types.FieldKey) error {
	deadline := time.Now().Add(10 * time.Second)
	for eng.State(key) != types.StateEditingMine {
		if time.Now().After(deadline) {
			return fmt.Errorf("lock on %s not granted", key)
		}
		time.Sleep(20 * time.Millisecond)
	}
	return nil
}

func awaitClean(eng *grid.Engine, key types.FieldKey) error {
	deadline := time.Now().Add(10 * time.Second)
	for {
		switch eng.State(key) {
		case types.StateEditingMine, types.StateRemote, types.StateEditingBlocked:
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("no confirmation for %s", key)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
