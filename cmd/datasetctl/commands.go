package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/client"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/orm"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/preview"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/logger"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	server     string
	user       string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "datasetctl",
		Short: "Administrative client for the dataset execution service",
		Long: `datasetctl talks to a running dataset service over HTTP, or to its
database directly for migrations.

Examples:
  datasetctl migrate --config configs/config.yaml
  datasetctl execute ds-123 --wait
  datasetctl poll 71234567890 --limit 20
  datasetctl reset-stuck --older-than 30m`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:8080", "service base URL")
	root.PersistentFlags().StringVar(&opts.user, "user", "", "user id sent as X-User-ID")

	root.AddCommand(
		newMigrateCmd(opts),
		newExecuteCmd(opts),
		newPollCmd(opts),
		newResetStuckCmd(opts),
	)
	return root
}

func (o *options) client() *client.Client {
	return client.New(o.server, o.user)
}

func (o *options) config() (*config.Config, error) {
	return config.Load(o.configPath)
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			storage, err := orm.New(orm.Config{
				Host:     cfg.Database.Host,
				Port:     cfg.Database.Port,
				Database: cfg.Database.Database,
				User:     cfg.Database.User,
				Password: cfg.Database.Password,
				LogLevel: "warn",
			})
			if err != nil {
				return err
			}
			defer storage.Close()
			if err := storage.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
			return nil
		},
	}
}

func newExecuteCmd(opts *options) *cobra.Command {
	var (
		wait  bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "execute <datasetId>",
		Short: "Start an execution of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			id, err := opts.client().Execute(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "execution %d started\n", id)
			if !wait {
				return nil
			}
			return poll(ctx, cmd.OutOrStdout(), opts, preview.Request{ExecutionID: id, Limit: limit})
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the execution finishes")
	cmd.Flags().IntVar(&limit, "limit", 10, "rows to print when finished")
	return cmd
}

func newPollCmd(opts *options) *cobra.Command {
	var (
		limit       int
		checkStatus bool
	)
	cmd := &cobra.Command{
		Use:   "poll <executionId>",
		Short: "Poll an execution until it completes or fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cast.ToUint64E(args[0])
			if err != nil || id == 0 {
				return errors.Newf("invalid execution id %q", args[0])
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return poll(ctx, cmd.OutOrStdout(), opts, preview.Request{ExecutionID: id, Limit: limit, CheckStatus: checkStatus})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "rows to print when finished")
	cmd.Flags().BoolVar(&checkStatus, "status-only", false, "do not fetch rows")
	return cmd
}

func poll(ctx context.Context, out io.Writer, opts *options, req preview.Request) error {
	pollOpts := preview.PollOptionsFromConfig(config.Default().Poll)
	if opts.configPath != "" {
		cfg, err := opts.config()
		if err != nil {
			return err
		}
		pollOpts = preview.PollOptionsFromConfig(cfg.Poll)
	}
	return runPoll(ctx, out, preview.NewPoller(opts.client(), pollOpts, logger.NewNop()), req)
}

func runPoll(ctx context.Context, out io.Writer, poller *preview.Poller, req preview.Request) error {
	var last preview.Update
	for u := range poller.Poll(ctx, req) {
		last = u
		if u.Data == nil {
			continue
		}
		line := fmt.Sprintf("[%d] %s (%s)", u.Attempt, u.Data.Status, u.Data.DataSource)
		if u.Data.PossiblyStuck {
			line += " possibly stuck"
		}
		fmt.Fprintln(out, line)
	}
	if last.Err != nil {
		return last.Err
	}
	if last.Data == nil {
		return ctx.Err()
	}
	if last.Data.Error != "" {
		return errors.Newf("execution failed: %s", last.Data.Error)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(last.Data)
}

func newResetStuckCmd(opts *options) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "reset-stuck",
		Short: "Fail pending/running executions older than a threshold (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := opts.client().ResetStuck(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d executions reset\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "threshold; server default when zero")
	return cmd
}
