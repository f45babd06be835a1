package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobpilot/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the automation cycle for all users on a daily schedule",
	Run: func(cmd *cobra.Command, _ []string) {
		schedule(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().Bool("now", false, "run one tick immediately before waiting for the schedule")
}

func schedule(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog := newLogger()

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	db := openStore(config, zlog)
	defer db.Close()

	runner := newRunner(ctx, config, db, zlog)
	sched := scheduler.New(db, runner, config.Schedule, zlog)

	if cmd.Flag("now").Value.String() == "true" {
		sched.Tick(ctx)
	}

	if err := sched.Start(ctx); err != nil {
		zlog.Fatal("starting scheduler", zap.Error(err))
	}

	<-ctx.Done()
	sched.Stop()
}
