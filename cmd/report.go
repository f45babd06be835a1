package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show applications submitted on a given day",
	Run: func(cmd *cobra.Command, _ []string) {
		report(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("date", "", "day to report on in YYYY-MM-DD format (default today)")
}

func report(cmd *cobra.Command) {
	ctx := context.Background()

	zlog := newLogger()

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	day := time.Now()
	if raw := cmd.Flag("date").Value.String(); raw != "" {
		day, err = time.Parse("2006-01-02", raw)
		if err != nil {
			zlog.Fatal("parsing --date", zap.Error(err))
		}
	}

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.Add(24 * time.Hour)

	db := openStore(config, zlog)
	defer db.Close()

	user := currentUser(ctx, db, zlog)

	apps, err := newRunner(ctx, config, db, zlog).DailyReport(ctx, user.ID, from, to)
	if err != nil {
		zlog.Fatal("listing applications", zap.Error(err))
	}

	if len(apps) == 0 {
		fmt.Printf("no applications on %s\n", from.Format("2006-01-02"))
		return
	}

	fmt.Printf("applications on %s:\n", from.Format("2006-01-02"))
	for _, app := range apps {
		fmt.Printf("%s  %-10s %3d%%  %-40s %s\n",
			app.TrackingID, app.Status, app.MatchScore, app.PostingTitle, app.PostingCompany)
	}
	fmt.Printf("total: %d\n", len(apps))
}
