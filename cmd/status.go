package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobpilot/internal/store"
)

var knownStatuses = []string{
	store.StatusApplied,
	store.StatusInterview,
	store.StatusRejected,
	store.StatusOffer,
	store.StatusPending,
}

var statusCmd = &cobra.Command{
	Use:   "status <application-id> <status>",
	Short: "Update the status of a tracked application",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		updateStatus(args[0], args[1])
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all tracked applications for the user",
	Run: func(cmd *cobra.Command, _ []string) {
		purge(cmd)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(purgeCmd)

	purgeCmd.Flags().BoolP("auto-aprove", "y", false, "do not ask for confirmation")
}

func updateStatus(rawID, status string) {
	ctx := context.Background()

	zlog := newLogger()

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		zlog.Fatal("parsing application id", zap.Error(err))
	}

	normalized := normalizeStatus(status)
	if normalized == "" {
		zlog.Fatal("unknown status",
			zap.String("status", status),
			zap.Strings("known", knownStatuses),
		)
	}
	status = normalized

	db := openStore(config, zlog)
	defer db.Close()

	if err := db.UpdateApplicationStatus(ctx, id, status); err != nil {
		zlog.Fatal("updating application", zap.Error(err), zap.Int64("application_id", id))
	}

	fmt.Printf("application %d moved to %s\n", id, status)
}

func normalizeStatus(raw string) string {
	for _, known := range knownStatuses {
		if strings.EqualFold(raw, known) {
			return known
		}
	}
	return ""
}

func purge(cmd *cobra.Command) {
	ctx := context.Background()

	zlog := newLogger()

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	db := openStore(config, zlog)
	defer db.Close()

	user := currentUser(ctx, db, zlog)

	if cmd.Flag("auto-aprove").Value.String() == "false" {
		confirm := promptui.Select{
			Label: fmt.Sprintf("Delete all applications for %s?", user.Name),
			Items: []string{PromptYes, PromptNo},
		}
		_, action, err := confirm.Run()
		if err != nil {
			zlog.Fatal("exiting", zap.Error(err))
		}
		if action == PromptNo {
			zlog.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	purged, err := db.PurgeApplications(ctx, user.ID)
	if err != nil {
		zlog.Fatal("purging applications", zap.Error(err))
	}

	fmt.Printf("deleted %d applications\n", purged)
}
