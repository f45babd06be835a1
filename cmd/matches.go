package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List stored postings scored against the active profile",
	Run: func(_ *cobra.Command, _ []string) {
		matches()
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)
}

func matches() {
	ctx := context.Background()

	zlog := newLogger()

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	db := openStore(config, zlog)
	defer db.Close()

	user := currentUser(ctx, db, zlog)

	found, err := newRunner(ctx, config, db, zlog).ListMatches(ctx, user.ID)
	if err != nil {
		zlog.Fatal("listing matches", zap.Error(err))
	}

	if len(found) == 0 {
		fmt.Println("no matches; upload a resume with 'jobpilot extract' and fetch postings with 'jobpilot run'")
		return
	}

	for _, m := range found {
		fmt.Printf("%3d%%  %-40s %-20s %s\n",
			m.Score, m.Posting.Title, m.Posting.Company, m.Posting.ApplyURL)
		if len(m.MatchedKeywords) > 0 {
			fmt.Printf("      matched: %s\n", strings.Join(m.MatchedKeywords, ", "))
		}
	}
}
