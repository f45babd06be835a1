package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobpilot/internal/automation"
	"jobpilot/internal/feed"
	"jobpilot/internal/match"
	"jobpilot/internal/store"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var prompt = promptui.Select{
	Label: "Fetch feeds and apply to matching postings?",
	Items: []string{PromptYes, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one fetch, score and apply cycle",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-aprove", "y", false, "do not ask for confirmation before applying")
}

// run executes a single automation cycle for the selected user.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	zlog := newLogger()

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	zlog.Info("starting jobpilot", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	zlog.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if cmd.Flag("auto-aprove").Value.String() == "false" {
		_, action, err := prompt.Run()
		if err != nil {
			zlog.Fatal("exiting", zap.Error(err))
		}
		if action == PromptNo {
			zlog.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	db := openStore(config, zlog)
	defer db.Close()

	user := currentUser(ctx, db, zlog)

	report, err := newRunner(ctx, config, db, zlog).Run(ctx, user.ID)
	if err != nil {
		zlog.Fatal("cycle failed", zap.Error(err))
	}

	for _, detail := range report.Details {
		switch detail.Outcome {
		case automation.OutcomeSuccess:
			fmt.Printf("applied  %-40s %-20s score=%d tracking=%s\n",
				detail.Title, detail.Company, detail.Score, detail.TrackingID)
		case automation.OutcomeSkipped:
			fmt.Printf("skipped  %-40s %-20s %s\n", detail.Title, detail.Company, detail.Message)
		default:
			fmt.Printf("ignored  %-40s %-20s score=%d\n", detail.Title, detail.Company, detail.Score)
		}
	}

	fmt.Printf("found %d, matched %d, applied %d\n", report.Found, report.Matched, report.Applied)
}

func newRunner(ctx context.Context, config *Config, db *store.DB, zlog *zap.Logger) *automation.Runner {
	ingestor := feed.NewIngestor(config.Feeds, zlog)

	generator := newGenerator(ctx, config.AI, zlog)
	scorer := match.NewGeminiScorer(generator, match.KeywordPresenceScorer{}, zlog)

	return automation.NewRunner(db, ingestor, scorer, zlog)
}
