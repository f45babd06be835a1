package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobpilot/internal/resume"
)

var extractCmd = &cobra.Command{
	Use:   "extract <resume-file>",
	Short: "Extract signals from a resume and store it as the active profile",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		extract(args[0])
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func extract(path string) {
	ctx := context.Background()

	zlog := newLogger()

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		zlog.Fatal("reading resume file", zap.Error(err))
	}

	mimeType := resume.MIMEFromFilename(path)
	if mimeType == "" {
		zlog.Fatal("unsupported resume format",
			zap.String("file", path),
			zap.String("hint", "supported formats are .pdf, .docx and .doc"),
		)
	}

	generator := newGenerator(ctx, config.AI, zlog)
	extractor := resume.NewExtractor(generator, zlog)

	content, err := extractor.Extract(ctx, data, mimeType)
	if err != nil {
		zlog.Fatal("extracting resume", zap.Error(err))
	}

	db := openStore(config, zlog)
	defer db.Close()

	user := currentUser(ctx, db, zlog)

	profile, err := db.SaveProfile(ctx, user.ID, filepath.Base(path), content)
	if err != nil {
		zlog.Fatal("saving profile", zap.Error(err))
	}

	zlog.Info("profile saved",
		zap.Int64("profile_id", profile.ID),
		zap.Int64("user_id", user.ID),
		zap.String("file", profile.FileName),
	)

	fmt.Printf("skills:     %s\n", strings.Join(content.Skills, ", "))
	fmt.Printf("keywords:   %s\n", strings.Join(content.Keywords, ", "))
	fmt.Printf("experience: %s (%d entries)\n", content.TotalExperience, len(content.Experience))
}
