package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tusharsharma89566/Edu-Learn/internal/repositories"
)

var exportOpts struct {
	output     string
	courseID   uint
	topicID    uint
	activeOnly bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the adaptive question bank to an .xlsx file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		filters := repositories.AdaptiveQuestionFilters{ActiveOnly: exportOpts.activeOnly}
		if cmd.Flags().Changed("course-id") {
			filters.CourseID = &exportOpts.courseID
		}
		if cmd.Flags().Changed("topic-id") {
			filters.TopicID = &exportOpts.topicID
		}

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		file, err := os.Create(exportOpts.output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOpts.output, err)
		}
		defer file.Close()

		count, err := a.serviceManager.Adaptive().ExportQuestions(ctx, filters, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d questions to %s\n", count, exportOpts.output)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportOpts.output, "output", "o", "questions.xlsx", "destination file")
	f.UintVar(&exportOpts.courseID, "course-id", 0, "only export questions of this course")
	f.UintVar(&exportOpts.topicID, "topic-id", 0, "only export questions of this topic")
	f.BoolVar(&exportOpts.activeOnly, "active-only", false, "skip deactivated questions")
}
