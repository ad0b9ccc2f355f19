package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridianlabs/company-researcher/internal/research"
)

var (
	researchIndustry string
	researchHQ       string
	researchOutput   string
)

var researchCmd = &cobra.Command{
	Use:   "research <company>",
	Short: "Run a full research job for one company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initResearch(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		run, err := e.Pipeline.Run(ctx, research.Request{
			Company:    args[0],
			Industry:   researchIndustry,
			HQLocation: researchHQ,
		})
		if err != nil {
			return err
		}

		zap.L().Info("research finished",
			zap.String("run_id", run.ID),
			zap.String("status", string(run.Status)),
		)

		if researchOutput != "" {
			if err := os.WriteFile(researchOutput, []byte(run.Report), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Printf("report written to %s\n", researchOutput)
			return nil
		}

		fmt.Println(run.Report)
		return nil
	},
}

func init() {
	researchCmd.Flags().StringVar(&researchIndustry, "industry", "", "company industry")
	researchCmd.Flags().StringVar(&researchHQ, "hq", "", "company headquarters location")
	researchCmd.Flags().StringVarP(&researchOutput, "output", "o", "", "write report to file instead of stdout")
	rootCmd.AddCommand(researchCmd)
}
