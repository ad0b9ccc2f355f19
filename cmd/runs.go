package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meridianlabs/company-researcher/internal/model"
	"github.com/meridianlabs/company-researcher/internal/store"
)

var (
	runsCompany string
	runsStatus  string
	runsLimit   int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past research runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Company: runsCompany,
			Status:  model.RunStatus(runsStatus),
			Limit:   runsLimit,
		})
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCOMPANY\tSTATUS\tCREATED")
		for _, run := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				run.ID, run.Company, run.Status, run.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsCompany, "company", "", "filter by company name")
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by run status")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 50, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
