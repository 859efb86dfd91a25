package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/storefront-query/internal/api/handlers"
	"github.com/donaldgifford/storefront-query/internal/filter"
)

func sessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the selected store, token state and filters",
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := newClient().GetSession(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(s)
			}
			return printSession(os.Stdout, s)
		},
	}
}

func filtersCmd() *cobra.Command {
	filtersRoot := &cobra.Command{
		Use:   "filters",
		Short: "Manage the persisted filter selection",
	}

	filtersRoot.AddCommand(filtersSetCmd(), filtersClearCmd())
	return filtersRoot
}

func filtersSetCmd() *cobra.Command {
	var filters []string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the filter selection of the selected store",
		Example: `  sfq filters set --filter gender=2 --filter category=1045,1046
  sfq filters set --filter brand=7 --filter size=M,L`,
		RunE: func(_ *cobra.Command, _ []string) error {
			sel, err := handlers.ParseFilters(filters)
			if err != nil {
				return err
			}

			s, err := newClient().SetFilters(context.Background(), sel)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(s)
			}
			return printSession(os.Stdout, s)
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as dimension=id[,id] (repeatable)")
	cobra.CheckErr(cmd.MarkFlagRequired("filter"))

	return cmd
}

func filtersClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the filter selection of the selected store",
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := newClient().SetFilters(context.Background(), filter.Selection{})
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(s)
			}
			return printSession(os.Stdout, s)
		},
	}
}

func tokenCmd() *cobra.Command {
	tokenRoot := &cobra.Command{
		Use:   "token",
		Short: "Manage the visual-search bearer token",
	}

	tokenRoot.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Force a bearer token refresh",
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := newClient().RefreshToken(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			fmt.Printf("Token %s, expires %s\n", resp.TokenState, resp.Expiry.Local().Format(time.DateTime))
			return nil
		},
	})

	return tokenRoot
}

func quotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show the catalog API daily quota",
		RunE: func(_ *cobra.Command, _ []string) error {
			q, err := newClient().Quota(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(q)
			}

			if q.DailyLimit == 0 {
				fmt.Printf("Used %d calls today (no daily limit)\n", q.DailyUsed)
				return nil
			}
			fmt.Printf("Used %d of %d calls, %d remaining, resets %s\n",
				q.DailyUsed, q.DailyLimit, q.Remaining, q.ResetAt.Local().Format(time.DateTime))
			return nil
		},
	}
}
