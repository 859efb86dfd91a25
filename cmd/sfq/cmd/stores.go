package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func storesCmd() *cobra.Command {
	storesRoot := &cobra.Command{
		Use:   "stores",
		Short: "List stores and their locations",
		Long:  "List the stores offered by the catalog backend. The selected store is marked with *.",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()
			c := newClient()

			stores, err := c.ListStores(ctx)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(stores)
			}

			if len(stores) == 0 {
				fmt.Println("No stores found.")
				return nil
			}

			current := ""
			if s, err := c.GetSession(ctx); err == nil && s.Store != nil {
				current = s.Store.ID
			}
			return printStoresTable(os.Stdout, stores, current)
		},
	}

	storesRoot.AddCommand(
		storeLocationsCmd(),
		brandsCmd(),
	)

	return storesRoot
}

func storeLocationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "locations <store-id>",
		Short:   "List the physical shops of a store",
		Example: `  sfq stores locations de`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			locs, err := newClient().StoreLocations(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(locs)
			}

			if len(locs) == 0 {
				fmt.Println("No locations found.")
				return nil
			}
			return printLocationsTable(os.Stdout, locs)
		},
	}
}

func brandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "brands",
		Short: "List brand images",
		RunE: func(_ *cobra.Command, _ []string) error {
			brands, err := newClient().BrandImages(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(brands)
			}
			return printBrandsTable(os.Stdout, brands)
		},
	}
}

func selectStoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select-store <store-id>",
		Short: "Select the active store",
		Long: "Select the store that browse and visual search run against.\n" +
			"Switching to a different store clears the bearer token and the filter selection.",
		Example: `  sfq select-store de`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			s, err := newClient().SelectStore(context.Background(), args[0])
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
