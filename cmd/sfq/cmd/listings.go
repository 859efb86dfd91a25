package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/storefront-query/internal/api/client"
	"github.com/donaldgifford/storefront-query/internal/api/handlers"
	"github.com/donaldgifford/storefront-query/internal/filter"
)

// selectionFlag returns nil when no --filter was given, so the server uses
// the session selection.
func selectionFlag(filters []string) (*filter.Selection, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	sel, err := handlers.ParseFilters(filters)
	if err != nil {
		return nil, err
	}
	return &sel, nil
}

func browseCmd() *cobra.Command {
	var (
		page     int
		filters  []string
		all      bool
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "browse <category-id>",
		Short: "Browse a category of the selected store",
		Long: "Fetch category browse pages from the catalog backend. Without --filter\n" +
			"the persisted filter selection of the session is applied.",
		Example: `  # First page of a category
  sfq browse 1045

  # Third page, filtered by gender and brand
  sfq browse 1045 --page 3 --filter gender=2 --filter brand=7,9

  # Every page up to the server cap
  sfq browse 1045 --all --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			sel, err := selectionFlag(filters)
			if err != nil {
				return err
			}

			c := newClient()
			if all {
				res, err := c.BrowseAll(context.Background(), args[0], sel, maxPages)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return outputJSON(res)
				}
				fmt.Printf("Fetched %d pages, %d items\n\n", res.Pages, len(res.Items))
				return printProductsTable(os.Stdout, res.Items)
			}

			p, err := browseTo(c, apiclient.BrowseRequest{CategoryID: args[0], Filters: sel}, page)
			if err != nil {
				return err
			}
			return printPage(p)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as dimension=id[,id] (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "page limit for --all (0 uses the server cap)")

	return cmd
}

// browseTo fetches page n. Filter bindings change between pages, so pages
// before n are fetched to carry the state forward.
func browseTo(c *apiclient.Client, req apiclient.BrowseRequest, n int) (*apiclient.Page, error) {
	if n < 1 {
		return nil, fmt.Errorf("page must be at least 1, got %d", n)
	}

	ctx := context.Background()
	req.Page = 1
	p, err := c.Browse(ctx, req)
	if err != nil {
		return nil, err
	}
	for p.CurrentPage < n && p.HasNextPage {
		if p, err = c.Browse(ctx, req.Next(p)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func visualSearchCmd() *cobra.Command {
	var (
		page         int
		continuation string
		filters      []string
	)

	cmd := &cobra.Command{
		Use:   "visual-search [image]",
		Short: "Search the selected store by image",
		Long: "Run a visual search. The first page needs an image reference; later\n" +
			"pages need the continuation handle printed with the previous page.",
		Example: `  sfq visual-search https://img.example.com/shoe.jpg
  sfq visual-search --page 2 --continuation vs-cursor-2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			sel, err := selectionFlag(filters)
			if err != nil {
				return err
			}

			req := apiclient.VisualSearchRequest{
				Page:               page,
				ContinuationHandle: continuation,
				Filters:            sel,
			}
			if len(args) == 1 {
				req.Image = args[0]
			}
			switch {
			case page == 1 && req.Image == "":
				return fmt.Errorf("an image is required for the first page")
			case page > 1 && continuation == "":
				return fmt.Errorf("--continuation is required for page %d", page)
			}

			p, err := newClient().VisualSearch(context.Background(), req)
			if err != nil {
				return err
			}
			return printPage(p)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&continuation, "continuation", "", "continuation handle from the previous page")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as dimension=id[,id] (repeatable)")

	return cmd
}

func printPage(p *apiclient.Page) error {
	if jsonOutput() {
		return outputJSON(p)
	}
	if len(p.Items) == 0 {
		fmt.Println("No products found.")
		return nil
	}
	if err := printProductsTable(os.Stdout, p.Items); err != nil {
		return err
	}
	return printPageFooter(os.Stdout, p)
}
