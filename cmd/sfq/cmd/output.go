package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	apiclient "github.com/donaldgifford/storefront-query/internal/api/client"
	"github.com/donaldgifford/storefront-query/internal/filter"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printStoresTable(w io.Writer, stores []domain.StoreConfig, currentID string) error {
	tw := newTabWriter(w)
	tw.writef(" \tID\tCOUNTRY\tNAME\tLOCALE\tCURRENCY\tVISUAL SEARCH\n")
	for i := range stores {
		s := &stores[i]
		marker := " "
		if s.ID == currentID {
			marker = "*"
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\t%v\n",
			marker, s.ID, s.Country, s.Name, s.Locale, s.Currency, s.HasVisualSearch())
	}
	return tw.finish()
}

func printLocationsTable(w io.Writer, locs []domain.StoreLocation) error {
	tw := newTabWriter(w)
	tw.writef("ID\tNAME\tCITY\tADDRESS\tLAT\tLON\n")
	for i := range locs {
		l := &locs[i]
		tw.writef("%s\t%s\t%s\t%s\t%.4f\t%.4f\n",
			l.ID, l.Name, l.City, truncate(l.Address, 40), l.Latitude, l.Longitude)
	}
	return tw.finish()
}

func printBrandsTable(w io.Writer, brands []domain.BrandImage) error {
	tw := newTabWriter(w)
	tw.writef("ID\tNAME\tIMAGE\n")
	for i := range brands {
		tw.writef("%s\t%s\t%s\n", brands[i].BrandID, brands[i].Name, brands[i].ImageURL)
	}
	return tw.finish()
}

func printSession(w io.Writer, s *apiclient.Session) error {
	tw := newTabWriter(w)
	if s.Store == nil {
		tw.writef("Store:\t(none)\n")
	} else {
		tw.writef("Store:\t%s (%s)\n", s.Store.ID, s.Store.Country)
	}
	tw.writef("Token:\t%s\n", s.TokenState)
	if s.TokenExpiry != nil {
		tw.writef("Expires:\t%s\n", s.TokenExpiry.Local().Format(time.DateTime))
	}
	if s.VisualSearchBaseURL != "" {
		tw.writef("Visual search:\t%s\n", s.VisualSearchBaseURL)
	}
	tw.writef("Filters:\t%s\n", formatSelection(s.Filters))
	return tw.finish()
}

func printProductsTable(w io.Writer, items []domain.Product) error {
	tw := newTabWriter(w)
	tw.writef("ID\tNAME\tBRAND\tPRICE\tSALE\tSIMILARITY\n")
	for i := range items {
		p := &items[i]
		sale := "-"
		if p.OnSale() {
			sale = p.SalePrice.Value
		}
		sim := "-"
		if p.Similarity > 0 {
			sim = fmt.Sprintf("%.2f", p.Similarity)
		}
		tw.writef("%s\t%s\t%s\t%s %s\t%s\t%s\n",
			p.ID, truncate(p.Name, 40), p.Brand, p.Price.Value, p.Price.Currency, sale, sim)
	}
	return tw.finish()
}

func printPageFooter(w io.Writer, p *apiclient.Page) error {
	_, err := fmt.Fprintf(w, "\nPage %d of %d (%d items total)", p.CurrentPage, p.LastPage, p.TotalCount)
	if err != nil {
		return err
	}
	if p.HasNextPage && p.ContinuationHandle != "" {
		_, err = fmt.Fprintf(w, ", next: --page %d --continuation %s", p.CurrentPage+1, p.ContinuationHandle)
	} else if p.HasNextPage {
		_, err = fmt.Fprintf(w, ", next: --page %d", p.CurrentPage+1)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}

// formatSelection renders a selection in --filter syntax.
func formatSelection(sel filter.Selection) string {
	var parts []string
	for _, d := range filter.Dimensions {
		if ids := sel.IDs(d); len(ids) > 0 {
			parts = append(parts, d.String()+"="+strings.Join(ids, ","))
		}
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, " ")
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
