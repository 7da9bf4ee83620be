package pipeline

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/PuerkitoBio/goquery"

	"rocketpass/internal"
)

const DefaultTableSelector = "table.wikitable"

// ErrNoRewards is returned when no table on the page produced a reward.
var ErrNoRewards = errors.New("no rewards found")

type CatalogOptions struct {
	TableSelector string
}

// Report counts what happened to every candidate table and cell.
type Report struct {
	TablesSeen     int `json:"tablesSeen"`
	TablesAccepted int `json:"tablesAccepted"`
	TierColumns    int `json:"tierColumns"`
	Extracted      int `json:"extracted"`
	RowMissing     int `json:"rowMissing"`
	ColumnMissing  int `json:"columnMissing"`
	Dropped        int `json:"dropped"`
}

func (r Report) Counts() map[string]int {
	return map[string]int{
		"tablesSeen":     r.TablesSeen,
		"tablesAccepted": r.TablesAccepted,
		"tierColumns":    r.TierColumns,
		"extracted":      r.Extracted,
		"rowMissing":     r.RowMissing,
		"columnMissing":  r.ColumnMissing,
		"dropped":        r.Dropped,
	}
}

type Catalog struct {
	Items  []internal.RewardItem
	Report Report
}

// BuildCatalog extracts every reward from the rewards tables of doc, sorted
// by tier. Premium precedes free within a tier, and earlier tables precede
// later ones. The report is filled in even when ErrNoRewards is returned.
func BuildCatalog(doc *goquery.Document, opts CatalogOptions) (Catalog, error) {
	selector := opts.TableSelector
	if selector == "" {
		selector = DefaultTableSelector
	}

	catalog := Catalog{Items: []internal.RewardItem{}}
	doc.Find(selector).Each(func(_ int, table *goquery.Selection) {
		catalog.Report.TablesSeen++
		columns := AlignTable(table)
		if len(columns) == 0 {
			return
		}
		catalog.Report.TablesAccepted++
		catalog.Report.TierColumns += len(columns)

		for _, col := range columns {
			catalog.collect(col.Premium, col.Tier, false)
			catalog.collect(col.Free, col.Tier, true)
		}
	})

	sort.SliceStable(catalog.Items, func(i, j int) bool {
		return catalog.Items[i].Tier < catalog.Items[j].Tier
	})
	catalog.Report.Extracted = len(catalog.Items)

	if len(catalog.Items) == 0 {
		return catalog, ErrNoRewards
	}
	return catalog, nil
}

func (c *Catalog) collect(slot CellSlot, tier int, isFree bool) {
	switch slot.State {
	case SlotRowMissing:
		c.Report.RowMissing++
		return
	case SlotColumnMissing:
		c.Report.ColumnMissing++
		return
	}

	item, ok := ExtractItem(slot.Cells, slot.Column, tier, isFree)
	if !ok {
		c.Report.Dropped++
		return
	}
	c.Items = append(c.Items, item)
}

// ParseRewardsHTML parses an HTML page and builds its reward catalog.
func ParseRewardsHTML(r io.Reader, opts CatalogOptions) (Catalog, error) {
	doc, err := parseDocument(r)
	if err != nil {
		return Catalog{}, err
	}
	return BuildCatalog(doc, opts)
}

func parseDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}
