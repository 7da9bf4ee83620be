package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractRewardsFromInput runs the catalog builder over a saved page. input
// is a file path, or raw HTML when it starts with "<".
func ExtractRewardsFromInput(input string, opts CatalogOptions) (Catalog, error) {
	doc, err := loadInput(input)
	if err != nil {
		return Catalog{}, err
	}
	return BuildCatalog(doc, opts)
}

// InspectInput reports the shape of every candidate table of a saved page.
func InspectInput(input string, opts CatalogOptions) ([]TableShape, error) {
	doc, err := loadInput(input)
	if err != nil {
		return nil, err
	}
	selector := opts.TableSelector
	if selector == "" {
		selector = DefaultTableSelector
	}
	shapes := []TableShape{}
	doc.Find(selector).Each(func(_ int, table *goquery.Selection) {
		shapes = append(shapes, ClassifyTable(table))
	})
	return shapes, nil
}

func loadInput(input string) (*goquery.Document, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, fmt.Errorf("empty input")
	}
	if strings.HasPrefix(trimmed, "<") {
		return parseDocument(strings.NewReader(trimmed))
	}

	f, err := os.Open(trimmed)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseDocument(f)
}
