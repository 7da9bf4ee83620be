package pipeline

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func mustCell(t *testing.T, cellHTML string) *goquery.Selection {
	t.Helper()
	doc := mustDoc(t, "<table><tr><td>"+cellHTML+"</td></tr></table>")
	cell := doc.Find("td").First()
	if cell.Length() != 1 {
		t.Fatalf("no cell parsed from %q", cellHTML)
	}
	return cell
}

const scenarioHTML = `<html><body>
<div class="table-wide"><div class="table-wide-inner">
<table class="wikitable">
<tr><th>TIER 1</th><th>TIER 2</th></tr>
<tr><td><img alt="Boost"></td><td>Wheel Name</td></tr>
<tr><td></td><td><img data-image-key="Trail_icon.png"></td></tr>
</table>
</div></div>
</body></html>`
