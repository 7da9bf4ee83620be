package pipeline

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rocketpass/internal"
	"rocketpass/internal/util"
)

// ExtractItem extracts the reward in cells[index] of one track row. It
// reports false when the index is out of range or the cell yields no name.
func ExtractItem(cells *goquery.Selection, index, tier int, isFree bool) (internal.RewardItem, bool) {
	if cells == nil || index < 0 || index >= cells.Length() {
		return internal.RewardItem{}, false
	}
	return ExtractCell(cells.Eq(index), tier, isFree)
}

// ExtractCell derives a reward from a single table cell. Visible text wins;
// markup-looking or empty text falls back to the first image's key or alt.
func ExtractCell(cell *goquery.Selection, tier int, isFree bool) (internal.RewardItem, bool) {
	if cell == nil || cell.Length() == 0 {
		return internal.RewardItem{}, false
	}

	text := strings.TrimSpace(cell.Text())
	img := cell.Find("img").First()
	hasImage := img.Length() > 0
	if text == "" && !hasImage {
		return internal.RewardItem{}, false
	}

	name := text
	if looksLikeMarkup(name) {
		name = ""
	}

	imageURL := ""
	if hasImage {
		imageURL = util.FirstNonEmpty(img.AttrOr("src", ""), img.AttrOr("data-src", ""))
		if name == "" {
			raw := util.FirstNonEmpty(img.AttrOr("data-image-key", ""), img.AttrOr("alt", ""))
			name = NormalizeImageName(raw)
		}
	}

	name = cleanFilePrefix(name)
	if name == "" {
		return internal.RewardItem{}, false
	}

	return internal.RewardItem{
		Tier:     tier,
		Name:     name,
		Type:     internal.PlaceholderType,
		Rarity:   internal.PlaceholderRarity,
		IsFree:   isFree,
		ImageURL: imageURL,
	}, true
}
