package pipeline

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rocketpass/internal/util"
)

const tierToken = "TIER"

var reTierToken = regexp.MustCompile(`(?i)` + tierToken)

// Row roles inside a rewards table.
const (
	headerRow  = 0
	premiumRow = 1
	freeRow    = 2
)

type SlotState int

const (
	SlotPresent SlotState = iota
	// SlotRowMissing: the table has no row for this track.
	SlotRowMissing
	// SlotColumnMissing: the track row is shorter than the tier header row.
	SlotColumnMissing
)

func (s SlotState) String() string {
	switch s {
	case SlotPresent:
		return "present"
	case SlotRowMissing:
		return "row_missing"
	case SlotColumnMissing:
		return "column_missing"
	default:
		return "unknown"
	}
}

// CellSlot locates one track cell: the td cells of its row and the column.
type CellSlot struct {
	Cells  *goquery.Selection
	Column int
	State  SlotState
}

// Cell returns the slot's cell, or nil when it is missing.
func (s CellSlot) Cell() *goquery.Selection {
	if s.State != SlotPresent || s.Cells == nil {
		return nil
	}
	return s.Cells.Eq(s.Column)
}

type TierColumn struct {
	Tier    int
	Column  int
	Premium CellSlot
	Free    CellSlot
}

// TableShape holds the structural signals read from a candidate table.
type TableShape struct {
	Rows        int
	HeaderText  string
	HasTierHead bool
	HeaderCells int
	TierColumns int
}

// Accepted reports whether the table qualifies as a rewards table.
func (s TableShape) Accepted() bool {
	return s.Rows >= 2 && s.HasTierHead
}

func ClassifyTable(table *goquery.Selection) TableShape {
	rows := table.Find("tr")
	shape := TableShape{Rows: rows.Length()}
	if shape.Rows == 0 {
		return shape
	}

	headers := rows.Eq(headerRow).Find("th")
	shape.HeaderCells = headers.Length()
	shape.HeaderText = strings.TrimSpace(headers.First().Text())
	shape.HasTierHead = strings.Contains(strings.ToUpper(shape.HeaderText), tierToken)
	headers.Each(func(_ int, th *goquery.Selection) {
		if _, ok := parseTier(th.Text()); ok {
			shape.TierColumns++
		}
	})
	return shape
}

// AlignTable maps each tier header of a rewards table to the premium and
// free cells in the same column. Tables that are not rewards tables yield
// nothing.
func AlignTable(table *goquery.Selection) []TierColumn {
	if !ClassifyTable(table).Accepted() {
		return nil
	}

	rows := table.Find("tr")
	tierCells := rows.Eq(headerRow).Find("th")
	premium := trackCells(rows, premiumRow)
	free := trackCells(rows, freeRow)

	out := make([]TierColumn, 0, tierCells.Length())
	tierCells.Each(func(index int, th *goquery.Selection) {
		tier, ok := parseTier(th.Text())
		if !ok {
			return
		}
		out = append(out, TierColumn{
			Tier:    tier,
			Column:  index,
			Premium: slotAt(premium, index),
			Free:    slotAt(free, index),
		})
	})
	return out
}

// trackCells returns the td cells of a track row, or nil when the row is absent.
func trackCells(rows *goquery.Selection, row int) *goquery.Selection {
	if row >= rows.Length() {
		return nil
	}
	return rows.Eq(row).Find("td")
}

func slotAt(cells *goquery.Selection, index int) CellSlot {
	if cells == nil {
		return CellSlot{Column: index, State: SlotRowMissing}
	}
	if index >= cells.Length() {
		return CellSlot{Cells: cells, Column: index, State: SlotColumnMissing}
	}
	return CellSlot{Cells: cells, Column: index, State: SlotPresent}
}

// parseTier reads "TIER 12" style header text. Only positive tiers count.
func parseTier(text string) (int, bool) {
	rest := strings.TrimSpace(util.RemoveFirstMatch(text, reTierToken))
	tier, ok := util.ParseLeadingInt(rest)
	if !ok || tier <= 0 {
		return 0, false
	}
	return tier, true
}
