package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"rocketpass/internal"
)

// MarshalRewards renders items as two-space indented JSON without HTML
// escaping and without a trailing newline.
func MarshalRewards(items []internal.RewardItem) ([]byte, error) {
	if items == nil {
		items = []internal.RewardItem{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteRewardsJSON overwrites outputPath with items. An empty catalog is
// never written so the previous file stays in place; the returned bool
// reports whether the file was written.
func WriteRewardsJSON(items []internal.RewardItem, outputPath string) (bool, error) {
	if len(items) == 0 {
		return false, nil
	}
	blob, err := MarshalRewards(items)
	if err != nil {
		return false, fmt.Errorf("encoding rewards: %w", err)
	}
	if err := writeFileAtomic(outputPath, blob); err != nil {
		return false, fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return true, nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it over path, so readers see either the old or the new content.
func writeFileAtomic(path string, blob []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func ExportRewardsToXLSX(season int, items []internal.RewardItem, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("Season %d", season)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	headers := []string{"tier", "track", "name", "type", "rarity", "image_url"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, item := range items {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, item.Tier)
		set(2, string(item.Track()))
		set(3, item.Name)
		set(4, item.Type)
		set(5, item.Rarity)
		set(6, item.ImageURL)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
