package gateway

import (
	"context"
	"io"

	"bitbucket.org/mmdatafocus/whisky_backend/models"
	"bitbucket.org/mmdatafocus/whisky_backend/utils"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Whiskies"

var exportHeadings = []string{
	"ID", "Name", "Price", "Price (numeric)", "Volume", "ABV", "Distillery", "Region", "Age",
	"Cask Type", "Tasting Notes", "Description", "Source", "Month", "URL", "Image URL", "Scraped At",
}

// Export is every record matching a filter, capped at the configured row limit.
type Export struct {
	Whiskies      []*models.Whisky
	Total         int64
	UsingFallback bool
	Error         string
}

// Truncated reports whether more records matched than were exported.
func (e *Export) Truncated() bool {
	return e.Total > int64(len(e.Whiskies))
}

func (g *Gateway) Export(ctx context.Context, search string) (*Export, error) {
	q := models.ListQuery{Filter: search, Page: 1, PageSize: g.opts.ExportMaxRows}
	result, r, err := run(ctx, g, opExport, func(ctx context.Context, store models.WhiskyStore) (page, error) {
		whiskies, total, err := store.List(ctx, q)
		return page{whiskies, total}, err
	})
	if err != nil {
		return nil, err
	}
	return &Export{
		Whiskies:      result.whiskies,
		Total:         result.total,
		UsingFallback: r.usingFallback,
		Error:         r.message,
	}, nil
}

// WriteTo writes the export as an xlsx workbook.
func (e *Export) WriteTo(w io.Writer) (int64, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, err
	}

	row := make([]any, len(exportHeadings))
	for i, h := range exportHeadings {
		row[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &row); err != nil {
		return 0, err
	}

	for i, whisky := range e.Whiskies {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		values := exportRow(whisky)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return 0, err
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return 0, err
	}
	return f.WriteTo(w)
}

func exportRow(w *models.Whisky) []any {
	s := func(p *string) string { return utils.DereferencePtr(p, "") }

	// unparseable prices leave the numeric column blank
	var price any
	if w.Price != nil {
		if d, err := utils.ParsePrice(*w.Price); err == nil {
			price, _ = d.Float64()
		}
	}

	return []any{
		w.ID,
		s(w.Name),
		s(w.Price),
		price,
		s(w.Volume),
		s(w.Abv),
		s(w.Distillery),
		s(w.Region),
		s(w.Age),
		s(w.CaskType),
		s(w.TastingNotes),
		s(w.Description),
		s(w.Source),
		s(w.Month),
		s(w.Url),
		s(w.ImageUrl),
		w.ScrapedAt,
	}
}
