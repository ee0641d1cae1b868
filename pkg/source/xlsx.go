package source

import (
	"context"
	"strings"

	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// XLSXLoader re-encodes a workbook sheet as table text. Ids have the form
// "book.xlsx#Sheet"; without a sheet name the first sheet is used. The
// workbook bytes come from Raw.
type XLSXLoader struct {
	Raw       Loader
	Separator rune
}

// NewXLSXLoader creates a loader reading workbooks through raw.
func NewXLSXLoader(raw Loader) *XLSXLoader {
	return &XLSXLoader{Raw: raw, Separator: csvtable.DefaultSeparator}
}

// Load reads the workbook and encodes the sheet's rows.
func (l *XLSXLoader) Load(ctx context.Context, id string) (string, error) {
	book, sheet, _ := strings.Cut(id, "#")
	data, err := l.Raw.Load(ctx, book)
	if err != nil {
		return "", err
	}

	f, err := excelize.OpenReader(strings.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeData, "failed to open workbook "+book)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return "", errors.Newf(errors.ErrorTypeData, "workbook %s has no sheets", book)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeNotFound, "sheet "+sheet+" not found in "+book).
			WithDetail("sheet", sheet)
	}
	return l.encode(rows), nil
}

// encode pads rows to the header width since GetRows drops trailing empty cells.
func (l *XLSXLoader) encode(rows [][]string) string {
	sep := l.Separator
	if sep == 0 {
		sep = csvtable.DefaultSeparator
	}
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		lines = append(lines, csvtable.EncodeRowSep(row, sep))
	}
	return csvtable.JoinRows(lines, csvtable.LF)
}
