// Package sheets decodes spreadsheet exports into raw cell grids.
package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tourstats/internal/schema"

	"github.com/extrame/xls"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// MaxXLSRows bounds legacy workbook reads.
const MaxXLSRows = 200000

// Source names a file and, optionally, the worksheet to read from it.
// An empty Sheet selects the first worksheet.
type Source struct {
	Path  string
	Sheet string
}

// ReadFile decodes one export from disk.
func ReadFile(src Source) (schema.Grid, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", src.Path)
	}
	defer func() { _ = f.Close() }()
	return Decode(f, filepath.Base(src.Path), src.Sheet)
}

// Decode reads an export from r, choosing the format from the file name.
// Workbook cells are returned raw so time and date serials survive as numbers.
func Decode(r io.Reader, name, sheet string) (schema.Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", name)
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		rows, err = decodeCSV(data)
	case ".xls":
		rows, err = decodeXLS(data, sheet)
	default:
		rows, err = decodeXLSX(data, sheet)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "decode %s", name)
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("%s: worksheet is empty", name)
	}

	log.Debug().Str("file", name).Str("sheet", sheet).Int("rows", len(rows)).Msg("Decoded export")
	return toGrid(rows), nil
}

func decodeXLSX(data []byte, sheet string) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "open workbook")
	}
	defer func() { _ = file.Close() }()

	if sheet == "" {
		sheet = file.GetSheetName(0)
	}
	if sheet == "" {
		return nil, eris.New("no worksheet found")
	}
	if idx, err := file.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, eris.Errorf("worksheet %q not found (have %s)", sheet, strings.Join(file.GetSheetList(), ", "))
	}

	rows, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, eris.Wrapf(err, "read worksheet %q", sheet)
	}
	return rows, nil
}

func decodeXLS(data []byte, sheet string) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, eris.Wrap(err, "open legacy workbook")
	}
	if workbook.NumSheets() == 0 {
		return nil, eris.New("no worksheet found")
	}

	ws := workbook.GetSheet(0)
	if sheet != "" {
		ws = nil
		for i := 0; i < workbook.NumSheets(); i++ {
			if s := workbook.GetSheet(i); s != nil && strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(sheet)) {
				ws = s
				break
			}
		}
		if ws == nil {
			return nil, eris.Errorf("worksheet %q not found", sheet)
		}
	}
	if ws == nil {
		return nil, eris.New("no worksheet found")
	}

	rows := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow) && i < MaxXLSRows; i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// decodeCSV sniffs the delimiter from the header line; French exports
// usually use semicolons.
func decodeCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	header, _, _ := bytes.Cut(data, []byte("\n"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comma = sniffDelimiter(string(header))

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "parse csv")
	}
	return rows, nil
}

func sniffDelimiter(header string) rune {
	best, bestCount := ',', 0
	for _, d := range []rune{';', '\t', ','} {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func toGrid(rows [][]string) schema.Grid {
	grid := make(schema.Grid, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		grid[i] = cells
	}
	return grid
}

// LoadPair decodes the tours and tasks exports concurrently.
func LoadPair(ctx context.Context, tours, tasks Source) (schema.Grid, schema.Grid, error) {
	var toursGrid, tasksGrid schema.Grid
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		grid, err := ReadFile(tours)
		if err != nil {
			return eris.Wrap(err, "tours export")
		}
		toursGrid = grid
		return gCtx.Err()
	})
	g.Go(func() error {
		grid, err := ReadFile(tasks)
		if err != nil {
			return eris.Wrap(err, "tasks export")
		}
		tasksGrid = grid
		return gCtx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return toursGrid, tasksGrid, nil
}
