package sheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleConfig configures the Google Sheets backend.
type GoogleConfig struct {
	SpreadsheetID   string
	CredentialsFile string
	// RequestsPerMinute bounds API calls; Sheets enforces a per-user quota of 60 by default.
	RequestsPerMinute int
}

// GoogleStore reads and writes whole sheets of a Google spreadsheet through the Sheets API.
type GoogleStore struct {
	srv     *sheets.Service
	id      string
	limiter *rate.Limiter

	mu  sync.Mutex
	ids map[string]int64
}

// NewGoogleStore authenticates with a service account credentials file.
func NewGoogleStore(ctx context.Context, cfg GoogleConfig) (*GoogleStore, error) {
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("error connecting to google sheets: %w", err)
	}

	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}

	return &GoogleStore{
		srv:     srv,
		id:      cfg.SpreadsheetID,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 4),
		ids:     map[string]int64{},
	}, nil
}

func quoted(name string) string {
	return fmt.Sprintf("'%s'", name)
}

func (g *GoogleStore) wait(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("error waiting for sheets quota: %w", err)
	}

	return nil
}

// sheetID resolves a sheet title to its numeric id, listing the spreadsheet on a cache miss.
func (g *GoogleStore) sheetID(ctx context.Context, name string) (int64, bool, error) {
	g.mu.Lock()
	id, ok := g.ids[name]
	g.mu.Unlock()

	if ok {
		return id, true, nil
	}

	if err := g.wait(ctx); err != nil {
		return 0, false, err
	}

	ss, err := g.srv.Spreadsheets.Get(g.id).Fields("sheets.properties(sheetId,title)").Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("error listing sheets: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, s := range ss.Sheets {
		if s.Properties != nil {
			g.ids[s.Properties.Title] = s.Properties.SheetId
		}
	}

	id, ok = g.ids[name]

	return id, ok, nil
}

func (g *GoogleStore) addSheet(ctx context.Context, name string) (int64, error) {
	if err := g.wait(ctx); err != nil {
		return 0, err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: name}},
		}},
	}

	resp, err := g.srv.Spreadsheets.BatchUpdate(g.id, req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("error adding sheet %s: %w", name, err)
	}

	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("error adding sheet %s: empty reply", name)
	}

	id := resp.Replies[0].AddSheet.Properties.SheetId

	g.mu.Lock()
	g.ids[name] = id
	g.mu.Unlock()

	log.Info().Str("sheet", name).Msg("created missing sheet")

	return id, nil
}

// EnsureSheet implements Store.
func (g *GoogleStore) EnsureSheet(ctx context.Context, name string, header []string) error {
	_, ok, err := g.sheetID(ctx, name)
	if err != nil || ok {
		return err
	}

	if _, err := g.addSheet(ctx, name); err != nil {
		return err
	}

	return g.WriteSheet(ctx, NewTable(name, header))
}

// ReadSheet implements Store.
func (g *GoogleStore) ReadSheet(ctx context.Context, name string) (*Table, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := g.srv.Spreadsheets.Values.Get(g.id, quoted(name)).
		ValueRenderOption("FORMATTED_VALUE").Context(ctx).Do()

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
		// the API reports an unknown sheet as an unparseable range
		return nil, fmt.Errorf("%s: %w", name, ErrSheetNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("error reading sheet %s: %w", name, err)
	}

	table := &Table{Name: name, Header: []string{}, Rows: [][]string{}}

	for i, values := range resp.Values {
		row := make([]string, len(values))
		for j, v := range values {
			row[j] = fmt.Sprint(v)
		}

		if i == 0 {
			table.Header = row
		} else {
			table.Rows = append(table.Rows, row)
		}
	}

	return table, nil
}

// WriteSheet implements Store. The whole sheet is replaced by one UpdateCells request, which
// also clears every cell outside the new table.
func (g *GoogleStore) WriteSheet(ctx context.Context, table *Table) error {
	id, ok, err := g.sheetID(ctx, table.Name)
	if err != nil {
		return err
	}

	if !ok {
		if id, err = g.addSheet(ctx, table.Name); err != nil {
			return err
		}
	}

	if err := g.wait(ctx); err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{replaceCells(id, table)}}

	if _, err := g.srv.Spreadsheets.BatchUpdate(g.id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("error writing sheet %s: %w", table.Name, err)
	}

	return nil
}

// ResetSheet implements Store.
func (g *GoogleStore) ResetSheet(ctx context.Context, name string, header []string) error {
	return g.WriteSheet(ctx, NewTable(name, header))
}

// Close implements Store.
func (g *GoogleStore) Close() error {
	return nil
}

// replaceCells builds the request that writes the table over the whole grid of the sheet.
func replaceCells(sheetID int64, table *Table) *sheets.Request {
	rows := make([]*sheets.RowData, 0, len(table.Rows)+1)
	rows = append(rows, rowData(table.Header, len(table.Header)))

	for _, row := range table.Rows {
		rows = append(rows, rowData(row, len(table.Header)))
	}

	return &sheets.Request{
		UpdateCells: &sheets.UpdateCellsRequest{
			// a range with no bounds is the whole sheet; cells not covered by rows get cleared
			Range:  &sheets.GridRange{SheetId: sheetID, ForceSendFields: []string{"SheetId"}},
			Rows:   rows,
			Fields: "userEnteredValue",
		},
	}
}

func rowData(row []string, width int) *sheets.RowData {
	cells := make([]*sheets.CellData, width)

	for i := range cells {
		v := ""
		if i < len(row) {
			v = row[i]
		}

		cells[i] = &sheets.CellData{UserEnteredValue: &sheets.ExtendedValue{StringValue: &v}}
	}

	return &sheets.RowData{Values: cells}
}
