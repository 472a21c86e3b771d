package db

import (
	"context"
	"fmt"

	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/rs/zerolog/log"
)

// ClearAll wipes every sheet, users included, back to its header row. It refuses to run
// unless confirmed is true.
func (d *Database) ClearAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	schema := sheet.Schema()

	for _, name := range sheet.SheetOrder() {
		if err := d.store.ResetSheet(ctx, name, schema[name]); err != nil {
			return fmt.Errorf("error clearing %s: %w", name, err)
		}
	}

	log.Warn().Msg("cleared all sheets")

	return d.refresh(ctx)
}
