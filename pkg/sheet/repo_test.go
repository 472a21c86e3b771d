package sheet_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID    int
	Name  string
	Color string
}

func widgetCodec() sheet.Codec[widget] {
	return sheet.Codec[widget]{
		Sheet:  "widgets",
		Key:    "id",
		IntKey: true,
		Decode: func(r sheet.Record) widget {
			return widget{ID: r.Int("id", 0), Name: r.String("name"), Color: r.String("color")}
		},
		Encode: func(w widget) sheet.Record {
			return sheet.Record{"id": strconv.Itoa(w.ID), "name": w.Name, "color": w.Color}
		},
		KeyOf:  func(w widget) string { return strconv.Itoa(w.ID) },
		SetKey: func(w *widget, id int) { w.ID = id },
	}
}

func newWidgetRepo(t *testing.T) (*sheet.Repo[widget], sheet.Store) {
	t.Helper()

	store := sheet.NewMemoryStore()
	require.NoError(t, store.EnsureSheet(context.Background(), "widgets", []string{"id", "name", "color"}))

	return sheet.NewRepo(store, widgetCodec()), store
}

func TestRepoAppendAllocatesIDs(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	repo, _ := newWidgetRepo(t)

	rows, err := repo.Append(ctx, widget{Name: "a"}, widget{Name: "b"})
	assert.Nil(err)
	assert.Equal(1, rows[0].ID)
	assert.Equal(2, rows[1].ID)

	rows, err = repo.Append(ctx, widget{Name: "c"})
	assert.Nil(err)
	assert.Equal(3, rows[0].ID)

	all, err := repo.List(ctx)
	assert.Nil(err)
	assert.Equal([]string{"a", "b", "c"}, []string{all[0].Name, all[1].Name, all[2].Name})
}

func TestRepoAppendContinuesFromMaxNotCount(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	repo, store := newWidgetRepo(t)

	table := sheet.NewTable("widgets", []string{"id", "name", "color"})
	table.Rows = [][]string{{"5", "x", ""}, {"", "", ""}, {"2", "y", ""}}
	require.NoError(t, store.WriteSheet(ctx, table))

	rows, err := repo.Append(ctx, widget{Name: "z"})
	assert.Nil(err)
	assert.Equal(6, rows[0].ID)
}

func TestRepoPatchTouchesOnlyGivenColumns(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	repo, _ := newWidgetRepo(t)

	_, err := repo.Append(ctx, widget{Name: "a", Color: "red"}, widget{Name: "b", Color: "blue"})
	require.NoError(t, err)

	n, err := repo.Patch(ctx, "2", sheet.Record{"color": "green"})
	assert.Nil(err)
	assert.Equal(1, n)

	w, err := repo.Get(ctx, "2")
	assert.Nil(err)
	assert.Equal("b", w.Name)
	assert.Equal("green", w.Color)

	w, err = repo.Get(ctx, "1")
	assert.Nil(err)
	assert.Equal("red", w.Color)
}

func TestRepoPatchMissingRow(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	repo, _ := newWidgetRepo(t)

	_, err := repo.Patch(context.Background(), "42", sheet.Record{"color": "green"})
	assert.ErrorIs(err, sheet.ErrRowNotFound)
}

func TestRepoUpsert(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	repo, _ := newWidgetRepo(t)

	assert.Nil(repo.Upsert(ctx, widget{ID: 3, Name: "new"}))
	assert.Nil(repo.Upsert(ctx, widget{ID: 3, Name: "renamed", Color: "red"}))

	all, err := repo.List(ctx)
	assert.Nil(err)
	assert.Equal(1, len(all))
	assert.Equal("renamed", all[0].Name)
}

func TestRepoMissingSheetReadsEmpty(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	repo := sheet.NewRepo(sheet.NewMemoryStore(), widgetCodec())

	all, err := repo.List(context.Background())
	assert.Nil(err)
	assert.Equal(0, len(all))
}
