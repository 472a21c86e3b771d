package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceCells(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	table := NewTable(SheetUsers, []string{"username", "password_hash", "role"})
	table.Append(Record{"username": "alice", "role": "Supervisor"})

	req := replaceCells(0, table)
	update := req.UpdateCells

	assert.NotNil(update)
	assert.Equal("userEnteredValue", update.Fields)

	// sheet 0 must still be sent, and no bounds means the whole grid is rewritten
	assert.Equal([]string{"SheetId"}, update.Range.ForceSendFields)
	assert.Equal(int64(0), update.Range.EndRowIndex)
	assert.Equal(int64(0), update.Range.EndColumnIndex)

	assert.Equal(2, len(update.Rows))
	assert.Equal("username", *update.Rows[0].Values[0].UserEnteredValue.StringValue)
	assert.Equal(3, len(update.Rows[1].Values))
	assert.Equal("alice", *update.Rows[1].Values[0].UserEnteredValue.StringValue)
	assert.Equal("", *update.Rows[1].Values[1].UserEnteredValue.StringValue)
	assert.Equal("Supervisor", *update.Rows[1].Values[2].UserEnteredValue.StringValue)
}
