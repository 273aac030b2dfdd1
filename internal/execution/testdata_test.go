package execution

import (
	"context"

	"fewduckdb/internal/common"
	"fewduckdb/internal/types"
)

// fakeExecutor replays a fixed row list, for exercising Sort/TopN/join logic
// without needing a full catalog/heap setup.
type fakeExecutor struct {
	schema *types.Schema
	rows   []sortedRow
	pos    int
}

func newFakeExecutor(schema *types.Schema, rows []sortedRow) *fakeExecutor {
	return &fakeExecutor{schema: schema, rows: rows}
}

func (f *fakeExecutor) Schema() *types.Schema { return f.schema }

func (f *fakeExecutor) Init(ctx context.Context) error {
	f.pos = 0
	return nil
}

func (f *fakeExecutor) Next(ctx context.Context) (*types.Tuple, common.RID, bool, error) {
	if f.pos >= len(f.rows) {
		return nil, common.RID{}, false, nil
	}
	row := f.rows[f.pos]
	f.pos++
	return row.tuple, row.rid, true, nil
}

func intSchema(names ...string) *types.Schema {
	cols := make([]types.Column, len(names))
	for i, n := range names {
		cols[i] = types.Column{Name: n, Type: types.Integer}
	}
	return types.NewSchema(cols)
}

func intRow(rid int, vals ...int32) sortedRow {
	values := make([]types.Value, len(vals))
	for i, v := range vals {
		values[i] = types.NewInteger(v)
	}
	return sortedRow{tuple: types.NewTuple(values), rid: common.RID{PageID: common.PageID(rid)}}
}
