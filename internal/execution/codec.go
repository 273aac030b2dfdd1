package execution

import (
	"encoding/binary"

	"fewduckdb/internal/types"
)

// encodeTuple/decodeTuple give the executors a concrete wire format for
// storing types.Tuple values in the table heap's raw byte pages: one null
// byte per column, then INTEGER as 4 bytes little-endian or VARCHAR as a
// 4-byte length prefix followed by its bytes. This is not named by the
// storage-engine core (which treats tuple bytes as opaque) but the
// executors need something concrete to round-trip through the heap.
func encodeTuple(schema *types.Schema, tuple *types.Tuple) []byte {
	buf := make([]byte, 0, 32)
	for i, col := range schema.Columns {
		v := tuple.GetValue(schema, i)
		if v.IsNull() {
			buf = append(buf, 1)
			continue
		}
		buf = append(buf, 0)
		switch col.Type {
		case types.Integer:
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], uint32(v.AsInteger()))
			buf = append(buf, tmp[:]...)
		case types.Varchar:
			s := v.AsVarchar()
			var tmp [4]byte
			binary.LittleEndian.PutUint32(tmp[:], uint32(len(s)))
			buf = append(buf, tmp[:]...)
			buf = append(buf, s...)
		}
	}
	return buf
}

func decodeTuple(schema *types.Schema, data []byte) *types.Tuple {
	values := make([]types.Value, len(schema.Columns))
	pos := 0
	for i, col := range schema.Columns {
		isNull := data[pos] != 0
		pos++
		if isNull {
			values[i] = types.NewNull(col.Type)
			continue
		}
		switch col.Type {
		case types.Integer:
			v := int32(binary.LittleEndian.Uint32(data[pos:]))
			pos += 4
			values[i] = types.NewInteger(v)
		case types.Varchar:
			n := int(binary.LittleEndian.Uint32(data[pos:]))
			pos += 4
			values[i] = types.NewVarchar(string(data[pos : pos+n]))
			pos += n
		}
	}
	return types.NewTuple(values)
}
