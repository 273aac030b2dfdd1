package bptree

// Comparator orders two keys, returning a negative number, zero, or a
// positive number as a < b, a == b, or a > b — the pluggable key comparator
// the tree is parameterized by. NewBPlusTree takes it as a required argument;
// Int32Comparator is natural ascending order.
type Comparator func(a, b int32) int

// Int32Comparator orders int32 keys by plain numeric value.
func Int32Comparator(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
