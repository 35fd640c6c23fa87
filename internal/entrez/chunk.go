package entrez

import "strings"

// Chunk splits values into consecutive batches of at most size elements.
// Order is preserved; concatenating the batches reconstructs the input. A
// non-positive size yields a single batch.
func Chunk[T any](values []T, size int) [][]T {
	if len(values) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]T{values}
	}

	batches := make([][]T, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		batches = append(batches, values[start:end])
	}
	return batches
}

// joinIDs renders an ID batch as the comma-separated list E-utilities expects.
func joinIDs(ids []string) string {
	return strings.Join(ids, ",")
}
