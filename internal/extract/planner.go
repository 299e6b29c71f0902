package extract

// planBatches splits an ordered key list into batches of at most batchSize.
// Order is preserved within and across batches and every key lands in exactly
// one batch, which is what makes the later merge collision-free.
//
// batchSize must be validated by the caller; the planner assumes > 0.
func planBatches(keyNames []string, batchSize int) [][]string {
	if len(keyNames) == 0 {
		return nil
	}

	batches := make([][]string, 0, (len(keyNames)+batchSize-1)/batchSize)
	for start := 0; start < len(keyNames); start += batchSize {
		end := start + batchSize
		if end > len(keyNames) {
			end = len(keyNames)
		}
		batches = append(batches, keyNames[start:end])
	}
	return batches
}
