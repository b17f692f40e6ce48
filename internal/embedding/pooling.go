package embedding

// MeanPool averages the token vectors of hidden ([seqLen, dims], row-major)
// whose attention mask is set. With an all-zero mask the result is zero.
func MeanPool(hidden []float32, mask []int64, seqLen, dims int) []float32 {
	pooled := make([]float32, dims)
	if len(hidden) < seqLen*dims {
		seqLen = len(hidden) / dims
	}
	var count float32
	for t := 0; t < seqLen && t < len(mask); t++ {
		if mask[t] == 0 {
			continue
		}
		row := hidden[t*dims : (t+1)*dims]
		for i, v := range row {
			pooled[i] += v
		}
		count++
	}
	if count == 0 {
		return pooled
	}
	for i := range pooled {
		pooled[i] /= count
	}
	return pooled
}
