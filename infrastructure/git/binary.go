package git

// binarySniffLen is how many leading bytes are inspected.
const binarySniffLen = 8000

// controlByteRatio is the fraction of control bytes above which a sample
// is treated as binary.
const controlByteRatio = 0.30

// IsProbablyBinary reports whether data looks like binary content. A NUL
// byte anywhere in the sample is decisive; otherwise the sample is binary
// when more than 30% of its bytes are control characters (tab, LF and CR
// are allowed).
func IsProbablyBinary(data []byte) bool {
	sample := data
	if len(sample) > binarySniffLen {
		sample = sample[:binarySniffLen]
	}
	if len(sample) == 0 {
		return false
	}

	control := 0
	for _, b := range sample {
		if b == 0 {
			return true
		}
		if b < 32 && b != '\t' && b != '\n' && b != '\r' {
			control++
		}
	}
	return float64(control)/float64(len(sample)) > controlByteRatio
}
