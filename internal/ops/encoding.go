package ops

// twoBitCode maps a base to its 2-bit code. Bases outside ACGT map to 0;
// the synthetic fixtures never produce them.
var twoBitCode = [256]byte{'A': 0, 'C': 1, 'G': 2, 'T': 3}

// packTwoBit packs a sequence four bases per byte, least significant pair
// first, and returns the packed buffer with the base count.
func packTwoBit(seq []byte) ([]byte, int) {
	packed := make([]byte, (len(seq)+3)/4)
	for i, b := range seq {
		packed[i>>2] |= twoBitCode[b] << ((i & 3) * 2)
	}
	return packed, len(seq)
}
