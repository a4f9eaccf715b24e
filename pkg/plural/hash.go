package plural

// Hash is the word-wise FNV-1a variant used to key select markup values:
// the input is consumed in little-endian 4-byte words, then the tail bytes
// are folded big-endian into one final word.
func Hash(s string) uint32 {
	const (
		basis uint32 = 0x811C9DC5
		prime uint32 = 0x01000193
	)
	h := basis
	n := len(s) / 4
	for i := 0; i < n; i++ {
		w := uint32(s[4*i]) | uint32(s[4*i+1])<<8 | uint32(s[4*i+2])<<16 | uint32(s[4*i+3])<<24
		h *= prime
		h ^= w
	}
	tail := s[4*n:]
	if len(tail) > 0 {
		var w uint32
		for i := 0; i < len(tail); i++ {
			w = w<<8 + uint32(tail[i])
		}
		h *= prime
		h ^= w
	}
	return h
}
