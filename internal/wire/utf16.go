package wire

// EncodeUTF16NUL encodes s as UTF-16LE with a two-byte NUL terminator,
// restricted to the Basic Multilingual Plane. It panics if s contains a
// code point that would require a surrogate pair; DirectPlay session
// and player names are never expected to.
func EncodeUTF16NUL(s string) []byte {
	buf := make([]byte, 0, len(s)*2+2)
	for _, r := range s {
		if r > 0xFFFF {
			panic("wire: EncodeUTF16NUL: code point outside the BMP")
		}
		var b [2]byte
		le.PutUint16(b[:], uint16(r))
		buf = append(buf, b[:]...)
	}
	return append(buf, 0, 0)
}

// DecodeUTF16NUL decodes a UTF-16LE NUL-terminated string starting at
// the beginning of buf, returning the decoded text and the number of
// bytes consumed including the terminator. Decoding is BMP-only and
// stops silently (without error) on a truncated trailing code unit,
// matching the behavior of the original DirectPlay host this protocol
// was reverse engineered from.
func DecodeUTF16NUL(buf []byte) (string, int) {
	var r []rune
	i := 0
	for i+1 < len(buf) {
		u := le.Uint16(buf[i : i+2])
		i += 2
		if u == 0 {
			return string(r), i
		}
		r = append(r, rune(u))
	}
	return string(r), i
}
