package jvmfmt

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Modified UTF-8 as used by CONSTANT_Utf8_info:
//   - U+0000 is encoded as the two bytes 0xC0 0x80
//   - supplementary characters are encoded as two 3-byte surrogates
//   - there is no 4-byte form

func decodeModifiedUTF8(b []byte) string {
	ascii := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}

	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			// Malformed byte: keep it as a replacement so lengths stay sane.
			units = append(units, utf8.RuneError)
			i++
		}
	}
	return string(utf16.Decode(units))
}

func encodeModifiedUTF8(s string) []byte {
	simple := true
	for i := 0; i < len(s); i++ {
		if s[i] == 0 || s[i] >= 0x80 {
			simple = false
			break
		}
	}
	if simple {
		return []byte(s)
	}

	var b strings.Builder
	for _, u := range utf16.Encode([]rune(s)) {
		switch {
		case u != 0 && u < 0x80:
			b.WriteByte(byte(u))
		case u < 0x800:
			b.WriteByte(byte(0xC0 | (u>>6)&0x1F))
			b.WriteByte(byte(0x80 | u&0x3F))
		default:
			b.WriteByte(byte(0xE0 | (u>>12)&0x0F))
			b.WriteByte(byte(0x80 | (u>>6)&0x3F))
			b.WriteByte(byte(0x80 | u&0x3F))
		}
	}
	return []byte(b.String())
}
