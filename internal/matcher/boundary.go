package matcher

// checkCharBoundary reports whether pos is a valid character boundary in
// src, per spec.md §4.1.4. It walks backward to the nearest ASCII byte (or
// the start of src), then decodes forward character by character; if the
// cumulative walk lands exactly on pos, the position is a boundary.
func checkCharBoundary(src []byte, pos int) bool {
	posASCII := pos
	if posASCII > 0 {
		posASCII--
	}
	for posASCII > 0 {
		if src[posASCII] <= 0x7f {
			break
		}
		posASCII--
	}

	check := posASCII
	for check < pos {
		check += charWidth(src, check)
	}
	return check == pos
}

// charWidth classifies the byte run starting at pos and returns its width
// in bytes, per the leading-byte table in spec.md §4.1.4.
func charWidth(src []byte, pos int) int {
	n := len(src)
	at := func(off int) (byte, bool) {
		i := pos + off
		if i >= n {
			return 0, false
		}
		return src[i], true
	}

	b0 := src[pos]
	b1, ok1 := at(1)
	b2, ok2 := at(2)
	b3, ok3 := at(3)

	switch {
	case b0 <= 0x7f:
		return 1 // ASCII

	case b0 >= 0xf0 && b0 <= 0xf7 && ok1 && isCont(b1) && ok2 && isCont(b2) && ok3 && isCont(b3):
		return 4 // UTF-8

	case b0 >= 0xe0 && b0 <= 0xef && ok1 && isCont(b1) && ok2 && isCont(b2):
		return 3 // UTF-8

	case b0 >= 0xc2 && b0 <= 0xdf && ok1 && isCont(b1):
		return 2 // UTF-8

	case b0 == 0x8e && ok1 && b1 >= 0xa1 && b1 <= 0xdf:
		return 2 // EUC-JP

	case b0 >= 0xa1 && b0 <= 0xfe && ok1 && b1 >= 0xa1 && b1 <= 0xfe:
		return 2 // EUC-JP

	case (b0 >= 0x81 && b0 <= 0x9f) || (b0 >= 0xe0 && b0 <= 0xef):
		if ok1 && ((b1 >= 0x40 && b1 <= 0xfc) && b1 != 0x7f) {
			return 2 // Shift-JIS
		}
		return 1

	default:
		return 1 // fallback
	}
}

func isCont(b byte) bool {
	return b >= 0x80 && b <= 0xbf
}
