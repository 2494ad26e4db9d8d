package sjson

// token is a single lexical unit produced by the scanner. Kind is not
// stored explicitly; callers classify a token from its first byte (a
// punctuator byte, a quote, or anything else meaning identifier/number),
// with one token of lookahead. Raw is a slice into the original input for unquoted tokens
// and includes the surrounding quotes for string tokens, so that the
// decoder can tell a literal (triple-quoted) string from a regular one
// by inspecting the prefix.
type token struct {
	offset int
	raw    []byte
}

func (t token) isPunct(b byte) bool {
	return len(t.raw) == 1 && t.raw[0] == b
}

func (t token) isQuoted() bool {
	return len(t.raw) > 0 && t.raw[0] == '"'
}

func (t token) isLiteralString() bool {
	return len(t.raw) >= 6 && t.raw[0] == '"' && t.raw[1] == '"' && t.raw[2] == '"'
}

// numStartChar reports whether b commits the scanner to the number
// production: any digit, or a sign immediately followed by a digit or a
// decimal point, always starts a number token.
func numStartChar(data []byte, i int) bool {
	if i >= len(data) {
		return false
	}
	b := data[i]
	if b >= '0' && b <= '9' {
		return true
	}
	if b == '-' || b == '+' {
		return i+1 < len(data) && (isDigit(data[i+1]) || data[i+1] == '.')
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// identStartByte reports whether b may start a bare identifier: a
// letter, an underscore, or the lead byte of a non-ASCII UTF-8 scalar.
func identStartByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}

// identContinueByte reports whether b may continue a bare identifier.
func identContinueByte(b byte) bool {
	return identStartByte(b) || isDigit(b) ||
		b == '.' || b == '-' || b == '/' || b == '\\' || b == '+'
}
