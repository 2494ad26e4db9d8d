// Package sjson implements the Bitsquid/Stingray "Simplified JSON"
// (SJSON) configuration dialect: a JSON superset with unquoted keys and
// bare string values, "=" or ":" as the key/value separator, line and
// block comments, implicit top-level braces, and triple-quoted literal
// strings.
//
// # Comments
//
// Two comment forms are recognized and treated as whitespace: line
// comments introduced by "//" and run to end of line, and block
// comments delimited by "/*" and "*/" (non-nesting).
//
//	// a line comment
//	name = Marc /* and a block comment */
//
// # Numbers
//
// Numbers are decimal only: an optional minus sign, an integer part, an
// optional fractional part, and an optional exponent.
//
//	age = 21
//	ratio = -0.5
//	big = 6.02e23
//
// A token that begins with a digit (or a sign immediately followed by a
// digit or a decimal point) always commits to the number production;
// trailing bytes glued onto it without an intervening separator are a
// syntax error rather than a new token.
//
// # Strings
//
// A quoted string is delimited by a single '"' and supports the C-style
// escapes \" \\ \/ \b \f \n \r \t and \uXXXX (with surrogate pairs for
// non-BMP scalars). A literal string is delimited by '"""' and its
// contents, which may span multiple lines, are taken verbatim with no
// escape processing.
//
//	greeting = "hi\tthere"
//	poem = """
//		roses are red
//	"""
//
// # Bare identifiers
//
// An unquoted bare word starting with a letter, underscore, or non-ASCII
// character, and continuing with those plus digits and ".-/\\+", is a
// string value -- unless it is exactly "true", "false", or "null", which
// are the boolean and null literals.
//
//	name = Marc
//	enabled = true
//	missing = null
//
// # Objects and arrays
//
// Objects are brace-delimited key/value pairs; the outermost object's
// braces are always omitted, so a whole document is just its top-level
// pairs. Arrays are bracket-delimited value lists. Commas and whitespace
// are interchangeable separators, repeatable, and optional at the end:
//
//	friends = [
//		Jessica
//		Paul
//	]
//	address = {
//		city = "Malmö"
//	}
//
// # Tagged variants
//
// A value typed as a tagged sum (see VariantRegistry) is either a bare
// identifier naming a unit case, or a single-key object naming a data
// case:
//
//	shape = Circle
//	shape = { Square = { side = 3 } }
package sjson
