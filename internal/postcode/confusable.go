package postcode

// digitsFor maps a letter to the digits it is commonly misread as, most
// likely first.
var digitsFor = map[byte][]byte{
	'O': {'0'},
	'I': {'1'},
	'L': {'1'},
	'Z': {'2'},
	'S': {'5'},
	'G': {'6'},
	'B': {'8'},
}

// lettersFor maps a digit to the letters it is commonly misread as.
var lettersFor = map[byte][]byte{
	'0': {'O'},
	'1': {'I', 'L'},
	'2': {'Z'},
	'5': {'S'},
	'6': {'G'},
	'8': {'B'},
}

// confusables returns the substitutes for ch that belong to class (a letter
// class 'A' or digit class '9'). The result is nil when ch already belongs to
// the class or has no known lookalike in it.
func confusables(ch byte, class byte) []byte {
	if classOf(ch) == class {
		return nil
	}
	if class == classDigit {
		return digitsFor[ch]
	}
	return lettersFor[ch]
}

// fixable reports whether ch is, or can be confused with, a member of class.
func fixable(ch byte, class byte) bool {
	return classOf(ch) == class || len(confusables(ch, class)) > 0
}
