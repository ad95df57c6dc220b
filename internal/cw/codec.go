package cw

import (
	"strings"

	"github.com/samber/lo"
)

// WordSeparator is the Morse token standing for a space between words
const WordSeparator = "/"

// UnknownChar replaces a Morse token with no entry in the code table
const UnknownChar = '?'

// Entry is one row of the code table
type Entry struct {
	Char rune
	Code string
}

// codeTable lists every codable character in reference display order:
// letters, digits, then punctuation.
var codeTable = []Entry{
	{'A', ".-"}, {'B', "-..."}, {'C', "-.-."}, {'D', "-.."}, {'E', "."},
	{'F', "..-."}, {'G', "--."}, {'H', "...."}, {'I', ".."}, {'J', ".---"},
	{'K', "-.-"}, {'L', ".-.."}, {'M', "--"}, {'N', "-."}, {'O', "---"},
	{'P', ".--."}, {'Q', "--.-"}, {'R', ".-."}, {'S', "..."}, {'T', "-"},
	{'U', "..-"}, {'V', "...-"}, {'W', ".--"}, {'X', "-..-"}, {'Y', "-.--"},
	{'Z', "--.."},
	{'0', "-----"}, {'1', ".----"}, {'2', "..---"}, {'3', "...--"}, {'4', "....-"},
	{'5', "....."}, {'6', "-...."}, {'7', "--..."}, {'8', "---.."}, {'9', "----."},
	{'.', ".-.-.-"}, {',', "--..--"}, {'?', "..--.."}, {'\'', ".----."}, {'!', "-.-.--"},
	{'/', "-..-."}, {'(', "-.--."}, {')', "-.--.-"}, {'&', ".-..."}, {':', "---..."},
	{';', "-.-.-."}, {'=', "-...-"}, {'+', ".-.-."}, {'-', "-....-"}, {'_', "..--.-"},
	{'"', ".-..-."}, {'$', "...-..-"}, {'@', ".--.-."},
}

var (
	toMorse   map[rune]string
	fromMorse map[string]rune
)

func init() {
	toMorse = make(map[rune]string, len(codeTable))
	fromMorse = make(map[string]rune, len(codeTable))
	for _, e := range codeTable {
		toMorse[e.Char] = e.Code
		fromMorse[e.Code] = e.Char
	}
}

// Table returns a copy of the code table in display order
func Table() []Entry {
	out := make([]Entry, len(codeTable))
	copy(out, codeTable)
	return out
}

// Lookup returns the Morse code for an uppercase character
func Lookup(r rune) (string, bool) {
	code, ok := toMorse[r]
	return code, ok
}

// Reverse returns the character for a Morse code
func Reverse(code string) (rune, bool) {
	r, ok := fromMorse[code]
	return r, ok
}

// Encode converts text to a Morse string. Input is uppercased, a space
// becomes the word separator and characters outside the table are dropped.
func Encode(text string) string {
	if text == "" {
		return ""
	}
	tokens := lo.FilterMap([]rune(strings.ToUpper(text)), func(r rune, _ int) (string, bool) {
		if r == ' ' {
			return WordSeparator, true
		}
		return Lookup(r)
	})
	return strings.Join(tokens, " ")
}

// Decode converts a Morse string to text. Tokens are split on single
// spaces; unknown tokens decode to UnknownChar. Decode never fails.
func Decode(morse string) string {
	if morse == "" {
		return ""
	}
	var b strings.Builder
	for _, token := range strings.Split(morse, " ") {
		if token == WordSeparator {
			b.WriteRune(' ')
			continue
		}
		if r, ok := Reverse(token); ok {
			b.WriteRune(r)
		} else {
			b.WriteRune(UnknownChar)
		}
	}
	return b.String()
}
