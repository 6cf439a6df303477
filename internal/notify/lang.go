package notify

import "unicode/utf8"

type Language string

const (
	English  Language = "en"
	Japanese Language = "ja"

	asciiThreshold = 0.85
)

// DetectLanguage guesses the language of a title from the share of ASCII
// characters in it. Anything above 85% ASCII, and the empty string, is
// English. Everything else is treated as Japanese.
func DetectLanguage(text string) Language {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return English
	}

	ascii := 0
	for _, r := range text {
		if r < utf8.RuneSelf {
			ascii++
		}
	}
	if float64(ascii)/float64(total) > asciiThreshold {
		return English
	}
	return Japanese
}
