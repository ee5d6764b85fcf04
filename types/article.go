package types

import "unicode"

// Article returns the indefinite article for name: "an" when the name starts
// with a vowel letter, "a" otherwise.
func Article(name string) string {
	for _, r := range name {
		switch unicode.ToLower(r) {
		case 'a', 'e', 'i', 'o', 'u':
			return "an"
		}
		return "a"
	}
	return "a"
}

// WithArticle prefixes name with its indefinite article.
func WithArticle(name string) string {
	return Article(name) + " " + name
}
