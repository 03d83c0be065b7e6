package style

import (
	"strings"

	"github.com/fatih/camelcase"
	"github.com/gertd/go-pluralize"
)

var pluralizeClient = pluralize.NewClient()

// Count formats n with the singular or plural form of word, e.g. "1 fit",
// "3 fits".
func Count(n int, word string) string {
	return pluralizeClient.Pluralize(word, n, true)
}

// Title turns a camel case label into a column title, e.g. "windowSize" into
// "Window Size".
func Title(label string) string {
	words := camelcase.Split(strings.TrimPrefix(label, "/"))
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
