// Package textnorm folds user text for substring matching.
package textnorm

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower приводит строку к нижнему регистру по правилам русского языка.
// cases.Caser не потокобезопасен, поэтому создаётся на каждый вызов.
func Lower(s string) string {
	return cases.Lower(language.Russian).String(s)
}
