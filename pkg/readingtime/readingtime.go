// Package readingtime estimates how long a post takes to read.
package readingtime

import (
	"math"
	"strings"

	"golang.org/x/net/html"
)

// DefaultWPM is the reading speed used when none is configured
const DefaultWPM = 200

// Rounding selects how a fractional minute count becomes whole minutes
type Rounding string

const (
	RoundUp      Rounding = "ceil"
	RoundNearest Rounding = "nearest"
)

// Estimator turns a word count into minutes. The zero value reads at
// DefaultWPM and rounds up.
type Estimator struct {
	WPM      int
	Rounding Rounding
}

// New returns an estimator, falling back to the defaults for invalid input
func New(wpm int, rounding string) Estimator {
	if wpm <= 0 {
		wpm = DefaultWPM
	}
	r := Rounding(strings.ToLower(rounding))
	if r != RoundNearest {
		r = RoundUp
	}
	return Estimator{WPM: wpm, Rounding: r}
}

// Minutes returns the reading time of plain text, never less than one minute
func (e Estimator) Minutes(text string) int {
	return e.fromWords(len(strings.Fields(text)))
}

// MinutesHTML strips markup before counting words
func (e Estimator) MinutesHTML(content string) int {
	return e.Minutes(StripTags(content))
}

func (e Estimator) fromWords(words int) int {
	wpm := e.WPM
	if wpm <= 0 {
		wpm = DefaultWPM
	}
	ratio := float64(words) / float64(wpm)

	var minutes int
	if e.Rounding == RoundNearest {
		minutes = int(math.RoundToEven(ratio))
	} else {
		minutes = int(math.Ceil(ratio))
	}
	if minutes < 1 {
		return 1
	}
	return minutes
}

// StripTags returns the text nodes of an HTML fragment separated by spaces.
// Script and style bodies are dropped.
func StripTags(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; keep what was read
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawText(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawText(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isRawText(tag []byte) bool {
	s := string(tag)
	return s == "script" || s == "style"
}
