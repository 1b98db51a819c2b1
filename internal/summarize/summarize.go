// Package summarize builds short extractive summaries from article text.
package summarize

import (
	"regexp"
	"strings"
)

// Messages returned in place of a summary.
const (
	MsgUnable   = "Unable to summarize."
	MsgNotFound = "Publication not found."
	MsgBadID    = "Invalid or missing publication ID"
	MsgNoText   = "No abstract/sections available to summarize."
)

var sentenceRE = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Sentences splits text into sentences, keeping their terminators. Text with
// no terminator is returned as a single sentence.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	matches := sentenceRE.FindAllString(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// Lead returns the first n sentences of text. When that yields nothing the
// first 400 characters are used instead.
func Lead(text string, n int) string {
	sentences := Sentences(text)
	if n < len(sentences) {
		sentences = sentences[:n]
	}
	if s := strings.TrimSpace(strings.Join(sentences, " ")); s != "" {
		return s
	}
	r := []rune(strings.TrimSpace(text))
	if len(r) > 400 {
		return string(r[:400]) + "…"
	}
	return string(r)
}

// Extractive summarizes by taking leading sentences within a word budget.
type Extractive struct {
	MinWords int
	MaxWords int
}

// Bounds returns the word budget for a text of the given length:
// maxLen = min(tokens, MaxWords), minLen = min(max(maxLen/2, MinWords)+5, maxLen).
func (x Extractive) Bounds(tokens int) (minLen, maxLen int) {
	maxLen = min(tokens, x.MaxWords)
	minLen = min(max(maxLen/2, x.MinWords)+5, maxLen)
	return minLen, maxLen
}

// Summarize returns the leading sentences of text, at least minLen and at
// most maxLen words long. It returns "" for empty text.
func (x Extractive) Summarize(text string) string {
	tokens := len(strings.Fields(text))
	if tokens == 0 {
		return ""
	}
	minLen, maxLen := x.Bounds(tokens)

	var words []string
	for _, s := range Sentences(text) {
		if len(words) >= minLen {
			break
		}
		sw := strings.Fields(s)
		if len(words)+len(sw) > maxLen {
			sw = sw[:maxLen-len(words)]
			words = append(words, sw...)
			break
		}
		words = append(words, sw...)
	}
	out := strings.Join(words, " ")
	if !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "!") && !strings.HasSuffix(out, "?") {
		out += "…"
	}
	return out
}
