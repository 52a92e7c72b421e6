package ingest

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/RagBot/internal/adapter/utils"
	"github.com/akolanti/RagBot/internal/domain/commonModels"
)

// BuildDocument derives the metadata for one loaded file: a fresh id, a
// display title, keywords and a category taken from the folder layout.
func BuildDocument(ld LoadedDoc, text string) commonModels.Document {
	return commonModels.Document{
		Id:                  utils.GetNewUUID(),
		Name:                ld.Name,
		Title:               deriveTitle(text, ld.Name),
		Keywords:            deriveKeywords(text, 5),
		Category:            deriveCategory(ld.Name),
		LastIngestTimestamp: time.Now(),
		ContentType:         ld.Type,
	}
}

// deriveTitle picks the first substantial line near the top of the text,
// the file name when nothing qualifies.
func deriveTitle(text string, fallback string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimLeft(line, "# \t"))
		if utf8.RuneCountInString(line) > 20 {
			return truncateRunes(line, 100)
		}
	}
	return fallback
}

var wordPattern = regexp.MustCompile(`\pL{5,}`)

// deriveKeywords returns the most frequent long words. Crude, but enough
// for the metadata view and for eyeballing what a document is about.
func deriveKeywords(text string, max int) []string {
	counts := make(map[string]int)
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		counts[w]++
	}
	if len(counts) == 0 {
		return nil
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > max {
		words = words[:max]
	}
	return words
}

// deriveCategory uses the first folder under the docs root, "general" for
// files sitting at the top level.
func deriveCategory(name string) string {
	if i := strings.IndexByte(name, '/'); i > 0 {
		return name[:i]
	}
	return "general"
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
