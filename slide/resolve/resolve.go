// Package resolve maps a consultant name typed by a user onto a CV file name.
package resolve

import (
	"path"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
)

// Extension is the file extension of CV documents.
const Extension = ".pptx"

const placeholderPrefix = "CV_Placeholder"

// ExactFilename is the file name a CV for name is expected to have.
func ExactFilename(name string) string {
	base := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	return strings.ReplaceAll(base, "-", "") + Extension
}

// Resolve returns the CV file for name. An exact file name match wins; otherwise the first
// file whose stem contains every name token is returned. Callers pass available sorted so
// that ties resolve to the lexicographically first file.
func Resolve(name string, available []string) (string, bool) {
	if strings.TrimSpace(name) == "" {
		return "", false
	}
	exact := ExactFilename(name)
	for _, file := range available {
		if file == exact {
			return file, true
		}
	}

	fold := cases.Fold()
	tokens := strings.Fields(fold.String(name))
	for _, file := range available {
		stem := fold.String(strings.TrimSuffix(file, path.Ext(file)))
		if containsAll(stem, tokens) {
			return file, true
		}
	}
	return "", false
}

// Candidates keeps the CV documents of a listing, sorted.
func Candidates(files []string) []string {
	out := make([]string, 0, len(files))
	for _, file := range files {
		base := path.Base(file)
		if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
			continue
		}
		if strings.EqualFold(path.Ext(base), Extension) {
			out = append(out, file)
		}
	}
	sort.Strings(out)
	return out
}

// Listable keeps the CVs that should be offered to users; placeholder CVs are hidden.
func Listable(files []string) []string {
	candidates := Candidates(files)
	out := candidates[:0]
	for _, file := range candidates {
		if !strings.HasPrefix(path.Base(file), placeholderPrefix) {
			out = append(out, file)
		}
	}
	return out
}

// Suggest ranks up to n files that loosely resemble name, best first.
func Suggest(name string, available []string, n int) []string {
	fold := cases.Fold()
	pattern := strings.Join(strings.Fields(fold.String(name)), "")
	if pattern == "" || n <= 0 {
		return nil
	}
	stems := make([]string, len(available))
	for i, file := range available {
		stems[i] = fold.String(strings.TrimSuffix(file, path.Ext(file)))
	}

	matches := fuzzy.Find(pattern, stems)
	if len(matches) > n {
		matches = matches[:n]
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, available[m.Index])
	}
	return out
}

func containsAll(text string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, token := range tokens {
		if !strings.Contains(text, token) {
			return false
		}
	}
	return true
}
