package sheets

import "regexp"

var (
	publishedIDPattern = regexp.MustCompile(`/d/e/([a-zA-Z0-9_-]+)`)
	documentIDPattern  = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
)

// ExtractDocumentID returns the document identifier embedded in a Google Forms
// or Sheets link. The published-form shape /d/e/<id> is tried before /d/<id>.
func ExtractDocumentID(link string) (string, bool) {
	if link == "" {
		return "", false
	}
	if m := publishedIDPattern.FindStringSubmatch(link); m != nil {
		return m[1], true
	}
	if m := documentIDPattern.FindStringSubmatch(link); m != nil {
		return m[1], true
	}
	return "", false
}

// SameDocument reports whether both links resolve to the same document identifier.
func SameDocument(a, b string) bool {
	idA, okA := ExtractDocumentID(a)
	idB, okB := ExtractDocumentID(b)
	return okA && okB && idA == idB
}
