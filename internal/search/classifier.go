package search

import (
	"net/http"
	"strings"
)

// The remote service has no structured not-found response; an empty result is
// recognized by these two template phrases appearing together in the body.
const (
	noRecordSignature = "NO RECORD FOUND"
	contactSignature  = "PLEASE CONTACT EXCISE"
)

// previewRunes bounds body previews embedded in events.
const previewRunes = 300

// Classify maps one raw outcome onto the search taxonomy. Any non-200 status
// is a ProtocolError regardless of body; a 200 body carrying both empty-result
// signature phrases, case-insensitively, is a NoMatch; any other 200 body is a
// Match.
func Classify(out Outcome) Classification {
	if out.StatusCode != http.StatusOK {
		return ProtocolError
	}
	body := strings.ToUpper(out.Body)
	if strings.Contains(body, noRecordSignature) && strings.Contains(body, contactSignature) {
		return NoMatch
	}
	return Match
}

// Preview returns the first previewRunes characters of body with newlines and
// tabs collapsed to spaces, suitable for one-line log events.
func Preview(body string) string {
	runes := []rune(body)
	if len(runes) > previewRunes {
		runes = runes[:previewRunes]
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(string(runes))
}
