package reporter

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"nairobify-be/models"
)

// Fingerprint digests the content of a submission. Each field is length
// prefixed so that moving text between fields changes the digest.
func Fingerprint(s models.Submission) string {
	d := xxhash.New()
	for _, field := range []string{s.Category, s.Description, s.Ward, s.LocationText} {
		_, _ = d.WriteString(strconv.Itoa(len(field)))
		_, _ = d.WriteString(":")
		_, _ = d.WriteString(field)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// IsDuplicate reports whether fingerprint repeats the last accepted one.
func IsDuplicate(fingerprint, last string) bool {
	return last != "" && fingerprint == last
}
