package logstore

import (
	"github.com/logwell/logwell/pkg/id"
)

// Key layout: logs/<project>/<16-byte id>. The id's big-endian timestamp
// prefix makes lexical key order equal chronological order per project.

func recordKey(project string, rid id.ID) []byte {
	k := make([]byte, 0, 5+len(project)+1+16)
	k = append(k, "logs/"...)
	k = append(k, project...)
	k = append(k, '/')
	k = append(k, rid.Bytes()...)
	return k
}

// projectBounds returns the [lower, upper) iteration bounds covering every
// record key for the project.
func projectBounds(project string) (lower, upper []byte) {
	lower = make([]byte, 0, 5+len(project)+1)
	lower = append(lower, "logs/"...)
	lower = append(lower, project...)
	lower = append(lower, '/')

	upper = append([]byte(nil), lower...)
	// '/'+1: first byte past any record key for this project.
	upper[len(upper)-1] = '0'
	return lower, upper
}
