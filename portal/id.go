package portal

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DocumentID returns the stable identifier of the document served at
// rawURL. The fragment is ignored, so links differing only in their
// anchor share an id.
func DocumentID(providerID, rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		rawURL = rawURL[:i]
	}
	return providerID + "_" + strconv.FormatUint(xxhash.Sum64String(rawURL), 16)
}
