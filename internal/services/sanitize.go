package service

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Buyer and seller supplied text (display names, order messages, article
// names and descriptions) is stored and echoed back to other clients, so
// every write path strips markup first.
var textPolicy = bluemonday.StrictPolicy()

func sanitizeText(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}
