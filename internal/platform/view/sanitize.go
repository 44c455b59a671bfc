package view

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainPolicyOnce sync.Once
	plainPolicy     *bluemonday.Policy
)

// PlainText strips all markup from user-entered text for display. The result
// is already HTML-escaped.
func PlainText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	plainPolicyOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()
	})
	return plainPolicy.Sanitize(raw)
}
