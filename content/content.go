// Package content bundles the site's static content into the binary.
package content

import "embed"

//go:embed settings.json events.json spots/*.json
var FS embed.FS
