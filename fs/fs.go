// Package appfs bundles the files the binaries need at runtime: SQL migrations, email templates
// and the default event registry.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/* events.yaml
var FS embed.FS
