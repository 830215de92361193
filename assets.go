// Package wicket provides embedded assets for production builds.
package wicket

import "embed"

// Embedded templates for production builds.
// In dev mode (IsDev=true), templates are loaded from disk so edits show up
// without a rebuild. In production mode they are served from this embedded
// filesystem.

//go:embed all:templates
var TemplateFS embed.FS
