// Package data provides the embedded level generation plans.
package data

import "embed"

// dataFS embeds all YAML files from the data directory at build time.
//
//go:embed *.yaml
var dataFS embed.FS

// FS returns the embedded filesystem containing plan files.
func FS() embed.FS {
	return dataFS
}
