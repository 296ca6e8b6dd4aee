// Package scripts holds the built-in crash-log filter scripts.
package scripts

import "embed"

// FS contains filters/*.risor.
//
//go:embed filters/*.risor
var FS embed.FS
