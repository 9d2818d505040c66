// Package databases ships the sample database used by the CLI when no
// catalog directory is configured.
package databases

import "embed"

// Content holds sample/meta.json and one meta.json per table directory.
//
//go:embed sample
var Content embed.FS

// SampleDir is the root of the sample database inside Content.
const SampleDir = "sample"
