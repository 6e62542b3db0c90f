// Package parser exposes the grammar-description-language parser under its
// own import path for callers, such as the LR driver's tests, that need to
// depend on the parser without depending on the rest of the grammar package.
package parser

import (
	"io"

	grammar "github.com/gramforge/gramforge/spec/grammar"
)

func Parse(src io.Reader) (*grammar.RootNode, error) {
	return grammar.Parse(src)
}
