//go:build !treesitter

package ast

// treeSitterAvailable is false in the default build; Ingest always uses the
// regex parser unless built with `-tags treesitter`.
const treeSitterAvailable = false

func parseWithTreeSitter(filePath, language, content string) (ParseResult, bool) {
	return ParseResult{}, false
}
