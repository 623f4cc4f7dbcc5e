package types

import (
	"crypto/md5" //nolint:gosec // content-fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// NodeID derives the deterministic 8-hex-char ID for a (title, labels) pair:
// first 8 hex chars of md5(title | sorted_labels_joined_by_pipe). Re-inserting
// the same (title, labels) always yields the same ID, which is what makes
// add_memory an upsert instead of a duplicate-producing insert (spec.md §9).
func NodeID(title string, labels []string) string {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	key := title + "|" + strings.Join(sorted, "|")
	sum := md5.Sum([]byte(key)) //nolint:gosec
	return hex.EncodeToString(sum[:])[:8]
}

// CodeNodeID derives the deterministic ID for a source-code symbol. It
// includes the file path so that same-named symbols in different files
// coexist (spec.md §3): md5(file_path:qualified_name|label)[:16].
func CodeNodeID(filePath, qualifiedName, label string) string {
	key := fmt.Sprintf("%s:%s|%s", filePath, qualifiedName, label)
	sum := md5.Sum([]byte(key)) //nolint:gosec
	return hex.EncodeToString(sum[:])[:16]
}

// ThemeID derives the deterministic ID for a synthetic Theme node
// (spec.md §4.6 "Themes"): md5("Theme: <scope>|Theme")[:8].
func ThemeID(scope string) string {
	return NodeID("Theme: "+scope, []string{LabelTheme})
}

// PersonID derives the canonical ID for a Person node keyed by email or name.
func PersonID(key string) string {
	return "person-" + key
}

// DomainID derives the canonical ID for a Domain node keyed by domain name.
func DomainID(name string) string {
	return "domain-" + name
}
