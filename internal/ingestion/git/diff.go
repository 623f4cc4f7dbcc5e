package git

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/nullgraph/brain/internal/graph"
	"github.com/nullgraph/brain/internal/llm"
	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

const (
	maxDiffSummaryTokens = 500
	maxFileSizeBytes     = 500 * 1024
	maxDiffLines         = 5000
)

// FileDiff is one file's parsed unified diff (spec.md §4.4 "Diff
// enrichment").
type FileDiff struct {
	OldPath string
	NewPath string
	Status  string // added, modified, deleted, renamed, binary
	Hunks   []Hunk

	Insertions int
	Deletions  int

	SymbolsAdded    []string
	SymbolsModified []string
	SymbolsRemoved  []string
}

// Hunk is one `@@ ... @@` region of a unified diff.
type Hunk struct {
	Header  string
	Added   []string
	Removed []string
}

// Path returns the diff's effective path: NewPath, falling back to OldPath
// for deletions.
func (f FileDiff) Path() string {
	if f.NewPath != "" && f.NewPath != "/dev/null" {
		return f.NewPath
	}
	return f.OldPath
}

var (
	diffGitRe  = regexp.MustCompile(`^diff --git a/(.*) b/(.*)$`)
	hunkRe     = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@\s?(.*)$`)
	renameFrom = regexp.MustCompile(`^rename from (.*)$`)
	renameTo   = regexp.MustCompile(`^rename to (.*)$`)
)

// ParseUnifiedDiff reads a multi-file unified diff (as produced by
// `git log -p` or `git diff`) and returns one FileDiff per file section.
func ParseUnifiedDiff(r io.Reader) ([]FileDiff, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var files []FileDiff
	var cur *FileDiff
	var hunk *Hunk

	flushHunk := func() {
		if cur != nil && hunk != nil {
			cur.Hunks = append(cur.Hunks, *hunk)
			hunk = nil
		}
	}
	flushFile := func() {
		flushHunk()
		if cur != nil {
			files = append(files, *cur)
			cur = nil
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		if m := diffGitRe.FindStringSubmatch(line); m != nil {
			flushFile()
			cur = &FileDiff{OldPath: m[1], NewPath: m[2], Status: "modified"}
			continue
		}
		if cur == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "new file mode"):
			cur.Status = "added"
		case strings.HasPrefix(line, "deleted file mode"):
			cur.Status = "deleted"
		case renameFrom.MatchString(line):
			cur.Status = "renamed"
			cur.OldPath = renameFrom.FindStringSubmatch(line)[1]
		case renameTo.MatchString(line):
			cur.Status = "renamed"
			cur.NewPath = renameTo.FindStringSubmatch(line)[1]
		case strings.HasPrefix(line, "Binary files") && strings.HasSuffix(line, "differ"):
			cur.Status = "binary"
		case strings.HasPrefix(line, "--- "):
			// path already known from the diff --git header; nothing to do.
		case strings.HasPrefix(line, "+++ "):
			// same.
		default:
			if m := hunkRe.FindStringSubmatch(line); m != nil {
				flushHunk()
				hunk = &Hunk{Header: m[3]}
				continue
			}
			if hunk == nil {
				continue
			}
			switch {
			case strings.HasPrefix(line, "+"):
				hunk.Added = append(hunk.Added, strings.TrimPrefix(line, "+"))
				cur.Insertions++
			case strings.HasPrefix(line, "-"):
				hunk.Removed = append(hunk.Removed, strings.TrimPrefix(line, "-"))
				cur.Deletions++
			}
		}
	}
	flushFile()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("git: parse diff: %w", err)
	}
	return files, nil
}

// ParseUnifiedDiffString is the string-input convenience wrapper around
// ParseUnifiedDiff, used by cmd/diffparser's --stdin mode and by tests.
func ParseUnifiedDiffString(s string) ([]FileDiff, error) {
	return ParseUnifiedDiff(strings.NewReader(s))
}

// jsSymbolPatterns covers JS/JSX/TS/TSX, which all share the same
// function/class/const-arrow declaration shapes.
var jsSymbolPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)`),
	regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?class\s+(\w+)`),
	regexp.MustCompile(`^\s*(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s*)?\(`),
}

// symbolPatterns maps a file extension to the ordered list of regexes used
// to detect a defined symbol's name on a single added/removed line
// (spec.md §4.4 "per-hunk symbol detection, language-aware regexes").
var symbolPatterns = map[string][]*regexp.Regexp{
	".py":   {regexp.MustCompile(`^\s*(?:class|def)\s+(\w+)`)},
	".js":   jsSymbolPatterns,
	".jsx":  jsSymbolPatterns,
	".ts":   jsSymbolPatterns,
	".tsx":  jsSymbolPatterns,
	".go": {
		regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?(\w+)`),
		regexp.MustCompile(`^type\s+(\w+)\s+(?:struct|interface)\b`),
	},
	".rb": {regexp.MustCompile(`^\s*(?:class|module|def)\s+(\w+)`)},
	".java": {
		regexp.MustCompile(`^\s*(?:public|private|protected|static|final|\s)*(?:class|interface|enum)\s+(\w+)`),
		regexp.MustCompile(`^\s*(?:public|private|protected|static|final|\s)+[\w<>\[\],\s]+\s(\w+)\s*\(`),
	},
	".rs":  {regexp.MustCompile(`^\s*(?:pub\s+)?(?:fn|struct|enum|trait|impl)\s+(\w+)`)},
	".php": {regexp.MustCompile(`^\s*(?:public|private|protected|static|\s)*function\s+(\w+)`), regexp.MustCompile(`^\s*class\s+(\w+)`)},
}

// extractSymbols applies ext's symbol patterns to each line, returning the
// distinct captured names in first-seen order.
func extractSymbols(lines []string, ext string) []string {
	patterns, ok := symbolPatterns[ext]
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, line := range lines {
		for _, re := range patterns {
			if m := re.FindStringSubmatch(line); m != nil {
				name := m[1]
				if !seen[name] {
					seen[name] = true
					out = append(out, name)
				}
				break
			}
		}
	}
	return out
}

// hunkContextSymbol extracts the enclosing function/class name git records
// in a hunk header's trailing context (e.g. "@@ -10,5 +10,7 @@ func Foo(...)"),
// used as a last-resort symbol when a hunk touches a body without a
// detectable def/class line of its own.
// hunkContextKeywords are declaration keywords to skip past when scanning a
// hunk header's context for the symbol name that follows them.
var hunkContextKeywords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true,
	"public": true, "private": true, "protected": true, "static": true,
	"async": true, "export": true, "default": true, "fn": true, "pub": true,
	"impl": true, "struct": true, "interface": true, "module": true,
}

func hunkContextSymbol(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	fields := strings.Fields(header)
	for _, raw := range fields {
		f := strings.TrimRight(strings.Trim(raw, "(){}:*"), "(")
		if f == "" || hunkContextKeywords[strings.ToLower(f)] {
			continue
		}
		if f[0] == '_' || (f[0] >= 'A' && f[0] <= 'Z') || (f[0] >= 'a' && f[0] <= 'z') {
			return f
		}
	}
	return ""
}

// annotateSymbols fills in f.Symbols{Added,Modified,Removed} from its
// hunks, using the priority order spec.md §4.4 names: modified =
// added∩removed, then added\removed, then removed\added, then hunk-header
// context if the hunk had content but no regex match fired.
func annotateSymbols(f *FileDiff) {
	ext := strings.ToLower(filepath.Ext(f.Path()))

	var allAdded, allRemoved []string
	var contextFallbacks []string

	for _, h := range f.Hunks {
		added := extractSymbols(h.Added, ext)
		removed := extractSymbols(h.Removed, ext)
		allAdded = append(allAdded, added...)
		allRemoved = append(allRemoved, removed...)
		if len(added) == 0 && len(removed) == 0 && (len(h.Added) > 0 || len(h.Removed) > 0) {
			if sym := hunkContextSymbol(h.Header); sym != "" {
				contextFallbacks = append(contextFallbacks, sym)
			}
		}
	}

	addedSet := toSet(allAdded)
	removedSet := toSet(allRemoved)

	for name := range addedSet {
		if removedSet[name] {
			f.SymbolsModified = append(f.SymbolsModified, name)
		}
	}
	for _, name := range allAdded {
		if !removedSet[name] && !containsString(f.SymbolsModified, name) && !containsString(f.SymbolsAdded, name) {
			f.SymbolsAdded = append(f.SymbolsAdded, name)
		}
	}
	for _, name := range allRemoved {
		if !addedSet[name] && !containsString(f.SymbolsModified, name) && !containsString(f.SymbolsRemoved, name) {
			f.SymbolsRemoved = append(f.SymbolsRemoved, name)
		}
	}
	for _, name := range contextFallbacks {
		if !containsString(f.SymbolsModified, name) {
			f.SymbolsModified = append(f.SymbolsModified, name)
		}
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}

func containsString(items []string, s string) bool {
	for _, i := range items {
		if i == s {
			return true
		}
	}
	return false
}

var (
	docExtRe    = regexp.MustCompile(`(?i)\.(md|markdown|txt|rst|adoc)$`)
	testPathRe  = regexp.MustCompile(`(?i)(^|/)(test|tests|spec|specs|__tests__)(/|$)|_test\.|\.test\.|_spec\.|\.spec\.`)
	configExtRe = regexp.MustCompile(`(?i)\.(yaml|yml|json|toml|ini|cfg|conf|env)$`)

	skipPathRe = regexp.MustCompile(`(?i)(^|/)(node_modules|vendor|dist|build|\.git)(/|$)`)
	minifiedRe = regexp.MustCompile(`(?i)(\.min\.(js|css)|\.lock$|-lock\.(json|yaml)$)`)
	generatedRe = regexp.MustCompile(`(?i)(\.pb\.go$|_generated\.|\.gen\.)`)
)

// shouldSkipFile reports whether a file's diff should be excluded from
// enrichment entirely (spec.md §4.4 skip filters: vendored dirs,
// minified/lock/generated files, binary blobs, oversized diffs).
func shouldSkipFile(f FileDiff) bool {
	path := f.Path()
	if skipPathRe.MatchString(path) || minifiedRe.MatchString(path) || generatedRe.MatchString(path) {
		return true
	}
	if f.Status == "binary" {
		return true
	}
	if f.Insertions+f.Deletions > maxDiffLines {
		return true
	}
	if diffByteSize(f) > maxFileSizeBytes {
		return true
	}
	return false
}

// diffByteSize approximates the changed file's size from its diff content,
// used as a proxy for the 500 KB file-size skip filter (spec.md §4.4) since
// the diff stream doesn't carry the file's total on-disk size.
func diffByteSize(f FileDiff) int {
	size := 0
	for _, h := range f.Hunks {
		for _, l := range h.Added {
			size += len(l)
		}
		for _, l := range h.Removed {
			size += len(l)
		}
	}
	return size
}

func isDocPath(f FileDiff) bool    { return docExtRe.MatchString(f.Path()) }
func isTestPath(f FileDiff) bool   { return testPathRe.MatchString(f.Path()) }
func isConfigPath(f FileDiff) bool { return configExtRe.MatchString(f.Path()) }

func allMatch(files []FileDiff, pred func(FileDiff) bool) bool {
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if !pred(f) {
			return false
		}
	}
	return true
}

// ClassifyChangeShape implements spec.md §4.4's deterministic change_shape
// rules in priority order. Running it twice on the same files yields the
// same result (no randomness, no wall-clock input).
func ClassifyChangeShape(files []FileDiff) string {
	if len(files) == 0 {
		return "modification"
	}
	if allMatch(files, isDocPath) {
		return "documentation"
	}
	if allMatch(files, isTestPath) {
		return "test"
	}
	if allMatch(files, isConfigPath) {
		return "config_change"
	}

	totalLines, added, removed := 0, 0, 0
	hasNewSymbols, hasModifiedSymbols := false, false
	for _, f := range files {
		totalLines += f.Insertions + f.Deletions
		added += f.Insertions
		removed += f.Deletions
		hasNewSymbols = hasNewSymbols || len(f.SymbolsAdded) > 0
		hasModifiedSymbols = hasModifiedSymbols || len(f.SymbolsModified) > 0
	}

	if totalLines < 10 && !hasNewSymbols {
		return "tiny_fix"
	}
	if totalLines < 30 {
		return "small_fix"
	}

	if ratio := balanceRatio(added, removed); ratio > 0.6 && totalLines > 50 {
		if totalLines > 200 {
			return "large_refactor"
		}
		return "refactor"
	}

	if hasNewSymbols {
		return "feature_add"
	}
	if hasModifiedSymbols {
		return "feature_modify"
	}
	return "modification"
}

// balanceRatio is min(added,removed)/max(added,removed), 0 when both are 0.
// A ratio near 1 means the change added and removed roughly equal amounts —
// the signature of a pure refactor rather than a net-additive feature.
func balanceRatio(added, removed int) float64 {
	if added == 0 && removed == 0 {
		return 0
	}
	lo, hi := added, removed
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi == 0 {
		return 0
	}
	return float64(lo) / float64(hi)
}

// EnrichmentResult is one commit's computed diff enrichment, ready to be
// merged into its Commit node's content and properties.
type EnrichmentResult struct {
	Summary         string
	DiffStats       map[string]interface{}
	ChangeShape     string
	SymbolsAdded    []string
	SymbolsModified []string
	SymbolsRemoved  []string
}

// AnalyzeDiff parses raw unified-diff text, skips vendored/minified/binary/
// oversized files, annotates symbols per remaining file, and returns the
// aggregate enrichment for a single commit.
func AnalyzeDiff(raw string) (EnrichmentResult, error) {
	files, err := ParseUnifiedDiffString(raw)
	if err != nil {
		return EnrichmentResult{}, err
	}

	var kept []FileDiff
	for _, f := range files {
		if shouldSkipFile(f) {
			continue
		}
		annotateSymbols(&f)
		kept = append(kept, f)
	}

	result := EnrichmentResult{ChangeShape: ClassifyChangeShape(kept)}
	insertions, deletions := 0, 0
	var fileNames []string
	for _, f := range kept {
		insertions += f.Insertions
		deletions += f.Deletions
		fileNames = append(fileNames, f.Path())
		result.SymbolsAdded = append(result.SymbolsAdded, f.SymbolsAdded...)
		result.SymbolsModified = append(result.SymbolsModified, f.SymbolsModified...)
		result.SymbolsRemoved = append(result.SymbolsRemoved, f.SymbolsRemoved...)
	}
	result.DiffStats = map[string]interface{}{
		"files_changed": len(kept),
		"insertions":    insertions,
		"deletions":     deletions,
	}
	result.Summary = buildDiffSummary(kept, result)
	return result, nil
}

// buildDiffSummary renders a "--- Diff Summary ---" block capped at
// roughly maxDiffSummaryTokens tokens (spec.md §4.4).
func buildDiffSummary(files []FileDiff, result EnrichmentResult) string {
	var b strings.Builder
	b.WriteString("--- Diff Summary ---\n")
	b.WriteString("shape: " + result.ChangeShape + "\n")
	for _, f := range files {
		line := fmt.Sprintf("%s %s (+%d/-%d)", f.Status, f.Path(), f.Insertions, f.Deletions)
		if llm.EstimateTokens(b.String()+line) > maxDiffSummaryTokens {
			b.WriteString("... (truncated)\n")
			break
		}
		b.WriteString(line + "\n")
	}
	if len(result.SymbolsAdded) > 0 {
		b.WriteString("symbols added: " + strings.Join(result.SymbolsAdded, ", ") + "\n")
	}
	if len(result.SymbolsModified) > 0 {
		b.WriteString("symbols modified: " + strings.Join(result.SymbolsModified, ", ") + "\n")
	}
	return b.String()
}

// EnrichCommits scans {Episode, Commit} nodes for ones missing a
// diff_enriched_at property (or all of them, when unenrichedOnly is false),
// runs a single `git log -p -1 <hash>` per commit, and merges the resulting
// EnrichmentResult into the node's content and properties. Cancellable
// between commits; a commit whose diff can't be fetched or parsed is
// skipped, not fatal to the run.
func EnrichCommits(ctx context.Context, api *graph.API, repoPath string, unenrichedOnly bool) (int, error) {
	result, err := api.GetByLabel(ctx, types.LabelCommit, storage.ListOptions{Limit: 1000})
	if err != nil {
		return 0, fmt.Errorf("git: list commits: %w", err)
	}

	count := 0
	for _, node := range result.Items {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
		}

		if unenrichedOnly {
			if _, ok := node.Properties["diff_enriched_at"]; ok {
				continue
			}
		}
		hash, _ := node.Properties["commit_hash"].(string)
		if hash == "" {
			continue
		}

		diffCtx, cancel := context.WithTimeout(ctx, perCommitTimeout)
		raw, err := fetchCommitDiff(diffCtx, repoPath, hash)
		cancel()
		if err != nil {
			continue
		}

		enrichment, err := AnalyzeDiff(raw)
		if err != nil {
			continue
		}

		if err := applyEnrichment(ctx, api, node, enrichment); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func fetchCommitDiff(ctx context.Context, repoPath, hash string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "log", "-p", "-1", hash)
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git log -p %s: %w", hash, err)
	}
	return string(out), nil
}

func applyEnrichment(ctx context.Context, api *graph.API, node *types.Node, e EnrichmentResult) error {
	props := make(map[string]interface{}, len(node.Properties)+5)
	for k, v := range node.Properties {
		props[k] = v
	}
	props["diff_stats"] = e.DiffStats
	props["change_shape"] = e.ChangeShape
	props["symbols_added"] = e.SymbolsAdded
	props["symbols_modified"] = e.SymbolsModified
	props["symbols_deleted"] = e.SymbolsRemoved
	props["diff_enriched_at"] = nowISO()

	content, _ := props["content"].(string)
	content = strings.TrimSpace(content) + "\n\n" + e.Summary
	props["content"] = content

	updated := &types.Node{
		ID:         node.ID,
		Labels:     node.Labels,
		Properties: props,
		Memory:     node.Memory,
	}
	return api.AddNodeRaw(ctx, updated)
}

func nowISO() string {
	return timeNow().UTC().Format(time.RFC3339)
}

// timeNow is overridable in tests that need a deterministic enriched_at.
var timeNow = time.Now
