// Package git ingests commit history and unified diffs into the graph
// (spec.md §4.4 "Git ingestion" / "Diff enrichment"). It shells out to the
// git CLI rather than linking a Go git library, the same idiom
// internal/attribution uses for `git config` — there is no dependency on
// repository storage format internals and no CGO.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nullgraph/brain/internal/graph"
	"github.com/nullgraph/brain/pkg/types"
)

const (
	maxFilesFetched  = 10
	maxFilesKept     = 5
	maxTitleRunes    = 100
	logBatchTimeout  = 120 * time.Second
	perCommitTimeout = 30 * time.Second
)

// commitTypeLabels maps a conventional-commits type to the episode subtype
// label spec.md §4.4 assigns. Types absent here (style, chore, ci, build,
// revert, or anything unrecognized) get no extra label.
var commitTypeLabels = map[string]string{
	"feat":     types.LabelFeature,
	"fix":      types.LabelBugFix,
	"docs":     types.LabelDocumentation,
	"refactor": types.LabelRefactor,
	"test":     types.LabelTesting,
	"perf":     types.LabelPerformance,
}

var (
	conventionalTypeRe = regexp.MustCompile(`^(feat|fix|docs|style|refactor|test|chore|perf|ci|build|revert)[(:]`)
	scopeRe            = regexp.MustCompile(`^[a-z]+\(([^)]+)\)`)

	// recordSep/fieldSep delimit git log records and fields. Using control
	// characters instead of "|" avoids ambiguity with pipe characters that
	// can legitimately appear in a commit subject or body.
	recordSep = "\x1e"
	fieldSep  = "\x1f"
)

// Commit is one parsed `git log` entry before it becomes a graph node.
type Commit struct {
	Hash        string
	AuthorName  string
	AuthorEmail string
	Date        time.Time
	Subject     string
	Body        string
	Type        string
	Scope       string
	Files       []string
}

// IngestCommits reads up to maxCommits non-merge commits from repoPath and
// upserts each as a {Episode, Commit, ...} node (spec.md §4.4). Best-effort:
// a commit whose file list can't be fetched is still ingested with an empty
// file list. Returns the number of commits ingested and stops (returning a
// partial count) if ctx is canceled between commits.
func IngestCommits(ctx context.Context, api *graph.API, repoPath string, maxCommits int) (int, error) {
	logCtx, cancel := context.WithTimeout(ctx, logBatchTimeout)
	raw, err := fetchLog(logCtx, repoPath, maxCommits)
	cancel()
	if err != nil {
		return 0, err
	}

	commits := parseLog(raw)
	count := 0
	for _, c := range commits {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
		}

		fileCtx, fileCancel := context.WithTimeout(ctx, perCommitTimeout)
		files, err := fetchFiles(fileCtx, repoPath, c.Hash)
		fileCancel()
		if err == nil {
			c.Files = files
		}
		// A failed file fetch is not reported; ingestion proceeds with
		// c.Files left nil, matching spec.md §4.4 "files are fetched
		// best-effort".

		if _, err := addCommitNode(ctx, api, c); err != nil {
			return count, fmt.Errorf("git: add commit %s: %w", c.Hash, err)
		}
		count++
	}
	return count, nil
}

func fetchLog(ctx context.Context, repoPath string, maxCommits int) (string, error) {
	args := []string{
		"log", "--no-merges",
		fmt.Sprintf("-%d", maxCommits),
		"--pretty=format:%H" + fieldSep + "%an" + fieldSep + "%ae" + fieldSep + "%aI" + fieldSep + "%s" + fieldSep + "%b" + recordSep,
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoPath
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git log: %w: %s", err, stderr.String())
	}
	return string(out), nil
}

func fetchFiles(ctx context.Context, repoPath, hash string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff-tree", "--no-commit-id", "--name-only", "-r", hash)
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff-tree %s: %w", hash, err)
	}
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		files = append(files, line)
		if len(files) >= maxFilesFetched {
			break
		}
	}
	return files, nil
}

// parseLog splits raw `git log` output (produced by fetchLog's format
// string) into Commit records.
func parseLog(raw string) []Commit {
	var out []Commit
	for _, record := range strings.Split(raw, recordSep) {
		record = strings.Trim(record, "\n")
		if record == "" {
			continue
		}
		parts := strings.SplitN(record, fieldSep, 6)
		if len(parts) < 5 {
			continue
		}
		c := Commit{
			Hash:        parts[0],
			AuthorName:  parts[1],
			AuthorEmail: parts[2],
			Subject:     parts[4],
		}
		if len(parts) == 6 {
			c.Body = strings.TrimSpace(parts[5])
		}
		if t, err := time.Parse(time.RFC3339, parts[3]); err == nil {
			c.Date = t
		}
		c.Type, c.Scope = classifySubject(c.Subject)
		out = append(out, c)
	}
	return out
}

// classifySubject extracts the conventional-commits type (spec.md §4.4:
// feat|fix|docs|style|refactor|test|chore|perf|ci|build|revert, else
// "other") and, when present, its parenthesized scope.
func classifySubject(subject string) (commitType, scope string) {
	lower := strings.ToLower(subject)
	commitType = "other"
	if m := conventionalTypeRe.FindStringSubmatch(lower); m != nil {
		commitType = m[1]
	}
	if m := scopeRe.FindStringSubmatch(lower); m != nil {
		scope = m[1]
	}
	return
}

// scopeDomainLabel turns a commit scope into the "<Scope>Domain" label
// spec.md §4.4 names, e.g. "api-gateway" -> "ApiGatewayDomain". Empty or
// implausibly long scopes (>30 chars once stripped) yield no label.
func scopeDomainLabel(scope string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(scope, func(r rune) bool { return r == '-' || r == '_' }) {
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	cleaned := b.String()
	if cleaned == "" || len(cleaned) > 30 {
		return ""
	}
	return cleaned + "Domain"
}

func addCommitNode(ctx context.Context, api *graph.API, c Commit) (string, error) {
	labels := []string{types.LabelEpisode, types.LabelCommit}
	if l, ok := commitTypeLabels[c.Type]; ok {
		labels = append(labels, l)
	}
	if l := scopeDomainLabel(c.Scope); l != "" {
		labels = append(labels, l)
	}

	kept := c.Files
	if len(kept) > maxFilesKept {
		kept = kept[:maxFilesKept]
	}
	filesLine := "N/A"
	if len(kept) > 0 {
		filesLine = strings.Join(kept, ", ")
	}
	content := strings.TrimSpace(fmt.Sprintf("%s\n\n%s\n\n**Files changed:** %s", c.Subject, c.Body, filesLine))

	props := map[string]interface{}{
		"commit_hash": c.Hash,
		"commit_type": c.Type,
		"files":       kept,
	}
	if c.Scope != "" {
		props["scope"] = c.Scope
	}
	if !c.Date.IsZero() {
		props["date"] = c.Date.Format("2006-01-02")
	}

	return api.AddMemory(ctx, graph.AddMemoryInput{
		Title:      truncateRunes(c.Subject, maxTitleRunes),
		Content:    content,
		Labels:     labels,
		Author:     c.AuthorEmail,
		Properties: props,
	})
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
