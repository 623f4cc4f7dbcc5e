package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySubject(t *testing.T) {
	cases := []struct {
		subject    string
		wantType   string
		wantScope  string
	}{
		{"feat(api): add pagination", "feat", "api"},
		{"fix(auth): null pointer on logout", "fix", "auth"},
		{"docs: update README", "docs", ""},
		{"totally unconventional commit message", "other", ""},
	}
	for _, c := range cases {
		gotType, gotScope := classifySubject(c.subject)
		assert.Equal(t, c.wantType, gotType, c.subject)
		assert.Equal(t, c.wantScope, gotScope, c.subject)
	}
}

func TestScopeDomainLabel(t *testing.T) {
	assert.Equal(t, "ApiGatewayDomain", scopeDomainLabel("api-gateway"))
	assert.Equal(t, "AuthDomain", scopeDomainLabel("auth"))
	assert.Equal(t, "", scopeDomainLabel(""))
}

func TestParseLog(t *testing.T) {
	raw := "abc123" + fieldSep + "Jane Dev" + fieldSep + "jane@example.com" + fieldSep +
		"2024-01-15T10:00:00-03:00" + fieldSep + "feat(api): add pagination" + fieldSep + "Closes ADR-007." + recordSep +
		"def456" + fieldSep + "Jane Dev" + fieldSep + "jane@example.com" + fieldSep +
		"2024-01-16T10:00:00-03:00" + fieldSep + "fix: null check" + fieldSep + "" + recordSep

	commits := parseLog(raw)
	require.Len(t, commits, 2)

	assert.Equal(t, "abc123", commits[0].Hash)
	assert.Equal(t, "feat", commits[0].Type)
	assert.Equal(t, "api", commits[0].Scope)
	assert.Contains(t, commits[0].Body, "ADR-007")

	assert.Equal(t, "def456", commits[1].Hash)
	assert.Equal(t, "fix", commits[1].Type)
	assert.Empty(t, commits[1].Body)
}

func TestParseUnifiedDiff_AddedModifiedDeleted(t *testing.T) {
	raw := `diff --git a/pkg/foo.go b/pkg/foo.go
index 111..222 100644
--- a/pkg/foo.go
+++ b/pkg/foo.go
@@ -1,3 +1,4 @@ func Foo() {
-func Foo() {
+func Foo(x int) {
+	_ = x
 	return
 }
diff --git a/pkg/new.go b/pkg/new.go
new file mode 100644
index 000..333
--- /dev/null
+++ b/pkg/new.go
@@ -0,0 +1,3 @@
+func Bar() {
+	return
+}
`
	files, err := ParseUnifiedDiffString(raw)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "modified", files[0].Status)
	assert.Equal(t, "pkg/foo.go", files[0].Path())
	assert.Equal(t, 2, files[0].Insertions)
	assert.Equal(t, 1, files[0].Deletions)

	assert.Equal(t, "added", files[1].Status)
	assert.Equal(t, "pkg/new.go", files[1].Path())
}

func TestAnnotateSymbols_ModifiedVsAdded(t *testing.T) {
	files, err := ParseUnifiedDiffString(`diff --git a/pkg/foo.go b/pkg/foo.go
--- a/pkg/foo.go
+++ b/pkg/foo.go
@@ -1,2 +1,3 @@
-func Foo() {
+func Foo(x int) {
+func Bar() {
`)
	require.NoError(t, err)
	require.Len(t, files, 1)
	f := files[0]
	annotateSymbols(&f)
	assert.Contains(t, f.SymbolsModified, "Foo")
	assert.Contains(t, f.SymbolsAdded, "Bar")
}

func TestClassifyChangeShape(t *testing.T) {
	tiny := []FileDiff{{OldPath: "a.go", NewPath: "a.go", Insertions: 2, Deletions: 1}}
	assert.Equal(t, "tiny_fix", ClassifyChangeShape(tiny))

	docs := []FileDiff{{OldPath: "README.md", NewPath: "README.md", Insertions: 100, Deletions: 50}}
	assert.Equal(t, "documentation", ClassifyChangeShape(docs))

	featureAdd := []FileDiff{{OldPath: "a.go", NewPath: "a.go", Insertions: 60, Deletions: 2, SymbolsAdded: []string{"NewThing"}}}
	assert.Equal(t, "feature_add", ClassifyChangeShape(featureAdd))

	refactor := []FileDiff{{OldPath: "a.go", NewPath: "a.go", Insertions: 80, Deletions: 70}}
	assert.Equal(t, "refactor", ClassifyChangeShape(refactor))

	largeRefactor := []FileDiff{{OldPath: "a.go", NewPath: "a.go", Insertions: 150, Deletions: 140}}
	assert.Equal(t, "large_refactor", ClassifyChangeShape(largeRefactor))
}

func TestShouldSkipFile(t *testing.T) {
	assert.True(t, shouldSkipFile(FileDiff{NewPath: "vendor/lib/x.go"}))
	assert.True(t, shouldSkipFile(FileDiff{NewPath: "app.min.js"}))
	assert.True(t, shouldSkipFile(FileDiff{NewPath: "package-lock.json"}))
	assert.True(t, shouldSkipFile(FileDiff{Status: "binary", NewPath: "image.png"}))
	assert.False(t, shouldSkipFile(FileDiff{NewPath: "internal/foo/bar.go"}))
}
