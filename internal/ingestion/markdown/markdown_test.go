package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullgraph/brain/pkg/types"
)

func TestParseADR_BlockForm(t *testing.T) {
	raw := []byte(`---
adr_id: ADR-012
---
# Use SQLite for storage

## Status
Accepted

## Contexto
We need a single-file embedded store.

## Decisao
Use modernc.org/sqlite.

## Consequencias
No cgo dependency.
`)
	node, err := ParseADR("docs/adr/012-sqlite.md", raw)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "Use SQLite for storage", node.Title)
	assert.Contains(t, node.Labels, types.LabelDecision)
	assert.Contains(t, node.Labels, types.LabelADR)
	assert.Equal(t, "ADR-012", node.Properties["adr_id"])
	assert.Contains(t, node.Content, "Use modernc.org/sqlite.")
	assert.Contains(t, node.Content, "No cgo dependency.")
}

func TestParseADR_CompactForm(t *testing.T) {
	raw := []byte(`# ADR-003: Retry policy

**Contexto**: calls can fail transiently.
**Decisão**: wrap in a circuit breaker.
**Consequências**: added a dependency on gobreaker.
`)
	node, err := ParseADR("docs/adr/003-retry.md", raw)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "ADR-003", node.Properties["adr_id"])
	assert.Contains(t, node.Content, "circuit breaker")
}

func TestParseADR_SkipsTemplate(t *testing.T) {
	raw := []byte(`---
adr_id: ADR-NNN
---
# Template

## Contexto
TBD
`)
	node, err := ParseADR("docs/adr/ADR-NNN-template.md", raw)
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestParsePatterns(t *testing.T) {
	raw := []byte(`# Pattern Catalog

## Padrões Aprovados

### PAT-001: Repository pattern

Use a repository interface per aggregate.

### PAT-002: Factory pattern

Centralize construction logic.

## Anti-Padrões

### ANTI-001: God object

Avoid giant structs that do everything.
`)
	nodes, err := ParsePatterns("docs/patterns/catalog.md", raw)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Contains(t, nodes[0].Labels, types.LabelApproved)
	assert.Equal(t, "PAT-001", nodes[0].Properties["pat_id"])

	last := nodes[len(nodes)-1]
	assert.Contains(t, last.Labels, types.LabelAnti)
	assert.Equal(t, "ANTI-001", last.Properties["pat_id"])
}

func TestParseDomain(t *testing.T) {
	raw := []byte(`# Domain Glossary

## Glossário

### Tenant

A billing account boundary.

## Regras de Negócio

### RULE-004: Quota enforcement

Requests beyond quota are rejected.
`)
	nodes, err := ParseDomain("docs/domain/glossary.md", raw)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Contains(t, nodes[0].Labels, types.LabelConcept)
	assert.Contains(t, nodes[0].Labels, types.LabelGlossary)

	assert.Contains(t, nodes[1].Labels, types.LabelRule)
	assert.Contains(t, nodes[1].Labels, types.LabelBusinessRule)
	assert.Equal(t, "RULE-004", nodes[1].Properties["rule_id"])
}

func TestParseExperiences(t *testing.T) {
	raw := []byte(`# Experience Log

## EXP-007: Fixed race in the watcher

Found via a flaky CI run, added a mutex.

## EXP-008: New caching feature

Introduced an LRU cache for node lookups.
`)
	nodes, err := ParseExperiences("docs/experiences/log.md", raw)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Contains(t, nodes[0].Labels, types.LabelEpisode)
	assert.Contains(t, nodes[0].Labels, types.LabelExperience)
	assert.Contains(t, nodes[0].Labels, types.LabelBugFix)
	assert.Equal(t, "EXP-007", nodes[0].Properties["exp_id"])

	assert.Contains(t, nodes[1].Labels, types.LabelFeature)
}

func TestSplitFrontmatter_NoFrontmatter(t *testing.T) {
	fm, body := SplitFrontmatter("# Title\nbody text")
	assert.Empty(t, fm)
	assert.Contains(t, body, "Title")
}

func TestIsTemplate(t *testing.T) {
	assert.True(t, IsTemplate("ADR-NNN"))
	assert.True(t, IsTemplate("adr-nnn"))
	assert.False(t, IsTemplate("ADR-012"))
}
