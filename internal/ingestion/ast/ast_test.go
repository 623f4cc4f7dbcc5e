package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "python", DetectLanguage("foo/bar.py"))
	assert.Equal(t, "typescript", DetectLanguage("foo/bar.tsx"))
	assert.Equal(t, "go", DetectLanguage("foo/bar.go"))
	assert.Equal(t, "", DetectLanguage("foo/bar.txt"))
}

func TestShouldSkipPath(t *testing.T) {
	assert.True(t, ShouldSkipPath("vendor/github.com/foo/bar.go"))
	assert.True(t, ShouldSkipPath("node_modules/react/index.js"))
	assert.True(t, ShouldSkipPath(".git/HEAD"))
	assert.True(t, ShouldSkipPath(".hidden/file.go"))
	assert.False(t, ShouldSkipPath("internal/graph/api.go"))
}

func TestBodyHashStable(t *testing.T) {
	a := BodyHash("package foo\n")
	b := BodyHash("package foo\n")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, BodyHash("package bar\n"))
}

func TestDetectPattern(t *testing.T) {
	assert.Equal(t, "Controller", detectPattern("UserController"))
	assert.Equal(t, "Repository", detectPattern("OrderRepository"))
	assert.Equal(t, "Test", detectPattern("LoginSpec"))
	assert.Equal(t, "", detectPattern("Widget"))
}

func TestEstimateComplexity(t *testing.T) {
	simple := []string{"x := 1", "return x"}
	assert.Equal(t, "simple", estimateComplexity(simple))

	moderate := []string{
		"if a {", "    if b {", "        return", "    }", "}",
		"for i := range xs {", "}", "while true {", "}",
	}
	got := estimateComplexity(moderate)
	assert.Contains(t, []string{"moderate", "complex"}, got)
}

func TestParsePython(t *testing.T) {
	src := `import os
from pathlib import Path

class UserService:
    """Handles user lookups."""

    def find(self, id):
        if id:
            return id
        return None

def standalone():
    return 1
`
	result := parsePython("pkg/users.py", src)
	assert.Equal(t, "python", result.Module.Language)
	assert.Contains(t, result.Module.Imports, "os")

	if assert.Len(t, result.Classes, 1) {
		cls := result.Classes[0]
		assert.Equal(t, "UserService", cls.Name)
		assert.Equal(t, "Service", cls.DetectedPattern)
		assert.Contains(t, cls.Methods, "find")
	}

	var sawMethod, sawFunc bool
	for _, fn := range result.Functions {
		if fn.Name == "find" && fn.IsMethod {
			sawMethod = true
		}
		if fn.Name == "standalone" && !fn.IsMethod {
			sawFunc = true
		}
	}
	assert.True(t, sawMethod)
	assert.True(t, sawFunc)
}

func TestParseGo(t *testing.T) {
	src := `package widgets

import (
	"fmt"
)

type WidgetFactory struct {
	count int
}

func (f *WidgetFactory) Build() string {
	if f.count > 0 {
		return fmt.Sprintf("widget-%d", f.count)
	}
	return "none"
}

func NewWidgetFactory() *WidgetFactory {
	return &WidgetFactory{}
}
`
	result := parseBraceLanguage("pkg/widgets.go", "go", src)
	if assert.Len(t, result.Classes, 1) {
		assert.Equal(t, "WidgetFactory", result.Classes[0].Name)
		assert.Equal(t, "Factory", result.Classes[0].DetectedPattern)
	}

	var sawMethod, sawFunc bool
	for _, fn := range result.Functions {
		if fn.Name == "Build" && fn.IsMethod {
			sawMethod = true
		}
		if fn.Name == "NewWidgetFactory" && !fn.IsMethod {
			sawFunc = true
		}
	}
	assert.True(t, sawMethod)
	assert.True(t, sawFunc)
}

func TestParseRuby(t *testing.T) {
	src := `require 'json'

class OrderRepository < BaseRepository
  def find(id)
    if id
      return id
    end
  end
end
`
	result := parseRuby("pkg/order_repository.rb", src)
	assert.Contains(t, result.Module.Imports, "json")
	if assert.Len(t, result.Classes, 1) {
		assert.Equal(t, "OrderRepository", result.Classes[0].Name)
		assert.Equal(t, []string{"BaseRepository"}, result.Classes[0].BaseClasses)
		assert.Contains(t, result.Classes[0].Methods, "find")
	}
}
