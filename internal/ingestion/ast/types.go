// Package ast extracts Module, Class, Function and Interface nodes from
// source trees (spec.md §4.4 "AST ingestion"). Tree-sitter is used when
// built with the "treesitter" build tag; otherwise a regex fallback covers
// Python, JavaScript, TypeScript, Ruby, Go, Java, Rust and PHP.
package ast

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// langByExt mirrors ast_parser.py's LANG_MAP.
var langByExt = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".rb":   "ruby",
	".go":   "go",
	".java": "java",
	".rs":   "rust",
	".php":  "php",
}

// skipDirs are directory names never walked into, regardless of depth.
var skipDirs = map[string]bool{
	"node_modules": true, "vendor": true, ".venv": true, "venv": true,
	"__pycache__": true, ".git": true, "dist": true, "build": true,
	".next": true, ".nuxt": true, "coverage": true, ".tox": true,
	".mypy_cache": true, ".pytest_cache": true, "target": true,
	".gradle": true, "bin": true, "obj": true, ".idea": true,
	".vscode": true, ".claude": true,
}

const maxFileSize = 500 * 1024

// DetectLanguage returns the language ast associates with a file extension,
// or "" if the extension isn't recognized.
func DetectLanguage(path string) string {
	return langByExt[strings.ToLower(filepath.Ext(path))]
}

// ShouldSkipPath reports whether any path component is a skip-listed
// directory or a dotfile/dotdir.
func ShouldSkipPath(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." {
			continue
		}
		if skipDirs[part] || strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// BodyHash is the MD5 of file content, used to skip re-parsing unchanged
// files on a subsequent ingestion pass.
func BodyHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Module is a parsed source file.
type Module struct {
	FilePath    string
	Language    string
	LineCount   int
	ImportCount int
	Imports     []string
	BodyHash    string
}

// Class is a parsed class/struct/record.
type Class struct {
	FilePath       string
	Language       string
	Name           string
	QualifiedName  string
	LineStart      int
	LineEnd        int
	Docstring      string
	BaseClasses    []string
	DetectedPattern string
	Methods        []string
}

// Function is a parsed function or method.
type Function struct {
	FilePath        string
	Language        string
	Name            string
	QualifiedName   string
	Signature       string
	LineStart       int
	LineEnd         int
	Docstring       string
	IsMethod        bool
	OwnerClass      string
	ParamCount      int
	ComplexityHint  string
}

// Interface is a parsed interface/trait/protocol.
type Interface struct {
	FilePath        string
	Language        string
	Name            string
	QualifiedName   string
	LineStart       int
	LineEnd         int
	MethodSignatures []string
}

// ParseResult is the complete parse of a single file.
type ParseResult struct {
	Module     Module
	Classes    []Class
	Functions  []Function
	Interfaces []Interface
}
