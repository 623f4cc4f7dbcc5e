package ast

import (
	"regexp"
	"strings"
)

// ParseFile dispatches to tree-sitter when built with the "treesitter" tag
// and a grammar is wired for the language, otherwise to the regex fallback
// parser. Unknown languages (including binary-looking content upstream
// filters should have already dropped) return a module-only result with no
// declarations.
func ParseFile(filePath, language, content string) ParseResult {
	if treeSitterAvailable {
		if result, ok := parseWithTreeSitter(filePath, language, content); ok {
			return result
		}
	}
	switch language {
	case "python":
		return parsePython(filePath, content)
	case "ruby":
		return parseRuby(filePath, content)
	default:
		return parseBraceLanguage(filePath, language, content)
	}
}

func moduleOf(filePath, language, content string, imports []string) Module {
	lines := strings.Split(content, "\n")
	return Module{
		FilePath:    filePath,
		Language:    language,
		LineCount:   len(lines),
		ImportCount: len(imports),
		Imports:     imports,
		BodyHash:    BodyHash(content),
	}
}

func moduleName(filePath string) string {
	base := filePath
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}
	return base
}

// ── Python ──────────────────────────────────────────────────────────

var (
	pyImportRe = regexp.MustCompile(`^(?:from\s+(\S+)\s+)?import\s+(.+)`)
	pyClassRe  = regexp.MustCompile(`^(\s*)class\s+(\w+)(?:\(([^)]*)\))?:`)
	pyFuncRe   = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+(\w+)\s*\(([^)]*)\)`)
)

func parsePython(filePath, content string) ParseResult {
	lines := strings.Split(content, "\n")
	modName := moduleName(filePath)

	var imports []string
	for _, line := range lines {
		if m := pyImportRe.FindStringSubmatch(line); m != nil {
			mod := m[1]
			if mod == "" {
				mod = strings.TrimSpace(strings.Split(m[2], ",")[0])
				mod = strings.Split(mod, ".")[0]
			}
			imports = append(imports, mod)
		}
	}

	var classes []Class
	var functions []Function
	var currentClass *Class
	currentClassIndent := 0

	for i, line := range lines {
		stripped := leftTrim(line)
		indent := len(line) - len(stripped)

		if currentClass != nil && indent <= currentClassIndent && stripped != "" && !strings.HasPrefix(stripped, "#") {
			currentClass = nil
		}

		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			name := m[2]
			bases := splitNonEmpty(m[3], ",")
			classIndent := len(m[1])
			end := blockEndByIndent(lines, i, classIndent)
			cls := Class{
				FilePath:        filePath,
				Language:        "python",
				Name:            name,
				QualifiedName:   modName + "." + name,
				LineStart:       i + 1,
				LineEnd:         end,
				BaseClasses:     bases,
				DetectedPattern: detectPattern(name),
			}
			classes = append(classes, cls)
			classes[len(classes)-1].Docstring = pyDocstring(lines, i)
			cc := &classes[len(classes)-1]
			currentClass = cc
			currentClassIndent = classIndent
			continue
		}

		if m := pyFuncRe.FindStringSubmatch(line); m != nil {
			fnIndent := len(m[1])
			name := m[2]
			params := splitNonEmpty(m[3], ",")
			end := blockEndByIndent(lines, i, fnIndent)
			isMethod := currentClass != nil && fnIndent > currentClassIndent
			qualified := modName + "." + name
			owner := ""
			if isMethod {
				owner = currentClass.Name
				qualified = modName + "." + currentClass.Name + "." + name
				currentClass.Methods = append(currentClass.Methods, name)
			}
			fn := Function{
				FilePath:       filePath,
				Language:       "python",
				Name:           name,
				QualifiedName:  qualified,
				Signature:      strings.TrimSpace(line),
				LineStart:      i + 1,
				LineEnd:        end,
				IsMethod:       isMethod,
				OwnerClass:     owner,
				ParamCount:     len(params),
				ComplexityHint: estimateComplexity(sliceLines(lines, i, end)),
			}
			functions = append(functions, fn)
		}
	}

	return ParseResult{
		Module:    moduleOf(filePath, "python", content, imports),
		Classes:   classes,
		Functions: functions,
	}
}

func pyDocstring(lines []string, classLine int) string {
	if classLine+1 >= len(lines) {
		return ""
	}
	next := strings.TrimSpace(lines[classLine+1])
	if !strings.HasPrefix(next, `"""`) && !strings.HasPrefix(next, "'''") {
		return ""
	}
	quote := next[:3]
	if strings.Count(next, quote) >= 2 {
		return strings.Trim(strings.TrimPrefix(next, quote), quote+" ")
	}
	var doc []string
	for k := classLine + 1; k < len(lines) && k < classLine+10; k++ {
		doc = append(doc, strings.TrimSpace(lines[k]))
		if strings.HasSuffix(strings.TrimSpace(lines[k]), quote) && k > classLine+1 {
			break
		}
	}
	return clip(strings.Trim(strings.Join(doc, " "), quote+" "), 200)
}

// blockEndByIndent returns the 1-based line number where the indented block
// starting at startLine (whose header is at the given indent) ends: the
// line before the next non-blank, non-comment line at indent <= headerIndent.
func blockEndByIndent(lines []string, startLine, headerIndent int) int {
	for j := startLine + 1; j < len(lines); j++ {
		stripped := leftTrim(lines[j])
		indent := len(lines[j]) - len(stripped)
		if stripped != "" && !strings.HasPrefix(stripped, "#") && indent <= headerIndent {
			return j
		}
	}
	return len(lines)
}

func sliceLines(lines []string, start, end int) []string {
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return nil
	}
	return lines[start:end]
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ── Ruby ────────────────────────────────────────────────────────────

var (
	rbClassRe  = regexp.MustCompile(`^(\s*)class\s+(\w+)(?:\s*<\s*(\w+))?`)
	rbModuleRe = regexp.MustCompile(`^(\s*)module\s+(\w+)`)
	rbFuncRe   = regexp.MustCompile(`^(\s*)def\s+(?:self\.)?(\w+[\?!]?)(?:\(([^)]*)\))?`)
	rbRequireRe = regexp.MustCompile(`^\s*require(?:_relative)?\s+['"]([^'"]+)['"]`)
)

func parseRuby(filePath, content string) ParseResult {
	lines := strings.Split(content, "\n")
	modName := moduleName(filePath)

	var imports []string
	for _, line := range lines {
		if m := rbRequireRe.FindStringSubmatch(line); m != nil {
			imports = append(imports, m[1])
		}
	}

	var classes []Class
	var functions []Function
	var currentClass *Class

	for i, line := range lines {
		if m := rbClassRe.FindStringSubmatch(line); m != nil {
			name := m[2]
			var bases []string
			if m[3] != "" {
				bases = []string{m[3]}
			}
			end := blockEndByKeyword(lines, i)
			classes = append(classes, Class{
				FilePath:        filePath,
				Language:        "ruby",
				Name:            name,
				QualifiedName:   modName + "." + name,
				LineStart:       i + 1,
				LineEnd:         end,
				BaseClasses:     bases,
				DetectedPattern: detectPattern(name),
			})
			currentClass = &classes[len(classes)-1]
			continue
		}
		if m := rbModuleRe.FindStringSubmatch(line); m != nil {
			currentClass = nil
			_ = m
			continue
		}
		if m := rbFuncRe.FindStringSubmatch(line); m != nil {
			name := m[2]
			params := splitNonEmpty(m[3], ",")
			end := blockEndByKeyword(lines, i)
			isMethod := currentClass != nil
			qualified := modName + "." + name
			owner := ""
			if isMethod {
				owner = currentClass.Name
				qualified = modName + "." + currentClass.Name + "." + name
				currentClass.Methods = append(currentClass.Methods, name)
			}
			functions = append(functions, Function{
				FilePath:       filePath,
				Language:       "ruby",
				Name:           name,
				QualifiedName:  qualified,
				Signature:      strings.TrimSpace(line),
				LineStart:      i + 1,
				LineEnd:        end,
				IsMethod:       isMethod,
				OwnerClass:     owner,
				ParamCount:     len(params),
				ComplexityHint: estimateComplexity(sliceLines(lines, i, end)),
			})
		}
	}

	return ParseResult{
		Module:    moduleOf(filePath, "ruby", content, imports),
		Classes:   classes,
		Functions: functions,
	}
}

var rbBlockOpenRe = regexp.MustCompile(`\b(do|if|unless|case|while|until|begin)\s*$`)

// blockEndByKeyword walks forward counting Ruby block openers (def/class/
// module/do/if/unless/case/while/until/begin) against "end" to find where a
// construct starting at startLine closes.
func blockEndByKeyword(lines []string, startLine int) int {
	depth := 1
	for j := startLine + 1; j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		switch {
		case trimmed == "end" || strings.HasPrefix(trimmed, "end "):
			depth--
			if depth == 0 {
				return j + 1
			}
		case strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "class ") ||
			strings.HasPrefix(trimmed, "module ") || rbBlockOpenRe.MatchString(trimmed):
			depth++
		}
	}
	return len(lines)
}

// ── Brace languages: Go, JS/TS, Java, Rust, PHP ────────────────────

var (
	goImportRe = regexp.MustCompile(`^\s*"([^"]+)"\s*$`)
	goFuncRe   = regexp.MustCompile(`^func\s*(?:\(\s*\w+\s+\*?(\w+)\s*\))?\s*(\w+)\s*\(([^)]*)\)`)
	goTypeStructRe = regexp.MustCompile(`^type\s+(\w+)\s+struct\b`)
	goTypeIfaceRe  = regexp.MustCompile(`^type\s+(\w+)\s+interface\b`)

	jsImportRe = regexp.MustCompile(`^\s*import\s+.*?['"]([^'"]+)['"]`)
	jsRequireRe = regexp.MustCompile(`require\(['"]([^'"]+)['"]\)`)
	jsClassRe  = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?class\s+(\w+)(?:\s+extends\s+(\w+))?`)
	jsFuncRe   = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s+(\w+)\s*\(([^)]*)\)`)
	jsMethodRe = regexp.MustCompile(`^\s*(?:static\s+)?(?:async\s+)?(\w+)\s*\(([^)]*)\)\s*\{`)
	jsInterfaceRe = regexp.MustCompile(`^\s*(?:export\s+)?interface\s+(\w+)`)

	javaImportRe = regexp.MustCompile(`^\s*import\s+([\w.]+);`)
	javaClassRe  = regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(?:abstract\s+)?class\s+(\w+)(?:\s+extends\s+(\w+))?`)
	javaIfaceRe  = regexp.MustCompile(`^\s*(?:public\s+)?interface\s+(\w+)`)
	javaMethodRe = regexp.MustCompile(`^\s*(?:public|private|protected)\s+(?:static\s+)?(?:[\w<>\[\]]+\s+)(\w+)\s*\(([^)]*)\)\s*\{?`)

	rustUseRe  = regexp.MustCompile(`^\s*use\s+([\w:]+)`)
	rustStructRe = regexp.MustCompile(`^\s*(?:pub\s+)?struct\s+(\w+)`)
	rustTraitRe  = regexp.MustCompile(`^\s*(?:pub\s+)?trait\s+(\w+)`)
	rustFnRe     = regexp.MustCompile(`^\s*(?:pub\s+)?(?:async\s+)?fn\s+(\w+)\s*\(([^)]*)\)`)
	rustImplRe   = regexp.MustCompile(`^\s*impl(?:<[^>]*>)?\s+(?:\w+\s+for\s+)?(\w+)`)

	phpUseRe   = regexp.MustCompile(`^\s*use\s+([\w\\]+);`)
	phpClassRe = regexp.MustCompile(`^\s*(?:abstract\s+)?class\s+(\w+)(?:\s+extends\s+(\w+))?`)
	phpIfaceRe = regexp.MustCompile(`^\s*interface\s+(\w+)`)
	phpFuncRe  = regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(?:static\s+)?function\s+(\w+)\s*\(([^)]*)\)`)
)

func parseBraceLanguage(filePath, language, content string) ParseResult {
	lines := strings.Split(content, "\n")
	modName := moduleName(filePath)

	var imports []string
	var classes []Class
	var functions []Function
	var interfaces []Interface
	var currentClass *Class
	var currentClassEnd = -1

	for i, line := range lines {
		if currentClass != nil && i >= currentClassEnd {
			currentClass = nil
		}

		switch language {
		case "go":
			if m := goImportRe.FindStringSubmatch(line); m != nil {
				imports = append(imports, m[1])
			}
			if m := goTypeStructRe.FindStringSubmatch(line); m != nil {
				name := m[1]
				end := blockEndByBrace(lines, i)
				classes = append(classes, Class{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName: modName + "." + name, LineStart: i + 1, LineEnd: end,
					DetectedPattern: detectPattern(name),
				})
				currentClass = &classes[len(classes)-1]
				currentClassEnd = end
				continue
			}
			if m := goTypeIfaceRe.FindStringSubmatch(line); m != nil {
				name := m[1]
				end := blockEndByBrace(lines, i)
				interfaces = append(interfaces, Interface{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName: modName + "." + name, LineStart: i + 1, LineEnd: end,
				})
				continue
			}
			if m := goFuncRe.FindStringSubmatch(line); m != nil {
				recv, name, params := m[1], m[2], m[3]
				end := blockEndByBrace(lines, i)
				isMethod := recv != ""
				qualified := modName + "." + name
				owner := ""
				if isMethod {
					owner = recv
					qualified = modName + "." + recv + "." + name
					for ci := range classes {
						if classes[ci].Name == recv {
							classes[ci].Methods = append(classes[ci].Methods, name)
						}
					}
				}
				functions = append(functions, Function{
					FilePath: filePath, Language: language, Name: name, QualifiedName: qualified,
					Signature: strings.TrimSpace(line), LineStart: i + 1, LineEnd: end,
					IsMethod: isMethod, OwnerClass: owner, ParamCount: countParams(params),
					ComplexityHint: estimateComplexity(sliceLines(lines, i, end)),
				})
			}

		case "javascript", "typescript":
			if m := jsImportRe.FindStringSubmatch(line); m != nil {
				imports = append(imports, m[1])
			}
			if m := jsRequireRe.FindStringSubmatch(line); m != nil {
				imports = append(imports, m[1])
			}
			if m := jsInterfaceRe.FindStringSubmatch(line); m != nil {
				name := m[1]
				end := blockEndByBrace(lines, i)
				interfaces = append(interfaces, Interface{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName: modName + "." + name, LineStart: i + 1, LineEnd: end,
				})
				continue
			}
			if m := jsClassRe.FindStringSubmatch(line); m != nil {
				name := m[1]
				var bases []string
				if m[2] != "" {
					bases = []string{m[2]}
				}
				end := blockEndByBrace(lines, i)
				classes = append(classes, Class{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName: modName + "." + name, LineStart: i + 1, LineEnd: end,
					BaseClasses: bases, DetectedPattern: detectPattern(name),
				})
				currentClass = &classes[len(classes)-1]
				currentClassEnd = end
				continue
			}
			if m := jsFuncRe.FindStringSubmatch(line); m != nil {
				name, params := m[1], m[2]
				end := blockEndByBrace(lines, i)
				functions = append(functions, Function{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName: modName + "." + name, Signature: strings.TrimSpace(line),
					LineStart: i + 1, LineEnd: end, ParamCount: countParams(params),
					ComplexityHint: estimateComplexity(sliceLines(lines, i, end)),
				})
				continue
			}
			if currentClass != nil {
				if m := jsMethodRe.FindStringSubmatch(line); m != nil && m[1] != "if" && m[1] != "for" && m[1] != "while" && m[1] != "switch" {
					name, params := m[1], m[2]
					end := blockEndByBrace(lines, i)
					currentClass.Methods = append(currentClass.Methods, name)
					functions = append(functions, Function{
						FilePath: filePath, Language: language, Name: name,
						QualifiedName: modName + "." + currentClass.Name + "." + name,
						Signature: strings.TrimSpace(line), LineStart: i + 1, LineEnd: end,
						IsMethod: true, OwnerClass: currentClass.Name, ParamCount: countParams(params),
						ComplexityHint: estimateComplexity(sliceLines(lines, i, end)),
					})
				}
			}

		case "java":
			if m := javaImportRe.FindStringSubmatch(line); m != nil {
				imports = append(imports, m[1])
			}
			if m := javaIfaceRe.FindStringSubmatch(line); m != nil {
				name := m[1]
				end := blockEndByBrace(lines, i)
				interfaces = append(interfaces, Interface{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName: modName + "." + name, LineStart: i + 1, LineEnd: end,
				})
				continue
			}
			if m := javaClassRe.FindStringSubmatch(line); m != nil {
				name := m[1]
				var bases []string
				if m[2] != "" {
					bases = []string{m[2]}
				}
				end := blockEndByBrace(lines, i)
				classes = append(classes, Class{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName: modName + "." + name, LineStart: i + 1, LineEnd: end,
					BaseClasses: bases, DetectedPattern: detectPattern(name),
				})
				currentClass = &classes[len(classes)-1]
				currentClassEnd = end
				continue
			}
			if currentClass != nil {
				if m := javaMethodRe.FindStringSubmatch(line); m != nil {
					name, params := m[1], m[2]
					end := blockEndByBrace(lines, i)
					currentClass.Methods = append(currentClass.Methods, name)
					functions = append(functions, Function{
						FilePath: filePath, Language: language, Name: name,
						QualifiedName: modName + "." + currentClass.Name + "." + name,
						Signature: strings.TrimSpace(line), LineStart: i + 1, LineEnd: end,
						IsMethod: true, OwnerClass: currentClass.Name, ParamCount: countParams(params),
						ComplexityHint: estimateComplexity(sliceLines(lines, i, end)),
					})
				}
			}

		case "rust":
			if m := rustUseRe.FindStringSubmatch(line); m != nil {
				imports = append(imports, m[1])
			}
			if m := rustTraitRe.FindStringSubmatch(line); m != nil {
				name := m[1]
				end := blockEndByBrace(lines, i)
				interfaces = append(interfaces, Interface{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName: modName + "." + name, LineStart: i + 1, LineEnd: end,
				})
				continue
			}
			if m := rustStructRe.FindStringSubmatch(line); m != nil {
				name := m[1]
				end := blockEndByBrace(lines, i)
				if end == i+1 {
					end = i + 1
				}
				classes = append(classes, Class{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName: modName + "." + name, LineStart: i + 1, LineEnd: end,
					DetectedPattern: detectPattern(name),
				})
				continue
			}
			if m := rustImplRe.FindStringSubmatch(line); m != nil {
				name := m[1]
				end := blockEndByBrace(lines, i)
				for ci := range classes {
					if classes[ci].Name == name {
						currentClass = &classes[ci]
						currentClassEnd = end
					}
				}
				continue
			}
			if m := rustFnRe.FindStringSubmatch(line); m != nil {
				name, params := m[1], m[2]
				end := blockEndByBrace(lines, i)
				isMethod := currentClass != nil
				qualified := modName + "." + name
				owner := ""
				if isMethod {
					owner = currentClass.Name
					qualified = modName + "." + currentClass.Name + "." + name
					currentClass.Methods = append(currentClass.Methods, name)
				}
				functions = append(functions, Function{
					FilePath: filePath, Language: language, Name: name, QualifiedName: qualified,
					Signature: strings.TrimSpace(line), LineStart: i + 1, LineEnd: end,
					IsMethod: isMethod, OwnerClass: owner, ParamCount: countParams(params),
					ComplexityHint: estimateComplexity(sliceLines(lines, i, end)),
				})
			}

		case "php":
			if m := phpUseRe.FindStringSubmatch(line); m != nil {
				imports = append(imports, m[1])
			}
			if m := phpIfaceRe.FindStringSubmatch(line); m != nil {
				name := m[1]
				end := blockEndByBrace(lines, i)
				interfaces = append(interfaces, Interface{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName: modName + "." + name, LineStart: i + 1, LineEnd: end,
				})
				continue
			}
			if m := phpClassRe.FindStringSubmatch(line); m != nil {
				name := m[1]
				var bases []string
				if m[2] != "" {
					bases = []string{m[2]}
				}
				end := blockEndByBrace(lines, i)
				classes = append(classes, Class{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName: modName + "." + name, LineStart: i + 1, LineEnd: end,
					BaseClasses: bases, DetectedPattern: detectPattern(name),
				})
				currentClass = &classes[len(classes)-1]
				currentClassEnd = end
				continue
			}
			if m := phpFuncRe.FindStringSubmatch(line); m != nil {
				name, params := m[1], m[2]
				end := blockEndByBrace(lines, i)
				isMethod := currentClass != nil
				qualified := modName + "." + name
				owner := ""
				if isMethod {
					owner = currentClass.Name
					qualified = modName + "." + currentClass.Name + "." + name
					currentClass.Methods = append(currentClass.Methods, name)
				}
				functions = append(functions, Function{
					FilePath: filePath, Language: language, Name: name, QualifiedName: qualified,
					Signature: strings.TrimSpace(line), LineStart: i + 1, LineEnd: end,
					IsMethod: isMethod, OwnerClass: owner, ParamCount: countParams(params),
					ComplexityHint: estimateComplexity(sliceLines(lines, i, end)),
				})
			}
		}
	}

	return ParseResult{
		Module:     moduleOf(filePath, language, content, imports),
		Classes:    classes,
		Functions:  functions,
		Interfaces: interfaces,
	}
}

func countParams(s string) int {
	return len(splitNonEmpty(s, ","))
}

// blockEndByBrace finds the line (1-based, exclusive) where the brace block
// opened on headerLine closes, by counting braces across subsequent lines.
// If headerLine's own line contains no opening brace, looks ahead a few
// lines (Go/Java sometimes put "{" on its own line... though gofmt doesn't).
func blockEndByBrace(lines []string, headerLine int) int {
	depth := 0
	seenOpen := false
	for j := headerLine; j < len(lines); j++ {
		for _, c := range lines[j] {
			switch c {
			case '{':
				depth++
				seenOpen = true
			case '}':
				depth--
				if seenOpen && depth == 0 {
					return j + 1
				}
			}
		}
		if j > headerLine && !seenOpen {
			// declaration with no body (e.g. interface method signature line)
			if strings.HasSuffix(strings.TrimSpace(lines[headerLine]), ";") {
				return headerLine + 1
			}
		}
	}
	return len(lines)
}
