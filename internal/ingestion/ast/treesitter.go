//go:build treesitter

package ast

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// treeSitterAvailable makes ParseFile try tree-sitter before the regex parser.
const treeSitterAvailable = true

// parseWithTreeSitter parses Go, Python, JavaScript and TypeScript with
// tree-sitter grammars. Other languages fall back to the regex parser even
// in a treesitter build, since no grammar is wired for them here.
func parseWithTreeSitter(filePath, language, content string) (ParseResult, bool) {
	var lang *sitter.Language
	switch language {
	case "go":
		lang = golang.GetLanguage()
	case "python":
		lang = python.GetLanguage()
	case "javascript":
		lang = javascript.GetLanguage()
	case "typescript":
		lang = typescript.GetLanguage()
	default:
		return ParseResult{}, false
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(content))
	if err != nil {
		return ParseResult{}, false
	}
	defer tree.Close()

	modName := moduleName(filePath)
	src := []byte(content)
	text := func(n *sitter.Node) string { return n.Content(src) }

	var classes []Class
	var functions []Function
	var interfaces []Interface
	var imports []string
	classIdx := map[string]int{}

	var walk func(n *sitter.Node, owner string)
	walk = func(n *sitter.Node, owner string) {
		switch n.Type() {
		case "import_spec", "import_declaration":
			if language == "go" {
				for i := 0; i < int(n.ChildCount()); i++ {
					c := n.Child(i)
					if c.Type() == "interpreted_string_literal" {
						imports = append(imports, strings.Trim(text(c), `"`))
					}
				}
			}
		case "import_statement", "import_from_statement":
			imports = append(imports, text(n))

		case "type_declaration":
			for i := 0; i < int(n.ChildCount()); i++ {
				spec := n.Child(i)
				if spec.Type() != "type_spec" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				typeNode := spec.ChildByFieldName("type")
				if nameNode == nil || typeNode == nil {
					continue
				}
				name := text(nameNode)
				switch typeNode.Type() {
				case "struct_type":
					qn := modName + "." + name
					classes = append(classes, Class{
						FilePath: filePath, Language: language, Name: name,
						QualifiedName:   qn,
						LineStart:       int(n.StartPoint().Row) + 1,
						LineEnd:         int(n.EndPoint().Row) + 1,
						DetectedPattern: detectPattern(name),
					})
					classIdx[name] = len(classes) - 1
				case "interface_type":
					interfaces = append(interfaces, Interface{
						FilePath: filePath, Language: language, Name: name,
						QualifiedName: modName + "." + name,
						LineStart:     int(n.StartPoint().Row) + 1,
						LineEnd:       int(n.EndPoint().Row) + 1,
					})
				}
			}

		case "function_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				name := text(nameNode)
				functions = append(functions, Function{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName:  modName + "." + name,
					Signature:      firstLine(text(n)),
					LineStart:      int(n.StartPoint().Row) + 1,
					LineEnd:        int(n.EndPoint().Row) + 1,
					ComplexityHint: estimateComplexity(strings.Split(text(n), "\n")),
				})
			}

		case "method_declaration":
			nameNode := n.ChildByFieldName("name")
			recvNode := n.ChildByFieldName("receiver")
			if nameNode != nil && recvNode != nil {
				name := text(nameNode)
				recv := receiverTypeName(text(recvNode))
				qn := modName + "." + recv + "." + name
				functions = append(functions, Function{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName:  qn,
					Signature:      firstLine(text(n)),
					LineStart:      int(n.StartPoint().Row) + 1,
					LineEnd:        int(n.EndPoint().Row) + 1,
					IsMethod:       true,
					OwnerClass:     recv,
					ComplexityHint: estimateComplexity(strings.Split(text(n), "\n")),
				})
				if idx, ok := classIdx[recv]; ok {
					classes[idx].Methods = append(classes[idx].Methods, name)
				}
			}

		case "class_definition", "class_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				name := text(nameNode)
				qn := modName + "." + name
				cls := Class{
					FilePath: filePath, Language: language, Name: name,
					QualifiedName:   qn,
					LineStart:       int(n.StartPoint().Row) + 1,
					LineEnd:         int(n.EndPoint().Row) + 1,
					DetectedPattern: detectPattern(name),
				}
				classes = append(classes, cls)
				idx := len(classes) - 1
				classIdx[name] = idx
				for i := 0; i < int(n.ChildCount()); i++ {
					walk(n.Child(i), name)
				}
				return
			}

		case "function_definition":
			if language == "python" {
				nameNode := n.ChildByFieldName("name")
				if nameNode != nil {
					name := text(nameNode)
					qn := modName + "." + name
					isMethod := owner != ""
					if isMethod {
						qn = modName + "." + owner + "." + name
					}
					functions = append(functions, Function{
						FilePath: filePath, Language: language, Name: name,
						QualifiedName:  qn,
						Signature:      firstLine(text(n)),
						LineStart:      int(n.StartPoint().Row) + 1,
						LineEnd:        int(n.EndPoint().Row) + 1,
						IsMethod:       isMethod,
						OwnerClass:     owner,
						ComplexityHint: estimateComplexity(strings.Split(text(n), "\n")),
					})
					if isMethod {
						if idx, ok := classIdx[owner]; ok {
							classes[idx].Methods = append(classes[idx].Methods, name)
						}
					}
				}
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), owner)
		}
	}

	walk(tree.RootNode(), "")

	return ParseResult{
		Module:     moduleOf(filePath, language, content, imports),
		Classes:    classes,
		Functions:  functions,
		Interfaces: interfaces,
	}, true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// receiverTypeName strips a Go method receiver's "(r *Foo)" down to "Foo".
func receiverTypeName(recv string) string {
	recv = strings.Trim(recv, "()")
	fields := strings.Fields(recv)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimPrefix(fields[len(fields)-1], "*")
}
