package graph

import (
	"bytes"
	"context"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// extractor turns a parsed AST (via the query Bridge) into graph nodes and
// edges for one file.
type extractor interface {
	Extract(bridge *Bridge, lang Language, root *tree_sitter.Node, source []byte, projectName, filePath string) ([]Node, []Edge)
}

// TreeSitterParser implements Parser using tree-sitter grammars for every
// supported language except markdown, which has no grammar in this
// engine's dependency surface and is handled by a line-oriented scanner
// (see extract_markdown.go).
//
// A new tree-sitter parser is created per Parse call, so concurrent Parse
// calls share no parser state.
type TreeSitterParser struct {
	projectName string
	bridge      *Bridge
	languages   map[Language]*tree_sitter.Language
	extractors  map[Language]extractor
}

// NewTreeSitterParser creates a TreeSitterParser for projectName with every
// grammar-backed language registered, plus the markdown scanner.
func NewTreeSitterParser(projectName string) *TreeSitterParser {
	bridge := NewBridge()
	RegisterGoQueries(bridge)
	RegisterJSFamilyQueries(bridge)
	RegisterPythonQueries(bridge)
	RegisterJavaQueries(bridge)

	langs := map[Language]*tree_sitter.Language{
		LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
		LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		LangTSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		LangJavaScript: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
		LangJSX:        tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
		LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
		LangJava:       tree_sitter.NewLanguage(tree_sitter_java.Language()),
	}

	jsExt := &jsFamilyExtractor{}
	extractors := map[Language]extractor{
		LangGo:         &goExtractor{},
		LangTypeScript: jsExt,
		LangTSX:        jsExt,
		LangJavaScript: jsExt,
		LangJSX:        jsExt,
		LangPython:     &pyExtractor{},
		LangJava:       &javaExtractor{},
	}

	return &TreeSitterParser{
		projectName: projectName,
		bridge:      bridge,
		languages:   langs,
		extractors:  extractors,
	}
}

// Parse extracts nodes and edges from a single source file.
func (p *TreeSitterParser) Parse(_ context.Context, path string, source []byte, lang Language) (*ParseResult, error) {
	if lang == LangMarkdown {
		return parseMarkdown(p.projectName, path, source), nil
	}

	tsLang, ok := p.languages[lang]
	if !ok {
		return nil, NewError(KindUnsupportedLanguage, "TreeSitterParser.Parse", errUnsupportedLang(lang))
	}
	ext, ok := p.extractors[lang]
	if !ok {
		return nil, NewError(KindUnsupportedLanguage, "TreeSitterParser.Parse", errUnsupportedLang(lang))
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, NewError(KindParseError, "TreeSitterParser.Parse", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, NewError(KindParseError, "TreeSitterParser.Parse", errNilTree(path))
	}
	defer tree.Close()

	root := tree.RootNode()
	nodes, edges := ext.Extract(p.bridge, lang, root, source, p.projectName, path)

	fileNode := Node{
		ID:        BuildIdentifier(p.projectName, path, NodeTypeFile),
		Type:      NodeTypeFile,
		Name:      path,
		FilePath:  path,
		Language:  lang,
		Metadata:  map[string]any{"loc": countLOC(source)},
	}

	return &ParseResult{File: fileNode, Nodes: nodes, Edges: edges}, nil
}

// SupportedLanguages returns every language this parser can handle,
// markdown included.
func (p *TreeSitterParser) SupportedLanguages() []Language {
	langs := make([]Language, 0, len(p.languages)+1)
	for l := range p.languages {
		langs = append(langs, l)
	}
	langs = append(langs, LangMarkdown)
	return langs
}

// Close is a no-op because parsers are created per Parse call.
func (p *TreeSitterParser) Close() error { return nil }

func errUnsupportedLang(lang Language) error {
	return fmt.Errorf("unsupported language: %s", lang)
}

func errNilTree(path string) error {
	return fmt.Errorf("tree-sitter returned nil tree for %s", path)
}

func countLOC(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	return bytes.Count(source, []byte{'\n'}) + 1
}
