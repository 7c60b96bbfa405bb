package graph

import "strings"

// extByLanguage maps a file extension (including the leading dot) to the
// Language an analyzer run should request from Parser.Parse.
var extByLanguage = map[string]Language{
	".go":   LangGo,
	".ts":   LangTypeScript,
	".tsx":  LangTSX,
	".js":   LangJavaScript,
	".jsx":  LangJSX,
	".mjs":  LangJavaScript,
	".cjs":  LangJavaScript,
	".java": LangJava,
	".py":   LangPython,
	".md":   LangMarkdown,
	".mdx":  LangMarkdown,
}

// LanguageForExt returns the Language registered for a file extension
// (case-insensitive, leading dot required, e.g. ".go"), and whether one was
// found.
func LanguageForExt(ext string) (Language, bool) {
	lang, ok := extByLanguage[strings.ToLower(ext)]
	return lang, ok
}
