package graph

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ImportResolver rewrites raw import specifiers (extracted by tree-sitter)
// into repo-relative file identifiers. It is built once per build_graph run
// with the set of known file paths and any workspace metadata discovered in
// the repository root, and reclassifies each edge it resolves from
// imports_library to imports_file.
type ImportResolver struct {
	repoRoot     string
	fileSet      map[string]bool
	dirIndex     map[string][]string
	tsWorkspaces map[string]*tsWorkspace
	goModPath    string
}

// tsWorkspace holds metadata about a single npm/bun workspace package.
type tsWorkspace struct {
	dir            string            // repo-relative directory (e.g. "packages/db")
	mainFile       string            // default export target, repo-relative
	subpathExports map[string]string // "./queries" → "packages/db/src/queries.ts"
}

// NewImportResolver builds an ImportResolver from the repository root and
// the set of known repo-relative file paths. It scans for workspace
// metadata (package.json, go.mod) to enable package-aware resolution.
func NewImportResolver(repoRoot string, knownFiles []string) *ImportResolver {
	r := &ImportResolver{
		repoRoot:     repoRoot,
		fileSet:      make(map[string]bool, len(knownFiles)),
		dirIndex:     make(map[string][]string),
		tsWorkspaces: make(map[string]*tsWorkspace),
	}

	for _, f := range knownFiles {
		r.fileSet[f] = true
		dir := filepath.Dir(f)
		r.dirIndex[dir] = append(r.dirIndex[dir], f)
	}

	r.scanTSWorkspaces()
	r.scanGoMod()

	return r
}

// ResolveEdge attempts to resolve a single imports_library edge's TargetID
// from a raw import specifier to a project file identifier. On success the
// edge's Type is reclassified to imports_file. Edges of any other type, or
// specifiers that resolve to nothing within the project (external
// libraries), pass through unchanged as imports_library.
func (r *ImportResolver) ResolveEdge(edge Edge, lang Language, projectName string) Edge {
	if edge.Type != "imports_library" {
		return edge
	}

	var resolved string
	var ok bool

	switch lang {
	case LangTypeScript, LangTSX, LangJavaScript, LangJSX:
		resolved, ok = r.resolveTS(edge.TargetID, edge.SourceFile)
	case LangGo:
		resolved, ok = r.resolveGo(edge.TargetID)
	case LangPython:
		resolved, ok = r.resolvePython(edge.TargetID, edge.SourceFile)
	default:
		ok = false
	}

	if !ok {
		return edge
	}

	edge.TargetID = BuildIdentifier(projectName, resolved, NodeTypeFile)
	edge.Type = "imports_file"
	return edge
}

// ResolveAll resolves every imports_library edge in edges in place.
func (r *ImportResolver) ResolveAll(edges []Edge, lang Language, projectName string) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = r.ResolveEdge(e, lang, projectName)
	}
	return out
}

// --- TypeScript resolution ---

var tsExtensions = []string{".ts", ".tsx", ".js", ".jsx", "/index.ts", "/index.tsx", "/index.js"}

func (r *ImportResolver) resolveTS(importPath, sourceFile string) (string, bool) {
	// Relative imports.
	if strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../") {
		sourceDir := filepath.Dir(sourceFile)
		base := filepath.Join(sourceDir, importPath)
		base = filepath.Clean(base)
		return r.probeFile(base, tsExtensions)
	}

	// Workspace package imports.
	return r.resolveTSWorkspace(importPath)
}

func (r *ImportResolver) resolveTSWorkspace(importPath string) (string, bool) {
	// Try exact match first (e.g. "@test/logger" → mainFile).
	if ws, ok := r.tsWorkspaces[importPath]; ok {
		if ws.mainFile != "" {
			return ws.mainFile, true
		}
		return "", false // workspace has no default export
	}

	// Try splitting into package + subpath.
	// For scoped packages: "@scope/pkg/sub/path" → package="@scope/pkg", subpath="./sub/path"
	// For unscoped: "pkg/sub/path" → package="pkg", subpath="./sub/path"
	var pkgName, subpath string
	if strings.HasPrefix(importPath, "@") {
		// Scoped: find second "/" after the scope.
		afterScope := strings.Index(importPath[1:], "/")
		if afterScope == -1 {
			return "", false // bare @scope (invalid)
		}
		scopeEnd := afterScope + 1 // index of first "/"
		secondSlash := strings.Index(importPath[scopeEnd+1:], "/")
		if secondSlash == -1 {
			return "", false // no subpath, and exact match already failed
		}
		splitAt := scopeEnd + 1 + secondSlash
		pkgName = importPath[:splitAt]
		subpath = "./" + importPath[splitAt+1:]
	} else {
		// Unscoped: "pkg/sub" → package="pkg", subpath="./sub"
		slash := strings.Index(importPath, "/")
		if slash == -1 {
			return "", false // bare package, exact match already failed
		}
		pkgName = importPath[:slash]
		subpath = "./" + importPath[slash+1:]
	}

	ws, ok := r.tsWorkspaces[pkgName]
	if !ok {
		return "", false // external package
	}

	// Check subpath exports.
	if target, ok := ws.subpathExports[subpath]; ok {
		return target, true
	}

	// Fallback: try resolving subpath as a file relative to the workspace dir.
	relPath := subpath[2:] // strip "./"
	base := filepath.Join(ws.dir, relPath)
	return r.probeFile(base, tsExtensions)
}

// --- Go resolution ---

func (r *ImportResolver) resolveGo(importPath string) (string, bool) {
	if r.goModPath == "" {
		return "", false
	}
	if !strings.HasPrefix(importPath, r.goModPath) {
		return "", false // stdlib or external module
	}

	// Strip module path to get repo-relative directory.
	relDir := strings.TrimPrefix(importPath, r.goModPath)
	relDir = strings.TrimPrefix(relDir, "/")

	// Find the first .go file in that directory.
	files := r.dirIndex[relDir]
	if len(files) == 0 {
		return "", false
	}

	// Sort for determinism, pick first .go file.
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)
	for _, f := range sorted {
		if strings.HasSuffix(f, ".go") && !strings.HasSuffix(f, "_test.go") {
			return f, true
		}
	}
	return "", false
}

// --- Python resolution ---

func (r *ImportResolver) resolvePython(importPath, sourceFile string) (string, bool) {
	if !strings.HasPrefix(importPath, ".") {
		return "", false // absolute import (external package)
	}

	// Count leading dots for parent directory traversal.
	dots := 0
	for _, c := range importPath {
		if c == '.' {
			dots++
		} else {
			break
		}
	}

	modulePart := importPath[dots:]

	// Start from source file's directory, go up (dots-1) levels.
	// One dot = same package (current dir), two dots = parent, etc.
	baseDir := filepath.Dir(sourceFile)
	for i := 1; i < dots; i++ {
		baseDir = filepath.Dir(baseDir)
	}

	if modulePart == "" {
		// Bare relative import (just dots) — resolve to __init__.py.
		return r.probeFile(filepath.Join(baseDir, "__init__"), []string{".py"})
	}

	// Replace dots in module name with path separators.
	relPath := strings.ReplaceAll(modulePart, ".", "/")
	base := filepath.Join(baseDir, relPath)

	return r.probeFile(base, []string{".py", "/__init__.py"})
}

// --- Shared helpers ---

// probeFile checks if basePath (with any of the given extensions appended)
// exists in the known file set. No filesystem I/O.
func (r *ImportResolver) probeFile(basePath string, extensions []string) (string, bool) {
	if r.fileSet[basePath] {
		return basePath, true
	}
	for _, ext := range extensions {
		candidate := basePath + ext
		if r.fileSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// --- Workspace / module scanning ---

// packageJSON is a minimal representation for reading package.json files.
type packageJSON struct {
	Name       string          `json:"name"`
	Main       string          `json:"main"`
	Workspaces json.RawMessage `json:"workspaces"`
	Exports    json.RawMessage `json:"exports"`
}

func (r *ImportResolver) scanTSWorkspaces() {
	rootPkg := filepath.Join(r.repoRoot, "package.json")
	data, err := os.ReadFile(rootPkg)
	if err != nil {
		return
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return
	}

	// Parse workspaces field — can be array of globs or object with "packages" key.
	patterns := parseWorkspacePatterns(pkg.Workspaces)
	if len(patterns) == 0 {
		return
	}

	// Expand glob patterns to find workspace directories.
	for _, pattern := range patterns {
		absPattern := filepath.Join(r.repoRoot, pattern)
		matches, err := filepath.Glob(absPattern)
		if err != nil {
			continue
		}
		for _, dir := range matches {
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				continue
			}
			r.loadWorkspacePackage(dir)
		}
	}
}

func parseWorkspacePatterns(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	// Try as array of strings first: ["packages/*", "apps/*"]
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}

	// Try as object with "packages" key: {"packages": ["packages/*"]}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Packages
	}

	return nil
}

func (r *ImportResolver) loadWorkspacePackage(absDir string) {
	pkgPath := filepath.Join(absDir, "package.json")
	data, err := os.ReadFile(pkgPath)
	if err != nil {
		return
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Name == "" {
		return
	}

	relDir, err := filepath.Rel(r.repoRoot, absDir)
	if err != nil {
		return
	}

	ws := &tsWorkspace{
		dir:            relDir,
		subpathExports: make(map[string]string),
	}

	// Parse exports field.
	r.parseExports(ws, pkg.Exports)

	// Fallback to "main" if no default export found.
	if ws.mainFile == "" && pkg.Main != "" {
		candidate := filepath.Join(relDir, pkg.Main)
		candidate = filepath.Clean(candidate)
		if r.fileSet[candidate] {
			ws.mainFile = candidate
		} else if resolved, ok := r.probeFile(candidate, tsExtensions); ok {
			ws.mainFile = resolved
		}
	}

	// Last resort: try index.ts / index.js in the package root or src/.
	if ws.mainFile == "" {
		for _, try := range []string{
			filepath.Join(relDir, "src", "index"),
			filepath.Join(relDir, "index"),
		} {
			if resolved, ok := r.probeFile(try, tsExtensions); ok {
				ws.mainFile = resolved
				break
			}
		}
	}

	r.tsWorkspaces[pkg.Name] = ws
}

func (r *ImportResolver) parseExports(ws *tsWorkspace, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}

	// Try as a simple string: "exports": "./src/index.ts"
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		resolved := filepath.Clean(filepath.Join(ws.dir, str))
		if r.fileSet[resolved] {
			ws.mainFile = resolved
		} else if probed, ok := r.probeFile(resolved, tsExtensions); ok {
			ws.mainFile = probed
		}
		return
	}

	// Try as an object: "exports": {".": "./src/index.ts", "./queries": "./src/queries.ts"}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return
	}

	for key, val := range obj {
		target := resolveExportValue(val)
		if target == "" {
			continue
		}

		resolved := filepath.Clean(filepath.Join(ws.dir, target))
		var finalPath string
		if r.fileSet[resolved] {
			finalPath = resolved
		} else if probed, ok := r.probeFile(resolved, tsExtensions); ok {
			finalPath = probed
		} else {
			continue
		}

		if key == "." {
			ws.mainFile = finalPath
		} else {
			ws.subpathExports[key] = finalPath
		}
	}
}

// resolveExportValue extracts a file path from an export value, which can be
// a string or a conditional object {"import": "...", "require": "...", "default": "..."}.
func resolveExportValue(raw json.RawMessage) string {
	// Try as plain string.
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}

	// Try as conditional object — prefer "import", then "default", then "require".
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}

	for _, key := range []string{"import", "default", "require"} {
		if v, ok := obj[key]; ok {
			// Recurse: conditional values can themselves be strings or nested objects.
			return resolveExportValue(v)
		}
	}
	return ""
}

func (r *ImportResolver) scanGoMod() {
	modPath := filepath.Join(r.repoRoot, "go.mod")
	f, err := os.Open(modPath)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "module ") {
			r.goModPath = strings.TrimSpace(strings.TrimPrefix(line, "module"))
			return
		}
	}
}
