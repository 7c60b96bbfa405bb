package graph

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// No tree-sitter grammar for Markdown is available in this engine's
// dependency surface, so headings and links are pulled out with a
// line-oriented scanner in the same regex-driven style the rest of this
// codebase uses for lightweight text parsing.
var (
	atxHeadingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	setextH1Re    = regexp.MustCompile(`^=+\s*$`)
	setextH2Re    = regexp.MustCompile(`^-+\s*$`)
	mdLinkRe      = regexp.MustCompile(`!?\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	mdImagePrefix = "!"
)

// parseMarkdown scans source for ATX/Setext headings (emitted as
// heading-symbol nodes) and Markdown links (emitted as references edges),
// classifying each link target via Metadata["linkKind"].
func parseMarkdown(projectName, filePath string, source []byte) *ParseResult {
	var nodes []Node
	var edges []Edge

	fileID := BuildIdentifier(projectName, filePath, NodeTypeFile)
	scanner := bufio.NewScanner(bytes.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	for i, line := range lines {
		if m := atxHeadingRe.FindStringSubmatch(line); m != nil {
			level := len(m[1])
			title := strings.TrimSpace(m[2])
			nodes = append(nodes, headingNode(projectName, filePath, title, level, i+1))
			continue
		}
		if i+1 < len(lines) && strings.TrimSpace(line) != "" {
			if setextH1Re.MatchString(lines[i+1]) {
				nodes = append(nodes, headingNode(projectName, filePath, strings.TrimSpace(line), 1, i+1))
			} else if setextH2Re.MatchString(lines[i+1]) {
				nodes = append(nodes, headingNode(projectName, filePath, strings.TrimSpace(line), 2, i+1))
			}
		}

		for _, lm := range mdLinkRe.FindAllStringSubmatchIndex(line, -1) {
			text := line[lm[2]:lm[3]]
			target := line[lm[4]:lm[5]]
			isImage := strings.HasPrefix(line[lm[0]:lm[1]], mdImagePrefix)
			edges = append(edges, Edge{
				SourceID:   fileID,
				TargetID:   target,
				Type:       "references",
				SourceFile: filePath,
				Metadata: map[string]any{
					"linkText": text,
					"linkKind": classifyLink(target, isImage),
				},
			})
		}
	}

	return &ParseResult{
		File: Node{
			ID:       fileID,
			Type:     NodeTypeFile,
			Name:     filePath,
			FilePath: filePath,
			Language: LangMarkdown,
			Metadata: map[string]any{"loc": len(lines)},
		},
		Nodes: nodes,
		Edges: edges,
	}
}

func headingNode(projectName, filePath, title string, level, line int) Node {
	return Node{
		ID:        BuildIdentifier(projectName, filePath, NodeTypeHeadingSymbol, fmt.Sprintf("%d:%s", level, title)),
		Type:      NodeTypeHeadingSymbol,
		Name:      title,
		FilePath:  filePath,
		Language:  LangMarkdown,
		StartLine: line,
		EndLine:   line,
		Metadata:  map[string]any{"level": level},
	}
}

func classifyLink(target string, isImage bool) string {
	switch {
	case isImage:
		return "image"
	case strings.HasPrefix(target, "http://"), strings.HasPrefix(target, "https://"):
		return "external-url"
	case strings.HasPrefix(target, "#"):
		return "reference"
	default:
		return "internal-file"
	}
}
