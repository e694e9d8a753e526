// Package parse builds the target configuration from Markdown documents.
//
// A level-1 heading declares a target: an inline code span makes a file
// target (a code span like `*.o` makes a wildcard rule), plain text makes a
// phony target. A bullet list under the heading supplies dependencies, and
// each fenced code block supplies one recipe.
package parse

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/yaklabco/mdmake/target"
)

// md is the shared markdown engine. GFM matches what documents written for
// GitHub rendering actually contain.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Files parses the given configuration sources in order into a single
// Config. Later sources may add targets or override earlier ones by name.
// After all sources are consumed, dependency names with no declaration are
// synthesized as plain file targets.
func Files(paths []string) (*target.Config, error) {
	p, err := newDocParser()
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := p.document(src); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	p.finalize()
	return p.cfg, nil
}

// Document parses a single in-memory document. It exists for tests and for
// callers that already hold the source text.
func Document(src []byte) (*target.Config, error) {
	p, err := newDocParser()
	if err != nil {
		return nil, err
	}
	if err := p.document(src); err != nil {
		return nil, err
	}
	p.finalize()
	return p.cfg, nil
}

type kind int

const (
	kindPhony kind = iota
	kindFile
	kindPattern
)

// draft accumulates one target declaration between level-1 headings. Holding
// the whole declaration in one value (instead of parallel in-heading /
// in-list / in-recipe booleans) makes invalid parser states unrepresentable:
// either no declaration is open, or exactly one is.
type draft struct {
	name    string
	kind    kind
	deps    []string
	recipes []target.Recipe
}

func (d *draft) firstDep() string {
	if len(d.deps) == 0 {
		return ""
	}
	return d.deps[0]
}

type docParser struct {
	cfg     *target.Config
	dirname string
	cur     *draft
	err     error
}

func newDocParser() (*docParser, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &docParser{cfg: target.NewConfig(), dirname: filepath.Base(wd)}, nil
}

func (p *docParser) document(src []byte) error {
	doc := md.Parser().Parse(text.NewReader(src))
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			if n.Level != 1 {
				continue
			}
			p.flush()
			p.begin(n, src)
		case *ast.List:
			if p.cur == nil || n.IsOrdered() {
				continue
			}
			p.dependencies(n, src)
		case *ast.FencedCodeBlock:
			if p.cur == nil {
				continue
			}
			p.recipe(n, src)
		}
	}
	p.flush()
	return p.err
}

func (p *docParser) begin(h *ast.Heading, src []byte) {
	if cs := firstCodeSpan(h); cs != nil {
		name := p.expand(nodeText(cs, src))
		k := kindFile
		if strings.HasPrefix(name, "*.") && len(name) > 2 {
			k = kindPattern
		}
		p.cur = &draft{name: name, kind: k}
		return
	}
	p.cur = &draft{name: strings.TrimSpace(nodeText(h, src)), kind: kindPhony}
}

func (p *docParser) dependencies(list *ast.List, src []byte) {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		block := item.FirstChild()
		if block == nil {
			continue
		}
		if cs, ok := block.FirstChild().(*ast.CodeSpan); ok {
			p.codeDependency(nodeText(cs, src))
			continue
		}
		if s := strings.TrimSpace(nodeText(block, src)); s != "" {
			p.cur.deps = append(p.cur.deps, s)
		}
	}
}

// codeDependency handles a dependency written as inline code: user-home
// expansion, then glob expansion against the filesystem. No match keeps the
// literal text. Wildcard rules keep the literal pattern string untouched,
// since their dependency is a template resolved at instantiation time.
func (p *docParser) codeDependency(s string) {
	s = expandHome(p.expand(s))
	if p.cur.kind == kindPattern {
		p.cur.deps = append(p.cur.deps, s)
		return
	}
	if matches, err := filepath.Glob(s); err == nil && len(matches) > 0 {
		p.cur.deps = append(p.cur.deps, matches...)
		return
	}
	p.cur.deps = append(p.cur.deps, s)
}

func (p *docParser) recipe(n *ast.FencedCodeBlock, src []byte) {
	info := ""
	if n.Info != nil {
		info = strings.TrimSpace(string(n.Info.Segment.Value(src)))
	}
	content := p.expand(blockContent(n, src))

	if info != "" {
		shell, allowed := splitAllowed(info)
		cmd := content
		if p.cur.kind != kindPattern {
			cmd = target.SubstituteTokens(cmd, p.cur.name, p.cur.firstDep())
		}
		p.cur.recipes = append(p.cur.recipes, target.Recipe{
			Shell:    shell,
			Allowed:  allowed,
			Commands: []string{cmd},
		})
		return
	}

	// Line continuations resolve before splitting so a trailing backslash
	// joins onto the next line.
	content = strings.ReplaceAll(content, "\\\n", "")
	var cmds []string
	for line := range strings.SplitSeq(content, "\n") {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if p.cur.kind != kindPattern {
			line = target.SubstituteTokens(line, p.cur.name, p.cur.firstDep())
		}
		cmds = append(cmds, line)
	}
	p.cur.recipes = append(p.cur.recipes, target.Recipe{Commands: cmds})
}

func (p *docParser) flush() {
	d := p.cur
	if d == nil {
		return
	}
	p.cur = nil
	switch d.kind {
	case kindPhony:
		p.cfg.Set(target.NewPhony(d.name, d.deps, d.recipes))
	case kindFile:
		p.cfg.Set(target.NewFile(d.name, d.deps, d.recipes))
	case kindPattern:
		t, err := target.NewPattern(d.name, d.deps, d.recipes)
		if err != nil {
			if p.err == nil {
				p.err = fmt.Errorf("invalid pattern target %q: %w", d.name, err)
			}
			return
		}
		p.cfg.Set(t)
	}
}

// finalize synthesizes a plain file target for every dependency name that no
// source declared. Such files are then mandatory at execution time. Wildcard
// rules are skipped: their dependencies are templates, resolved when the rule
// is instantiated.
func (p *docParser) finalize() {
	deps := lo.Uniq(lo.FlatMap(p.cfg.All(), func(t *target.Target, _ int) []string {
		if t.IsPattern() {
			return nil
		}
		return t.Deps
	}))
	for _, name := range deps {
		if _, ok := p.cfg.Get(name); !ok {
			p.cfg.Set(target.NewFile(name, nil, nil))
		}
	}
}

func (p *docParser) expand(s string) string {
	return strings.ReplaceAll(s, "{dirname}", p.dirname)
}

// splitAllowed strips allow=N[,N...] tokens from a fence info string,
// returning the remaining interpreter command line and the tolerated exit
// codes.
func splitAllowed(info string) (string, []int) {
	var shell []string
	var allowed []int
	for _, tok := range strings.Fields(info) {
		codes, ok := strings.CutPrefix(tok, "allow=")
		if !ok {
			shell = append(shell, tok)
			continue
		}
		for _, c := range strings.Split(codes, ",") {
			if n, err := strconv.Atoi(c); err == nil {
				allowed = append(allowed, n)
			}
		}
	}
	return strings.Join(shell, " "), allowed
}

func expandHome(s string) string {
	if s == "~" || strings.HasPrefix(s, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(s, "~"))
		}
	}
	return s
}

// firstCodeSpan returns the first inline code span under n, or nil.
func firstCodeSpan(n ast.Node) *ast.CodeSpan {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if cs, ok := c.(*ast.CodeSpan); ok {
			return cs
		}
	}
	return nil
}

// nodeText concatenates the plain text of n's inline children.
func nodeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(nodeText(c, src))
		}
	}
	return sb.String()
}

// blockContent returns the raw content of a fenced code block.
func blockContent(n *ast.FencedCodeBlock, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return sb.String()
}
