// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package textset

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/petar-djukic/typhost/internal/packages"
	"github.com/petar-djukic/typhost/pkg/engine"
	"github.com/petar-djukic/typhost/pkg/source"
	"github.com/petar-djukic/typhost/pkg/types"
)

// function describes a markup function callable as #name.
type function struct {
	name      string
	signature string
	doc       string
	apply     string
}

var functions = []function{
	{"include", `include(path: str)`, "Sets the content of another file in place.", `include "${path}"`},
	{"link", `link(dest: str | int)[body]`, "Links a line to a URL or to a page of the document.", `link("${dest}")[${body}]`},
	{"pagebreak", `pagebreak()`, "Starts a new page.", `pagebreak()`},
	{"today", `today(offset: int)`, "Inserts the current date, optionally at a fixed UTC offset in hours.", `today()`},
}

func lookupFunction(name string) (function, bool) {
	for _, fn := range functions {
		if fn.name == name {
			return fn, true
		}
	}
	return function{}, false
}

func functionNames() string {
	names := make([]string, len(functions))
	for i, fn := range functions {
		names[i] = fn.name
	}
	return strings.Join(names, ", ")
}

type pageRef struct {
	page int
	span engine.Span
}

// compiler holds the state of one compilation.
type compiler struct {
	ctx      context.Context
	w        engine.World
	lines    []line
	errors   []engine.SourceDiagnostic
	warnings []engine.SourceDiagnostic
	active   map[types.FileID]bool
	pageRefs []pageRef
}

// Compile lays out the world's entry file.
func (e *Engine) Compile(ctx context.Context, w engine.World) engine.CompileResult {
	start := time.Now()
	c := &compiler{ctx: ctx, w: w, active: make(map[types.FileID]bool)}

	main := w.Main()
	if src, err := w.Source(main); err != nil {
		c.fail(engine.Span{Detached: true}, fmt.Sprintf("cannot read entry file %s: %v", main, err))
	} else {
		c.file(src)
	}
	if err := ctx.Err(); err != nil {
		c.fail(engine.Span{Detached: true}, fmt.Sprintf("compilation canceled: %v", err))
	}
	if len(c.errors) > 0 {
		e.log.Debug().Stringer("main", main).Int("errors", len(c.errors)).Msg("layout failed")
		return engine.CompileResult{Errors: c.errors, Warnings: c.warnings}
	}

	doc := paginate(c.lines)
	for _, ref := range c.pageRefs {
		if ref.page > len(doc.Pages) {
			c.warn(ref.span, fmt.Sprintf("link target page %d does not exist", ref.page),
				fmt.Sprintf("the document has %d pages", len(doc.Pages)))
		}
	}
	e.log.Debug().
		Stringer("main", main).
		Int("pages", len(doc.Pages)).
		Dur("elapsed", time.Since(start)).
		Msg("layout done")
	return engine.CompileResult{Document: doc, Warnings: c.warnings}
}

func (c *compiler) fail(sp engine.Span, msg string, hints ...string) {
	c.errors = append(c.errors, engine.SourceDiagnostic{Severity: types.SeverityError, Span: sp, Message: msg, Hints: hints})
}

func (c *compiler) warn(sp engine.Span, msg string, hints ...string) {
	c.warnings = append(c.warnings, engine.SourceDiagnostic{Severity: types.SeverityWarning, Span: sp, Message: msg, Hints: hints})
}

func (c *compiler) emit(it Item) {
	if n := utf8.RuneCountInString(it.Text); n > maxColumns {
		c.warn(it.Span, "line is wider than the text area and will be clipped",
			fmt.Sprintf("the text area holds %d characters, the line has %d", maxColumns, n))
	}
	c.lines = append(c.lines, line{item: it})
}

// file lays out every line of src.
func (c *compiler) file(src *source.Source) {
	id := src.ID()
	c.active[id] = true
	defer delete(c.active, id)

	n := src.LineCount()
	for i := 0; i < n; i++ {
		if c.ctx.Err() != nil {
			return
		}
		text, _ := src.Line(i)
		if i == n-1 && i > 0 && text == "" {
			break
		}
		start, _ := src.LineToByte(i)
		c.line(id, text, start)
	}
}

func (c *compiler) line(id types.FileID, text string, start int) {
	trimmed := strings.TrimLeft(text, " \t")
	at := start + len(text) - len(trimmed)
	switch {
	case strings.HasPrefix(trimmed, "//"):
	case strings.HasPrefix(trimmed, "#"):
		c.directive(id, trimmed, at)
	case trimmed == "=" || strings.HasPrefix(trimmed, "= "):
		rest := trimmed[1:]
		lead := len(rest) - len(strings.TrimLeft(rest, " \t"))
		body := strings.TrimRight(rest[lead:], " \t")
		from := at + 1 + lead
		c.emit(Item{
			Text:    body,
			Span:    engine.Span{File: id, Start: from, End: from + len(body)},
			Literal: true,
			Heading: true,
		})
	default:
		c.emit(Item{
			Text:    text,
			Span:    engine.Span{File: id, Start: start, End: start + len(text)},
			Literal: true,
		})
	}
}

// directive handles a line starting with '#' at byte offset at.
func (c *compiler) directive(id types.FileID, text string, at int) {
	name := identifierAt(text, 1)
	rest := text[1+len(name):]
	restAt := at + 1 + len(name)
	nameSpan := engine.Span{File: id, Start: at, End: restAt}
	whole := engine.Span{File: id, Start: at, End: at + len(strings.TrimRight(text, " \t"))}

	switch name {
	case "":
		c.fail(engine.Span{File: id, Start: at, End: at + 1}, "expected a function name after #")
	case "pagebreak":
		call, ok := parseCall(rest)
		if !ok || strings.TrimSpace(call.args) != "" || call.hasBody {
			c.fail(whole, "pagebreak takes no arguments")
			return
		}
		c.lines = append(c.lines, line{pageBreak: true})
	case "include":
		c.include(id, rest, restAt)
	case "link":
		c.link(id, rest, restAt, whole)
	case "today":
		c.today(id, rest, whole)
	default:
		c.fail(nameSpan, fmt.Sprintf("unknown function: %s", name), "known functions are "+functionNames())
	}
}

func (c *compiler) include(id types.FileID, rest string, restAt int) {
	lead := len(rest) - len(strings.TrimLeft(rest, " \t"))
	lit := strings.TrimRight(rest[lead:], " \t")
	litSpan := engine.Span{File: id, Start: restAt + lead, End: restAt + lead + len(lit)}
	if !strings.HasPrefix(lit, `"`) {
		c.fail(litSpan, "expected a path string", `write #include "chapter.typ"`)
		return
	}
	p, err := strconv.Unquote(lit)
	if err != nil {
		c.fail(litSpan, "unterminated path string")
		return
	}
	target, err := resolveInclude(c.w, id, p)
	if err != nil {
		c.fail(litSpan, err.Error())
		return
	}
	if c.active[target] {
		c.fail(litSpan, fmt.Sprintf("cyclic include of %s", target))
		return
	}
	src, err := c.w.Source(target)
	if err != nil {
		c.fail(litSpan, fmt.Sprintf("cannot include %s: %v", target, err))
		return
	}
	c.file(src)
}

// resolveInclude maps an include path to a file identity. Package paths
// name the entrypoint declared in the package manifest.
func resolveInclude(w engine.World, from types.FileID, p string) (types.FileID, error) {
	if !strings.HasPrefix(p, "@") {
		return from.Join(p), nil
	}
	spec, err := types.ParsePackageSpec(p)
	if err != nil {
		return types.FileID{}, err
	}
	data, err := w.File(types.NewFileID(&spec, types.NewVirtualPath(packages.ManifestName)))
	if err != nil {
		return types.FileID{}, fmt.Errorf("cannot load package %s: %w", spec, err)
	}
	m, err := packages.ParseManifest(data)
	if err != nil {
		return types.FileID{}, fmt.Errorf("package %s: %w", spec, err)
	}
	return types.NewFileID(&spec, types.NewVirtualPath(m.Package.Entrypoint)), nil
}

func (c *compiler) link(id types.FileID, rest string, restAt int, whole engine.Span) {
	call, ok := parseCall(rest)
	if !ok {
		c.fail(whole, "expected link(dest)[body]")
		return
	}
	args := strings.TrimSpace(call.args)
	it := Item{Span: whole}
	var dest string
	if strings.HasPrefix(args, `"`) {
		url, err := strconv.Unquote(args)
		if err != nil || url == "" {
			c.fail(whole, "link destination must be a non-empty string or a page number")
			return
		}
		it.Link = &Link{URL: url}
		dest = url
	} else {
		page, err := strconv.Atoi(args)
		if err != nil || page < 1 {
			c.fail(whole, "link destination must be a non-empty string or a page number")
			return
		}
		it.Link = &Link{Page: page}
		dest = fmt.Sprintf("page %d", page)
		c.pageRefs = append(c.pageRefs, pageRef{page: page, span: whole})
	}
	if call.hasBody && call.body != "" {
		from := restAt + call.bodyAt
		it.Text = call.body
		it.Span = engine.Span{File: id, Start: from, End: from + len(call.body)}
		it.Literal = true
	} else {
		it.Text = dest
	}
	c.emit(it)
}

func (c *compiler) today(id types.FileID, rest string, whole engine.Span) {
	call, ok := parseCall(rest)
	if !ok || call.hasBody {
		c.fail(whole, "expected today() or today(offset)")
		return
	}
	var offset *int
	if args := strings.TrimSpace(call.args); args != "" {
		n, err := strconv.Atoi(args)
		if err != nil {
			c.fail(whole, fmt.Sprintf("invalid UTC offset %q", args))
			return
		}
		offset = &n
	}
	t, ok := c.w.Today(offset)
	if !ok {
		c.fail(whole, "the current date is not available", "offsets must lie between -24 and 24 hours")
		return
	}
	c.emit(Item{Text: t.Format(time.DateOnly), Span: whole})
}

// call is a parsed "(args)[body]" suffix. Offsets are relative to the
// parsed string.
type call struct {
	args    string
	body    string
	bodyAt  int
	hasBody bool
}

func parseCall(s string) (call, bool) {
	if !strings.HasPrefix(s, "(") {
		return call{}, false
	}
	end := -1
	inString := false
scan:
	for i := 1; i < len(s); i++ {
		switch {
		case inString && s[i] == '\\':
			i++
		case s[i] == '"':
			inString = !inString
		case !inString && s[i] == ')':
			end = i
			break scan
		}
	}
	if end < 0 {
		return call{}, false
	}
	c := call{args: s[1:end]}
	tail := strings.TrimRight(s[end+1:], " \t")
	if strings.HasPrefix(tail, "[") {
		if !strings.HasSuffix(tail, "]") {
			return call{}, false
		}
		c.body = tail[1 : len(tail)-1]
		c.bodyAt = end + 2
		c.hasBody = true
		tail = ""
	}
	return c, strings.TrimSpace(tail) == ""
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '-' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// identifierAt returns the identifier starting at byte i of s.
func identifierAt(s string, i int) string {
	j := i
	for j < len(s) && isIdentByte(s[j]) {
		j++
	}
	return s[i:j]
}
