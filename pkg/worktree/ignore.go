package worktree

import (
	"bufio"
	"bytes"
	"path"
	"regexp"
	"strings"
)

// IgnoreFile is the per-repository ignore list, read from the worktree root.
const IgnoreFile = ".myvcsignore"

// Ignore decides whether a worktree path is excluded from status and bulk
// staging. The metadata directory is always excluded.
type Ignore struct {
	rules []ignoreRule
}

type ignoreRule struct {
	glob     string
	negated  bool
	dirOnly  bool
	anchored bool // contains a slash: match the full path, not the base name
	re       *regexp.Regexp
}

// ParseIgnore builds an Ignore from .myvcsignore content. Blank lines and
// lines starting with # are skipped; !pattern re-includes; a trailing slash
// restricts the rule to directories; ** spans path segments.
func ParseIgnore(data []byte) *Ignore {
	ig := &Ignore{rules: []ignoreRule{{glob: MetaDir}, {glob: ".git"}}}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if r, ok := parseIgnoreLine(sc.Text()); ok {
			ig.rules = append(ig.rules, r)
		}
	}
	return ig
}

func parseIgnoreLine(line string) (ignoreRule, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}
	var r ignoreRule
	if strings.HasPrefix(line, "!") {
		r.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return ignoreRule{}, false
	}
	r.anchored = strings.Contains(line, "/")
	r.glob = line
	if strings.Contains(line, "**") {
		if re, err := regexp.Compile(globToRegex(line)); err == nil {
			r.re = re
		}
	}
	return r, true
}

// Match reports whether p (slash separated, relative) is ignored. A path is
// ignored when it or one of its parent directories matches, and the last
// matching rule wins.
func (ig *Ignore) Match(p string) bool {
	if ig == nil {
		return false
	}
	ignored := false
	for _, r := range ig.rules {
		if r.matches(p) {
			ignored = !r.negated
		}
	}
	return ignored
}

func (r ignoreRule) matches(p string) bool {
	// Parent directories: every proper prefix ending at a slash.
	for i := 0; i < len(p); i++ {
		if p[i] == '/' && r.matchOne(p[:i]) {
			return true
		}
	}
	if r.dirOnly {
		return false
	}
	return r.matchOne(p)
}

func (r ignoreRule) matchOne(p string) bool {
	target := p
	if !r.anchored {
		target = path.Base(p)
	}
	if r.re != nil {
		return r.re.MatchString(target)
	}
	ok, _ := path.Match(r.glob, target)
	return ok
}

func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case ch == '*' && i+2 < len(pattern) && pattern[i+1] == '*' && pattern[i+2] == '/':
			// "**/" matches zero or more leading directories.
			b.WriteString("(?:.*/)?")
			i += 2
		case ch == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			b.WriteString(".*")
			i++
		case ch == '*':
			b.WriteString("[^/]*")
		case ch == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	b.WriteString("$")
	return b.String()
}
