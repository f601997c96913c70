// Package linter is the re-emitter: a second, read-only traversal that
// consumes the decorated tree and produces formatted PowerShell source.
// Grounded directly on original_source/src/ps/linter.rs.
package linter

import (
	"strconv"
	"strings"

	"github.com/benzoXdev/deobfusps/internal/psast"
	"github.com/benzoXdev/deobfusps/internal/value"
)

// spacedTokens is the fixed operator-spacing list from the external
// interface contract: each of these leaf tokens gets a single space on
// both sides.
var spacedTokens = map[string]bool{
	"=": true, "!=": true, "+=": true, "*=": true, "/=": true, "%=": true,
	"+": true, "-": true, "*": true, "|": true,
	">": true, ">>": true, "2>": true, "2>>": true, "3>": true, "3>>": true,
	"4>": true, "4>>": true, "5>": true, "5>>": true, "6>": true, "6>>": true,
	"*>": true, "*>>": true, "<": true,
	"*>&1": true, "2>&1": true, "3>&1": true, "4>&1": true, "5>&1": true, "6>&1": true,
	"*>&2": true, "1>&2": true, "3>&2": true, "4>&2": true, "5>&2": true, "6>&2": true,
	"-as": true, "-ccontains": true, "-ceq": true,
	"-cge": true, "-cgt": true, "-cle": true,
	"-clike": true, "-clt": true, "-cmatch": true,
	"-cne": true, "-cnotcontains": true, "-cnotlike": true,
	"-cnotmatch": true, "-contains": true, "-creplace": true,
	"-csplit": true, "-eq": true, "-ge": true,
	"-gt": true, "-icontains": true, "-ieq": true,
	"-ige": true, "-igt": true, "-ile": true,
	"-ilike": true, "-ilt": true, "-imatch": true,
	"-in": true, "-ine": true, "-inotcontains": true,
	"-inotlike": true, "-inotmatch": true, "-ireplace": true,
	"-is": true, "-isnot": true, "-isplit": true,
	"-join": true, "-le": true, "-like": true,
	"-lt": true, "-match": true, "-ne": true,
	"-notcontains": true, "-notin": true, "-notlike": true,
	"-notmatch": true, "-replace": true, "-shl": true,
	"-shr": true, "-split": true, "in": true, "-f": true,
	"-regex": true, "-wildcard": true,
	"-exact": true, "-caseinsensitive": true, "-parallel": true,
	"-file": true,
}

// trailingSpaceKeywords get a trailing space after themselves on leave,
// when they are the final token of a production (closing the keyword, not
// opening a block that is handled separately).
var trailingSpaceKeywords = map[string]bool{
	"param": true, "-regex": true, "-wildcard": true,
	"-exact": true, "-caseinsensitive": true, "-parallel": true,
	"-file": true, ",": true,
	"function": true, "if": true, "while": true, "else": true,
	"elseif": true, "switch": true, "foreach": true, "for": true, "do": true,
	"filter": true, "workflow": true, "try": true,
}

// blockKeywords are preceded by a space when inline, or by a newline+indent
// when on their own line.
var blockKeywords = map[string]bool{
	"catch": true, "finally": true, "else": true, "elseif": true,
	"begin": true, "process": true, "end": true, "param": true,
}

// Linter walks a decorated tree and renders it back into PowerShell source.
type Linter struct {
	Output string

	tab              []string
	tabChar          string
	newline          string
	comment          bool
	isParamBlock     bool
	isFirstStatement []bool
	unreachable      func(*psast.Node) bool
}

// New returns a Linter configured with the default one-space indent unit.
func New() *Linter {
	return &Linter{tab: []string{""}, tabChar: " ", newline: "\n"}
}

// WithIndent overrides the indent unit (e.g. "\t").
func (l *Linter) WithIndent(unit string) *Linter {
	l.tabChar = unit
	return l
}

// WithComments toggles comment pass-through (default off).
func (l *Linter) WithComments(on bool) *Linter {
	l.comment = on
	return l
}

// WithUnreachable supplies the same branch-predictability judgement the
// folding pass used (see traverse.Strategy): any node this reports true for
// is omitted from the output, subtree included, instead of being printed
// literally. Without it the emitter prints every node it visits verbatim
// except where a Scalar decoration short-circuits it.
func (l *Linter) WithUnreachable(fn func(*psast.Node) bool) *Linter {
	l.unreachable = fn
	return l
}

func (l *Linter) currentTab() string {
	if len(l.tab) == 0 {
		return ""
	}
	return l.tab[len(l.tab)-1]
}

func (l *Linter) pushTab() {
	l.tab = append(l.tab, l.currentTab()+l.tabChar)
}

func (l *Linter) popTab() {
	if len(l.tab) > 0 {
		l.tab = l.tab[:len(l.tab)-1]
	}
}

func isInline(n *psast.Node) bool {
	return n.GetParentOfKind("pipeline") != nil
}

// Print renders root's decorated tree into l.Output.
func (l *Linter) Print(root *psast.Node, data func(*psast.Node) (value.Value, bool)) error {
	return l.visit(root, data)
}

func (l *Linter) visit(n *psast.Node, data func(*psast.Node) (value.Value, bool)) error {
	if l.unreachable != nil && l.unreachable(n) {
		return nil
	}
	descend, err := l.enter(n, data)
	if err != nil {
		return err
	}
	if descend {
		for i := 0; i < n.ChildCount(); i++ {
			if err := l.visit(n.Child(i), data); err != nil {
				return err
			}
		}
	}
	return l.leave(n, descend)
}

func (l *Linter) enter(n *psast.Node, data func(*psast.Node) (value.Value, bool)) (bool, error) {
	switch n.Kind() {
	case "statement_block", "script_block":
		if !isInline(n) {
			l.pushTab()
		}
	case "command_argument_sep", "empty_statement":
		return false, nil
	case "comment":
		return l.comment, nil
	case "command_invokation_operator":
		l.Output += "& "
		return false, nil
	case "while_statement", "if_statement", "function_statement":
		l.Output += l.newline
	case "param_block":
		l.isParamBlock = true
	case "attribute", "variable":
		if l.isParamBlock {
			l.Output += l.newline + l.currentTab()
		}
	case "statement_list":
		l.isFirstStatement = append(l.isFirstStatement, true)
	}

	if parent := n.Parent(); parent != nil {
		switch parent.Kind() {
		case "statement_list":
			last := len(l.isFirstStatement) - 1
			isFirst := last < 0 || l.isFirstStatement[last]
			if isFirst {
				if isInline(parent) {
					l.Output += " "
				} else {
					l.Output += l.newline + l.currentTab()
				}
			}
			if last >= 0 {
				l.isFirstStatement[last] = true
			}
		case "command_elements":
			l.Output += " "
		case "param_block":
			text, _ := n.Text()
			if text == "(" {
				l.pushTab()
			} else if text == ")" {
				l.popTab()
				l.Output += l.newline + l.currentTab()
			}
		}
	}

	if n.ChildCount() == 0 {
		text, err := n.Text()
		if err != nil {
			return false, err
		}
		lower := strings.ToLower(text)
		switch {
		case lower == "{":
			l.Output += " "
		case spacedTokens[lower]:
			l.Output += " "
		case blockKeywords[lower]:
			if isInline(n) {
				l.Output += " "
			} else {
				l.Output += l.newline + l.currentTab()
			}
		case lower == "}":
			if isInline(n) {
				l.Output += " "
			} else {
				l.Output += l.newline
				l.popTab()
				l.Output += l.currentTab()
			}
		}
	}

	if v, ok := data(n); ok {
		switch val := v.(type) {
		case value.Text:
			l.Output += "\""
			s := string(val)
			if n.Kind() == "command_name_expr" {
				s = strings.ToLower(s)
			}
			l.Output += escapeString(s)
			l.Output += "\""
			return false, nil
		case value.Int:
			l.Output += strconv.FormatInt(int64(val), 10)
			return false, nil
		case value.Bool:
			if val {
				l.Output += "$true"
			} else {
				l.Output += "$false"
			}
			return false, nil
		}
	}

	return true, nil
}

// leave closes n. printText is false when enter already printed a value in
// n's place or chose to skip n; a leaf's own text is then not printed.
func (l *Linter) leave(n *psast.Node, printText bool) error {
	switch n.Kind() {
	case "param_block":
		l.isParamBlock = false
	case "statement_list":
		if len(l.isFirstStatement) > 0 {
			l.isFirstStatement = l.isFirstStatement[:len(l.isFirstStatement)-1]
		}
	}

	if printText && n.ChildCount() == 0 {
		text, err := n.Text()
		if err != nil {
			return err
		}
		l.Output += removeUselessTokens(strings.ToLower(text))
	}

	if parent := n.Parent(); parent != nil && parent.Kind() == "statement_list" {
		if isInline(parent) {
			l.Output += ";"
		}
	}

	if n.ChildCount() == 0 {
		text, _ := n.Text()
		lower := strings.ToLower(text)
		if spacedTokens[lower] || trailingSpaceKeywords[lower] {
			l.Output += " "
		}
	}
	return nil
}

func escapeString(src string) string {
	var b strings.Builder
	var previous rune
	for _, c := range src {
		if c == '"' && previous != '`' {
			b.WriteRune('`')
		}
		b.WriteRune(c)
		previous = c
	}
	return b.String()
}

func removeUselessTokens(src string) string {
	return strings.ReplaceAll(src, "`", "")
}
