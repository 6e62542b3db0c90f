package parser

import (
	"fmt"
	"strings"
	"testing"
)

func nonTermNode(kindName string, children ...*Node) *Node {
	return &Node{
		Type:     NodeTypeNonTerminal,
		KindName: kindName,
		Children: children,
	}
}

func termNode(kindName string, text string) *Node {
	return &Node{
		Type:     NodeTypeTerminal,
		KindName: kindName,
		Text:     text,
	}
}

func testTree(t *testing.T, got, want *Node) {
	t.Helper()

	if !equalTree(got, want) {
		t.Fatalf("unexpected tree\nwant:\n%v\ngot:\n%v", treeString(want), treeString(got))
	}
}

func equalTree(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.KindName != b.KindName || a.Text != b.Text {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i, c := range a.Children {
		if !equalTree(c, b.Children[i]) {
			return false
		}
	}
	return true
}

func treeString(n *Node) string {
	var b strings.Builder
	PrintTree(&b, n)
	return b.String()
}

// testSemAct is a SemanticActionSet that just logs the actions a Parser performs, used to assert
// the exact sequence of shifts, reduces, and error actions a parse takes.
type testSemAct struct {
	gram   Grammar
	actLog []string
}

func (a *testSemAct) Shift(tok VToken, recovered bool) {
	term := a.tokenToTerminal(tok)
	a.actLog = append(a.actLog, fmt.Sprintf("shift/%v", a.gram.Terminal(term)))
}

func (a *testSemAct) Reduce(prodNum int, recovered bool) {
	lhs := a.gram.LHS(prodNum)
	a.actLog = append(a.actLog, fmt.Sprintf("reduce/%v", a.gram.NonTerminal(lhs)))
}

func (a *testSemAct) Accept() {
	a.actLog = append(a.actLog, "accept")
}

func (a *testSemAct) TrapAndShiftError(cause VToken, popped int) {
	a.actLog = append(a.actLog, "error")
}

func (a *testSemAct) MissError(cause VToken) {
	a.actLog = append(a.actLog, "miss")
}

func (a *testSemAct) tokenToTerminal(tok VToken) int {
	if tok.EOF() {
		return a.gram.EOF()
	}
	return tok.TerminalID()
}
