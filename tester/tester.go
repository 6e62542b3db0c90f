package tester

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/gramforge/gramforge/driver/parser"
	gspec "github.com/gramforge/gramforge/spec/grammar"
	tspec "github.com/gramforge/gramforge/spec/test"
)

type TestResult struct {
	TestCasePath string
	Error        error
	Diffs        []*tspec.TreeDiff
}

func (r *TestResult) String() string {
	if r.Error != nil {
		const indent1 = "    "
		const indent2 = indent1 + indent1

		msgLines := strings.Split(r.Error.Error(), "\n")
		msg := fmt.Sprintf("Failed %v:\n%v%v", r.TestCasePath, indent1, strings.Join(msgLines, "\n"+indent1))
		if len(r.Diffs) == 0 {
			return msg
		}
		var diffLines []string
		for _, diff := range r.Diffs {
			diffLines = append(diffLines, diff.Message)
			diffLines = append(diffLines, fmt.Sprintf("%vexpected path: %v", indent1, diff.ExpectedPath))
			diffLines = append(diffLines, fmt.Sprintf("%vactual path:   %v", indent1, diff.ActualPath))
		}
		return fmt.Sprintf("%v\n%v%v", msg, indent2, strings.Join(diffLines, "\n"+indent2))
	}
	return fmt.Sprintf("Passed %v", r.TestCasePath)
}

type TestCaseWithMetadata struct {
	TestCase *tspec.TestCase
	FilePath string
	Error    error
}

func ListTestCases(testPath string) []*TestCaseWithMetadata {
	fi, err := os.Stat(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	if !fi.IsDir() {
		c, err := parseTestCase(testPath)
		return []*TestCaseWithMetadata{
			{
				TestCase: c,
				FilePath: testPath,
				Error:    err,
			},
		}
	}

	es, err := os.ReadDir(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	cases := arraylist.New()
	for _, e := range es {
		for _, c := range ListTestCases(filepath.Join(testPath, e.Name())) {
			cases.Add(c)
		}
	}
	cs := make([]*TestCaseWithMetadata, cases.Size())
	for i, v := range cases.Values() {
		cs[i] = v.(*TestCaseWithMetadata)
	}
	return cs
}

func parseTestCase(testCasePath string) (*tspec.TestCase, error) {
	f, err := os.Open(testCasePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tspec.ParseTestCase(f)
}

type Tester struct {
	Grammar *gspec.CompiledGrammar
	Cases   []*TestCaseWithMetadata
}

func (t *Tester) Run() []*TestResult {
	var rs []*TestResult
	for _, c := range t.Cases {
		rs = append(rs, runTest(t.Grammar, c))
	}
	return rs
}

func runTest(g *gspec.CompiledGrammar, c *TestCaseWithMetadata) *TestResult {
	var p *parser.Parser
	var tb *parser.DefaulSyntaxTreeBuilder
	{
		gram := parser.NewGrammar(g)
		toks, err := parser.NewTokenStream(g, bytes.NewReader(c.TestCase.Source))
		if err != nil {
			return &TestResult{
				TestCasePath: c.FilePath,
				Error:        err,
			}
		}
		tb = parser.NewDefaultSyntaxTreeBuilder()
		p, err = parser.NewParser(toks, gram, parser.SemanticAction(parser.NewASTActionSet(gram, tb)))
		if err != nil {
			return &TestResult{
				TestCasePath: c.FilePath,
				Error:        err,
			}
		}
	}

	err := p.Parse()
	if err != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        err,
		}
	}

	if tb.Tree() == nil {
		var err error
		if len(p.SyntaxErrors()) > 0 {
			err = fmt.Errorf("parse tree was not generated: syntax error occurred")
		} else {
			// The parser should always generate a parse tree in the vartan-test command, so if there is no parse
			// tree, it is a bug. We also include a stack trace in the error message to be sure.
			err = fmt.Errorf("parse tree was not generated: no syntax error:\n%v", string(debug.Stack()))
		}
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        err,
		}
	}

	// When a parse tree exists, the test continues regardless of whether or not syntax errors occurred.
	diffs := tspec.DiffTree(genTree(tb.Tree()).Fill(), c.TestCase.Output)
	if len(diffs) > 0 {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("output mismatch"),
			Diffs:        diffs,
		}
	}
	return &TestResult{
		TestCasePath: c.FilePath,
	}
}

func genTree(dTree *parser.Node) *tspec.Tree {
	if dTree.Type == parser.NodeTypeTerminal {
		return tspec.NewTerminalNode(dTree.KindName, dTree.Text)
	}
	var children []*tspec.Tree
	if len(dTree.Children) > 0 {
		children = make([]*tspec.Tree, len(dTree.Children))
		for i, c := range dTree.Children {
			children[i] = genTree(c)
		}
	}
	return tspec.NewNonTerminalTree(dTree.KindName, children...)
}
