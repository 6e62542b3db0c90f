package grammar

import (
	"io"

	verr "github.com/gramforge/gramforge/error"
)

// Position is a 1-based row in a grammar source. Columns are not tracked;
// rows are precise enough for diagnostics and for the description.go
// reports.
type Position struct {
	Row int
	Col int
}

type RootNode struct {
	Directives     []*DirectiveNode
	Productions    []*ProductionNode
	LexProductions []*ProductionNode
	Fragments      []*FragmentNode
}

type ProductionNode struct {
	LHS        string
	RHS        []*AlternativeNode
	Directives []*DirectiveNode
	Pos        Position
}

type AlternativeNode struct {
	Elements   []*ElementNode
	Directives []*DirectiveNode
	Pos        Position
}

type ElementNode struct {
	ID    string
	// Pattern holds the regex-like text of a terminal symbol, whether it
	// came from a double-quoted pattern or a single-quoted string literal.
	// Literally distinguishes the latter; EscapePattern still needs to run
	// on a literal's raw text before it is usable as a regex.
	Pattern   string
	Literally bool
	Label     *LabelNode
	Pos       Position
}

type LabelNode struct {
	Name string
	Pos  Position
}

type FragmentNode struct {
	LHS string
	RHS string
	Pos Position
}

type DirectiveNode struct {
	Name       string
	Parameters []*ParameterNode
	Pos        Position
}

type ParameterNode struct {
	ID            string
	String        string
	OrderedSymbol string
	Expansion     bool
	Group         []*DirectiveNode
	Pos           Position
}

// Parse reads a grammar description written in the directive-based
// language documented by spec.md and returns its AST. Unlike the plain
// production list the top-level spec package parses, this language also
// carries `#`-directives (precedence groups, AST-shaping directives, lex
// mode transitions) and `fragment` pattern definitions.
func Parse(src io.Reader) (*RootNode, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	return p.parse()
}

type parseError struct {
	err *SyntaxError
	row int
}

type parser struct {
	lex    *lexer
	peeked *token
	last   *token
}

func newParser(src io.Reader) (*parser, error) {
	lex, err := newLexer(src)
	if err != nil {
		return nil, err
	}
	return &parser{
		lex: lex,
	}, nil
}

func (p *parser) parse() (root *RootNode, retErr error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		pe, ok := v.(*parseError)
		if !ok {
			panic(v)
		}
		root = nil
		retErr = verr.SpecErrors{
			{
				Cause: pe.err,
				Row:   pe.row,
			},
		}
	}()
	return p.parseRoot(), nil
}

func (p *parser) raiseSyntaxError(synErr *SyntaxError) {
	panic(&parseError{
		err: synErr,
		row: p.peek().row,
	})
}

func pos(tok *token) Position {
	return Position{Row: tok.row}
}

func (p *parser) peek() *token {
	if p.peeked == nil {
		tok, err := p.lex.next()
		if err != nil {
			panic(err)
		}
		if tok.kind == tokenKindInvalid {
			p.peeked = tok
			panic(&parseError{err: synErrInvalidToken, row: tok.row})
		}
		p.peeked = tok
	}
	return p.peeked
}

func (p *parser) peekIs(k tokenKind) bool {
	return p.peek().kind == k
}

func (p *parser) consume(k tokenKind) bool {
	tok := p.peek()
	if tok.kind != k {
		return false
	}
	p.peeked = nil
	p.last = tok
	return true
}

func (p *parser) parseRoot() *RootNode {
	root := &RootNode{}
	for {
		switch {
		case p.consume(tokenKindEOF):
			return root
		case p.peekIs(tokenKindDirectiveMarker):
			root.Directives = append(root.Directives, p.parseTopLevelDirective())
		case p.consume(tokenKindKWFragment):
			root.Fragments = append(root.Fragments, p.parseFragment())
		default:
			prod := p.parseProduction()
			if isLexProduction(prod) {
				root.LexProductions = append(root.LexProductions, prod)
			} else {
				root.Productions = append(root.Productions, prod)
			}
		}
	}
}

func isLexProduction(prod *ProductionNode) bool {
	return len(prod.RHS) == 1 && len(prod.RHS[0].Elements) == 1 && prod.RHS[0].Elements[0].Pattern != ""
}

func (p *parser) parseTopLevelDirective() *DirectiveNode {
	dir := p.parseDirective()
	if !p.consume(tokenKindSemicolon) {
		p.raiseSyntaxError(synErrTopLevelDirNoSemicolon)
	}
	return dir
}

func (p *parser) parseDirective() *DirectiveNode {
	if !p.consume(tokenKindDirectiveMarker) {
		p.raiseSyntaxError(synErrNoDirectiveName)
	}
	hashTok := p.last
	if !p.consume(tokenKindID) {
		p.raiseSyntaxError(synErrNoDirectiveName)
	}
	nameTok := p.last
	var params []*ParameterNode
	for {
		param := p.parseParameter()
		if param == nil {
			break
		}
		params = append(params, param)
	}
	return &DirectiveNode{
		Name:       nameTok.text,
		Parameters: params,
		Pos:        pos(hashTok),
	}
}

func (p *parser) parseParameter() *ParameterNode {
	if p.consume(tokenKindExpansion) {
		p.raiseSyntaxError(synErrStrayExpOp)
	}
	switch {
	case p.consume(tokenKindID):
		tok := p.last
		param := &ParameterNode{ID: tok.text, Pos: pos(tok)}
		if p.consume(tokenKindExpansion) {
			param.Expansion = true
		}
		return param
	case p.consume(tokenKindOrderedSymbolMarker):
		markTok := p.last
		if !p.consume(tokenKindID) {
			p.raiseSyntaxError(synErrNoOrderedSymbolName)
		}
		tok := p.last
		param := &ParameterNode{OrderedSymbol: tok.text, Pos: pos(markTok)}
		if p.peekIs(tokenKindExpansion) {
			p.consume(tokenKindExpansion)
			p.raiseSyntaxError(synErrInvalidExpOperand)
		}
		return param
	case p.consume(tokenKindStringLiteral):
		tok := p.last
		param := &ParameterNode{String: tok.text, Pos: pos(tok)}
		if p.peekIs(tokenKindExpansion) {
			p.consume(tokenKindExpansion)
			p.raiseSyntaxError(synErrInvalidExpOperand)
		}
		return param
	case p.consume(tokenKindTerminalPattern):
		tok := p.last
		param := &ParameterNode{String: tok.text, Pos: pos(tok)}
		if p.peekIs(tokenKindExpansion) {
			p.consume(tokenKindExpansion)
			p.raiseSyntaxError(synErrInvalidExpOperand)
		}
		return param
	case p.consume(tokenKindLParen):
		openTok := p.last
		group := p.parseDirectiveGroup()
		param := &ParameterNode{Group: group, Pos: pos(openTok)}
		if p.peekIs(tokenKindExpansion) {
			p.consume(tokenKindExpansion)
			p.raiseSyntaxError(synErrInvalidExpOperand)
		}
		return param
	}
	return nil
}

func (p *parser) parseDirectiveGroup() []*DirectiveNode {
	var dirs []*DirectiveNode
	for {
		if p.consume(tokenKindRParen) {
			return dirs
		}
		if !p.peekIs(tokenKindDirectiveMarker) {
			p.raiseSyntaxError(synErrUnclosedDirGroup)
		}
		dirs = append(dirs, p.parseDirective())
	}
}

func (p *parser) parseFragment() *FragmentNode {
	kwTok := p.last
	if !p.consume(tokenKindID) {
		p.raiseSyntaxError(synErrNoProductionName)
	}
	lhs := p.last.text
	if !p.consume(tokenKindColon) {
		p.raiseSyntaxError(synErrNoColon)
	}
	var rhs string
	switch {
	case p.consume(tokenKindTerminalPattern):
		rhs = p.last.text
	case p.consume(tokenKindStringLiteral):
		rhs = p.last.text
	default:
		p.raiseSyntaxError(synErrFragmentNoPattern)
	}
	if !p.consume(tokenKindSemicolon) {
		p.raiseSyntaxError(synErrNoSemicolon)
	}
	p.expectNewlineOrEOF()
	return &FragmentNode{
		LHS: lhs,
		RHS: rhs,
		Pos: pos(kwTok),
	}
}

func (p *parser) expectNewlineOrEOF() {
	next := p.peek()
	if next.kind != tokenKindEOF && !next.newlineBefore {
		p.raiseSyntaxError(synErrSemicolonNoNewline)
	}
}

func (p *parser) parseProduction() *ProductionNode {
	if !p.consume(tokenKindID) {
		p.raiseSyntaxError(synErrNoProductionName)
	}
	lhsTok := p.last
	lhs := lhsTok.text

	var dirs []*DirectiveNode
	for p.peekIs(tokenKindDirectiveMarker) {
		dirs = append(dirs, p.parseDirective())
	}
	if len(dirs) > 0 && !p.peek().newlineBefore {
		p.raiseSyntaxError(synErrProdDirNoNewline)
	}

	if !p.consume(tokenKindColon) {
		p.raiseSyntaxError(synErrNoColon)
	}
	alt := p.parseAlternative()
	rhs := []*AlternativeNode{alt}
	for p.consume(tokenKindOr) {
		rhs = append(rhs, p.parseAlternative())
	}
	if !p.consume(tokenKindSemicolon) {
		p.raiseSyntaxError(synErrNoSemicolon)
	}
	p.expectNewlineOrEOF()

	prod := &ProductionNode{
		LHS:        lhs,
		RHS:        rhs,
		Directives: dirs,
		Pos:        pos(lhsTok),
	}
	p.checkPatternPlacement(prod)
	return prod
}

// checkPatternPlacement enforces that a double-quoted pattern element only
// ever appears alone, defining a whole terminal symbol; everywhere else a
// terminal must be spelled out as a string literal or referenced by ID.
func (p *parser) checkPatternPlacement(prod *ProductionNode) {
	sole := isLexProduction(prod)
	for ai, alt := range prod.RHS {
		for ei, elem := range alt.Elements {
			if elem.Pattern == "" || elem.Literally {
				continue
			}
			if sole && ai == 0 && ei == 0 {
				continue
			}
			p.raiseSyntaxError(synErrPatternInAlt)
		}
	}
}

func (p *parser) parseAlternative() *AlternativeNode {
	var elems []*ElementNode
	for {
		elem := p.parseElement()
		if elem == nil {
			break
		}
		elems = append(elems, elem)
	}
	var dirs []*DirectiveNode
	for p.peekIs(tokenKindDirectiveMarker) {
		dirs = append(dirs, p.parseDirective())
	}
	alt := &AlternativeNode{
		Elements:   elems,
		Directives: dirs,
	}
	switch {
	case len(elems) > 0:
		alt.Pos = elems[0].Pos
	case len(dirs) > 0:
		alt.Pos = dirs[0].Pos
	}
	return alt
}

func (p *parser) parseElement() *ElementNode {
	switch {
	case p.consume(tokenKindID):
		tok := p.last
		elem := &ElementNode{ID: tok.text, Pos: pos(tok)}
		return p.parseLabel(elem)
	case p.consume(tokenKindStringLiteral):
		tok := p.last
		return &ElementNode{Pattern: tok.text, Literally: true, Pos: pos(tok)}
	case p.consume(tokenKindTerminalPattern):
		tok := p.last
		return &ElementNode{Pattern: tok.text, Pos: pos(tok)}
	case p.consume(tokenKindLabelMarker):
		p.raiseSyntaxError(synErrLabelWithNoSymbol)
	}
	return nil
}

func (p *parser) parseLabel(elem *ElementNode) *ElementNode {
	if !p.consume(tokenKindLabelMarker) {
		return elem
	}
	if !p.consume(tokenKindID) {
		p.raiseSyntaxError(synErrNoLabel)
	}
	tok := p.last
	elem.Label = &LabelNode{Name: tok.text, Pos: pos(tok)}
	if p.peekIs(tokenKindLabelMarker) {
		p.raiseSyntaxError(synErrLabelWithNoSymbol)
	}
	return elem
}
