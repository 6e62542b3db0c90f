package parser

import "fmt"

// Grammar is a set of parsing tables and symbol metadata a Parser drives against.
type Grammar interface {
	InitialState() int
	StartProduction() int
	RecoverProduction(prod int) bool
	Action(state int, terminal int) int
	GoTo(state int, lhs int) int
	AlternativeSymbolCount(prod int) int
	TerminalCount() int
	SkipTerminal(terminal int) bool
	ErrorTrapperState(state int) bool
	NonTerminal(nonTerminal int) string
	LHS(prod int) int
	EOF() int
	Error() int
	Terminal(terminal int) string
	ASTAction(prod int) []int
}

// VToken is a token a Parser consumes from a TokenStream.
type VToken interface {
	TerminalID() int
	Lexeme() []byte
	EOF() bool
	Invalid() bool
	BytePosition() (int, int)
	Position() (int, int)
}

// TokenStream supplies the tokens a Parser consumes one at a time.
type TokenStream interface {
	Next() (VToken, error)
}

type ParserOption func(p *Parser) error

// SemanticAction registers the semantic actions a Parser calls while it shifts and reduces.
func SemanticAction(semAct SemanticActionSet) ParserOption {
	return func(p *Parser) error {
		p.semAct = semAct
		return nil
	}
}

// DisableLAC disables lookahead correction. Without LAC, a Parser detects a syntax error
// only after it has performed the reduce actions a wrong lookahead led it into.
func DisableLAC() ParserOption {
	return func(p *Parser) error {
		p.disableLAC = true
		return nil
	}
}

// SyntaxError describes a point where a Parser could not continue with the input it was given.
type SyntaxError struct {
	Row               int
	Col               int
	Message           string
	Token             VToken
	ExpectedTerminals []string
}

type Parser struct {
	gram       Grammar
	toks       TokenStream
	stateStack []int
	semAct     SemanticActionSet
	onError    bool
	shiftCount int
	disableLAC bool
	synErrs    []*SyntaxError
}

// SyntaxErrors returns the syntax errors the parser detected during Parse.
func (p *Parser) SyntaxErrors() []*SyntaxError {
	return p.synErrs
}

func NewParser(toks TokenStream, gram Grammar, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		gram:       gram,
		toks:       toks,
		stateStack: []int{},
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Parser) Parse() error {
	p.push(p.gram.InitialState())
	tok, err := p.nextToken()
	if err != nil {
		return err
	}

ACTION_LOOP:
	for {
		term := p.tokenToTerminal(tok)
		act := p.gram.Action(p.top(), term)
		if act > 0 && !p.disableLAC {
			if !p.lacSucceeds(term) {
				act = 0
			}
		}

		switch {
		case act < 0: // Shift
			nextState := act * -1

			recovered := false
			if p.onError {
				p.shiftCount++

				// When the parser performs shift three times, the parser recovers from the error state.
				if p.shiftCount >= 3 {
					p.onError = false
					p.shiftCount = 0
					recovered = true
				}
			}

			p.push(nextState)

			if p.semAct != nil {
				p.semAct.Shift(tok, recovered)
			}

			tok, err = p.nextToken()
			if err != nil {
				return err
			}
		case act > 0: // Reduce
			prodNum := act

			recovered := false
			if p.onError && p.gram.RecoverProduction(prodNum) {
				p.onError = false
				p.shiftCount = 0
				recovered = true
			}

			accepted := p.reduce(prodNum)
			if accepted {
				if p.semAct != nil {
					p.semAct.Accept()
				}

				return nil
			}

			if p.semAct != nil {
				p.semAct.Reduce(prodNum, recovered)
			}
		default: // Error
			if p.onError {
				tok, err = p.nextToken()
				if err != nil {
					return err
				}
				if tok.EOF() {
					return nil
				}

				continue ACTION_LOOP
			}

			row, col := tok.Position()
			p.synErrs = append(p.synErrs, &SyntaxError{
				Row:               row,
				Col:               col,
				Message:           "unexpected token",
				Token:             tok,
				ExpectedTerminals: p.searchLookahead(p.top()),
			})

			popped, ok := p.trapError()
			if !ok {
				if p.semAct != nil {
					p.semAct.MissError(tok)
				}

				return nil
			}

			p.onError = true
			p.shiftCount = 0

			errAct, err := p.lookupActionOnError()
			if err != nil {
				return err
			}

			p.push(errAct * -1)

			if p.semAct != nil {
				p.semAct.TrapAndShiftError(tok, popped)
			}
		}
	}
}

func (p *Parser) nextToken() (VToken, error) {
	for {
		tok, err := p.toks.Next()
		if err != nil {
			return nil, err
		}

		// We don't have to check whether the token is invalid because an invalid token's terminal ID
		// doesn't correspond to any entry in the action table. The parser detects it as a syntax error.
		if !tok.EOF() && p.gram.SkipTerminal(tok.TerminalID()) {
			continue
		}

		return tok, nil
	}
}

func (p *Parser) tokenToTerminal(tok VToken) int {
	if tok.EOF() {
		return p.gram.EOF()
	}

	return tok.TerminalID()
}

// lacSucceeds simulates the reduce actions the current lookahead would force, without mutating
// the parser's real state stack, and reports whether that simulation reaches a shift or an accept
// rather than an error. When it doesn't, the caller reports the syntax error immediately instead of
// performing the real reduces the lookahead would otherwise have forced.
func (p *Parser) lacSucceeds(term int) bool {
	stack := make([]int, len(p.stateStack))
	copy(stack, p.stateStack)

	for {
		act := p.gram.Action(stack[len(stack)-1], term)
		switch {
		case act < 0:
			return true
		case act > 0:
			prodNum := act
			lhs := p.gram.LHS(prodNum)
			if lhs == p.gram.LHS(p.gram.StartProduction()) {
				return true
			}
			n := p.gram.AlternativeSymbolCount(prodNum)
			stack = stack[:len(stack)-n]
			stack = append(stack, p.gram.GoTo(stack[len(stack)-1], lhs))
		default:
			return false
		}
	}
}

func (p *Parser) reduce(prodNum int) bool {
	lhs := p.gram.LHS(prodNum)
	if lhs == p.gram.LHS(p.gram.StartProduction()) {
		return true
	}
	n := p.gram.AlternativeSymbolCount(prodNum)
	p.pop(n)
	nextState := p.gram.GoTo(p.top(), lhs)
	p.push(nextState)
	return false
}

func (p *Parser) trapError() (int, bool) {
	popped := 0
	for {
		if p.gram.ErrorTrapperState(p.top()) {
			return popped, true
		}

		if p.top() != p.gram.InitialState() {
			p.pop(1)
			popped++
		} else {
			return popped, false
		}
	}
}

func (p *Parser) lookupActionOnError() (int, error) {
	errSym := p.gram.Error()
	act := p.gram.Action(p.top(), errSym)
	if act >= 0 {
		return 0, fmt.Errorf("an entry must be a shift action by the error symbol; entry: %v, state: %v, symbol: %v", act, p.top(), p.gram.Terminal(errSym))
	}

	return act, nil
}

func (p *Parser) searchLookahead(state int) []string {
	var kinds []string
	termCount := p.gram.TerminalCount()
	for term := 0; term < termCount; term++ {
		if p.gram.Action(state, term) == 0 {
			continue
		}

		// We don't add the error symbol to the look-ahead symbols because users cannot input the
		// error symbol intentionally.
		if term == p.gram.Error() {
			continue
		}

		if term == p.gram.EOF() {
			kinds = append(kinds, "<eof>")
			continue
		}

		kinds = append(kinds, p.gram.Terminal(term))
	}

	return kinds
}

func (p *Parser) top() int {
	return p.stateStack[len(p.stateStack)-1]
}

func (p *Parser) push(state int) {
	p.stateStack = append(p.stateStack, state)
}

func (p *Parser) pop(n int) {
	p.stateStack = p.stateStack[:len(p.stateStack)-n]
}
