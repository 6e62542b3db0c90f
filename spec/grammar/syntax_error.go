package grammar

import "fmt"

type SyntaxError struct {
	message string
}

func newSyntaxError(message string) *SyntaxError {
	return &SyntaxError{
		message: message,
	}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.message)
}

var (
	synErrInvalidToken           = newSyntaxError("invalid token")
	synErrNoProductionName       = newSyntaxError("a production name is missing")
	synErrNoColon                = newSyntaxError("the colon must precede alternatives")
	synErrNoSemicolon            = newSyntaxError("the semicolon is missing at the last of an alternative")
	synErrSemicolonNoNewline     = newSyntaxError("a semicolon must be followed by a newline")
	synErrNoDirectiveName        = newSyntaxError("a directive needs a name")
	synErrProdDirNoNewline       = newSyntaxError("a production directive must be followed by a newline")
	synErrTopLevelDirNoSemicolon = newSyntaxError("a top-level directive must be followed by ';'")
	synErrUnclosedDirGroup       = newSyntaxError("a directive group must be closed by ')'")
	synErrNoOrderedSymbolName    = newSyntaxError("an ordered symbol marker must be followed by an identifier")
	synErrFragmentNoPattern      = newSyntaxError("a fragment needs one pattern element")
	synErrPatternInAlt           = newSyntaxError("a pattern can only be used to define a terminal symbol, not inside an alternative")
	synErrStrayExpOp             = newSyntaxError("the expansion operator must be preceded by an identifier")
	synErrInvalidExpOperand      = newSyntaxError("the expansion operator cannot be applied to this parameter")
	synErrNoLabel                = newSyntaxError("the label marker must be followed by an identifier")
	synErrLabelWithNoSymbol      = newSyntaxError("a label must follow exactly one symbol")
	synErrUnclosedTerminal       = newSyntaxError("unclosed terminal")
)
