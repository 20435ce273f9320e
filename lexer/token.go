// Package lexer implements the streaming tokenizer of spec.md §4.3: one
// token of lookahead, literal decoding carried directly on the token,
// and a latched error id once any lexical error fires.
package lexer

import (
	"fmt"

	"github.com/semi-lang/semi/alloc"
)

// Kind identifies a token's lexical class.
type Kind int

const (
	EOF Kind = iota
	SEPARATOR
	IDENT

	// Literals
	INT
	FLOAT
	STRING

	// Keywords
	AND
	OR
	IN
	IS
	IF
	ELIF
	ELSE
	FOR
	IMPORT
	EXPORT
	AS
	DEFER
	FN
	RETURN
	RAISE
	BREAK
	CONTINUE
	STEP
	STRUCT
	TRUE
	FALSE

	// Single-character operators/punctuation
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	AMPERSAND
	PIPE
	CARET
	TILDE
	BANG
	QUESTION
	COLON
	ASSIGN
	COMMA
	DOT
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET

	// Multi-character operators
	STAR_STAR    // **
	SLASH_SLASH  // //
	EQ           // ==
	NEQ          // !=
	LT
	GT
	LE // <=
	GE // >=
	SHL
	SHR
	QUESTION_DOT // ?.
	DOT_DOT      // ..
	DEFINE       // :=
)

var keywords = map[string]Kind{
	"and": AND, "or": OR, "in": IN, "is": IS,
	"if": IF, "elif": ELIF, "else": ELSE, "for": FOR,
	"import": IMPORT, "export": EXPORT, "as": AS, "defer": DEFER,
	"fn": FN, "return": RETURN, "raise": RAISE, "break": BREAK,
	"continue": CONTINUE,
	"step": STEP, "struct": STRUCT, "true": TRUE, "false": FALSE,
}

var kindNames = map[Kind]string{
	EOF: "EOF", SEPARATOR: "SEPARATOR", IDENT: "IDENT",
	INT: "INT", FLOAT: "FLOAT", STRING: "STRING",
	AND: "and", OR: "or", IN: "in", IS: "is",
	IF: "if", ELIF: "elif", ELSE: "else", FOR: "for",
	IMPORT: "import", EXPORT: "export", AS: "as", DEFER: "defer",
	FN: "fn", RETURN: "return", RAISE: "raise", BREAK: "break",
	CONTINUE: "continue",
	STEP: "step", STRUCT: "struct", TRUE: "true", FALSE: "false",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	AMPERSAND: "&", PIPE: "|", CARET: "^", TILDE: "~", BANG: "!",
	QUESTION: "?", COLON: ":", ASSIGN: "=", COMMA: ",", DOT: ".",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
	LBRACKET: "[", RBRACKET: "]",
	STAR_STAR: "**", SLASH_SLASH: "//", EQ: "==", NEQ: "!=",
	LT: "<", GT: ">", LE: "<=", GE: ">=", SHL: "<<", SHR: ">>",
	QUESTION_DOT: "?.", DOT_DOT: "..", DEFINE: ":=",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "?"
}

// Token is the single active tagged literal spec.md §4.3 describes: at
// most one of IntVal/FloatVal/StringVal/Ident is meaningful, selected
// by Kind.
type Token struct {
	Kind   Kind
	Line   int
	IntVal int64
	FloatVal float64
	StringVal []byte
	Ident  alloc.IdentifierId
	// IsTypeIdent marks an IDENT whose first rune is uppercase (spec.md
	// §4.3's "type identifier").
	IsTypeIdent bool
}

func (t Token) String() string {
	switch t.Kind {
	case IDENT:
		return fmt.Sprintf("IDENT(%d)", t.Ident)
	case INT:
		return fmt.Sprintf("INT(%d)", t.IntVal)
	case FLOAT:
		return fmt.Sprintf("FLOAT(%g)", t.FloatVal)
	case STRING:
		return fmt.Sprintf("STRING(%q)", t.StringVal)
	default:
		return t.Kind.String()
	}
}
