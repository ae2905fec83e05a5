// Package lexer tokenizes mini source text into the Token stream consumed
// by pkg/parser.
package lexer

import "fmt"

// Kind identifies the category of a lexed Token.
type Kind int

const (
	EOF Kind = iota // sentinel: end of input

	// Literals
	IDENT  // variable / function / type name
	INT    // decimal or hex integer literal
	STRING // "..."
	CHARLIT

	// Keywords
	FUNCTION
	STRUCT
	ENUM
	IMPORT
	FROM
	LET
	IF
	ELSE
	WHILE
	RETURN
	BREAK
	CONTINUE
	TRUE
	FALSE
	NULLPTR
	SIZEOF
	ASM

	// Builtin type keywords
	VOID
	BOOL
	CHAR
	INT8
	INT16
	INT32
	INT64
	UINT8
	UINT16
	UINT32
	UINT64
	ISIZE
	USIZE

	// Paired delimiters
	LBRACE
	RBRACE
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET

	// Punctuation
	DOT
	COMMA
	COLON
	COLONCOLON
	SEMICOLON
	ARROW // ->

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	AMP
	PIPE
	CARET
	TILDE
	BANG
	AMPAMP
	PIPEPIPE
	SHL
	SHR
	ASSIGN
	EQ
	NE
	LT
	LE
	GT
	GE
)

var kindNames = [...]string{
	EOF: "EOF", IDENT: "IDENT", INT: "INT", STRING: "STRING", CHARLIT: "CHARLIT",
	FUNCTION: "function", STRUCT: "struct", ENUM: "enum", IMPORT: "import", FROM: "from",
	LET: "let", IF: "if", ELSE: "else", WHILE: "while", RETURN: "return",
	BREAK: "break", CONTINUE: "continue", TRUE: "true", FALSE: "false",
	NULLPTR: "nullptr", SIZEOF: "sizeof", ASM: "asm",
	VOID: "void", BOOL: "bool", CHAR: "char",
	INT8: "int8", INT16: "int16", INT32: "int32", INT64: "int64",
	UINT8: "uint8", UINT16: "uint16", UINT32: "uint32", UINT64: "uint64",
	ISIZE: "isize", USIZE: "usize",
	LBRACE: "{", RBRACE: "}", LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]",
	DOT: ".", COMMA: ",", COLON: ":", COLONCOLON: "::", SEMICOLON: ";", ARROW: "->",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	AMP: "&", PIPE: "|", CARET: "^", TILDE: "~", BANG: "!",
	AMPAMP: "&&", PIPEPIPE: "||", SHL: "<<", SHR: ">>",
	ASSIGN: "=", EQ: "==", NE: "!=", LT: "<", LE: "<=", GT: ">", GE: ">=",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// keywords maps source text to its keyword Kind.
var keywords = map[string]Kind{
	"function": FUNCTION, "struct": STRUCT, "enum": ENUM, "import": IMPORT, "from": FROM,
	"let": LET, "if": IF, "else": ELSE, "while": WHILE, "return": RETURN,
	"break": BREAK, "continue": CONTINUE, "true": TRUE, "false": FALSE,
	"nullptr": NULLPTR, "sizeof": SIZEOF, "asm": ASM,
	"void": VOID, "bool": BOOL, "char": CHAR,
	"int8": INT8, "int16": INT16, "int32": INT32, "int64": INT64,
	"uint8": UINT8, "uint16": UINT16, "uint32": UINT32, "uint64": UINT64,
	"isize": ISIZE, "usize": USIZE,
}

// Token is a single lexical unit produced by the Lexer, with its source
// position given as row/col rather than a bare line number, since
// pkg/diag.Render needs column information to place a caret.
type Token struct {
	Kind    Kind
	Lexeme  string // exact source text matched; decoded value for strings/chars
	Row     int    // 1-based
	Col     int    // 1-based, start column
	EndRow  int
	EndCol  int
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  %d:%d", t.Kind, t.Lexeme, t.Row, t.Col)
}
