package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pogyomo/mini/pkg/lexer"
)

func kinds(toks []lexer.Token) []lexer.Kind {
	ks := make([]lexer.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestLex_Keywords(t *testing.T) {
	toks, err := lexer.Lex(1, "function struct enum import from let if else while return break continue true false nullptr sizeof asm")
	require.NoError(t, err)
	assert.Equal(t, []lexer.Kind{
		lexer.FUNCTION, lexer.STRUCT, lexer.ENUM, lexer.IMPORT, lexer.FROM, lexer.LET,
		lexer.IF, lexer.ELSE, lexer.WHILE, lexer.RETURN, lexer.BREAK, lexer.CONTINUE,
		lexer.TRUE, lexer.FALSE, lexer.NULLPTR, lexer.SIZEOF, lexer.ASM, lexer.EOF,
	}, kinds(toks))
}

func TestLex_BuiltinTypeKeywords(t *testing.T) {
	toks, err := lexer.Lex(1, "void bool char int8 int16 int32 int64 uint8 uint16 uint32 uint64 isize usize")
	require.NoError(t, err)
	assert.Equal(t, []lexer.Kind{
		lexer.VOID, lexer.BOOL, lexer.CHAR, lexer.INT8, lexer.INT16, lexer.INT32, lexer.INT64,
		lexer.UINT8, lexer.UINT16, lexer.UINT32, lexer.UINT64, lexer.ISIZE, lexer.USIZE, lexer.EOF,
	}, kinds(toks))
}

func TestLex_OperatorsDisambiguated(t *testing.T) {
	toks, err := lexer.Lex(1, ":: : -> = == != <= < >= > << >> && || & |")
	require.NoError(t, err)
	assert.Equal(t, []lexer.Kind{
		lexer.COLONCOLON, lexer.COLON, lexer.ARROW, lexer.ASSIGN, lexer.EQ, lexer.NE,
		lexer.LE, lexer.LT, lexer.GE, lexer.GT, lexer.SHL, lexer.SHR,
		lexer.AMPAMP, lexer.PIPEPIPE, lexer.AMP, lexer.PIPE, lexer.EOF,
	}, kinds(toks))
}

func TestLex_IntegerLiterals(t *testing.T) {
	toks, err := lexer.Lex(1, "42 0xFF")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, "42", toks[0].Lexeme)
	assert.Equal(t, "0xFF", toks[1].Lexeme)
}

func TestLex_StringEscapes(t *testing.T) {
	toks, err := lexer.Lex(1, `"hello\nworld"`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, "hello\nworld", toks[0].Lexeme)
}

func TestLex_CharLiteral(t *testing.T) {
	toks, err := lexer.Lex(1, `'a' '\n'`)
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, "a", toks[0].Lexeme)
	assert.Equal(t, "\n", toks[1].Lexeme)
}

func TestLex_LineAndColumnTracking(t *testing.T) {
	toks, err := lexer.Lex(1, "let a;\nlet b;")
	require.NoError(t, err)
	// first `let` at row 1 col 1; second `let` at row 2 col 1
	assert.Equal(t, 1, toks[0].Row)
	assert.Equal(t, 1, toks[0].Col)
	var secondLet lexer.Token
	for _, tok := range toks {
		if tok.Kind == lexer.LET && tok.Row == 2 {
			secondLet = tok
		}
	}
	assert.Equal(t, 2, secondLet.Row)
	assert.Equal(t, 1, secondLet.Col)
}

func TestLex_CommentsSkipped(t *testing.T) {
	toks, err := lexer.Lex(1, "let // comment\na /* block */ = 1;")
	require.NoError(t, err)
	assert.Equal(t, []lexer.Kind{lexer.LET, lexer.IDENT, lexer.ASSIGN, lexer.INT, lexer.SEMICOLON, lexer.EOF}, kinds(toks))
}

func TestLex_UnterminatedStringError(t *testing.T) {
	_, err := lexer.Lex(1, `"unterminated`)
	require.Error(t, err)
	var lerr *lexer.LexError
	require.ErrorAs(t, err, &lerr)
}

func TestLex_UnexpectedCharacterError(t *testing.T) {
	_, err := lexer.Lex(1, "let a = @;")
	require.Error(t, err)
}

func TestLex_IdentifierVsKeyword(t *testing.T) {
	toks, err := lexer.Lex(1, "letter")
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, lexer.IDENT, toks[0].Kind)
}
