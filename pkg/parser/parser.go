// Package parser builds pkg/ast trees from the pkg/lexer token stream.
//
// Grammar:
//
//	program     = (importDecl | functionDecl | structDecl | enumDecl)* EOF
//	importDecl  = "import" "{" IDENT ("," IDENT)* "}" "from" path ";"
//	path        = IDENT ("." IDENT)*
//	functionDecl = "function" IDENT "(" params ")" ("->" type)? (block | ";")
//	params      = (IDENT ":" type ("," IDENT ":" type)*)?
//	structDecl  = "struct" IDENT "{" (IDENT ":" type ","?)* "}"
//	enumDecl    = "enum" IDENT "{" (IDENT ("=" expr)? ","?)* "}"
//	type        = "*" type | "(" type ")" "[" expr "]" | builtinKeyword | IDENT
//	block       = "{" blockItem* "}"
//	blockItem   = letStmt | stmt
//	letStmt     = "let" varBody ("," varBody)* ";"
//	varBody     = IDENT ":" type ("=" expr)?
//	stmt        = "return" expr? ";" | "break" ";" | "continue" ";"
//	            | "while" "(" expr ")" stmt | "if" "(" expr ")" stmt ("else" stmt)?
//	            | block | "asm" "(" STRING ")" ";" | expr ";"
//	expr        = assignment
//	assignment  = logicalOr ("=" assignment)?
//	logicalOr   = logicalAnd ("||" logicalAnd)*
//	logicalAnd  = bitwiseOr ("&&" bitwiseOr)*
//	bitwiseOr   = bitwiseXor ("|" bitwiseXor)*
//	bitwiseXor  = bitwiseAnd ("^" bitwiseAnd)*
//	bitwiseAnd  = equality ("&" equality)*
//	equality    = relational (("=="|"!=") relational)*
//	relational  = shift (("<"|"<="|">"|">=") shift)*
//	shift       = additive (("<<"|">>") additive)*
//	additive    = multiplicative (("+"|"-") multiplicative)*
//	multiplicative = unary (("*"|"/"|"%") unary)*
//	unary       = ("&"|"*"|"-"|"~"|"!") unary | cast | postfix
//	cast        = "(" type ")" unary      -- only when unambiguously a type
//	postfix     = primary ("[" expr "]" | "." IDENT | "(" args ")")*
//	primary     = INT | STRING | CHARLIT | "true" | "false" | "nullptr"
//	            | IDENT | IDENT "::" IDENT | "sizeof" "(" (expr|type) ")"
//	            | IDENT "{" (IDENT ":" expr ","?)* "}" | "{" (expr ","?)* "}"
//	            | "(" expr ")"
package parser

import (
	"fmt"
	"strconv"

	"github.com/pogyomo/mini/pkg/ast"
	"github.com/pogyomo/mini/pkg/lexer"
)

// ParseError is returned on the first malformed construct encountered.
type ParseError struct {
	Span ast.Span
	Msg  string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: %s", e.Span, e.Msg) }

// Parser consumes a flat token slice and builds an *ast.File.
type Parser struct {
	fileID int
	toks   []lexer.Token
	pos    int
}

// New returns a Parser over toks, whose node spans are tagged with fileID.
func New(fileID int, toks []lexer.Token) *Parser {
	return &Parser{fileID: fileID, toks: toks}
}

func (p *Parser) peek() lexer.Token  { return p.peekAt(0) }
func (p *Parser) peekNext() lexer.Token { return p.peekAt(1) }

func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return tok
}

func (p *Parser) span(start ast.Position, end ast.Position) ast.Span {
	return ast.Span{FileID: p.fileID, Start: start, End: end}
}

func (p *Parser) tokSpan(t lexer.Token) ast.Span {
	return ast.Span{FileID: p.fileID, Start: ast.Position{Row: t.Row, Col: t.Col}, End: ast.Position{Row: t.EndRow, Col: t.EndCol}}
}

func (p *Parser) errorf(tok lexer.Token, format string, args ...any) error {
	return &ParseError{Span: p.tokSpan(tok), Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	tok := p.advance()
	if tok.Kind != k {
		return tok, p.errorf(tok, "expected %s, got %s (%q)", k, tok.Kind, tok.Lexeme)
	}
	return tok, nil
}

// File is the parsed top-level declaration list for one compilation unit.
type File struct {
	Decls []ast.Decl
}

// ParseFile parses a whole compilation unit.
func ParseFile(fileID int, toks []lexer.Token) (*File, error) {
	p := New(fileID, toks)
	var decls []ast.Decl
	for p.peek().Kind != lexer.EOF {
		d, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return &File{Decls: decls}, nil
}

func (p *Parser) parseTopLevel() (ast.Decl, error) {
	switch p.peek().Kind {
	case lexer.IMPORT:
		return p.parseImportDecl()
	case lexer.FUNCTION:
		return p.parseFunctionDecl()
	case lexer.STRUCT:
		return p.parseStructDecl()
	case lexer.ENUM:
		return p.parseEnumDecl()
	default:
		tok := p.peek()
		return nil, p.errorf(tok, "expected declaration, got %s (%q)", tok.Kind, tok.Lexeme)
	}
}

func (p *Parser) parseImportDecl() (ast.Decl, error) {
	start := p.peek()
	p.advance() // import
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var items []string
	for p.peek().Kind != lexer.RBRACE {
		id, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		items = append(items, id.Lexeme)
		if p.peek().Kind == lexer.COMMA {
			p.advance()
		} else {
			break
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.FROM); err != nil {
		return nil, err
	}
	var path []string
	first, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	path = append(path, first.Lexeme)
	for p.peek().Kind == lexer.DOT {
		p.advance()
		seg, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		path = append(path, seg.Lexeme)
	}
	end, err := p.expect(lexer.SEMICOLON)
	if err != nil {
		return nil, err
	}
	return &ast.ImportDecl{Items: items, Path: path, Sp: p.span(p.tokSpan(start).Start, p.tokSpan(end).End)}, nil
}

func builtinKind(k lexer.Kind) (ast.BuiltinKind, bool) {
	switch k {
	case lexer.VOID:
		return ast.Void, true
	case lexer.BOOL:
		return ast.Bool, true
	case lexer.CHAR:
		return ast.Char, true
	case lexer.INT8:
		return ast.Int8, true
	case lexer.INT16:
		return ast.Int16, true
	case lexer.INT32:
		return ast.Int32, true
	case lexer.INT64:
		return ast.Int64, true
	case lexer.UINT8:
		return ast.UInt8, true
	case lexer.UINT16:
		return ast.UInt16, true
	case lexer.UINT32:
		return ast.UInt32, true
	case lexer.UINT64:
		return ast.UInt64, true
	case lexer.ISIZE:
		return ast.ISize, true
	case lexer.USIZE:
		return ast.USize, true
	default:
		return 0, false
	}
}

// startsType reports whether tok can begin a type, used to disambiguate
// casts and sizeof(T) from parenthesized expressions and sizeof(e).
// Identifiers are deliberately excluded: `sizeof(Foo)` is parsed as an
// expression, and HIR lowering (which has the symbol table) promotes it
// to a TSizeofExpr when Foo resolves to a struct or enum rather than a
// variable. `(Foo)` is always a parenthesized expression, so a cast to a
// named type is not recognized.
func startsType(k lexer.Kind) bool {
	if _, ok := builtinKind(k); ok {
		return true
	}
	return k == lexer.STAR || k == lexer.LPAREN
}

func (p *Parser) parseType() (ast.Type, error) {
	tok := p.peek()
	if tok.Kind == lexer.STAR {
		p.advance()
		of, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ast.PointerType{Of: of, Sp: p.span(p.tokSpan(tok).Start, of.Span().End)}, nil
	}
	if tok.Kind == lexer.LPAREN {
		p.advance()
		of, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.LBRACKET); err != nil {
			return nil, err
		}
		size, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.RBRACKET)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayType{Of: of, Size: size, Sp: p.span(p.tokSpan(tok).Start, p.tokSpan(end).End)}, nil
	}
	if kind, ok := builtinKind(tok.Kind); ok {
		p.advance()
		return &ast.BuiltinType{Kind: kind, Sp: p.tokSpan(tok)}, nil
	}
	if tok.Kind == lexer.IDENT {
		p.advance()
		return &ast.NameType{Name: tok.Lexeme, Sp: p.tokSpan(tok)}, nil
	}
	return nil, p.errorf(tok, "expected type, got %s (%q)", tok.Kind, tok.Lexeme)
}

func (p *Parser) parseFunctionDecl() (ast.Decl, error) {
	start := p.peek()
	p.advance() // function
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var params []ast.Param
	for p.peek().Kind != lexer.RPAREN {
		pname, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		ptype, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: pname.Lexeme, Type: ptype})
		if p.peek().Kind == lexer.COMMA {
			p.advance()
		} else {
			break
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}

	var ret ast.Type
	if p.peek().Kind == lexer.ARROW {
		p.advance()
		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	if p.peek().Kind == lexer.SEMICOLON {
		end := p.advance()
		return &ast.FunctionDecl{Name: name.Lexeme, Params: params, Ret: ret, Body: nil, Sp: p.span(p.tokSpan(start).Start, p.tokSpan(end).End)}, nil
	}

	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseBlockBody(start)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDecl{Name: name.Lexeme, Params: params, Ret: ret, Body: body, Sp: p.span(p.tokSpan(start).Start, body.Sp.End)}, nil
}

func (p *Parser) parseStructDecl() (ast.Decl, error) {
	start := p.peek()
	p.advance() // struct
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var fields []ast.StructField
	for p.peek().Kind != lexer.RBRACE {
		fname, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		ftype, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.StructField{Name: fname.Lexeme, Type: ftype})
		if p.peek().Kind == lexer.COMMA {
			p.advance()
		} else {
			break
		}
	}
	end, err := p.expect(lexer.RBRACE)
	if err != nil {
		return nil, err
	}
	return &ast.StructDecl{Name: name.Lexeme, Fields: fields, Sp: p.span(p.tokSpan(start).Start, p.tokSpan(end).End)}, nil
}

func (p *Parser) parseEnumDecl() (ast.Decl, error) {
	start := p.peek()
	p.advance() // enum
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var fields []ast.EnumField
	for p.peek().Kind != lexer.RBRACE {
		fname, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		var init ast.Expr
		if p.peek().Kind == lexer.ASSIGN {
			p.advance()
			init, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		fields = append(fields, ast.EnumField{Name: fname.Lexeme, Init: init})
		if p.peek().Kind == lexer.COMMA {
			p.advance()
		} else {
			break
		}
	}
	end, err := p.expect(lexer.RBRACE)
	if err != nil {
		return nil, err
	}
	return &ast.EnumDecl{Name: name.Lexeme, Fields: fields, Sp: p.span(p.tokSpan(start).Start, p.tokSpan(end).End)}, nil
}

// parseBlockBody parses the items of a block whose leading "{" has
// already been consumed; openTok is only used to seed the span if the
// block is empty.
func (p *Parser) parseBlockBody(openTok lexer.Token) (*ast.BlockStmt, error) {
	var items []ast.BlockItem
	for p.peek().Kind != lexer.RBRACE && p.peek().Kind != lexer.EOF {
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	end, err := p.expect(lexer.RBRACE)
	if err != nil {
		return nil, err
	}
	return &ast.BlockStmt{Items: items, Sp: p.span(p.tokSpan(openTok).Start, p.tokSpan(end).End)}, nil
}

func (p *Parser) parseBlockItem() (ast.BlockItem, error) {
	if p.peek().Kind == lexer.LET {
		return p.parseLetStmt()
	}
	return p.parseStmt()
}

func (p *Parser) parseLetStmt() (ast.Stmt, error) {
	start := p.peek()
	p.advance() // let
	var bodies []ast.VarBody
	for {
		nameTok, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		var init ast.Expr
		bodyEnd := typ.Span()
		if p.peek().Kind == lexer.ASSIGN {
			p.advance()
			init, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
			bodyEnd = init.Span()
		}
		bodies = append(bodies, ast.VarBody{Name: nameTok.Lexeme, Type: typ, Init: init, Sp: p.span(p.tokSpan(nameTok).Start, bodyEnd.End)})
		if p.peek().Kind == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	end, err := p.expect(lexer.SEMICOLON)
	if err != nil {
		return nil, err
	}
	return &ast.VarDecls{Bodies: bodies, Sp: p.span(p.tokSpan(start).Start, p.tokSpan(end).End)}, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.LBRACE:
		p.advance()
		return p.parseBlockBody(tok)
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.RETURN:
		p.advance()
		if p.peek().Kind == lexer.SEMICOLON {
			end := p.advance()
			return &ast.ReturnStmt{Expr: nil, Sp: p.span(p.tokSpan(tok).Start, p.tokSpan(end).End)}, nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.SEMICOLON)
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Expr: e, Sp: p.span(p.tokSpan(tok).Start, p.tokSpan(end).End)}, nil
	case lexer.BREAK:
		p.advance()
		end, err := p.expect(lexer.SEMICOLON)
		if err != nil {
			return nil, err
		}
		return &ast.BreakStmt{Sp: p.span(p.tokSpan(tok).Start, p.tokSpan(end).End)}, nil
	case lexer.CONTINUE:
		p.advance()
		end, err := p.expect(lexer.SEMICOLON)
		if err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{Sp: p.span(p.tokSpan(tok).Start, p.tokSpan(end).End)}, nil
	case lexer.ASM:
		p.advance()
		if _, err := p.expect(lexer.LPAREN); err != nil {
			return nil, err
		}
		strTok, err := p.expect(lexer.STRING)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.SEMICOLON)
		if err != nil {
			return nil, err
		}
		return &ast.AsmStmt{Instruction: strTok.Lexeme, Sp: p.span(p.tokSpan(tok).Start, p.tokSpan(end).End)}, nil
	default:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.SEMICOLON)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Expr: e, Sp: p.span(e.Span().Start, p.tokSpan(end).End)}, nil
	}
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	start := p.advance() // if
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	end := then.Span()
	var els ast.Stmt
	if p.peek().Kind == lexer.ELSE {
		p.advance()
		els, err = p.parseStmt()
		if err != nil {
			return nil, err
		}
		end = els.Span()
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: els, Sp: p.span(p.tokSpan(start).Start, end.End)}, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	start := p.advance() // while
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body, Sp: p.span(p.tokSpan(start).Start, body.Span().End)}, nil
}

// parseExpr is the entry point for expression parsing.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (ast.Expr, error) {
	lhs, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind == lexer.ASSIGN {
		p.advance()
		rhs, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &ast.InfixExpr{Op: ast.Assign, Lhs: lhs, Rhs: rhs, Sp: p.span(lhs.Span().Start, rhs.Span().End)}, nil
	}
	return lhs, nil
}

type infixLevel struct {
	kinds []lexer.Kind
	ops   []ast.InfixOp
	next  func(*Parser) (ast.Expr, error)
}

func (p *Parser) parseLeftAssoc(kinds []lexer.Kind, ops []ast.InfixOp, next func(*Parser) (ast.Expr, error)) (ast.Expr, error) {
	expr, err := next(p)
	if err != nil {
		return nil, err
	}
	for {
		matched := -1
		for i, k := range kinds {
			if p.peek().Kind == k {
				matched = i
				break
			}
		}
		if matched == -1 {
			return expr, nil
		}
		p.advance()
		rhs, err := next(p)
		if err != nil {
			return nil, err
		}
		expr = &ast.InfixExpr{Op: ops[matched], Lhs: expr, Rhs: rhs, Sp: p.span(expr.Span().Start, rhs.Span().End)}
	}
}

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	return p.parseLeftAssoc([]lexer.Kind{lexer.PIPEPIPE}, []ast.InfixOp{ast.Or}, (*Parser).parseLogicalAnd)
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	return p.parseLeftAssoc([]lexer.Kind{lexer.AMPAMP}, []ast.InfixOp{ast.And}, (*Parser).parseBitwiseOr)
}

func (p *Parser) parseBitwiseOr() (ast.Expr, error) {
	return p.parseLeftAssoc([]lexer.Kind{lexer.PIPE}, []ast.InfixOp{ast.BitOr}, (*Parser).parseBitwiseXor)
}

func (p *Parser) parseBitwiseXor() (ast.Expr, error) {
	return p.parseLeftAssoc([]lexer.Kind{lexer.CARET}, []ast.InfixOp{ast.BitXor}, (*Parser).parseBitwiseAnd)
}

func (p *Parser) parseBitwiseAnd() (ast.Expr, error) {
	return p.parseLeftAssoc([]lexer.Kind{lexer.AMP}, []ast.InfixOp{ast.BitAnd}, (*Parser).parseEquality)
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	return p.parseLeftAssoc([]lexer.Kind{lexer.EQ, lexer.NE}, []ast.InfixOp{ast.EQ, ast.NE}, (*Parser).parseRelational)
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	return p.parseLeftAssoc(
		[]lexer.Kind{lexer.LT, lexer.LE, lexer.GT, lexer.GE},
		[]ast.InfixOp{ast.LT, ast.LE, ast.GT, ast.GE},
		(*Parser).parseShift)
}

func (p *Parser) parseShift() (ast.Expr, error) {
	return p.parseLeftAssoc([]lexer.Kind{lexer.SHL, lexer.SHR}, []ast.InfixOp{ast.LShift, ast.RShift}, (*Parser).parseAdditive)
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	return p.parseLeftAssoc([]lexer.Kind{lexer.PLUS, lexer.MINUS}, []ast.InfixOp{ast.Add, ast.Sub}, (*Parser).parseMultiplicative)
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	return p.parseLeftAssoc(
		[]lexer.Kind{lexer.STAR, lexer.SLASH, lexer.PERCENT},
		[]ast.InfixOp{ast.Mul, ast.Div, ast.Mod},
		(*Parser).parseUnary)
}

var unaryOpOf = map[lexer.Kind]ast.UnaryOp{
	lexer.AMP:   ast.Ref,
	lexer.STAR:  ast.Deref,
	lexer.MINUS: ast.Minus,
	lexer.TILDE: ast.Inv,
	lexer.BANG:  ast.Neg,
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	tok := p.peek()

	// Cast: "(" type ")" unary, recognized only when the parenthesized
	// content unambiguously starts a type (builtin keyword, "*", or the
	// "(T)[N]" array form). A leading identifier is left to parsePostfix
	// as an ordinary parenthesized expression.
	if tok.Kind == lexer.LPAREN && startsType(p.peekNext().Kind) {
		save := p.pos
		p.advance() // (
		to, err := p.parseType()
		if err == nil && p.peek().Kind == lexer.RPAREN {
			p.advance() // )
			operand, err := p.parseUnary()
			if err == nil {
				return &ast.CastExpr{To: to, Operand: operand, Sp: p.span(p.tokSpan(tok).Start, operand.Span().End)}, nil
			}
		}
		p.pos = save
	}

	if op, ok := unaryOpOf[tok.Kind]; ok {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: op, Operand: operand, Sp: p.span(p.tokSpan(tok).Start, operand.Span().End)}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Kind {
		case lexer.LBRACKET:
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			end, err := p.expect(lexer.RBRACKET)
			if err != nil {
				return nil, err
			}
			expr = &ast.IndexExpr{Target: expr, Index: idx, Sp: p.span(expr.Span().Start, p.tokSpan(end).End)}
		case lexer.DOT:
			p.advance()
			field, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			expr = &ast.AccessExpr{Target: expr, Field: field.Lexeme, Sp: p.span(expr.Span().Start, p.tokSpan(field).End)}
		case lexer.LPAREN:
			p.advance()
			var args []ast.Expr
			for p.peek().Kind != lexer.RPAREN {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.peek().Kind == lexer.COMMA {
					p.advance()
				} else {
					break
				}
			}
			end, err := p.expect(lexer.RPAREN)
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{Callee: expr, Args: args, Sp: p.span(expr.Span().Start, p.tokSpan(end).End)}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.INT:
		p.advance()
		val, err := strconv.ParseUint(tok.Lexeme, 0, 64)
		if err != nil {
			return nil, p.errorf(tok, "integer %q out of range", tok.Lexeme)
		}
		return &ast.IntegerExpr{Value: val, Sp: p.tokSpan(tok)}, nil
	case lexer.STRING:
		p.advance()
		return &ast.StringExpr{Value: []byte(tok.Lexeme), Sp: p.tokSpan(tok)}, nil
	case lexer.CHARLIT:
		p.advance()
		return &ast.CharExpr{Value: []byte(tok.Lexeme)[0], Sp: p.tokSpan(tok)}, nil
	case lexer.TRUE:
		p.advance()
		return &ast.BoolExpr{Value: true, Sp: p.tokSpan(tok)}, nil
	case lexer.FALSE:
		p.advance()
		return &ast.BoolExpr{Value: false, Sp: p.tokSpan(tok)}, nil
	case lexer.NULLPTR:
		p.advance()
		return &ast.NullPtrExpr{Sp: p.tokSpan(tok)}, nil
	case lexer.SIZEOF:
		return p.parseSizeof()
	case lexer.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case lexer.LBRACE:
		return p.parseArrayLit()
	case lexer.IDENT:
		return p.parseIdentPrimary()
	default:
		return nil, p.errorf(tok, "expected expression, got %s (%q)", tok.Kind, tok.Lexeme)
	}
}

func (p *Parser) parseSizeof() (ast.Expr, error) {
	start := p.advance() // sizeof
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	if startsType(p.peek().Kind) {
		of, err := p.parseType()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.RPAREN)
		if err != nil {
			return nil, err
		}
		return &ast.TSizeofExpr{Of: of, Sp: p.span(p.tokSpan(start).Start, p.tokSpan(end).End)}, nil
	}
	operand, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(lexer.RPAREN)
	if err != nil {
		return nil, err
	}
	return &ast.ESizeofExpr{Operand: operand, Sp: p.span(p.tokSpan(start).Start, p.tokSpan(end).End)}, nil
}

// parseIdentPrimary handles a bare identifier, an EnumName::Variant
// selection, or a StructName { field: expr, ... } literal.
func (p *Parser) parseIdentPrimary() (ast.Expr, error) {
	tok := p.advance()
	if p.peek().Kind == lexer.COLONCOLON {
		p.advance()
		variant, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		return &ast.EnumSelectExpr{EnumName: tok.Lexeme, VariantName: variant.Lexeme, Sp: p.span(p.tokSpan(tok).Start, p.tokSpan(variant).End)}, nil
	}
	if p.peek().Kind == lexer.LBRACE {
		p.advance()
		var inits []ast.FieldInit
		for p.peek().Kind != lexer.RBRACE {
			fname, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.COLON); err != nil {
				return nil, err
			}
			fexpr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			inits = append(inits, ast.FieldInit{Name: fname.Lexeme, Init: fexpr})
			if p.peek().Kind == lexer.COMMA {
				p.advance()
			} else {
				break
			}
		}
		end, err := p.expect(lexer.RBRACE)
		if err != nil {
			return nil, err
		}
		return &ast.StructExpr{Name: tok.Lexeme, Inits: inits, Sp: p.span(p.tokSpan(tok).Start, p.tokSpan(end).End)}, nil
	}
	return &ast.VariableExpr{Name: tok.Lexeme, Sp: p.tokSpan(tok)}, nil
}

func (p *Parser) parseArrayLit() (ast.Expr, error) {
	start := p.advance() // {
	var elems []ast.Expr
	for p.peek().Kind != lexer.RBRACE {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.peek().Kind == lexer.COMMA {
			p.advance()
		} else {
			break
		}
	}
	end, err := p.expect(lexer.RBRACE)
	if err != nil {
		return nil, err
	}
	return &ast.ArrayExpr{Elements: elems, Sp: p.span(p.tokSpan(start).Start, p.tokSpan(end).End)}, nil
}
