package policy

import (
	"strings"

	"github.com/unet-io/unet/pkg/errcode"
)

// TokenKind discriminates lexer output.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokString
	TokNumber
	TokRegex
	TokLParen
	TokRParen
	TokKeyword
	TokOp
)

// Token is one lexed unit, positioned for diagnostics.
type Token struct {
	Kind   TokenKind
	Text   string
	Line   int
	Column int
}

var keywords = map[string]bool{
	"WHEN": true, "THEN": true, "OR": true, "AND": true, "NOT": true,
	"IS": true, "NULL": true, "CONTAINS": true, "MATCHES": true,
	"ASSERT": true, "SET": true, "TO": true, "APPLY": true, "true": true, "false": true,
}

// Lexer turns policy source into a token stream.
type Lexer struct {
	src    []rune
	pos    int
	line   int
	column int
}

// NewLexer creates a Lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, column: 1}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		r := l.peek()
		if r == '#' {
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			l.advance()
			continue
		}
		break
	}
}

// Next returns the next token, or a TokEOF token at end of input.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespaceAndComments()
	if l.pos >= len(l.src) {
		return Token{Kind: TokEOF, Line: l.line, Column: l.column}, nil
	}

	startLine, startCol := l.line, l.column
	r := l.peek()

	switch {
	case r == '(':
		l.advance()
		return Token{Kind: TokLParen, Text: "(", Line: startLine, Column: startCol}, nil
	case r == ')':
		l.advance()
		return Token{Kind: TokRParen, Text: ")", Line: startLine, Column: startCol}, nil
	case r == '"':
		return l.lexString(startLine, startCol)
	case r == '/':
		return l.lexRegex(startLine, startCol)
	case r == '=' || r == '!' || r == '<' || r == '>':
		return l.lexOperator(startLine, startCol)
	case isDigit(r) || (r == '-' && isDigit(l.peekAt(1))):
		return l.lexNumber(startLine, startCol)
	case isIdentStart(r):
		return l.lexIdent(startLine, startCol)
	default:
		return Token{}, errcode.ParseError{Line: startLine, Column: startCol, Message: "unexpected character"}
	}
}

func (l *Lexer) peekAt(offset int) rune {
	idx := l.pos + offset
	if idx >= len(l.src) {
		return 0
	}
	return l.src[idx]
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r) || r == '.'
}

func (l *Lexer) lexString(line, col int) (Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, errcode.ParseError{Line: line, Column: col, Message: "unterminated string"}
		}
		r := l.advance()
		if r == '"' {
			break
		}
		if r == '\\' {
			if l.pos >= len(l.src) {
				return Token{}, errcode.ParseError{Line: line, Column: col, Message: "unterminated escape"}
			}
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(r)
	}
	return Token{Kind: TokString, Text: sb.String(), Line: line, Column: col}, nil
}

func (l *Lexer) lexRegex(line, col int) (Token, error) {
	l.advance() // opening slash
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, errcode.ParseError{Line: line, Column: col, Message: "unterminated regex literal"}
		}
		r := l.advance()
		if r == '/' {
			break
		}
		if r == '\\' && l.pos < len(l.src) {
			sb.WriteRune(r)
			sb.WriteRune(l.advance())
			continue
		}
		sb.WriteRune(r)
	}
	return Token{Kind: TokRegex, Text: sb.String(), Line: line, Column: col}, nil
}

func (l *Lexer) lexOperator(line, col int) (Token, error) {
	first := l.advance()
	if l.pos < len(l.src) && l.peek() == '=' && (first == '=' || first == '!' || first == '<' || first == '>') {
		second := l.advance()
		return Token{Kind: TokOp, Text: string(first) + string(second), Line: line, Column: col}, nil
	}
	if first == '<' || first == '>' {
		return Token{Kind: TokOp, Text: string(first), Line: line, Column: col}, nil
	}
	return Token{}, errcode.ParseError{Line: line, Column: col, Message: "unexpected operator"}
}

func (l *Lexer) lexNumber(line, col int) (Token, error) {
	var sb strings.Builder
	if l.peek() == '-' {
		sb.WriteRune(l.advance())
	}
	for l.pos < len(l.src) && (isDigit(l.peek()) || l.peek() == '.') {
		sb.WriteRune(l.advance())
	}
	return Token{Kind: TokNumber, Text: sb.String(), Line: line, Column: col}, nil
}

func (l *Lexer) lexIdent(line, col int) (Token, error) {
	var sb strings.Builder
	for l.pos < len(l.src) && isIdentPart(l.peek()) {
		sb.WriteRune(l.advance())
	}
	text := sb.String()
	kind := TokIdent
	if keywords[text] && !strings.Contains(text, ".") {
		// Field references containing a dot are never keywords, even
		// if their first segment happens to collide with one.
		kind = TokKeyword
	}
	return Token{Kind: kind, Text: text, Line: line, Column: col}, nil
}
