package parser

import (
	"fmt"
	"unicode/utf8"

	"github.com/rulekit/rulekit/pkg/types"
)

const eof = -1

// Lexer converts rule text into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.acceptAll(isWhitespace)
	l.ignore()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	switch ch {
	case '#':
		return l.scanComment()
	case '(':
		return l.newToken(TokenLParen)
	case ')':
		return l.newToken(TokenRParen)
	case '[':
		return l.newToken(TokenLBracket)
	case ']':
		return l.newToken(TokenRBracket)
	case '{':
		return l.newToken(TokenLBrace)
	case '}':
		return l.newToken(TokenRBrace)
	case ',':
		return l.newToken(TokenComma)
	case ':':
		return l.newToken(TokenColon)
	case '?':
		return l.newToken(TokenQmark)
	case '+':
		return l.newToken(TokenAdd)
	case '-':
		return l.newToken(TokenSub)
	case '%':
		return l.newToken(TokenMod)
	case '|':
		return l.newToken(TokenBwOr)
	case '^':
		return l.newToken(TokenBwXor)
	case '*':
		if l.acceptRune('*') {
			return l.newToken(TokenPow)
		}
		return l.newToken(TokenMul)
	case '/':
		if l.acceptRune('/') {
			return l.newToken(TokenFDiv)
		}
		return l.newToken(TokenTDiv)
	case '<':
		if l.acceptRune('=') {
			return l.newToken(TokenLe)
		}
		if l.acceptRune('<') {
			return l.newToken(TokenBwLsh)
		}
		return l.newToken(TokenLt)
	case '>':
		if l.acceptRune('=') {
			return l.newToken(TokenGe)
		}
		if l.acceptRune('>') {
			return l.newToken(TokenBwRsh)
		}
		return l.newToken(TokenGt)
	case '=':
		if l.acceptRune('~') {
			if l.acceptRune('~') {
				return l.newToken(TokenEqFzs)
			}
			return l.newToken(TokenEqFzm)
		}
		if l.acceptRune('=') {
			return l.newToken(TokenEq)
		}
		return l.error("syntax error (illegal character '=')")
	case '!':
		if l.acceptRune('~') {
			if l.acceptRune('~') {
				return l.newToken(TokenNeFzs)
			}
			return l.newToken(TokenNeFzm)
		}
		if l.acceptRune('=') {
			return l.newToken(TokenNe)
		}
		return l.error("syntax error (illegal character '!')")
	case '&':
		// &. and &[ are the safe accessor forms
		if l.peek() == '.' {
			l.nextRune()
			return l.newToken(TokenSafeAttr)
		}
		if l.peek() == '[' {
			l.nextRune()
			return l.newToken(TokenSafeLBracket)
		}
		return l.newToken(TokenBwAnd)
	case '.':
		if isDigit(l.peek()) {
			l.backup()
			return l.scanNumber()
		}
		return l.newToken(TokenAttr)
	case '"', '\'':
		l.ignore()
		return l.scanString(ch, TokenString)
	case '$':
		l.backup()
		return l.scanName()
	}

	if isDigit(ch) {
		l.backup()
		return l.scanNumber()
	}

	// Prefixed literals: s"text", b"bytes", d"datetime", t"timedelta"
	if tt := literalPrefix(ch); tt != TokenEOF {
		if quote := l.peek(); quote == '"' || quote == '\'' {
			l.nextRune()
			l.ignore()
			return l.scanString(quote, tt)
		}
	}

	if isSymbolStart(ch) {
		l.backup()
		return l.scanName()
	}

	return l.error(fmt.Sprintf("syntax error (illegal character %q)", ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// literalPrefix maps a literal prefix letter to the token type of the
// literal it introduces.
func literalPrefix(ch rune) TokenType {
	switch ch {
	case 's':
		return TokenString
	case 'b':
		return TokenBytes
	case 'd':
		return TokenDatetime
	case 't':
		return TokenTimedelta
	default:
		return TokenEOF
	}
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed. Escape sequences are kept
// raw; the parser decodes them.
func (l *Lexer) scanString(quote rune, tt TokenType) Token {
Loop:
	for {
		switch l.nextRune() {
		case quote:
			break Loop
		case '\\':
			// Consume escaped character
			if r := l.nextRune(); r != eof && r != '\n' {
				break
			}
			fallthrough
		case eof, '\n':
			return l.error("syntax error (unterminated string literal)")
		}
	}

	l.backup()
	t := l.newToken(tt)
	l.acceptRune(quote)
	l.ignore()
	return t
}

// scanNumber reads a number literal from the current position.
// Supports decimals, scientific notation, and the 0b, 0o and 0x radix
// prefixes. The text is validated when the literal is built.
func (l *Lexer) scanNumber() Token {
	if l.acceptRune('0') && l.accept(isRadixLetter) {
		l.acceptAll(isHexDigit)
		return l.newToken(TokenFloat)
	}

	l.acceptAll(isDigit)

	// Decimal part
	if l.acceptRune('.') {
		l.acceptAll(isDigit)
	}

	// Exponent part
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		l.acceptAll(isDigit)
	}

	return l.newToken(TokenFloat)
}

// scanComment reads a # comment running to the end of the line.
func (l *Lexer) scanComment() Token {
	for {
		ch := l.nextRune()
		if ch == eof || ch == '\n' {
			break
		}
	}
	l.backup()
	return l.newToken(TokenComment)
}

// scanName reads a symbol or keyword from the current position.
// Names can contain letters, digits, and underscores. Builtin symbols start
// with $ (e.g., $now).
func (l *Lexer) scanName() Token {
	l.acceptRune('$')
	l.accept(isSymbolStart)
	l.acceptAll(isSymbolPart)

	t := l.newToken(TokenSymbol)
	if t.Value[0] == '$' {
		if len(t.Value) == 1 {
			return l.error("syntax error (illegal character '$')")
		}
		return t
	}
	if reservedKeyword(t.Value) {
		return l.error(fmt.Sprintf("syntax error (the %s keyword is reserved for future use)", t.Value))
	}
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(message string) Token {
	t := l.newToken(TokenError)
	l.err = types.NewRuleSyntaxError(message, t.Position, t.Value)
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peek() rune {
	if l.err != nil || l.current >= l.length {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.current:])
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isRadixLetter(r rune) bool {
	switch r {
	case 'b', 'B', 'o', 'O', 'x', 'X':
		return true
	default:
		return false
	}
}

func isSymbolStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isSymbolPart(r rune) bool {
	return isSymbolStart(r) || isDigit(r)
}
