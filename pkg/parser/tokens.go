package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenFloat     // 123, 3.14, 0x1f, 1e-10, inf, nan
	TokenString    // "hello", 'hello', s"hello"
	TokenBytes     // b"\x00\x01"
	TokenDatetime  // d"2019-09-01"
	TokenTimedelta // t"P1DT2H"
	TokenBoolean   // true, false
	TokenNull      // null
	TokenSymbol    // name or $name
	TokenComment   // # trailing comment

	// Grouping symbols
	TokenLParen       // (
	TokenRParen       // )
	TokenLBracket     // [
	TokenSafeLBracket // &[
	TokenRBracket     // ]
	TokenLBrace       // {
	TokenRBrace       // }

	// Basic symbols
	TokenComma // ,
	TokenColon // :
	TokenQmark // ?

	// Attribute access
	TokenAttr     // .
	TokenSafeAttr // &.

	// Arithmetic operators
	TokenAdd  // +
	TokenSub  // -
	TokenMul  // *
	TokenPow  // **
	TokenTDiv // /
	TokenFDiv // //
	TokenMod  // %

	// Bitwise operators
	TokenBwAnd // &
	TokenBwOr  // |
	TokenBwXor // ^
	TokenBwLsh // <<
	TokenBwRsh // >>

	// Comparison operators
	TokenEq    // ==
	TokenNe    // !=
	TokenEqFzm // =~
	TokenEqFzs // =~~
	TokenNeFzm // !~
	TokenNeFzs // !~~
	TokenLt    // <
	TokenLe    // <=
	TokenGt    // >
	TokenGe    // >=

	// Keyword operators
	TokenAnd // and
	TokenOr  // or
	TokenNot // not
	TokenIn  // in
	TokenFor // for
	TokenIf  // if
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenFloat:
		return "(float)"
	case TokenString:
		return "(string)"
	case TokenBytes:
		return "(bytes)"
	case TokenDatetime:
		return "(datetime)"
	case TokenTimedelta:
		return "(timedelta)"
	case TokenBoolean:
		return "(boolean)"
	case TokenNull:
		return "null"
	case TokenSymbol:
		return "(symbol)"
	case TokenComment:
		return "(comment)"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenLBracket:
		return "["
	case TokenSafeLBracket:
		return "&["
	case TokenRBracket:
		return "]"
	case TokenLBrace:
		return "{"
	case TokenRBrace:
		return "}"
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenQmark:
		return "?"
	case TokenAttr:
		return "."
	case TokenSafeAttr:
		return "&."
	case TokenAdd:
		return "+"
	case TokenSub:
		return "-"
	case TokenMul:
		return "*"
	case TokenPow:
		return "**"
	case TokenTDiv:
		return "/"
	case TokenFDiv:
		return "//"
	case TokenMod:
		return "%"
	case TokenBwAnd:
		return "&"
	case TokenBwOr:
		return "|"
	case TokenBwXor:
		return "^"
	case TokenBwLsh:
		return "<<"
	case TokenBwRsh:
		return ">>"
	case TokenEq:
		return "=="
	case TokenNe:
		return "!="
	case TokenEqFzm:
		return "=~"
	case TokenEqFzs:
		return "=~~"
	case TokenNeFzm:
		return "!~"
	case TokenNeFzs:
		return "!~~"
	case TokenLt:
		return "<"
	case TokenLe:
		return "<="
	case TokenGt:
		return ">"
	case TokenGe:
		return ">="
	case TokenAnd:
		return "and"
	case TokenOr:
		return "or"
	case TokenNot:
		return "not"
	case TokenIn:
		return "in"
	case TokenFor:
		return "for"
	case TokenIf:
		return "if"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token in the rule text.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token
	Position int       // Starting position in the input string
}

// lookupKeyword returns the token type for a keyword.
// Returns 0 if the string is not a recognized keyword.
func lookupKeyword(s string) TokenType {
	switch s {
	case "and":
		return TokenAnd
	case "or":
		return TokenOr
	case "not":
		return TokenNot
	case "in":
		return TokenIn
	case "for":
		return TokenFor
	case "if":
		return TokenIf
	case "true", "false":
		return TokenBoolean
	case "null":
		return TokenNull
	case "inf", "nan":
		return TokenFloat
	default:
		return 0
	}
}

// reservedKeyword reports whether a word is reserved for future use. Using
// one in a rule is a syntax error.
func reservedKeyword(s string) bool {
	switch s {
	case "elif", "else", "while":
		return true
	default:
		return false
	}
}
