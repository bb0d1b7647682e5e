package types

import (
	"errors"
	"fmt"
)

// Family sentinels. Every engine error unwraps to exactly one of these, so
// hosts can classify failures with [errors.Is] without matching concrete
// types:
//
//	if errors.Is(err, types.ErrSyntax) { ... }      // bad rule text
//	if errors.Is(err, types.ErrEvaluation) { ... }  // bad data at runtime
var (
	// ErrSyntax is the family of construction-time failures: malformed
	// rule text, malformed literals, invalid regular expressions and
	// construction-time type or symbol errors.
	ErrSyntax = errors.New("rule syntax error")
	// ErrEvaluation is the family of runtime failures raised while a rule
	// evaluates against a thing.
	ErrEvaluation = errors.New("rule evaluation error")
)

// baseError is the base carried by every engine error. Concrete error
// types embed it and may add detail fields.
type baseError struct {
	family  error
	Message string
	// Cause is the underlying error, when one exists.
	Cause error
}

func newError(family error, message string) baseError {
	return baseError{family: family, Message: message}
}

func (e *baseError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the family sentinel and any cause to the errors package.
func (e *baseError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.family, e.Cause}
	}
	return []error{e.family}
}

func isEngineError(err error) bool {
	return errors.Is(err, ErrSyntax) || errors.Is(err, ErrEvaluation)
}

// RuleSyntaxError reports rule text the parser could not accept. Position
// is the byte offset of the offending token within the rule text, or -1 for
// unexpected end of input.
type RuleSyntaxError struct {
	baseError
	Position int
	Token    string
}

// NewRuleSyntaxError builds a RuleSyntaxError for the token at position.
func NewRuleSyntaxError(message string, position int, token string) *RuleSyntaxError {
	return &RuleSyntaxError{baseError: newError(ErrSyntax, message), Position: position, Token: token}
}

func (e *RuleSyntaxError) Error() string {
	if e.Token == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (at %q, position %d)", e.Message, e.Token, e.Position)
}

// LiteralSyntaxError reports a malformed literal of a specific kind inside
// otherwise well-formed rule text. Kind identifies the literal family
// (FLOAT, STRING, BYTES, DATETIME or TIMEDELTA) and Literal is the
// offending source text.
type LiteralSyntaxError struct {
	baseError
	Kind    Kind
	Literal string
}

func newLiteralSyntaxError(kind Kind, message, literal string) *LiteralSyntaxError {
	return &LiteralSyntaxError{baseError: newError(ErrSyntax, message), Kind: kind, Literal: literal}
}

// NewFloatSyntaxError reports a malformed FLOAT literal.
func NewFloatSyntaxError(message, literal string) *LiteralSyntaxError {
	return newLiteralSyntaxError(KindFloat, message, literal)
}

// NewStringSyntaxError reports a malformed STRING literal.
func NewStringSyntaxError(message, literal string) *LiteralSyntaxError {
	return newLiteralSyntaxError(KindString, message, literal)
}

// NewBytesSyntaxError reports a malformed BYTES literal.
func NewBytesSyntaxError(message, literal string) *LiteralSyntaxError {
	return newLiteralSyntaxError(KindBytes, message, literal)
}

// NewDatetimeSyntaxError reports a malformed DATETIME literal.
func NewDatetimeSyntaxError(message, literal string) *LiteralSyntaxError {
	return newLiteralSyntaxError(KindDatetime, message, literal)
}

// NewTimedeltaSyntaxError reports a malformed TIMEDELTA literal.
func NewTimedeltaSyntaxError(message, literal string) *LiteralSyntaxError {
	return newLiteralSyntaxError(KindTimedelta, message, literal)
}

func (e *LiteralSyntaxError) Error() string {
	return fmt.Sprintf("%s: %q", e.Message, e.Literal)
}

// RegexSyntaxError reports an invalid regular expression used with a fuzzy
// comparison operator.
type RegexSyntaxError struct {
	baseError
	Pattern string
}

// NewRegexSyntaxError builds a RegexSyntaxError for pattern, keeping the
// compiler's error as the cause.
func NewRegexSyntaxError(message, pattern string, cause error) *RegexSyntaxError {
	e := &RegexSyntaxError{baseError: newError(ErrSyntax, message), Pattern: pattern}
	e.Cause = cause
	return e
}

func (e *RegexSyntaxError) Error() string {
	msg := fmt.Sprintf("%s: %q", e.Message, e.Pattern)
	if e.Cause != nil {
		msg += " (" + e.Cause.Error() + ")"
	}
	return msg
}

// EvaluationError is the generic runtime failure, used when no more
// specific error type applies (type mismatches in operators, unhashable
// members, coercion failures).
type EvaluationError struct {
	baseError
}

// NewEvaluationError builds a generic EvaluationError.
func NewEvaluationError(message string) *EvaluationError {
	return &EvaluationError{baseError: newError(ErrEvaluation, message)}
}

// SymbolResolutionError reports a symbol that could not be resolved to a
// value. Scope is empty for thing symbols and "built-in" for $-prefixed
// ones. Suggestion, when non-empty, names a close known symbol.
type SymbolResolutionError struct {
	baseError
	Symbol     string
	Scope      string
	Suggestion string
}

// NewSymbolResolutionError builds a SymbolResolutionError for symbol.
func NewSymbolResolutionError(symbol, scope, suggestion string) *SymbolResolutionError {
	return &SymbolResolutionError{
		baseError: newError(ErrEvaluation, "symbol can not be resolved"),
		Symbol:     symbol,
		Scope:      scope,
		Suggestion: suggestion,
	}
}

func (e *SymbolResolutionError) Error() string {
	msg := fmt.Sprintf("%s: %q", e.Message, e.Symbol)
	if e.Scope != "" {
		msg += " (scope: " + e.Scope + ")"
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(", did you mean %q?", e.Suggestion)
	}
	return msg
}

// SymbolTypeError reports a resolved symbol whose value kind contradicts
// its declared type.
type SymbolTypeError struct {
	baseError
	Symbol   string
	Expected DataType
	Actual   DataType
}

// NewSymbolTypeError builds a SymbolTypeError for symbol.
func NewSymbolTypeError(symbol string, expected, actual DataType) *SymbolTypeError {
	return &SymbolTypeError{
		baseError: newError(ErrEvaluation, "symbol value is of an incompatible type"),
		Symbol:   symbol,
		Expected: expected,
		Actual:   actual,
	}
}

func (e *SymbolTypeError) Error() string {
	return fmt.Sprintf("%s: %q (expected %s, got %s)", e.Message, e.Symbol, e.Expected, e.Actual)
}

// AttributeResolutionError reports an attribute name that does not exist on
// the value it was accessed on. Suggestion, when non-empty, names a close
// known attribute.
type AttributeResolutionError struct {
	baseError
	Attribute  string
	Object     DataType
	Suggestion string
}

// NewAttributeResolutionError builds an AttributeResolutionError for
// attribute accessed on a value of type object.
func NewAttributeResolutionError(attribute string, object DataType, suggestion string) *AttributeResolutionError {
	return &AttributeResolutionError{
		baseError: newError(ErrEvaluation, "attribute can not be resolved"),
		Attribute:  attribute,
		Object:     object,
		Suggestion: suggestion,
	}
}

func (e *AttributeResolutionError) Error() string {
	msg := fmt.Sprintf("%s: %q on %s", e.Message, e.Attribute, e.Object)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(", did you mean %q?", e.Suggestion)
	}
	return msg
}

// AttributeTypeError reports an attribute whose resolved value kind
// contradicts the kind the attribute is declared to produce.
type AttributeTypeError struct {
	baseError
	Attribute string
	Object    DataType
	Expected  DataType
	Actual    DataType
}

// NewAttributeTypeError builds an AttributeTypeError for attribute.
func NewAttributeTypeError(attribute string, object, expected, actual DataType) *AttributeTypeError {
	return &AttributeTypeError{
		baseError: newError(ErrEvaluation, "attribute value is of an incompatible type"),
		Attribute: attribute,
		Object:    object,
		Expected:  expected,
		Actual:    actual,
	}
}

func (e *AttributeTypeError) Error() string {
	return fmt.Sprintf("%s: %q on %s (expected %s, got %s)",
		e.Message, e.Attribute, e.Object, e.Expected, e.Actual)
}

// LookupError reports a failed item lookup: an index out of range or a
// missing mapping key.
type LookupError struct {
	baseError
}

// NewLookupError builds a LookupError.
func NewLookupError(message string) *LookupError {
	return &LookupError{baseError: newError(ErrEvaluation, message)}
}

// FunctionCallError reports a failure inside or around a function call:
// wrong arity, an incompatible argument, or an error returned by the
// implementation.
type FunctionCallError struct {
	baseError
	FunctionName string
}

// NewFunctionCallError builds a FunctionCallError for the named function,
// keeping cause when non-nil.
func NewFunctionCallError(message, functionName string, cause error) *FunctionCallError {
	e := &FunctionCallError{baseError: newError(ErrEvaluation, message), FunctionName: functionName}
	e.Cause = cause
	return e
}

func (e *FunctionCallError) Error() string {
	msg := e.Message
	if e.FunctionName != "" {
		msg = fmt.Sprintf("%s (function: %s)", msg, e.FunctionName)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}
