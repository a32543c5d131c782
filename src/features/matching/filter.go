package matching

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Fields is the closed vocabulary of condition fields.
var Fields = []string{"artist", "title", "album", "artistWithTitle", "artistInTitle"}

// Operations is the closed vocabulary of plain condition operations. A
// "similarity>=T" operation is accepted in addition to these.
var Operations = []string{"match", "contains", "is", "not"}

const similarityPrefix = "similarity>="

const syntaxError = "Invalid expression syntax. Expected: field[:operation] (AND|OR field[:operation])*"

// Operator words people tend to try. They are reported by name instead of as
// unknown fields.
var rejectedOperators = map[string]bool{"but": true, "xor": true, "nor": true, "nand": true}

// ErrInvalidExpression is matched by every ExpressionError.
var ErrInvalidExpression = errors.New("invalid filter expression")

// ValidationResult is the outcome of ValidateExpression.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ExpressionError carries every problem found in a filter expression.
type ExpressionError struct {
	Expression string
	Errors     []string
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("invalid filter expression %q: %s", e.Expression, strings.Join(e.Errors, "; "))
}

func (e *ExpressionError) Is(target error) bool {
	return target == ErrInvalidExpression
}

type tokenKind int

const (
	tokenCondition tokenKind = iota
	tokenOperator
	tokenRejected
)

type token struct {
	text string
	kind tokenKind
}

type opKind int

const (
	opMatch opKind = iota
	opContains
	opNot
	opSimilarity
)

type condition struct {
	field     string
	op        opKind
	threshold float64
}

// parsed is the result of a full scan. Every check runs; problems accumulate in
// errs and wellFormed stays false when the token stream does not follow the
// grammar.
type parsed struct {
	tokens     []token
	conditions []condition
	operators  []string
	errs       []string
	wellFormed bool
}

// ValidateExpression checks expr and reports every violation found. The result
// only depends on expr.
func ValidateExpression(expr string) ValidationResult {
	p := parse(expr)
	if len(p.errs) == 0 {
		return ValidationResult{Valid: true, Errors: []string{}}
	}
	return ValidationResult{Valid: false, Errors: p.errs}
}

func parse(expr string) parsed {
	var p parsed
	if strings.TrimSpace(expr) == "" {
		p.errs = []string{"Expression cannot be empty"}
		return p
	}

	raw, clean := tokenize(expr)
	p.wellFormed = clean && len(raw)%2 == 1

	var fieldErrs, opErrs, rejected []string
	conditions, operators := 0, 0
	for i, text := range raw {
		tok := token{text: text, kind: classify(text)}
		p.tokens = append(p.tokens, tok)
		switch tok.kind {
		case tokenOperator:
			operators++
			p.operators = append(p.operators, text)
			if i%2 == 0 {
				p.wellFormed = false
			}
		case tokenRejected:
			operators++
			rejected = append(rejected, text)
			p.wellFormed = false
		case tokenCondition:
			conditions++
			if i%2 == 1 {
				p.wellFormed = false
			}
			cond, fieldErr, opErr, ok := parseCondition(text)
			if fieldErr != "" {
				fieldErrs = append(fieldErrs, fieldErr)
			}
			if opErr != "" {
				opErrs = append(opErrs, opErr)
			}
			if !ok {
				p.wellFormed = false
				continue
			}
			p.conditions = append(p.conditions, cond)
		}
	}

	p.errs = append(p.errs, fieldErrs...)
	p.errs = append(p.errs, opErrs...)
	if len(rejected) > 0 {
		p.errs = append(p.errs, fmt.Sprintf("Invalid operators: %s. Only AND, OR are supported", strings.Join(rejected, ", ")))
	}
	if conditions != operators+1 {
		p.errs = append(p.errs, fmt.Sprintf("Unbalanced expression: %d conditions and %d operators, expected one more condition than operators", conditions, operators))
	}
	if !p.wellFormed {
		p.errs = append(p.errs, syntaxError)
	}
	p.errs = dedupe(p.errs)
	return p
}

// tokenize splits on whitespace and glues "field : op" into one token. clean is
// false when a non-ASCII or control character shows up.
func tokenize(expr string) ([]string, bool) {
	var (
		tokens []string
		b      strings.Builder
		clean  = true
	)
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	runes := []rune(expr)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == ':':
			b.WriteRune(r)
			for i+1 < len(runes) && isSpace(runes[i+1]) {
				i++
			}
		case isSpace(r):
			j := i
			for j+1 < len(runes) && isSpace(runes[j+1]) {
				j++
			}
			if j+1 < len(runes) && runes[j+1] == ':' && b.Len() > 0 {
				i = j
				continue
			}
			flush()
		default:
			if r > unicode.MaxASCII || unicode.IsControl(r) {
				clean = false
			}
			b.WriteRune(r)
		}
	}
	flush()
	return tokens, clean
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func classify(text string) tokenKind {
	if text == "AND" || text == "OR" {
		return tokenOperator
	}
	if rejectedOperators[strings.ToLower(text)] {
		return tokenRejected
	}
	return tokenCondition
}

// parseCondition returns the parsed condition, the field and operation error
// messages if any, and whether the token is a well-formed condition.
func parseCondition(text string) (condition, string, string, bool) {
	field, op, hasOp := strings.Cut(text, ":")
	cond := condition{field: field, op: opMatch}
	ok := true

	fieldErr := ""
	if field == "" {
		ok = false
	} else if !isField(field) {
		fieldErr = fmt.Sprintf("Invalid field: %q", field)
		ok = false
	}

	if !hasOp {
		return cond, fieldErr, "", ok
	}
	if op == "" || strings.Contains(op, ":") {
		return cond, fieldErr, "", false
	}

	opErr := ""
	switch op {
	case "match", "is":
		cond.op = opMatch
	case "contains":
		cond.op = opContains
	case "not":
		cond.op = opNot
	default:
		if !strings.HasPrefix(op, similarityPrefix) {
			opErr = fmt.Sprintf("Invalid operation: %q", op)
			ok = false
			break
		}
		raw := strings.TrimPrefix(op, similarityPrefix)
		threshold, valid := parseThreshold(raw)
		if !valid {
			opErr = fmt.Sprintf("Invalid similarity threshold: %q. Must be between 0 and 1", raw)
			ok = false
			break
		}
		cond.op = opSimilarity
		cond.threshold = threshold
	}
	return cond, fieldErr, opErr, ok
}

// parseThreshold accepts plain decimals only, so "1e-1" or "NaN" are rejected.
func parseThreshold(raw string) (float64, bool) {
	if raw == "" || strings.Count(raw, ".") > 1 {
		return 0, false
	}
	for _, r := range raw {
		if r != '.' && (r < '0' || r > '9') {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, false
	}
	return v, true
}

func isField(name string) bool {
	for _, f := range Fields {
		if f == name {
			return true
		}
	}
	return false
}

func dedupe(messages []string) []string {
	seen := make(map[string]bool, len(messages))
	out := messages[:0]
	for _, m := range messages {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
