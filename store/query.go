package store

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/jonathanvajda/ontology-curation-manager/vocabulary/curation"
)

// The bundled backend evaluates a basic graph-pattern subset of SPARQL:
// PREFIX declarations, SELECT (with * or an explicit projection, optionally
// DISTINCT) and ASK forms, and conjunctive triple patterns with ';' and ','
// abbreviations. FILTER, OPTIONAL, UNION and friends are out of scope and
// rejected as unsupported.

type queryForm int

const (
	formSelect queryForm = iota
	formAsk
)

// patternTerm is one position of a triple pattern: either a variable or a
// constant with a term kind.
type patternTerm struct {
	isVar bool
	value string // variable name, or constant value
	kind  termKind
}

type triplePattern struct {
	subj, pred, obj patternTerm
}

type parsedQuery struct {
	form     queryForm
	distinct bool
	// projection is the SELECT variable list; empty means * (all variables
	// in first-seen pattern order).
	projection []string
	patterns   []triplePattern
}

// Select implements Backend.
func (g *Graph) Select(ctx context.Context, query string) ([]Row, error) {
	q, err := parseQuery(query)
	if err != nil {
		return nil, err
	}
	if q.form != formSelect {
		return nil, fmt.Errorf("%w: not a SELECT query", ErrMalformedQuery)
	}

	vars := q.projection
	if len(vars) == 0 {
		vars = patternVars(q.patterns)
	}

	var rows []Row
	seen := make(map[string]bool)
	err = g.solve(ctx, q.patterns, map[string]string{}, func(binding map[string]string) bool {
		values := make(map[string]string, len(vars))
		for _, v := range vars {
			values[v] = binding[v]
		}
		if q.distinct {
			key := rowKey(vars, values)
			if seen[key] {
				return true
			}
			seen[key] = true
		}
		rows = append(rows, NewRow(vars, values))
		return true
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Ask implements Backend.
func (g *Graph) Ask(ctx context.Context, query string) (bool, error) {
	q, err := parseQuery(query)
	if err != nil {
		return false, err
	}
	if q.form != formAsk {
		return false, fmt.Errorf("%w: not an ASK query", ErrMalformedQuery)
	}

	found := false
	err = g.solve(ctx, q.patterns, map[string]string{}, func(map[string]string) bool {
		found = true
		return false // one solution settles it
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func rowKey(vars []string, values map[string]string) string {
	var sb strings.Builder
	for _, v := range vars {
		sb.WriteString(values[v])
		sb.WriteByte('\x1f')
	}
	return sb.String()
}

// patternVars collects variable names in first-seen order.
func patternVars(patterns []triplePattern) []string {
	var vars []string
	seen := map[string]bool{}
	collect := func(t patternTerm) {
		if t.isVar && !seen[t.value] {
			seen[t.value] = true
			vars = append(vars, t.value)
		}
	}
	for _, p := range patterns {
		collect(p.subj)
		collect(p.pred)
		collect(p.obj)
	}
	return vars
}

// solve joins the patterns by backtracking. The emit callback returns false
// to stop enumeration early.
func (g *Graph) solve(ctx context.Context, patterns []triplePattern, binding map[string]string, emit func(map[string]string) bool) error {
	if len(patterns) == 0 {
		// An empty pattern has the single empty solution.
		emit(binding)
		return nil
	}
	_, err := g.solveFrom(ctx, patterns, 0, binding, emit)
	return err
}

func (g *Graph) solveFrom(ctx context.Context, patterns []triplePattern, depth int, binding map[string]string, emit func(map[string]string) bool) (bool, error) {
	if depth == len(patterns) {
		return emit(binding), nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p := patterns[depth]
	for _, idx := range g.candidates(p, binding) {
		t := g.triples[idx]
		bound, ok := matchTriple(p, t, binding)
		if !ok {
			continue
		}
		keep, err := g.solveFrom(ctx, patterns, depth+1, binding, emit)
		unbind(binding, bound)
		if err != nil {
			return false, err
		}
		if !keep {
			return false, nil
		}
	}
	return true, nil
}

// candidates narrows the triples scanned for a pattern using the subject
// index when the subject is already determined.
func (g *Graph) candidates(p triplePattern, binding map[string]string) []int {
	subj := ""
	if p.subj.isVar {
		subj = binding[p.subj.value]
	} else if p.subj.kind != kindLiteral {
		subj = p.subj.value
	}
	if subj != "" {
		return g.bySubject[subj]
	}
	all := make([]int, len(g.triples))
	for i := range g.triples {
		all[i] = i
	}
	return all
}

// matchTriple attempts to match one pattern against one triple under the
// current binding, returning the variable names newly bound.
func matchTriple(p triplePattern, t triple, binding map[string]string) ([]string, bool) {
	var bound []string
	ok := matchTerm(p.subj, t.subj, kindIRI, binding, &bound) &&
		matchTerm(p.pred, t.pred, kindIRI, binding, &bound) &&
		matchTerm(p.obj, t.obj, t.objKind, binding, &bound)
	if !ok {
		unbind(binding, bound)
		return nil, false
	}
	return bound, true
}

func matchTerm(p patternTerm, value string, kind termKind, binding map[string]string, bound *[]string) bool {
	if p.isVar {
		if existing, ok := binding[p.value]; ok {
			return existing == value
		}
		binding[p.value] = value
		*bound = append(*bound, p.value)
		return true
	}
	return p.value == value && p.kind == kind
}

func unbind(binding map[string]string, names []string) {
	for _, n := range names {
		delete(binding, n)
	}
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// unsupportedKeywords are SPARQL features outside the evaluated subset.
var unsupportedKeywords = map[string]bool{
	"FILTER": true, "OPTIONAL": true, "UNION": true, "GRAPH": true,
	"MINUS": true, "BIND": true, "VALUES": true, "SERVICE": true,
	"ORDER": true, "LIMIT": true, "OFFSET": true, "GROUP": true,
	"HAVING": true, "CONSTRUCT": true, "DESCRIBE": true, "EXISTS": true,
}

type parser struct {
	tokens   []string
	pos      int
	prefixes map[string]string
}

func parseQuery(query string) (*parsedQuery, error) {
	tokens, err := tokenize(query)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, prefixes: map[string]string{}}

	for p.peekKeyword("PREFIX") {
		if err := p.parsePrefix(); err != nil {
			return nil, err
		}
	}

	q := &parsedQuery{}
	switch {
	case p.peekKeyword("SELECT"):
		p.pos++
		q.form = formSelect
		if p.peekKeyword("DISTINCT") {
			p.pos++
			q.distinct = true
		}
		if p.peek() == "*" {
			p.pos++
		} else {
			for strings.HasPrefix(p.peek(), "?") || strings.HasPrefix(p.peek(), "$") {
				q.projection = append(q.projection, p.next()[1:])
			}
			if len(q.projection) == 0 {
				return nil, fmt.Errorf("%w: SELECT without projection", ErrMalformedQuery)
			}
		}
		if !p.peekKeyword("WHERE") {
			return nil, fmt.Errorf("%w: expected WHERE", ErrMalformedQuery)
		}
		p.pos++
	case p.peekKeyword("ASK"):
		p.pos++
		q.form = formAsk
		if p.peekKeyword("WHERE") {
			p.pos++
		}
	default:
		if kw := strings.ToUpper(p.peek()); unsupportedKeywords[kw] {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedQuery, kw)
		}
		return nil, fmt.Errorf("%w: expected SELECT or ASK", ErrMalformedQuery)
	}

	patterns, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	q.patterns = patterns
	return q, nil
}

func (p *parser) parsePrefix() error {
	p.pos++ // PREFIX
	name := p.next()
	if !strings.HasSuffix(name, ":") {
		return fmt.Errorf("%w: bad prefix name %q", ErrMalformedQuery, name)
	}
	iri := p.next()
	if !strings.HasPrefix(iri, "<") || !strings.HasSuffix(iri, ">") {
		return fmt.Errorf("%w: bad prefix IRI %q", ErrMalformedQuery, iri)
	}
	p.prefixes[strings.TrimSuffix(name, ":")] = iri[1 : len(iri)-1]
	return nil
}

func (p *parser) parseGroup() ([]triplePattern, error) {
	if p.next() != "{" {
		return nil, fmt.Errorf("%w: expected {", ErrMalformedQuery)
	}

	var patterns []triplePattern
	for {
		tok := p.peek()
		switch {
		case tok == "":
			return nil, fmt.Errorf("%w: unterminated group", ErrMalformedQuery)
		case tok == "}":
			p.pos++
			return patterns, nil
		case unsupportedKeywords[strings.ToUpper(tok)]:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedQuery, strings.ToUpper(tok))
		}

		subj, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		for {
			pred, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			for {
				obj, err := p.parseTerm()
				if err != nil {
					return nil, err
				}
				patterns = append(patterns, triplePattern{subj: subj, pred: pred, obj: obj})
				if p.peek() == "," {
					p.pos++
					continue
				}
				break
			}
			if p.peek() == ";" {
				p.pos++
				// Tolerate a trailing ';' before '.' or '}'.
				if p.peek() == "." || p.peek() == "}" {
					break
				}
				continue
			}
			break
		}
		if p.peek() == "." {
			p.pos++
		}
	}
}

func (p *parser) parseTerm() (patternTerm, error) {
	tok := p.next()
	if tok == "" {
		return patternTerm{}, fmt.Errorf("%w: unexpected end of query", ErrMalformedQuery)
	}
	if kw := strings.ToUpper(tok); unsupportedKeywords[kw] {
		return patternTerm{}, fmt.Errorf("%w: %s", ErrUnsupportedQuery, kw)
	}

	switch {
	case strings.HasPrefix(tok, "?") || strings.HasPrefix(tok, "$"):
		return patternTerm{isVar: true, value: tok[1:]}, nil

	case strings.HasPrefix(tok, "_:"):
		// A blank node in a query behaves as a scoped variable.
		return patternTerm{isVar: true, value: tok}, nil

	case tok == "a":
		return patternTerm{value: curation.RDFType, kind: kindIRI}, nil

	case strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">"):
		return patternTerm{value: tok[1 : len(tok)-1], kind: kindIRI}, nil

	case strings.HasPrefix(tok, `"`):
		return patternTerm{value: literalValue(tok), kind: kindLiteral}, nil

	case isNumeric(tok):
		return patternTerm{value: tok, kind: kindLiteral}, nil

	case strings.Contains(tok, ":"):
		parts := strings.SplitN(tok, ":", 2)
		base, ok := p.prefixes[parts[0]]
		if !ok {
			return patternTerm{}, fmt.Errorf("%w: undeclared prefix %q", ErrMalformedQuery, parts[0])
		}
		return patternTerm{value: base + parts[1], kind: kindIRI}, nil
	}

	return patternTerm{}, fmt.Errorf("%w: unexpected token %q", ErrMalformedQuery, tok)
}

// literalValue strips the quotes and any @lang or ^^datatype suffix from a
// literal token.
func literalValue(tok string) string {
	body := tok[1:]
	if i := strings.LastIndex(body, `"`); i >= 0 {
		body = body[:i]
	}
	body = strings.ReplaceAll(body, `\"`, `"`)
	body = strings.ReplaceAll(body, `\\`, `\`)
	return body
}

func isNumeric(tok string) bool {
	for i, r := range tok {
		if r == '-' && i == 0 {
			continue
		}
		if r != '.' && !unicode.IsDigit(r) {
			return false
		}
	}
	return tok != "" && tok != "-"
}

func (p *parser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *parser) peekKeyword(kw string) bool {
	return strings.EqualFold(p.peek(), kw)
}

func (p *parser) next() string {
	tok := p.peek()
	p.pos++
	return tok
}

// tokenize splits a query into tokens: punctuation, variables, IRIs, quoted
// literals (with their lang/datatype suffix attached), and bare words.
func tokenize(query string) ([]string, error) {
	var tokens []string
	i := 0
	n := len(query)
	for i < n {
		c := query[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '#':
			for i < n && query[i] != '\n' {
				i++
			}

		case c == '{' || c == '}' || c == '.' || c == ';' || c == ',' || c == '*':
			tokens = append(tokens, string(c))
			i++

		case c == '<':
			end := strings.IndexByte(query[i:], '>')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated IRI", ErrMalformedQuery)
			}
			tokens = append(tokens, query[i:i+end+1])
			i += end + 1

		case c == '"':
			j := i + 1
			for j < n {
				if query[j] == '\\' {
					j += 2
					continue
				}
				if query[j] == '"' {
					break
				}
				j++
			}
			if j >= n {
				return nil, fmt.Errorf("%w: unterminated literal", ErrMalformedQuery)
			}
			j++ // past closing quote
			// Attach @lang or ^^datatype suffix to the literal token.
			for j < n && query[j] != ' ' && query[j] != '\t' && query[j] != '\n' &&
				query[j] != '\r' && query[j] != '.' && query[j] != ';' &&
				query[j] != ',' && query[j] != '}' {
				j++
			}
			tokens = append(tokens, query[i:j])
			i = j

		default:
			j := i
			for j < n && !strings.ContainsRune(" \t\n\r{};,", rune(query[j])) {
				// A '.' ends a token only when it is pattern punctuation, not
				// part of a prefixed name or number; treat a '.' followed by
				// whitespace or end as punctuation.
				if query[j] == '.' && (j+1 >= n || isSpaceOrBrace(query[j+1])) {
					break
				}
				j++
			}
			tokens = append(tokens, query[i:j])
			i = j
		}
	}
	return tokens, nil
}

func isSpaceOrBrace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '}' || c == '{'
}
