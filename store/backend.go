package store

import "context"

// Backend is the query interface the evaluation pipeline consumes. A backend
// holds one loaded document; all methods are read-only and safe for
// concurrent use.
type Backend interface {
	// Select runs an enumerative query and returns its variable-binding rows.
	Select(ctx context.Context, query string) ([]Row, error)

	// Ask runs an existential-check query and returns its boolean outcome.
	Ask(ctx context.Context, query string) (bool, error)

	// DocumentSubject returns the identifier of the subject typed as the
	// given root class, or the empty string when the document has none.
	DocumentSubject(classIRI string) string
}

// Row is one variable-binding row produced by an enumerative query. Variable
// order is the query's projection order.
type Row struct {
	vars   []string
	values map[string]string
}

// NewRow builds a row from ordered variable names and their bound values.
// Variables without a bound value are permitted and simply absent.
func NewRow(vars []string, values map[string]string) Row {
	return Row{vars: vars, values: values}
}

// Vars returns the row's variable names in projection order.
func (r Row) Vars() []string {
	return r.vars
}

// Value returns the value bound to the named variable.
func (r Row) Value(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok && v != ""
}

// First returns the value of the first variable that is actually bound.
func (r Row) First() (string, bool) {
	for _, name := range r.vars {
		if v, ok := r.Value(name); ok {
			return v, true
		}
	}
	return "", false
}

// Values returns a copy of all bound values keyed by variable name.
func (r Row) Values() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
