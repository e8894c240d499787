package engine

import (
	"fmt"

	"github.com/domainkit/fdsolver/internal/bitset"
)

// Literal is a pair (variable, ValueSet) meaning "variable's current domain
// intersects this set" (spec §3). ClauseConstraint literals, explanations,
// and learned clauses are all built from Literal.
type Literal struct {
	Var    VarID
	Values bitset.ValueSet
}

// NewLiteral returns the literal asserting that Var's domain intersects
// values.
func NewLiteral(v VarID, values bitset.ValueSet) Literal {
	return Literal{Var: v, Values: values}
}

// Opposite returns the inversion of l: the same variable with the
// complemented value set, within the variable's declared domain.
func (l Literal) Opposite() Literal {
	return Literal{Var: l.Var, Values: l.Values.Complement()}
}

func (l Literal) String() string {
	return fmt.Sprintf("Lit(v%d in %v)", l.Var, l.Values.Values())
}
