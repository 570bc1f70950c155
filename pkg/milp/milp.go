package milp

import (
	"fmt"
	"strconv"
	"strings"
)

type Sense int

const (
	Minimize Sense = iota
	Maximize
)

type Relation int

const (
	LessOrEqual Relation = iota
	Equal
	GreaterOrEqual
)

func (relation Relation) String() string {
	switch relation {
	case LessOrEqual:
		return "<="
	case Equal:
		return "="
	case GreaterOrEqual:
		return ">="
	}
	return "?"
}

// Term is a coefficient applied to a binary variable. Variables are identified by their 1-based index
type Term struct {
	Variable    uint64
	Coefficient float64
}

type Constraint struct {
	Name     string // Only used for display purposes (LP export), it's never parsed back
	Terms    []Term
	Relation Relation
	Bound    float64
}

// Program is a binary integer program: every variable in [1, Variables] is a 0/1 variable
type Program struct {
	Variables   uint64
	Constraints []Constraint
	Objective   []Term
	Sense       Sense
}

const termsPerLine = 8

// Name of a variable inside the LP format
func ColumnName(variable uint64) string {
	return "x" + strconv.FormatUint(variable, 10)
}

// Transforms the program into CPLEX-LP format
func (p Program) ToLP() string {
	var builder strings.Builder

	builder.WriteString("\\ flexday assignment program\n")
	if p.Sense == Maximize {
		builder.WriteString("Maximize\n")
	} else {
		builder.WriteString("Minimize\n")
	}
	builder.WriteString(" obj:")
	if len(p.Objective) == 0 {
		builder.WriteString(" 0 " + ColumnName(1))
	}
	writeTerms(&builder, p.Objective)
	builder.WriteString("\n")

	builder.WriteString("Subject To\n")
	for i, constraint := range p.Constraints {
		name := constraint.Name
		if name == "" {
			name = fmt.Sprintf("c%d", i+1)
		}
		fmt.Fprintf(&builder, " %v:", name)
		if len(constraint.Terms) == 0 {
			builder.WriteString(" 0 " + ColumnName(1))
		}
		writeTerms(&builder, constraint.Terms)
		fmt.Fprintf(&builder, " %v %v\n", constraint.Relation, formatNumber(constraint.Bound))
	}

	builder.WriteString("Binaries\n")
	for variable := uint64(1); variable <= p.Variables; variable++ {
		builder.WriteString(" " + ColumnName(variable))
		if variable%termsPerLine == 0 || variable == p.Variables {
			builder.WriteString("\n")
		}
	}
	builder.WriteString("End\n")

	return builder.String()
}

// Evaluates the objective for the given values
func (p Program) ObjectiveValue(values map[uint64]float64) float64 {
	value := 0.0
	for _, term := range p.Objective {
		value += term.Coefficient * values[term.Variable]
	}
	return value
}

// Checks whether the given values satisfy every constraint of the program (with a small tolerance)
func (p Program) Satisfied(values map[uint64]float64) bool {
	const tolerance = 1e-6
	for _, constraint := range p.Constraints {
		sum := 0.0
		for _, term := range constraint.Terms {
			sum += term.Coefficient * values[term.Variable]
		}
		switch constraint.Relation {
		case LessOrEqual:
			if sum > constraint.Bound+tolerance {
				return false
			}
		case GreaterOrEqual:
			if sum < constraint.Bound-tolerance {
				return false
			}
		case Equal:
			if sum > constraint.Bound+tolerance || sum < constraint.Bound-tolerance {
				return false
			}
		}
	}
	return true
}

func writeTerms(builder *strings.Builder, terms []Term) {
	for i, term := range terms {
		// Keep lines short, some LP readers reject very long lines
		if i > 0 && i%termsPerLine == 0 {
			builder.WriteString("\n   ")
		}
		if term.Coefficient < 0 {
			fmt.Fprintf(builder, " - %v %v", formatNumber(-term.Coefficient), ColumnName(term.Variable))
		} else {
			fmt.Fprintf(builder, " + %v %v", formatNumber(term.Coefficient), ColumnName(term.Variable))
		}
	}
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
