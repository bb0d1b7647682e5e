package ast

import (
	"fmt"

	"github.com/emicklei/dot"
)

// ToGraphviz renders the expression tree of a statement into graph and
// returns the root node. The output is meant for debugging rules.
func ToGraphviz(graph *dot.Graph, statement *Statement) dot.Node {
	w := &graphvizWalker{graph: graph}
	root := w.node("Statement")
	w.edge(root, w.walk(statement.Expression), "")
	return root
}

type graphvizWalker struct {
	graph *dot.Graph
	seq   int
}

func (w *graphvizWalker) node(label string) dot.Node {
	w.seq++
	n := w.graph.Node(fmt.Sprintf("n%d", w.seq))
	n.Attr("label", label)
	return n
}

func (w *graphvizWalker) edge(from, to dot.Node, label string) {
	e := w.graph.Edge(from, to)
	if label != "" {
		e.Attr("label", label)
	}
}

func (w *graphvizWalker) walk(expr Expression) dot.Node {
	switch e := expr.(type) {
	case *Literal:
		return w.node(fmt.Sprintf("Literal\n%s", e.Value.String()))
	case *Array:
		n := w.node("Array")
		for i, member := range e.Members {
			w.edge(n, w.walk(member), fmt.Sprintf("member #%d", i+1))
		}
		return n
	case *Set:
		n := w.node("Set")
		for i, member := range e.Members {
			w.edge(n, w.walk(member), fmt.Sprintf("member #%d", i+1))
		}
		return n
	case *Mapping:
		n := w.node("Mapping")
		for i, entry := range e.Entries {
			w.edge(n, w.walk(entry.Key), fmt.Sprintf("key #%d", i+1))
			w.edge(n, w.walk(entry.Value), fmt.Sprintf("value #%d", i+1))
		}
		return n
	case *Add:
		return w.binary("Add", e.Left, e.Right)
	case *Subtract:
		return w.binary("Subtract", e.Left, e.Right)
	case *Arithmetic:
		return w.binary(fmt.Sprintf("Arithmetic\nop=%s", e.Op), e.Left, e.Right)
	case *Bitwise:
		return w.binary(fmt.Sprintf("Bitwise\nop=%s", e.Op), e.Left, e.Right)
	case *Logic:
		return w.binary(fmt.Sprintf("Logic\nop=%s", e.Op), e.Left, e.Right)
	case *Equality:
		label := "Equality"
		if e.Negated {
			label = "Equality\nnegated"
		}
		return w.binary(label, e.Left, e.Right)
	case *Comparison:
		return w.binary(fmt.Sprintf("Comparison\nop=%s", e.Op), e.Left, e.Right)
	case *Fuzzy:
		label := "Fuzzy\nmatch"
		if e.Search {
			label = "Fuzzy\nsearch"
		}
		if e.Negated {
			label += " negated"
		}
		return w.binary(label, e.Left, e.Right)
	case *Unary:
		n := w.node(fmt.Sprintf("Unary\nop=%s", e.Op))
		w.edge(n, w.walk(e.Right), "")
		return n
	case *Ternary:
		n := w.node("Ternary")
		w.edge(n, w.walk(e.Condition), "condition")
		w.edge(n, w.walk(e.CaseTrue), "true")
		w.edge(n, w.walk(e.CaseFalse), "false")
		return n
	case *Contains:
		n := w.node("Contains")
		w.edge(n, w.walk(e.Container), "container")
		w.edge(n, w.walk(e.Member), "member")
		return n
	case *GetAttribute:
		n := w.node(fmt.Sprintf("GetAttribute\nname=%s", e.Name))
		w.edge(n, w.walk(e.Object), "")
		return n
	case *GetItem:
		n := w.node("GetItem")
		w.edge(n, w.walk(e.Container), "container")
		w.edge(n, w.walk(e.Item), "item")
		return n
	case *GetSlice:
		n := w.node("GetSlice")
		w.edge(n, w.walk(e.Container), "container")
		if e.Start != nil {
			w.edge(n, w.walk(e.Start), "start")
		}
		if e.Stop != nil {
			w.edge(n, w.walk(e.Stop), "stop")
		}
		return n
	case *Symbol:
		if e.Scope != "" {
			return w.node(fmt.Sprintf("Symbol\nname=%s scope=%s", e.Name, e.Scope))
		}
		return w.node(fmt.Sprintf("Symbol\nname=%s", e.Name))
	case *Call:
		n := w.node("Call")
		w.edge(n, w.walk(e.Function), "function")
		for i, argument := range e.Arguments {
			w.edge(n, w.walk(argument), fmt.Sprintf("argument #%d", i+1))
		}
		return n
	case *Comprehension:
		n := w.node(fmt.Sprintf("Comprehension\nvariable=%s", e.Variable))
		w.edge(n, w.walk(e.Iterable), "iterable")
		w.edge(n, w.walk(e.Result), "result")
		if e.Condition != nil {
			w.edge(n, w.walk(e.Condition), "condition")
		}
		return n
	}
	return w.node("Unknown")
}

// binary renders a node with left and right children.
func (w *graphvizWalker) binary(label string, left, right Expression) dot.Node {
	n := w.node(label)
	w.edge(n, w.walk(left), "left")
	w.edge(n, w.walk(right), "right")
	return n
}
