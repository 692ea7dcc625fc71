package ns

import (
	"fmt"
	"strings"
	"unicode"
)

// graphvizID turns a value into a dot identifier with the given prefix.
// Every rune outside [A-Za-z0-9_] becomes an underscore.
func graphvizID(prefix string, v any) string {
	s := fmt.Sprint(v)
	id := strings.Builder{}
	id.WriteString(prefix)
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			id.WriteRune(r)
		} else {
			id.WriteByte('_')
		}
	}
	return id.String()
}

func graphvizLabel(format string, args ...any) string {
	return `"` + strings.ReplaceAll(fmt.Sprintf(format, args...), `"`, `\"`) + `"`
}

func graphvizIDs[T any](prefix string, vals []T) string {
	ids := make([]string, len(vals))
	for i, v := range vals {
		ids[i] = graphvizID(prefix, v)
	}
	return strings.Join(ids, " ")
}

// ToGraphviz renders the Network System and its serialized automaton in the dot language.
//
// Local states are L_ nodes, requests REQ_ nodes and responses RESP_ nodes.
// The serialized automaton is drawn over G_ nodes inside the cluster_serialized subgraph.
func (n *NS[G, L, Req, Resp]) ToGraphviz() string {
	dot := strings.Builder{}
	dot.WriteString("digraph NetworkSystem {\n")
	dot.WriteString("  rankdir=LR;\n")
	dot.WriteString("  node [fontsize=10];\n")
	dot.WriteString("  edge [fontsize=10];\n\n")

	locals := n.LocalStates()
	requests := n.RequestKinds()
	responses := n.ResponseKinds()
	if len(locals) > 0 {
		fmt.Fprintf(&dot, "  node [style=\"filled,rounded\", fillcolor=lightblue] %s;\n", graphvizIDs("L_", locals))
	}
	if len(requests) > 0 {
		fmt.Fprintf(&dot, "  node [shape=diamond, style=filled, fillcolor=lightgreen] %s;\n", graphvizIDs("REQ_", requests))
	}
	if len(responses) > 0 {
		fmt.Fprintf(&dot, "  node [shape=diamond, style=filled, fillcolor=salmon] %s;\n", graphvizIDs("RESP_", responses))
	}
	dot.WriteString("\n")

	for _, l := range locals {
		fmt.Fprintf(&dot, "  %s [label=%s];\n", graphvizID("L_", l), graphvizLabel("%v", l))
	}
	for _, req := range requests {
		fmt.Fprintf(&dot, "  %s [label=%s];\n", graphvizID("REQ_", req), graphvizLabel("%v", req))
	}
	for _, resp := range responses {
		fmt.Fprintf(&dot, "  %s [label=%s];\n", graphvizID("RESP_", resp), graphvizLabel("%v", resp))
	}
	for _, r := range n.Requests {
		fmt.Fprintf(&dot, "  %s -> %s [style=dashed];\n", graphvizID("REQ_", r.Request), graphvizID("L_", r.Local))
	}
	for _, r := range n.Responses {
		fmt.Fprintf(&dot, "  %s -> %s [style=dashed];\n", graphvizID("L_", r.Local), graphvizID("RESP_", r.Response))
	}
	for _, t := range n.Transitions {
		fmt.Fprintf(&dot, "  %s -> %s [label=%s, color=blue, penwidth=1.5];\n",
			graphvizID("L_", t.FromLocal), graphvizID("L_", t.ToLocal), graphvizLabel("%v → %v", t.FromGlobal, t.ToGlobal))
	}

	dot.WriteString("\n  subgraph cluster_serialized {\n")
	dot.WriteString("    label=\"Serialized Automaton\";\n")
	dot.WriteString("    style=dashed;\n")
	globals := n.GlobalStates()
	fmt.Fprintf(&dot, "    node [style=\"filled, rounded\", fillcolor=lightblue] %s;\n", graphvizIDs("G_", globals))
	for _, g := range globals {
		if g == n.InitialGlobal {
			fmt.Fprintf(&dot, "    %s [label=%s, penwidth=3, color=darkgreen];\n", graphvizID("G_", g), graphvizLabel("%v (initial)", g))
		} else {
			fmt.Fprintf(&dot, "    %s [label=%s];\n", graphvizID("G_", g), graphvizLabel("%v", g))
		}
	}
	for _, s := range n.SerializedAutomaton() {
		fmt.Fprintf(&dot, "    %s -> %s [label=%s];\n",
			graphvizID("G_", s.From), graphvizID("G_", s.To), graphvizLabel("%v / %v", s.Request, s.Response))
	}
	dot.WriteString("  }\n")
	dot.WriteString("}\n")
	return dot.String()
}
