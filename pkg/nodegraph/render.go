package nodegraph

import (
	"fmt"
	"strings"
)

// Render produces a Mermaid flowchart of g. Known nodes are grouped into
// input, logic and output subgraphs; unknown types are drawn outside any
// group. Edge labels read "sourceHandle → targetHandle".
func Render(g *Graph) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	for _, c := range []Category{CategoryInput, CategoryLogic, CategoryOutput} {
		var members []*Node
		for i := range g.Nodes {
			if g.Nodes[i].Type.Category() == c {
				members = append(members, &g.Nodes[i])
			}
		}
		if len(members) == 0 {
			continue
		}
		fmt.Fprintf(&b, "    subgraph %s [%s]\n", c, strings.ToUpper(c.String()[:1])+c.String()[1:])
		for _, n := range members {
			fmt.Fprintf(&b, "        %s\n", nodeShape(n))
		}
		b.WriteString("    end\n")
	}
	for i := range g.Nodes {
		if !g.Nodes[i].Type.Known() {
			fmt.Fprintf(&b, "    %s\n", nodeShape(&g.Nodes[i]))
		}
	}

	for _, e := range g.Edges {
		from, to := mermaidID(e.Source), mermaidID(e.Target)
		if e.SourceHandle == "" && e.TargetHandle == "" {
			fmt.Fprintf(&b, "    %s --> %s\n", from, to)
			continue
		}
		fmt.Fprintf(&b, "    %s -->|\"%s → %s\"| %s\n", from, handleLabel(e.SourceHandle), handleLabel(e.TargetHandle), to)
	}
	return b.String()
}

func nodeShape(n *Node) string {
	label := n.Data.Label
	if label == "" {
		label = n.ID
	}
	return fmt.Sprintf("%s[\"%s<br/><small>%s</small>\"]", mermaidID(n.ID), escapeLabel(label), n.Type)
}

func handleLabel(h string) string {
	if h == "" {
		return "?"
	}
	return escapeLabel(h)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

// mermaidID keeps letters, digits and underscores; everything else
// becomes an underscore.
func mermaidID(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
