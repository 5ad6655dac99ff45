package orchestration

import (
	"fmt"
	"strings"
)

// ToMermaid renders the operation's module dependency graph as a Mermaid
// diagram, with nodes styled by phase. Dependencies on modules outside the
// operation are omitted, matching how the resolver treats them.
func ToMermaid(modules []Module) string {
	present := make(map[string]bool, len(modules))
	for _, m := range modules {
		present[m.Metadata().ID] = true
	}

	var lines []string
	lines = append(lines, "graph TD")

	for _, m := range modules {
		meta := m.Metadata()
		label := meta.Name
		if label == "" {
			label = meta.ID
		}
		lines = append(lines, fmt.Sprintf("  %s[\"%s (%s)\"]:::%s",
			meta.ID, label, meta.Phase, meta.Phase))
	}

	for _, m := range modules {
		meta := m.Metadata()
		for _, dep := range meta.Dependencies {
			if !present[dep] {
				continue
			}
			lines = append(lines, fmt.Sprintf("  %s --> %s", dep, meta.ID))
		}
	}

	lines = append(lines, "  classDef validation fill:#FFF7CC,stroke:#333,stroke-width:2px;")
	lines = append(lines, "  classDef preparation fill:#D6EAF8,stroke:#333,stroke-width:2px;")
	lines = append(lines, "  classDef processing fill:#D5F5E3,stroke:#333,stroke-width:2px;")
	lines = append(lines, "  classDef finalization fill:#E8DAEF,stroke:#333,stroke-width:2px;")
	lines = append(lines, "  classDef cleanup fill:#FADBD8,stroke:#333,stroke-width:2px;")

	return strings.Join(lines, "\n")
}
