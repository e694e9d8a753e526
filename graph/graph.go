// Package graph expands requested targets into a deduplicated, ordered
// execution sequence.
package graph

import "github.com/yaklabco/mdmake/target"

// UnknownTargetError reports a requested or referenced name with no exact
// target and no matching wildcard rule.
type UnknownTargetError struct {
	Name string
}

func (e *UnknownTargetError) Error() string {
	return "invalid target: `" + e.Name + "`"
}

// CycleError reports a dependency cycle through the named target.
type CycleError struct {
	Name string
}

func (e *CycleError) Error() string {
	return "dependency cycle through `" + e.Name + "`"
}

// Build expands the requested roots into one execution order over cfg.
// Dependencies are visited in declared order and every target is appended
// after its dependencies, so the linearization keeps each dependency ahead
// of its dependent and preserves the declared left-to-right sibling order.
// A target appears at most once across the whole batch, tracked by name.
//
// A fresh file target's subtree is not expanded at all: when the file exists,
// force is unset, and the target is not outdated, its dependencies are known
// not to matter. This is pruning, not a shortcut: the staleness check
// already recursed through the subtree.
func Build(cfg *target.Config, roots []string, force bool) ([]*target.Target, error) {
	b := &builder{
		cfg:      cfg,
		force:    force,
		seen:     map[string]bool{},
		visiting: map[string]bool{},
	}
	for _, root := range roots {
		if err := b.add(root); err != nil {
			return nil, err
		}
	}
	return b.order, nil
}

type builder struct {
	cfg      *target.Config
	force    bool
	seen     map[string]bool
	visiting map[string]bool
	order    []*target.Target
}

func (b *builder) add(name string) error {
	t, ok := b.cfg.Resolve(name, b.force)
	if !ok {
		return &UnknownTargetError{Name: name}
	}
	if b.seen[t.Name] {
		return nil
	}
	if b.visiting[t.Name] {
		return &CycleError{Name: t.Name}
	}
	b.visiting[t.Name] = true
	defer delete(b.visiting, t.Name)

	if b.expands(t) {
		for _, dep := range t.Deps {
			if err := b.add(dep); err != nil {
				return err
			}
		}
	}
	b.seen[t.Name] = true
	b.order = append(b.order, t)
	return nil
}

// expands decides whether a target's dependency subtree joins the graph.
// Phony targets always expand; file targets only when forced, absent, or
// outdated.
func (b *builder) expands(t *target.Target) bool {
	if !t.IsFile() {
		return true
	}
	return b.force || !t.Exists() || b.cfg.Outdated(t, *t.DTG)
}
