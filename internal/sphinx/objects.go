package sphinx

import (
	"sort"
	"strings"
)

// Object is a resolved API inventory entry: a fully qualified name located
// on a documentation page, with its type descriptor and page anchor.
type Object struct {
	// Name is the fully qualified object name, e.g. "ooipy.request.hydrophone".
	Name string

	// Domain and Type come from the objnames descriptor, e.g. "py"/"method".
	Domain string
	Type   string

	// DisplayType is the human-readable type, e.g. "Python method".
	DisplayType string

	// Docname identifies the page documenting the object.
	Docname string

	// Anchor is the in-page anchor; it equals Name when the builder wrote "-".
	Anchor string

	// Priority orders objects when several share a name (lower is better).
	Priority int
}

// LookupObject resolves a dotted object name against the inventory.
// An exact fully-qualified match is preferred; otherwise any object whose
// name ends with the given dotted suffix matches. Matching is
// case-insensitive. Results are ordered by priority, then name.
func (ix *Index) LookupObject(name string) []Object {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	needle := strings.ToLower(name)
	var exact, suffix []Object

	for module, objects := range ix.Objects {
		for short, entry := range objects {
			fullName := qualifiedName(module, short)
			lower := strings.ToLower(fullName)

			switch {
			case lower == needle:
				exact = append(exact, ix.resolveObject(fullName, entry))
			case strings.HasSuffix(lower, "."+needle) || strings.ToLower(short) == needle:
				suffix = append(suffix, ix.resolveObject(fullName, entry))
			}
		}
	}

	if len(exact) > 0 {
		sortObjects(exact)
		return exact
	}
	sortObjects(suffix)
	return suffix
}

// AllObjects returns the complete inventory, ordered by name.
func (ix *Index) AllObjects() []Object {
	var all []Object
	for module, objects := range ix.Objects {
		for short, entry := range objects {
			all = append(all, ix.resolveObject(qualifiedName(module, short), entry))
		}
	}
	sortObjects(all)
	return all
}

func (ix *Index) resolveObject(fullName string, entry ObjectEntry) Object {
	obj := Object{
		Name:     fullName,
		Anchor:   entry.Anchor,
		Priority: entry.Priority,
	}

	if entry.Anchor == "-" {
		obj.Anchor = fullName
	}
	if entry.DocIndex >= 0 && entry.DocIndex < len(ix.Docnames) {
		obj.Docname = ix.Docnames[entry.DocIndex]
	}
	if name, ok := ix.ObjectTypeName(entry.TypeID); ok {
		obj.Domain = name.Domain
		obj.Type = name.Type
		obj.DisplayType = name.Display
	}
	return obj
}

func sortObjects(objects []Object) {
	sort.Slice(objects, func(a, b int) bool {
		if objects[a].Priority != objects[b].Priority {
			return objects[a].Priority < objects[b].Priority
		}
		return objects[a].Name < objects[b].Name
	})
}

// qualifiedName joins a module prefix and short name; top-level objects live
// under the empty module key.
func qualifiedName(module, short string) string {
	if module == "" {
		return short
	}
	return module + "." + short
}

// lastSegment returns the final dotted segment of a qualified name.
func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
