package ast

// Lookup resolves the single-parent supertype chain of declarations.
type Lookup interface {
	// Parent returns the qualified name of the superclass of the named type.
	// The boolean is false when the type is unknown to the source or has no
	// declared superclass.
	Parent(qualifiedName string) (string, bool)

	// SimpleName returns the simple type name for a qualified name, whether
	// or not the type was declared in the source.
	SimpleName(qualifiedName string) string
}

// Index is a Lookup over the classes of a Program.
type Index struct {
	classes map[string]*ClassNode
}

// NewIndex indexes classes by qualified name. A later class with the same
// qualified name replaces an earlier one.
func NewIndex(prog *Program) *Index {
	idx := &Index{classes: make(map[string]*ClassNode)}
	if prog == nil {
		return idx
	}
	for _, class := range prog.Classes {
		if class == nil || class.QualifiedName == "" {
			continue
		}
		idx.classes[class.QualifiedName] = class
	}
	return idx
}

// Get returns the class declared under qualifiedName.
func (i *Index) Get(qualifiedName string) (*ClassNode, bool) {
	class, ok := i.classes[qualifiedName]
	return class, ok
}

// Len returns the number of indexed classes.
func (i *Index) Len() int {
	return len(i.classes)
}

// Parent implements Lookup.
func (i *Index) Parent(qualifiedName string) (string, bool) {
	class, ok := i.classes[qualifiedName]
	if !ok || class.Superclass == "" {
		return "", false
	}
	return class.Superclass, true
}

// SimpleName implements Lookup. Declared classes use their written name so
// nested types resolve correctly; external types fall back to the last
// segment of the qualified name.
func (i *Index) SimpleName(qualifiedName string) string {
	if class, ok := i.classes[qualifiedName]; ok {
		return class.SimpleName()
	}
	return SimpleName(qualifiedName)
}
