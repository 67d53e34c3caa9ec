// Package ast defines the declaration tree handed to the cataloger by a
// source reader: classes with their fields, annotations, supertype and raw
// documentation comment.
package ast

import "strings"

// RootType is the qualified name of the universal root type. A class with
// no declared superclass implicitly extends it.
const RootType = "java.lang.Object"

// SourceLocation tracks where a declaration came from, when the reader
// knows it.
type SourceLocation struct {
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// Node is the base interface for all declaration nodes
type Node interface {
	Location() SourceLocation
	node()
}

// Program is the ordered set of classes read for one release.
type Program struct {
	Classes []*ClassNode `json:"classes" yaml:"classes"`
}

func (p *Program) node() {}

// Location returns the location of the first class, if any.
func (p *Program) Location() SourceLocation {
	if len(p.Classes) > 0 {
		return p.Classes[0].Loc
	}
	return SourceLocation{}
}

// ClassNode represents a class declaration.
type ClassNode struct {
	// Name is the type name as written, including enclosing types
	// (e.g. "BlockEvent.BreakEvent").
	Name          string            `json:"name" yaml:"name"`
	QualifiedName string            `json:"qualifiedName" yaml:"qualifiedName"`
	Superclass    string            `json:"superclass,omitempty" yaml:"superclass,omitempty"` // qualified name; empty means RootType
	Fields        []*FieldNode      `json:"fields,omitempty" yaml:"fields,omitempty"`
	Annotations   []*AnnotationNode `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Comment       string            `json:"comment,omitempty" yaml:"comment,omitempty"`
	Loc           SourceLocation    `json:"location,omitempty" yaml:"location,omitempty"`
}

func (c *ClassNode) node() {}

// Location returns the source location of the class.
func (c *ClassNode) Location() SourceLocation {
	return c.Loc
}

// SimpleName returns the innermost type name ("BreakEvent" for
// "BlockEvent.BreakEvent").
func (c *ClassNode) SimpleName() string {
	if c.Name != "" {
		return SimpleName(c.Name)
	}
	return SimpleName(c.QualifiedName)
}

// SuperclassName returns the qualified superclass name, falling back to
// RootType.
func (c *ClassNode) SuperclassName() string {
	if c.Superclass == "" {
		return RootType
	}
	return c.Superclass
}

// FieldNode represents a field declaration.
type FieldNode struct {
	Name   string         `json:"name" yaml:"name"`
	Type   string         `json:"type" yaml:"type"` // simple type name
	Public bool           `json:"public" yaml:"public"`
	Final  bool           `json:"final" yaml:"final"`
	Loc    SourceLocation `json:"location,omitempty" yaml:"location,omitempty"`
}

func (f *FieldNode) node() {}

// Location returns the source location of the field.
func (f *FieldNode) Location() SourceLocation {
	return f.Loc
}

// AnnotationNode represents an annotation applied to a class.
type AnnotationNode struct {
	// Type is the annotation type name as written ("Cancelable",
	// "Event.HasResult").
	Type string         `json:"type" yaml:"type"`
	Loc  SourceLocation `json:"location,omitempty" yaml:"location,omitempty"`
}

func (a *AnnotationNode) node() {}

// Location returns the source location of the annotation.
func (a *AnnotationNode) Location() SourceLocation {
	return a.Loc
}

// SimpleName returns the last dot-separated segment of a type name.
func SimpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
