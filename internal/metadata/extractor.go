package metadata

import (
	"strings"

	"github.com/forgeevents/eventcatalog/internal/ast"
	"github.com/forgeevents/eventcatalog/internal/catalog"
)

// Annotations names the marker annotations the extractor reacts to.
type Annotations struct {
	HasResult  string
	Cancelable string
	Deprecated string
}

// DefaultAnnotations matches the event bus annotations.
var DefaultAnnotations = Annotations{
	HasResult:  "Event.HasResult",
	Cancelable: "Cancelable",
	Deprecated: "Deprecated",
}

// Extractor turns event declarations into catalog records. It does not
// touch the store; Since is left for the lineage resolver.
type Extractor struct {
	routing     BusRouting
	annotations Annotations
}

// NewExtractor creates an extractor routing events with routing.
func NewExtractor(routing BusRouting, annotations Annotations) *Extractor {
	if annotations.HasResult == "" {
		annotations.HasResult = DefaultAnnotations.HasResult
	}
	if annotations.Cancelable == "" {
		annotations.Cancelable = DefaultAnnotations.Cancelable
	}
	if annotations.Deprecated == "" {
		annotations.Deprecated = DefaultAnnotations.Deprecated
	}
	return &Extractor{routing: routing, annotations: annotations}
}

// Extract builds the record of an event declaration.
func (e *Extractor) Extract(decl *ast.ClassNode) (catalog.EventRecord, error) {
	if decl == nil {
		return catalog.EventRecord{}, &ExtractionWarning{Reason: "nil declaration"}
	}
	if decl.Name == "" || decl.QualifiedName == "" {
		return catalog.EventRecord{}, warn(decl, "missing name")
	}

	rec := catalog.EventRecord{
		Name:           decl.Name,
		QualifiedName:  decl.QualifiedName,
		SuperclassName: decl.SuperclassName(),
		Fields:         catalog.FieldList{},
		Description:    decl.Comment,
		EventBus:       e.routing.Match(decl.QualifiedName),
		Side:           sideOf(decl.QualifiedName),
	}

	for _, field := range decl.Fields {
		if field == nil || field.Name == "" || field.Type == "" {
			return catalog.EventRecord{}, warn(decl, "field without name or type")
		}
		if field.Public && field.Final {
			rec.Fields = append(rec.Fields, catalog.FieldPair{Name: field.Name, Type: field.Type})
		}
	}

	for _, annotation := range decl.Annotations {
		if annotation == nil || annotation.Type == "" {
			return catalog.EventRecord{}, warn(decl, "annotation without type")
		}
		switch annotation.Type {
		case e.annotations.HasResult:
			rec.ResultFlags |= catalog.FlagHasResult
		case e.annotations.Cancelable:
			rec.ResultFlags |= catalog.FlagCancelable
		}
		// Only the last annotation decides.
		rec.Deprecated = annotation.Type == e.annotations.Deprecated
	}

	return rec, nil
}

// sideOf returns SideClient for classes in a "client" package.
func sideOf(qualifiedName string) catalog.Side {
	for _, segment := range strings.Split(qualifiedName, ".") {
		if segment == "client" {
			return catalog.SideClient
		}
	}
	return catalog.SideCommon
}
