package metadata

import (
	"fmt"

	"github.com/forgeevents/eventcatalog/internal/ast"
)

// ExtractionWarning reports a declaration that cannot be turned into a
// record. The declaration is skipped, the run goes on.
type ExtractionWarning struct {
	Class    string
	Location ast.SourceLocation
	Reason   string
}

func (w *ExtractionWarning) Error() string {
	if w.Location.File != "" {
		return fmt.Sprintf("%s:%d: skipping %s: %s", w.Location.File, w.Location.Line, w.Class, w.Reason)
	}
	return fmt.Sprintf("skipping %s: %s", w.Class, w.Reason)
}

func warn(decl *ast.ClassNode, format string, args ...interface{}) *ExtractionWarning {
	name := decl.QualifiedName
	if name == "" {
		name = decl.Name
	}
	return &ExtractionWarning{
		Class:    name,
		Location: decl.Loc,
		Reason:   fmt.Sprintf(format, args...),
	}
}
