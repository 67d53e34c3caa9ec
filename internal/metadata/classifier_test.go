package metadata

import (
	"fmt"
	"testing"

	"github.com/forgeevents/eventcatalog/internal/ast"
)

func eventHierarchy() *ast.Program {
	return &ast.Program{
		Classes: []*ast.ClassNode{
			{Name: "Event", QualifiedName: "net.minecraftforge.eventbus.api.Event"},
			{Name: "BlockEvent", QualifiedName: "net.minecraftforge.event.world.BlockEvent", Superclass: "net.minecraftforge.eventbus.api.Event"},
			{Name: "BlockEvent.BreakEvent", QualifiedName: "net.minecraftforge.event.world.BlockEvent.BreakEvent", Superclass: "net.minecraftforge.event.world.BlockEvent"},
			{Name: "MyEvent", QualifiedName: "com.example.MyEvent", Superclass: "net.minecraftforge.eventbus.api.Event"},
			{Name: "FMLPreInitializationEvent", QualifiedName: "net.minecraftforge.fml.common.event.FMLPreInitializationEvent", Superclass: "net.minecraftforge.fml.common.event.FMLStateEvent"},
			{Name: "FMLStateEvent", QualifiedName: "net.minecraftforge.fml.common.event.FMLStateEvent", Superclass: "net.minecraftforge.fml.common.event.FMLEvent"},
			{Name: "Widget", QualifiedName: "com.example.Widget"},
			{Name: "Gadget", QualifiedName: "com.example.Gadget", Superclass: "com.example.Widget"},
			{Name: "Listener", QualifiedName: "com.example.Listener", Superclass: "java.util.EventListener"},
		},
	}
}

func TestClassifier_IsEvent(t *testing.T) {
	prog := eventHierarchy()
	idx := ast.NewIndex(prog)
	classifier := NewClassifier(idx)

	tests := []struct {
		qualifiedName string
		want          bool
	}{
		{"net.minecraftforge.eventbus.api.Event", true},
		{"net.minecraftforge.event.world.BlockEvent", true},
		{"net.minecraftforge.event.world.BlockEvent.BreakEvent", true},
		{"com.example.MyEvent", true},
		// FMLEvent is never declared; its simple name still ends the walk
		{"net.minecraftforge.fml.common.event.FMLPreInitializationEvent", true},
		{"com.example.Widget", false},
		{"com.example.Gadget", false},
		{"com.example.Listener", false},
	}

	for _, tt := range tests {
		t.Run(tt.qualifiedName, func(t *testing.T) {
			decl, ok := idx.Get(tt.qualifiedName)
			if !ok {
				t.Fatalf("class %s not indexed", tt.qualifiedName)
			}
			if got := classifier.IsEvent(decl); got != tt.want {
				t.Errorf("IsEvent(%s) = %v, want %v", tt.qualifiedName, got, tt.want)
			}
		})
	}
}

func TestClassifier_DirectSubclassOfEvent(t *testing.T) {
	// Only MyEvent is declared; Event is external to the source.
	prog := &ast.Program{Classes: []*ast.ClassNode{
		{Name: "MyEvent", QualifiedName: "com.example.MyEvent", Superclass: "net.minecraftforge.eventbus.api.Event"},
	}}
	idx := ast.NewIndex(prog)

	if !NewClassifier(idx).IsEvent(prog.Classes[0]) {
		t.Error("expected MyEvent to be an event")
	}
}

func TestClassifier_CustomMarkers(t *testing.T) {
	prog := eventHierarchy()
	idx := ast.NewIndex(prog)
	classifier := NewClassifier(idx, "Widget")

	gadget, _ := idx.Get("com.example.Gadget")
	if !classifier.IsEvent(gadget) {
		t.Error("expected Gadget to match the Widget marker")
	}

	block, _ := idx.Get("net.minecraftforge.event.world.BlockEvent")
	if classifier.IsEvent(block) {
		t.Error("expected BlockEvent to be rejected with custom markers")
	}
}

func TestClassifier_CyclicChain(t *testing.T) {
	prog := &ast.Program{Classes: []*ast.ClassNode{
		{Name: "A", QualifiedName: "com.example.A", Superclass: "com.example.B"},
		{Name: "B", QualifiedName: "com.example.B", Superclass: "com.example.A"},
	}}
	classifier := NewClassifier(ast.NewIndex(prog))

	if classifier.IsEvent(prog.Classes[0]) {
		t.Error("expected cyclic chain to classify as non-event")
	}
}

func TestClassifier_DeepChain(t *testing.T) {
	var classes []*ast.ClassNode
	classes = append(classes, &ast.ClassNode{Name: "Event", QualifiedName: "api.Event"})
	parent := "api.Event"
	for i := 0; i < MaxAncestryDepth+10; i++ {
		qn := fmt.Sprintf("deep.C%d", i)
		classes = append(classes, &ast.ClassNode{Name: fmt.Sprintf("C%d", i), QualifiedName: qn, Superclass: parent})
		parent = qn
	}
	prog := &ast.Program{Classes: classes}
	classifier := NewClassifier(ast.NewIndex(prog))

	if !classifier.IsEvent(classes[100]) {
		t.Error("expected shallow descendant to be an event")
	}
	if classifier.IsEvent(classes[len(classes)-1]) {
		t.Error("expected chain beyond the depth bound to classify as non-event")
	}
}

func TestClassifier_Nil(t *testing.T) {
	if NewClassifier(ast.NewIndex(nil)).IsEvent(nil) {
		t.Error("expected nil declaration to be a non-event")
	}
}
