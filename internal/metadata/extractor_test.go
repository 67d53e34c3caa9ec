package metadata

import (
	"errors"
	"testing"

	"github.com/forgeevents/eventcatalog/internal/ast"
	"github.com/forgeevents/eventcatalog/internal/catalog"
)

var testRouting = BusRouting{
	{Prefix: "net.minecraftforge.fml", Bus: "FML"},
	{Prefix: "net.minecraftforge", Bus: "FORGE"},
}

func TestExtractor_Extract(t *testing.T) {
	decl := &ast.ClassNode{
		Name:          "BlockEvent.BreakEvent",
		QualifiedName: "net.minecraftforge.event.world.BlockEvent.BreakEvent",
		Superclass:    "net.minecraftforge.event.world.BlockEvent",
		Fields: []*ast.FieldNode{
			{Name: "exp", Type: "int", Public: false, Final: false},
			{Name: "player", Type: "EntityPlayer", Public: true, Final: true},
			{Name: "pos", Type: "BlockPos", Public: true, Final: false},
			{Name: "state", Type: "IBlockState", Public: false, Final: true},
			{Name: "world", Type: "World", Public: true, Final: true},
		},
		Annotations: []*ast.AnnotationNode{{Type: "Cancelable"}},
		Comment:     "Fired when a block is about to be broken.",
	}

	rec, err := NewExtractor(testRouting, DefaultAnnotations).Extract(decl)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if rec.Name != "BlockEvent.BreakEvent" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.SuperclassName != "net.minecraftforge.event.world.BlockEvent" {
		t.Errorf("SuperclassName = %q", rec.SuperclassName)
	}
	want := catalog.FieldList{{Name: "player", Type: "EntityPlayer"}, {Name: "world", Type: "World"}}
	if len(rec.Fields) != len(want) {
		t.Fatalf("Fields = %v, want %v", rec.Fields, want)
	}
	for i := range want {
		if rec.Fields[i] != want[i] {
			t.Errorf("Fields[%d] = %v, want %v", i, rec.Fields[i], want[i])
		}
	}
	if rec.Description != "Fired when a block is about to be broken." {
		t.Errorf("Description = %q", rec.Description)
	}
	if rec.EventBus != "FORGE" {
		t.Errorf("EventBus = %q, want FORGE", rec.EventBus)
	}
	if rec.ResultFlags != catalog.FlagCancelable {
		t.Errorf("ResultFlags = %d, want %d", rec.ResultFlags, catalog.FlagCancelable)
	}
	if rec.Side != catalog.SideCommon {
		t.Errorf("Side = %v, want COMMON", rec.Side)
	}
	if rec.Since != "" {
		t.Errorf("Since = %q, want empty", rec.Since)
	}
}

func TestExtractor_Defaults(t *testing.T) {
	decl := &ast.ClassNode{Name: "Event", QualifiedName: "net.minecraftforge.eventbus.api.Event"}

	rec, err := NewExtractor(nil, Annotations{}).Extract(decl)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if rec.SuperclassName != ast.RootType {
		t.Errorf("SuperclassName = %q, want %q", rec.SuperclassName, ast.RootType)
	}
	if rec.Fields == nil || len(rec.Fields) != 0 {
		t.Errorf("Fields = %#v, want empty list", rec.Fields)
	}
	if rec.EventBus != "" {
		t.Errorf("EventBus = %q, want empty", rec.EventBus)
	}
	if rec.ResultFlags != 0 {
		t.Errorf("ResultFlags = %d, want 0", rec.ResultFlags)
	}
}

func TestExtractor_ResultFlags(t *testing.T) {
	tests := []struct {
		name        string
		annotations []string
		want        catalog.ResultFlags
	}{
		{"none", nil, 0},
		{"has result", []string{"Event.HasResult"}, catalog.FlagHasResult},
		{"cancelable", []string{"Cancelable"}, catalog.FlagCancelable},
		{"both", []string{"Cancelable", "Event.HasResult"}, catalog.FlagHasResult | catalog.FlagCancelable},
		{"unrelated", []string{"SideOnly"}, 0},
	}

	extractor := NewExtractor(testRouting, DefaultAnnotations)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := &ast.ClassNode{Name: "E", QualifiedName: "x.E"}
			for _, a := range tt.annotations {
				decl.Annotations = append(decl.Annotations, &ast.AnnotationNode{Type: a})
			}
			rec, err := extractor.Extract(decl)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if rec.ResultFlags != tt.want {
				t.Errorf("ResultFlags = %d, want %d", rec.ResultFlags, tt.want)
			}
		})
	}
}

func TestExtractor_DeprecatedLastAnnotationWins(t *testing.T) {
	tests := []struct {
		name        string
		annotations []string
		want        bool
	}{
		{"only deprecated", []string{"Deprecated"}, true},
		{"deprecated last", []string{"Cancelable", "Deprecated"}, true},
		{"deprecated first", []string{"Deprecated", "Cancelable"}, false},
		{"absent", []string{"Cancelable"}, false},
	}

	extractor := NewExtractor(testRouting, DefaultAnnotations)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := &ast.ClassNode{Name: "E", QualifiedName: "x.E"}
			for _, a := range tt.annotations {
				decl.Annotations = append(decl.Annotations, &ast.AnnotationNode{Type: a})
			}
			rec, err := extractor.Extract(decl)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if rec.Deprecated != tt.want {
				t.Errorf("Deprecated = %v, want %v", rec.Deprecated, tt.want)
			}
		})
	}
}

func TestExtractor_Side(t *testing.T) {
	tests := []struct {
		qualifiedName string
		want          catalog.Side
	}{
		{"net.minecraftforge.client.event.RenderGameOverlayEvent", catalog.SideClient},
		{"client.Event", catalog.SideClient},
		{"net.minecraftforge.event.world.BlockEvent", catalog.SideCommon},
		{"net.minecraftforge.clientside.FakeEvent", catalog.SideCommon},
	}

	extractor := NewExtractor(testRouting, DefaultAnnotations)
	for _, tt := range tests {
		rec, err := extractor.Extract(&ast.ClassNode{Name: ast.SimpleName(tt.qualifiedName), QualifiedName: tt.qualifiedName})
		if err != nil {
			t.Fatalf("Extract(%s) error = %v", tt.qualifiedName, err)
		}
		if rec.Side != tt.want {
			t.Errorf("Side(%s) = %v, want %v", tt.qualifiedName, rec.Side, tt.want)
		}
	}
}

func TestExtractor_CustomAnnotations(t *testing.T) {
	extractor := NewExtractor(testRouting, Annotations{Cancelable: "Cancellable"})
	decl := &ast.ClassNode{
		Name:          "E",
		QualifiedName: "x.E",
		Annotations:   []*ast.AnnotationNode{{Type: "Cancellable"}, {Type: "Event.HasResult"}},
	}

	rec, err := extractor.Extract(decl)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if rec.ResultFlags != catalog.FlagHasResult|catalog.FlagCancelable {
		t.Errorf("ResultFlags = %d, want 3", rec.ResultFlags)
	}
}

func TestExtractor_Warnings(t *testing.T) {
	tests := []struct {
		name string
		decl *ast.ClassNode
	}{
		{"nil", nil},
		{"no name", &ast.ClassNode{QualifiedName: "x.E"}},
		{"no qualified name", &ast.ClassNode{Name: "E"}},
		{"field without type", &ast.ClassNode{Name: "E", QualifiedName: "x.E", Fields: []*ast.FieldNode{{Name: "a", Public: true, Final: true}}}},
		{"nil field", &ast.ClassNode{Name: "E", QualifiedName: "x.E", Fields: []*ast.FieldNode{nil}}},
		{"empty annotation", &ast.ClassNode{Name: "E", QualifiedName: "x.E", Annotations: []*ast.AnnotationNode{{}}}},
	}

	extractor := NewExtractor(testRouting, DefaultAnnotations)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.Extract(tt.decl)
			var warning *ExtractionWarning
			if !errors.As(err, &warning) {
				t.Fatalf("Extract() error = %v, want *ExtractionWarning", err)
			}
		})
	}
}

func TestExtractionWarning_Error(t *testing.T) {
	decl := &ast.ClassNode{Name: "E", QualifiedName: "x.E", Loc: ast.SourceLocation{File: "E.java", Line: 12}}
	if got := warn(decl, "bad %s", "field").Error(); got != "E.java:12: skipping x.E: bad field" {
		t.Errorf("Error() = %q", got)
	}

	decl.Loc = ast.SourceLocation{}
	if got := warn(decl, "bad").Error(); got != "skipping x.E: bad" {
		t.Errorf("Error() = %q", got)
	}
}

func TestBusRouting_Match(t *testing.T) {
	tests := []struct {
		qualifiedName string
		want          string
	}{
		{"net.minecraftforge.fml.common.event.FMLInitializationEvent", "FML"},
		{"net.minecraftforge.event.world.BlockEvent", "FORGE"},
		{"com.example.MyEvent", ""},
	}

	for _, tt := range tests {
		if got := testRouting.Match(tt.qualifiedName); got != tt.want {
			t.Errorf("Match(%s) = %q, want %q", tt.qualifiedName, got, tt.want)
		}
	}

	if got := BusRouting(nil).Match("anything"); got != "" {
		t.Errorf("nil routing Match = %q, want empty", got)
	}
}
