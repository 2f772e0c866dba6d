package tools

import (
	"strings"
	"testing"
)

func TestXRefTracksDefinitionAndReference(t *testing.T) {
	gen := NewXRefGenerator()
	symbols, err := gen.Generate("Lbl LOOP\nA++\nGoto LOOP", "<test>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sym, ok := symbols["LOOP"]
	if !ok {
		t.Fatal("expected LOOP symbol")
	}
	if sym.Definition == nil {
		t.Error("expected LOOP to have a definition")
	}
	if len(sym.References) != 1 {
		t.Errorf("expected 1 reference, got %d", len(sym.References))
	}
}

func TestXRefUndefinedAndUnused(t *testing.T) {
	gen := NewXRefGenerator()
	_, err := gen.Generate("Goto MISSING\nLbl UNUSED\n1->A", "<test>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gen.GetUndefinedLabels()) != 1 {
		t.Errorf("expected 1 undefined label, got %d", len(gen.GetUndefinedLabels()))
	}
	if len(gen.GetUnusedLabels()) != 1 {
		t.Errorf("expected 1 unused label, got %d", len(gen.GetUnusedLabels()))
	}
}

func TestXRefComputedReference(t *testing.T) {
	gen := NewXRefGenerator()
	symbols, err := gen.Generate("Lbl TARGET\nL^^ TARGET->A\nGoto(A)", "<test>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sym := symbols["TARGET"]
	if sym == nil || len(sym.References) != 1 {
		t.Errorf("expected 1 computed reference to TARGET, got %+v", sym)
	}
}

func TestXRefReportString(t *testing.T) {
	report, err := GenerateXRef("Lbl LOOP\nGoto LOOP", "<test>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(report, "LOOP") {
		t.Errorf("expected report to mention LOOP, got %q", report)
	}
	if !strings.Contains(report, "Summary") {
		t.Errorf("expected report summary section, got %q", report)
	}
}
