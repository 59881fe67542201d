package parser

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParseFile(t *testing.T) {
	path := filepath.Join("testdata", "billing.json")
	model, err := ParseFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if model.SourceFile != path {
		t.Fatalf("expected source file %q, got %q", path, model.SourceFile)
	}
	if model.Name != "Billing-API" {
		t.Fatalf("unexpected name %q", model.Name)
	}
	if len(model.Controllers) != 1 || model.Controllers[0].Name != "InvoiceController" {
		t.Fatalf("unexpected controllers: %+v", model.Controllers)
	}
	if len(model.ClassDetails) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(model.ClassDetails))
	}

	service := model.ClassDetails[0]
	if service.Inherits != "ServiceBase" || len(service.StoredProcedure) != 2 {
		t.Fatalf("unexpected class: %+v", service)
	}
	if len(service.Methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(service.Methods))
	}
	if service.Methods[0].MethodReturnType != "decimal" {
		t.Fatalf("unexpected return type %q", service.Methods[0].MethodReturnType)
	}
	if service.Methods[1].MethodReturnType != "void" {
		t.Fatalf("expected default return type, got %q", service.Methods[1].MethodReturnType)
	}
	calls := service.Methods[0].ExternalCalls
	if len(calls) != 1 || calls[0].DestinationClass != "TaxCalculator" || calls[0].DestinationMethod != "Apply" {
		t.Fatalf("unexpected external calls: %+v", calls)
	}
	if len(model.DependentRepositories) != 2 {
		t.Fatalf("unexpected dependencies: %v", model.DependentRepositories)
	}
}

func TestParse(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		_, err := Parse([]byte("{\"Name\": "))
		if !errors.Is(err, ErrInvalidJSON) {
			t.Fatalf("expected ErrInvalidJSON, got %v", err)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := Parse([]byte(`{"Name": "  ", "ClassDetails": []}`))
		if !errors.Is(err, ErrMissingName) {
			t.Fatalf("expected ErrMissingName, got %v", err)
		}
	})

	t.Run("class without name", func(t *testing.T) {
		_, err := Parse([]byte(`{"Name": "a", "ClassDetails": [{"FilePath": "x.cs"}]}`))
		if !errors.Is(err, ErrMissingClassName) {
			t.Fatalf("expected ErrMissingClassName, got %v", err)
		}
	})

	t.Run("method without name", func(t *testing.T) {
		_, err := Parse([]byte(`{"Name": "a", "ClassDetails": [{"ClassName": "C", "Methods": [{"MethodSourceCode": "x"}]}]}`))
		if !errors.Is(err, ErrMissingMethodName) {
			t.Fatalf("expected ErrMissingMethodName, got %v", err)
		}
	})

	t.Run("byte order mark", func(t *testing.T) {
		model, err := Parse([]byte("\ufeff{\"Name\": \"bom\"}"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if model.Name != "bom" {
			t.Fatalf("unexpected name %q", model.Name)
		}
	})

	t.Run("optional sections", func(t *testing.T) {
		model, err := Parse([]byte(`{"Name": "bare"}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if model.Controllers != nil || model.ClassDetails != nil || model.DependentRepositories != nil {
			t.Fatalf("expected empty sections, got %+v", model)
		}
	})
}

func TestRepositoryName(t *testing.T) {
	if got := RepositoryName("  Billing-API "); got != "billing-api" {
		t.Fatalf("unexpected repository name %q", got)
	}
}

func TestStoredProcedureName(t *testing.T) {
	tests := map[string]string{
		"usp_GetOrders":             "usp_GetOrders",
		"[dbo].[usp_GetOrders]":     "usp_GetOrders",
		"'usp_SaveInvoice'":         "usp_SaveInvoice",
		" \"sales.usp_Refund\" ":    "usp_Refund",
		"[db].[dbo].[usp_Archive] ": "usp_Archive",
	}
	for in, want := range tests {
		got, err := StoredProcedureName(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}

	if _, err := StoredProcedureName("[]"); !errors.Is(err, ErrEmptyStoredProcRef) {
		t.Fatalf("expected ErrEmptyStoredProcRef, got %v", err)
	}
}
