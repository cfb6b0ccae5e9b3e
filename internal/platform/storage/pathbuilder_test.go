package storage

import "testing"

func TestBuildProofOfPaymentPath(t *testing.T) {
	path, err := BuildObjectPath(PurposeProofOfPayment, PathParams{
		InvoiceNumber: "INV-20250817-A1B2C",
		FileName:      "receipt.png",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "proofs/INV-20250817-A1B2C/receipt.png"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildProofOfPaymentPathDefaultsFileName(t *testing.T) {
	path, err := BuildObjectPath(PurposeProofOfPayment, PathParams{
		InvoiceNumber: "INV-20250817-A1B2C",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "proofs/INV-20250817-A1B2C/INV-20250817-A1B2C.jpg"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildProductPreviewPath(t *testing.T) {
	path, err := BuildObjectPath(PurposeProductPreview, PathParams{
		ProductID: "prd123",
		FileName:  "cover.webp",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := "products/prd123/previews/cover.webp"
	if path != expected {
		t.Fatalf("expected %s, got %s", expected, path)
	}
}

func TestBuildObjectPathRejectsInvalidSegment(t *testing.T) {
	_, err := BuildObjectPath(PurposeProofOfPayment, PathParams{
		InvoiceNumber: "../bad",
		FileName:      "receipt.png",
	})
	if err == nil {
		t.Fatalf("expected error for invalid segment")
	}
}
