package storage

import (
	"fmt"
	"strings"
	"sync"
)

// AssetPurpose captures high-level intent for storage layout decisions.
type AssetPurpose string

const (
	PurposeProofOfPayment AssetPurpose = "proof-of-payment"
	PurposeProductPreview AssetPurpose = "product-preview"
)

// PathParams provide required identifiers to compose storage object keys.
type PathParams struct {
	InvoiceNumber string
	OrderID       string
	ProductID     string
	FileName      string
}

// PathBuilder composes the object path for a given asset purpose.
type PathBuilder func(PathParams) (string, error)

var (
	pathBuilders = map[AssetPurpose]PathBuilder{
		PurposeProofOfPayment: buildProofOfPaymentPath,
		PurposeProductPreview: buildProductPreviewPath,
	}
	pathBuildersMu sync.RWMutex
)

// RegisterPathBuilder overrides or registers a builder for a specific purpose.
func RegisterPathBuilder(purpose AssetPurpose, builder PathBuilder) {
	pathBuildersMu.Lock()
	defer pathBuildersMu.Unlock()
	if builder == nil {
		delete(pathBuilders, purpose)
		return
	}
	pathBuilders[purpose] = builder
}

// BuildObjectPath resolves the storage object path for the given purpose.
func BuildObjectPath(purpose AssetPurpose, params PathParams) (string, error) {
	pathBuildersMu.RLock()
	builder, ok := pathBuilders[purpose]
	pathBuildersMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("storage: unsupported asset purpose %q", purpose)
	}
	return builder(params)
}

func buildProofOfPaymentPath(params PathParams) (string, error) {
	invoiceNumber, err := validateSegment("invoiceNumber", params.InvoiceNumber)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(params.FileName)
	if name == "" {
		name = fmt.Sprintf("%s.jpg", invoiceNumber)
	}
	fileName, err := validateFileName(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("proofs/%s/%s", invoiceNumber, fileName), nil
}

func buildProductPreviewPath(params PathParams) (string, error) {
	productID, err := validateSegment("productID", params.ProductID)
	if err != nil {
		return "", err
	}
	fileName, err := validateFileName(params.FileName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products/%s/previews/%s", productID, fileName), nil
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}

func validateFileName(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: fileName is required")
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: fileName contains invalid path characters")
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: fileName contains invalid traversal sequence")
	}
	return value, nil
}
