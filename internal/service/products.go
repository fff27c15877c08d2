package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"bizledger/internal/domain"
	"bizledger/internal/excel"
	"bizledger/internal/repository"

	"go.uber.org/zap"
)

func (s *Service) ListProducts(ctx context.Context, filter repository.ProductListFilter) ([]domain.Product, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Type != "" {
		t, err := domain.ParseProductType(string(filter.Type))
		if err != nil {
			return nil, invalidf("%v", err)
		}
		filter.Type = t
	}
	return s.store.ListProducts(ctx, filter)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, input repository.ProductInput) (domain.Product, error) {
	input, err := normalizeProductInput(input)
	if err != nil {
		return domain.Product{}, err
	}
	product, err := s.store.CreateProduct(ctx, input)
	if err != nil {
		return domain.Product{}, err
	}
	s.logger.Info("product created", zap.String("product_id", product.ID), zap.String("type", string(product.Type)))
	s.invalidate(ctx)
	return product, nil
}

// UpdateProduct replaces every field, quantity included. Sales already
// recorded keep the prices they were created with.
func (s *Service) UpdateProduct(ctx context.Context, id string, input repository.ProductInput) (*domain.Product, error) {
	input, err := normalizeProductInput(input)
	if err != nil {
		return nil, err
	}
	product, err := s.store.UpdateProduct(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	s.invalidate(ctx)
	return nil
}

// ImportProducts creates one product per valid spreadsheet row. Invalid rows
// are reported and skipped; a file that cannot be read at all is rejected.
func (s *Service) ImportProducts(ctx context.Context, fileName string, r io.Reader) (domain.ProductImportResult, error) {
	sheet, err := excel.ParseProducts(fileName, r)
	if err != nil {
		return domain.ProductImportResult{}, invalidf("%v", err)
	}

	result := domain.ProductImportResult{
		TotalRows: sheet.TotalRows,
		Errors:    append([]string(nil), sheet.Errors...),
	}
	for _, row := range sheet.Rows {
		input, err := normalizeProductInput(repository.ProductInput{
			Name:       row.Name,
			Type:       row.Type,
			CostPrice:  row.CostPrice,
			SalePrice:  row.SalePrice,
			Quantity:   row.Quantity,
			Attributes: row.Attributes,
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row.Row, err))
			continue
		}
		if _, err := s.store.CreateProduct(ctx, input); err != nil {
			return result, fmt.Errorf("import row %d: %w", row.Row, err)
		}
		result.Created++
	}
	result.Skipped = result.TotalRows - result.Created

	if result.Created > 0 {
		s.invalidate(ctx)
	}
	s.logger.Info("products imported",
		zap.String("file", fileName),
		zap.Int("rows", result.TotalRows),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func normalizeProductInput(input repository.ProductInput) (repository.ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, invalidf("name is required")
	}
	t, err := domain.ParseProductType(string(input.Type))
	if err != nil {
		return input, invalidf("%v", err)
	}
	input.Type = t
	if input.CostPrice.IsNegative() {
		return input, invalidf("cost_price cannot be negative")
	}
	if input.SalePrice.IsNegative() {
		return input, invalidf("sale_price cannot be negative")
	}
	// stock is a 32-bit column
	if input.Quantity > math.MaxInt32 || input.Quantity < math.MinInt32 {
		return input, invalidf("quantity is out of range")
	}
	attrs := input.Attributes
	if attrs.SizeInches != nil && *attrs.SizeInches < 0 {
		return input, invalidf("size_inches cannot be negative")
	}
	if attrs.WeightGrams != nil && *attrs.WeightGrams < 0 {
		return input, invalidf("weight_grams cannot be negative")
	}
	attrs.UFValue = trimmedOrNil(attrs.UFValue)
	attrs.WattValue = trimmedOrNil(attrs.WattValue)
	input.Attributes = attrs
	return input, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
