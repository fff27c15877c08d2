package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"bizledger/internal/domain"
	"bizledger/internal/excel"
	"bizledger/internal/repository"

	"go.uber.org/zap"
)

const unknownClient = "Unknown"

type CreateSaleInput struct {
	ClientID      string                 `json:"client_id"`
	Items         []domain.SaleLineInput `json:"items"`
	CargoSlipInfo string                 `json:"cargo_slip_info"`
	TrackingNo    string                 `json:"tracking_no"`
}

// CreateSale records a sale. Each line decrements its product's stock by the
// line quantity and copies the product's current prices onto the sale item.
// Stock is allowed to go negative. Any failing line rolls the whole sale
// back, stock included.
func (s *Service) CreateSale(ctx context.Context, input CreateSaleInput) (domain.Sale, error) {
	input.ClientID = strings.TrimSpace(input.ClientID)
	if input.ClientID == "" {
		return domain.Sale{}, invalidf("client_id is required")
	}
	if len(input.Items) == 0 {
		return domain.Sale{}, invalidf("at least one item is required")
	}
	for i, line := range input.Items {
		if strings.TrimSpace(line.ProductID) == "" {
			return domain.Sale{}, invalidf("item %d: product_id is required", i+1)
		}
		if line.Quantity <= 0 {
			return domain.Sale{}, invalidf("item %d: quantity must be positive", i+1)
		}
		if line.Quantity > math.MaxInt32 {
			return domain.Sale{}, invalidf("item %d: quantity is too large", i+1)
		}
	}

	var created domain.Sale
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetClient(ctx, input.ClientID); err != nil {
			return fmt.Errorf("client %s: %w", input.ClientID, err)
		}

		items := make([]domain.SaleItem, 0, len(input.Items))
		for _, line := range input.Items {
			productID := strings.TrimSpace(line.ProductID)
			product, err := tx.AdjustStock(ctx, productID, -line.Quantity)
			if err != nil {
				return fmt.Errorf("product %s: %w", productID, err)
			}
			items = append(items, domain.NewSaleItem(*product, line.Quantity))
		}
		amount, profit := domain.SumItems(items)

		sale, err := tx.InsertSale(ctx, domain.Sale{
			ClientID:      input.ClientID,
			Items:         items,
			TotalAmount:   amount,
			TotalProfit:   profit,
			CargoSlipInfo: strings.TrimSpace(input.CargoSlipInfo),
			TrackingNo:    strings.TrimSpace(input.TrackingNo),
			Date:          s.now().UTC(),
		})
		if err != nil {
			return err
		}
		created = sale
		return nil
	})
	if err != nil {
		return domain.Sale{}, err
	}

	s.logger.Info("sale created",
		zap.String("sale_id", created.ID),
		zap.String("client_id", created.ClientID),
		zap.Int("items", len(created.Items)),
		zap.String("total_amount", created.TotalAmount.String()),
	)
	s.invalidate(ctx)
	return created, nil
}

func (s *Service) ListSales(ctx context.Context, filter repository.SaleListFilter) ([]domain.SaleView, error) {
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, invalidf("from must be before to")
	}
	sales, err := s.store.ListSales(ctx, filter)
	if err != nil {
		return nil, err
	}
	names, err := s.clientNames(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]domain.SaleView, 0, len(sales))
	for _, sale := range sales {
		views = append(views, viewOf(sale, names))
	}
	return views, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (*domain.SaleView, error) {
	sale, err := s.store.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	view := domain.SaleView{Sale: *sale, ClientName: unknownClient}
	client, err := s.store.GetClient(ctx, sale.ClientID)
	switch {
	case err == nil:
		view.ClientName = client.Name
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return &view, nil
}

const exportPageSize = 1000

// ExportSales writes every sale matching filter as a workbook. Limit and
// offset in filter are ignored.
func (s *Service) ExportSales(ctx context.Context, filter repository.SaleListFilter, w io.Writer) error {
	var all []domain.SaleView
	for offset := 0; ; offset += exportPageSize {
		filter.Limit, filter.Offset = exportPageSize, offset
		page, err := s.ListSales(ctx, filter)
		if err != nil {
			return err
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			break
		}
	}
	return excel.WriteSales(w, all, s.loc)
}

func (s *Service) clientNames(ctx context.Context) (map[string]string, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	return names, nil
}

func viewOf(sale domain.Sale, names map[string]string) domain.SaleView {
	name, ok := names[sale.ClientID]
	if !ok {
		name = unknownClient
	}
	return domain.SaleView{Sale: sale, ClientName: name}
}
