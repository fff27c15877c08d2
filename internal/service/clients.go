package service

import (
	"context"
	"strings"

	"bizledger/internal/domain"
	"bizledger/internal/repository"

	"go.uber.org/zap"
)

func (s *Service) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.store.ListClients(ctx)
}

func (s *Service) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return s.store.GetClient(ctx, id)
}

func (s *Service) CreateClient(ctx context.Context, input repository.ClientInput) (domain.Client, error) {
	input, err := normalizeClientInput(input)
	if err != nil {
		return domain.Client{}, err
	}
	client, err := s.store.CreateClient(ctx, input)
	if err != nil {
		return domain.Client{}, err
	}
	s.logger.Info("client created", zap.String("client_id", client.ID))
	s.invalidate(ctx)
	return client, nil
}

func (s *Service) UpdateClient(ctx context.Context, id string, input repository.ClientInput) (*domain.Client, error) {
	input, err := normalizeClientInput(input)
	if err != nil {
		return nil, err
	}
	client, err := s.store.UpdateClient(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return client, nil
}

// DeleteClient removes the client only. Its sales stay and show up with an
// unknown client name.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if err := s.store.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.logger.Info("client deleted", zap.String("client_id", id))
	s.invalidate(ctx)
	return nil
}

func normalizeClientInput(input repository.ClientInput) (repository.ClientInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return input, invalidf("name is required")
	}
	input.ContactInfo = strings.TrimSpace(input.ContactInfo)
	input.Address = strings.TrimSpace(input.Address)
	input.Notes = strings.TrimSpace(input.Notes)
	return input, nil
}
