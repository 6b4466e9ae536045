package service

import (
	"context"

	"anoa.com/studentmanager/internal/modules/stat/dto"
	"anoa.com/studentmanager/internal/modules/stat/repository"
)

type StatService interface {
	GetTotals(ctx context.Context) (*dto.Totals, error)
}

type statService struct {
	repo repository.StatRepository
}

func NewStatService(repo repository.StatRepository) StatService {
	return &statService{
		repo: repo,
	}
}

func (s *statService) GetTotals(ctx context.Context) (*dto.Totals, error) {
	return s.repo.Totals(ctx)
}
