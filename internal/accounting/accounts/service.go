package accounts

import "context"

// Service exposes the chart of accounts. Account categories are immutable
// once lines reference them; only activation state can change, so the
// service offers no type/code mutation path.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Tree loads the active chart and indexes it for roll-ups.
func (s *Service) Tree(ctx context.Context) (*Tree, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewTree(list), nil
}

// Deactivate soft-removes an account. Posted history stays intact.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}
