package gateway

import (
	"context"

	"github.com/stretchr/testify/mock"

	"marketgateway/internal/quote"
)

// MockAdapter is a testify-backed provider.Adapter for chain tests.
type MockAdapter struct {
	mock.Mock
	name    string
	classes []quote.AssetClass
}

func NewMockAdapter(name string, classes ...quote.AssetClass) *MockAdapter {
	return &MockAdapter{name: name, classes: classes}
}

func (m *MockAdapter) Name() string { return m.name }

func (m *MockAdapter) Supports(class quote.AssetClass) bool {
	for _, c := range m.classes {
		if c == class {
			return true
		}
	}
	return false
}

func (m *MockAdapter) Fetch(ctx context.Context, class quote.AssetClass, symbol string) (*quote.Quote, error) {
	args := m.Called(ctx, class, symbol)
	q, _ := args.Get(0).(*quote.Quote)
	return q, args.Error(1)
}
