//go:build integration

package orders

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/testutil"
)

type RepositorySuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	pg     *testutil.PostgresSetup
	db     *sql.DB
	repo   *OrderRepository
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 3*time.Minute)
	s.pg = testutil.SetupPostgres(s.ctx, s.T())
	s.db = s.pg.Open(s.T())
	s.repo = NewOrderRepository(s.db)
}

func (s *RepositorySuite) TearDownSuite() {
	_ = s.db.Close()
	s.pg.Cleanup()
	s.cancel()
}

func (s *RepositorySuite) SetupTest() {
	testutil.Truncate(s.ctx, s.T(), s.db)
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *RepositorySuite) TestPlaceOrder_DecrementsStockAndKeepsCallerPrice() {
	t := s.T()
	p1 := testutil.InsertProduct(s.ctx, t, s.db, 10, true)
	p2 := testutil.InsertProduct(s.ctx, t, s.db, 4, true)

	order, err := s.repo.PlaceOrder(s.ctx, domain.PlaceOrderRequest{
		UserID:      "u1",
		TotalAmount: price("31.00"),
		Items: []domain.OrderItemRequest{
			{ProductID: p2, Quantity: 4, Price: price("1.50")},
			{ProductID: p1, Quantity: 5, Price: price("5.00")},
		},
	})
	s.Require().NoError(err)

	s.Equal(domain.OrderStatusPending, order.Status)
	s.Equal(9, order.TotalQuantity())
	s.Equal(6, testutil.ProductStock(s.ctx, t, s.db, p1))
	s.Equal(0, testutil.ProductStock(s.ctx, t, s.db, p2))

	stored, err := s.repo.GetByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.Items, 2)
	s.Equal(p2, stored.Items[0].ProductID, "line items keep request order")
	s.True(stored.Items[0].Price.Equal(price("1.50")))
	s.True(stored.TotalAmount.Equal(price("31")))
}

func (s *RepositorySuite) TestPlaceOrder_RejectsAmountsTheColumnCannotHold() {
	t := s.T()
	p1 := testutil.InsertProduct(s.ctx, t, s.db, 10, true)

	for _, req := range []domain.PlaceOrderRequest{
		{UserID: "u1", TotalAmount: price("9.999"), Items: []domain.OrderItemRequest{{ProductID: p1, Quantity: 1, Price: price("9.999")}}},
		{UserID: "u1", TotalAmount: price("10000000000"), Items: []domain.OrderItemRequest{{ProductID: p1, Quantity: 1, Price: price("1")}}},
		{UserID: "u1", TotalAmount: price("1"), Items: []domain.OrderItemRequest{{ProductID: p1, Quantity: 1, Price: price("10000000000")}}},
	} {
		_, err := s.repo.PlaceOrder(s.ctx, req)
		s.ErrorIs(err, domain.ErrInvalidInput)
		s.Equal(domain.KindInvalidInput, domain.KindOf(err))
	}

	s.Equal(0, testutil.CountRows(s.ctx, t, s.db, "orders"))
	s.Equal(10, testutil.ProductStock(s.ctx, t, s.db, p1))

	order, err := s.repo.PlaceOrder(s.ctx, domain.PlaceOrderRequest{
		UserID:      "u1",
		TotalAmount: price("9999999999.99"),
		Items:       []domain.OrderItemRequest{{ProductID: p1, Quantity: 1, Price: price("9.99")}},
	})
	s.Require().NoError(err)

	stored, err := s.repo.GetByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.True(stored.TotalAmount.Equal(order.TotalAmount))
	s.True(stored.Items[0].Price.Equal(order.Items[0].Price))
}

func (s *RepositorySuite) TestPlaceOrder_RollsBackEverythingOnFailingItem() {
	t := s.T()
	p1 := testutil.InsertProduct(s.ctx, t, s.db, 10, true)
	p2 := testutil.InsertProduct(s.ctx, t, s.db, 1, true)

	tests := []struct {
		name    string
		items   []domain.OrderItemRequest
		wantErr error
	}{
		{
			name: "unknown product after a valid line",
			items: []domain.OrderItemRequest{
				{ProductID: p1, Quantity: 3, Price: price("1")},
				{ProductID: "does-not-exist", Quantity: 1, Price: price("1")},
			},
			wantErr: domain.ErrProductNotFound,
		},
		{
			name: "short stock after a valid line",
			items: []domain.OrderItemRequest{
				{ProductID: p1, Quantity: 3, Price: price("1")},
				{ProductID: p2, Quantity: 2, Price: price("1")},
			},
			wantErr: domain.ErrInsufficientStock,
		},
		{
			name: "repeated product exceeding stock in total",
			items: []domain.OrderItemRequest{
				{ProductID: p1, Quantity: 6, Price: price("1")},
				{ProductID: p1, Quantity: 5, Price: price("1")},
			},
			wantErr: domain.ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.repo.PlaceOrder(s.ctx, domain.PlaceOrderRequest{UserID: "u1", TotalAmount: price("5"), Items: tt.items})
			s.ErrorIs(err, tt.wantErr)

			s.Equal(0, testutil.CountRows(s.ctx, t, s.db, "orders"))
			s.Equal(0, testutil.CountRows(s.ctx, t, s.db, "order_items"))
			s.Equal(10, testutil.ProductStock(s.ctx, t, s.db, p1))
			s.Equal(1, testutil.ProductStock(s.ctx, t, s.db, p2))
		})
	}
}

func (s *RepositorySuite) TestPlaceOrder_ErrorNamesProduct() {
	t := s.T()
	p1 := testutil.InsertProduct(s.ctx, t, s.db, 1, true)

	_, err := s.repo.PlaceOrder(s.ctx, domain.PlaceOrderRequest{
		UserID: "u1",
		Items:  []domain.OrderItemRequest{{ProductID: p1, Quantity: 2, Price: price("1")}},
	})

	var perr *domain.ProductError
	s.Require().ErrorAs(err, &perr)
	s.Equal(p1, perr.ProductID)
	s.NotEmpty(perr.ProductName)
}

func (s *RepositorySuite) TestPlaceOrder_DoesNotCheckActiveFlag() {
	t := s.T()
	inactive := testutil.InsertProduct(s.ctx, t, s.db, 3, false)

	_, err := s.repo.PlaceOrder(s.ctx, domain.PlaceOrderRequest{
		UserID: "u1",
		Items:  []domain.OrderItemRequest{{ProductID: inactive, Quantity: 3, Price: price("2")}},
	})
	s.Require().NoError(err)
	s.Equal(0, testutil.ProductStock(s.ctx, t, s.db, inactive))
}

func (s *RepositorySuite) TestPlaceOrder_ConcurrentOrdersCannotOversell() {
	t := s.T()
	p1 := testutil.InsertProduct(s.ctx, t, s.db, 5, true)

	const callers = 2
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.repo.PlaceOrder(s.ctx, domain.PlaceOrderRequest{
				UserID: "u1",
				Items:  []domain.OrderItemRequest{{ProductID: p1, Quantity: 3, Price: price("9.99")}},
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}

	s.Equal(1, succeeded)
	s.Equal(2, testutil.ProductStock(s.ctx, t, s.db, p1))
	s.Equal(1, testutil.CountRows(s.ctx, t, s.db, "orders"))
}

func (s *RepositorySuite) TestPlaceOrder_OppositeLockOrderDoesNotDeadlock() {
	t := s.T()
	a := testutil.InsertProduct(s.ctx, t, s.db, 50, true)
	b := testutil.InsertProduct(s.ctx, t, s.db, 50, true)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		first, second := a, b
		if i%2 == 1 {
			first, second = b, a
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.repo.PlaceOrder(s.ctx, domain.PlaceOrderRequest{
				UserID: "u1",
				Items: []domain.OrderItemRequest{
					{ProductID: first, Quantity: 1, Price: price("1")},
					{ProductID: second, Quantity: 1, Price: price("1")},
				},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	s.Equal(30, testutil.ProductStock(s.ctx, t, s.db, a))
	s.Equal(30, testutil.ProductStock(s.ctx, t, s.db, b))
}

func (s *RepositorySuite) TestUpdateStatus() {
	t := s.T()
	p1 := testutil.InsertProduct(s.ctx, t, s.db, 5, true)
	order, err := s.repo.PlaceOrder(s.ctx, domain.PlaceOrderRequest{
		UserID: "u1",
		Items:  []domain.OrderItemRequest{{ProductID: p1, Quantity: 1, Price: price("1")}},
	})
	s.Require().NoError(err)

	_, err = s.repo.UpdateStatus(s.ctx, order.ID, domain.OrderStatus("shipped"))
	s.ErrorIs(err, domain.ErrInvalidStatus)

	updated, err := s.repo.UpdateStatus(s.ctx, order.ID, domain.OrderStatusCompleted)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusCompleted, updated.Status)
	s.True(updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	_, err = s.repo.UpdateStatus(s.ctx, order.ID, domain.OrderStatusCancelled)
	s.ErrorIs(err, domain.ErrInvalidTransition)

	_, err = s.repo.UpdateStatus(s.ctx, "missing", domain.OrderStatusCancelled)
	s.ErrorIs(err, domain.ErrOrderNotFound)
}

func (s *RepositorySuite) TestListByUser() {
	t := s.T()
	p1 := testutil.InsertProduct(s.ctx, t, s.db, 100, true)

	for _, user := range []string{"u1", "u1", "u1", "u2"} {
		_, err := s.repo.PlaceOrder(s.ctx, domain.PlaceOrderRequest{
			UserID: user,
			Items:  []domain.OrderItemRequest{{ProductID: p1, Quantity: 1, Price: price("1")}},
		})
		s.Require().NoError(err)
	}

	all, err := s.repo.ListByUser(s.ctx, "u1", 0, 0)
	s.Require().NoError(err)
	s.Len(all, 3)
	for _, o := range all {
		s.Equal("u1", o.UserID)
		s.Len(o.Items, 1)
	}

	page, err := s.repo.ListByUser(s.ctx, "u1", 2, 10)
	s.Require().NoError(err)
	s.Len(page, 1)

	none, err := s.repo.ListByUser(s.ctx, "nobody", 0, 10)
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}
