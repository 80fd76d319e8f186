package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pos-catalog-browser/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLoader is a mock implementation of Loader
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

func PtrTo[T any](v T) *T {
	return &v
}

func TestHTTPLoader_Load_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":7,"name":"Widget","code":"AX1","image":null,"price":10.00,"available_qty":3},
			{"id":8,"name":"Gadget","code":"B2","image":"https://cdn.local/b2.png","price":"4.50","available_qty":0}
		]`))
	}))
	defer srv.Close()

	products, err := NewHTTPLoader(srv.URL+"/", srv.Client()).Load(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(7), products[0].ID)
	assert.Equal(t, "AX1", products[0].Code)
	assert.Nil(t, products[0].Image)
	assert.True(t, decimal.NewFromInt(10).Equal(products[0].Price))
	assert.Equal(t, 3, products[0].AvailableQty)
	require.NotNil(t, products[1].Image)
	assert.Equal(t, "https://cdn.local/b2.png", *products[1].Image)
	assert.False(t, products[1].InStock())
}

func TestHTTPLoader_Load_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	products, err := NewHTTPLoader(srv.URL, srv.Client()).Load(context.Background())

	assert.Nil(t, products)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestHTTPLoader_Load_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPLoader(srv.URL, srv.Client()).Load(context.Background())

	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestHTTPLoader_Load_EmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	products, err := NewHTTPLoader(srv.URL, srv.Client()).Load(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestCatalog_ReloadReplacesSnapshot(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Load", mock.Anything).Return([]domain.Product{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}, nil).Once()
	loader.On("Load", mock.Anything).Return([]domain.Product{{ID: 2, Name: "B2"}}, nil).Once()
	c := New(loader, nil)

	require.NoError(t, c.Reload(context.Background()))
	assert.Len(t, c.Products(), 2)

	require.NoError(t, c.Reload(context.Background()))
	products := c.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "B2", products[0].Name)
	_, found := c.Find(1)
	assert.False(t, found)
	assert.Equal(t, uint64(2), c.Version())

	loader.AssertExpectations(t)
}

func TestCatalog_ReloadFailureSetsErrorAndKeepsSnapshot(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Load", mock.Anything).Return([]domain.Product{{ID: 7, AvailableQty: 3}}, nil).Once()
	loader.On("Load", mock.Anything).Return(nil, &LoadError{Err: errors.New("connection refused")}).Once()
	loader.On("Load", mock.Anything).Return([]domain.Product{{ID: 7, AvailableQty: 2}}, nil).Once()
	c := New(loader, nil)

	require.NoError(t, c.Reload(context.Background()))
	assert.NoError(t, c.Err())

	require.Error(t, c.Reload(context.Background()))
	assert.Error(t, c.Err())
	p, ok := c.Find(7)
	require.True(t, ok)
	assert.Equal(t, 3, p.AvailableQty)

	require.NoError(t, c.Reload(context.Background()))
	assert.NoError(t, c.Err(), "a successful load clears the error flag")
	p, _ = c.Find(7)
	assert.Equal(t, 2, p.AvailableQty)

	loader.AssertExpectations(t)
}

func TestCatalog_FindReturnsCopy(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Load", mock.Anything).Return([]domain.Product{{ID: 5, Name: "Orig", Image: PtrTo("/a.png")}}, nil).Once()
	c := New(loader, nil)
	require.NoError(t, c.Reload(context.Background()))

	p, ok := c.Find(5)
	require.True(t, ok)
	p.Name = "Changed"
	*p.Image = "/changed.png"

	again, _ := c.Find(5)
	assert.Equal(t, "Orig", again.Name)
	assert.Equal(t, "/a.png", *again.Image)
}

func TestCatalog_NotLoadedInitially(t *testing.T) {
	c := New(new(MockLoader), nil)

	assert.False(t, c.Loaded())
	assert.Empty(t, c.Products())
	_, ok := c.Find(1)
	assert.False(t, ok)
}
