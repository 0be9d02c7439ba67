package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaf/smartstock/internal/db"
	"github.com/mwaf/smartstock/internal/models"
)

type fakeProductStore struct {
	products map[int64]*models.Product
	nextID   int64
	markers  map[[2]int64]bool
}

func newFakeProductStore(products ...*models.Product) *fakeProductStore {
	s := &fakeProductStore{
		products: make(map[int64]*models.Product),
		nextID:   1,
		markers:  make(map[[2]int64]bool),
	}
	for _, p := range products {
		s.products[p.ID] = p
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	return s
}

func (s *fakeProductStore) GetAll(_ context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeProductStore) GetByID(_ context.Context, id int64) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, db.ErrProductNotFound
	}
	return p, nil
}

func (s *fakeProductStore) Create(_ context.Context, req models.CreateProductRequest) (*models.Product, error) {
	p := &models.Product{
		ID:            s.nextID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}
	s.nextID++
	s.products[p.ID] = p
	return p, nil
}

func (s *fakeProductStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.products[id]; !ok {
		return db.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *fakeProductStore) Restock(_ context.Context, id int64, quantity int) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, db.ErrProductNotFound
	}
	p.StockQuantity += quantity
	return p, nil
}

func (s *fakeProductStore) ReduceStock(_ context.Context, id int64, quantity int) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, db.ErrProductNotFound
	}
	if p.StockQuantity < quantity {
		return nil, db.ErrInsufficientStock
	}
	p.StockQuantity -= quantity
	if p.StockQuantity == 0 {
		delete(s.products, id)
		return nil, nil
	}
	return p, nil
}

func (s *fakeProductStore) ReduceStockForOrder(ctx context.Context, orderID, productID int64, quantity int) (*models.Product, error) {
	key := [2]int64{orderID, productID}
	if s.markers[key] {
		return nil, db.ErrReductionApplied
	}
	p, err := s.ReduceStock(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}
	s.markers[key] = true
	return p, nil
}

type fakeLowStockPolicy struct {
	checked []models.Product
}

func (f *fakeLowStockPolicy) CheckAndNotify(_ context.Context, product models.Product) error {
	f.checked = append(f.checked, product)
	return nil
}

func setupProductRouter(store *fakeProductStore, lowStock *fakeLowStockPolicy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(bytes.NewBuffer(nil))

	handler := NewProductHandler(store, lowStock, log)

	router := gin.New()
	router.GET("/products", handler.ListProducts)
	router.GET("/products/:id", handler.GetProduct)
	router.POST("/products", handler.CreateProduct)
	router.DELETE("/products/:id", handler.DeleteProduct)
	router.PATCH("/products/:id/restock", handler.RestockProduct)
	router.PUT("/products/:id/reduceStock", handler.ReduceStock)
	return router
}

func TestReduceStockHappyPath(t *testing.T) {
	store := newFakeProductStore(&models.Product{ID: 1, Name: "Widget", StockQuantity: 10})
	lowStock := &fakeLowStockPolicy{}
	router := setupProductRouter(store, lowStock)

	req := httptest.NewRequest(http.MethodPut, "/products/1/reduceStock?quantity=3&orderId=500", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(7), resp["remainingStock"])
	assert.Equal(t, 7, store.products[1].StockQuantity)

	// Every successful reduction triggers the low-stock check.
	require.Len(t, lowStock.checked, 1)
	assert.Equal(t, 7, lowStock.checked[0].StockQuantity)
}

func TestReduceStockRepeatWithSameOrderIsNoOp(t *testing.T) {
	store := newFakeProductStore(&models.Product{ID: 1, StockQuantity: 10})
	router := setupProductRouter(store, &fakeLowStockPolicy{})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPut, "/products/1/reduceStock?quantity=3&orderId=500", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPut, "/products/1/reduceStock?quantity=3&orderId=500", nil))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "already applied")

	// Stock only moved once.
	assert.Equal(t, 7, store.products[1].StockQuantity)
}

func TestReduceStockInsufficient(t *testing.T) {
	store := newFakeProductStore(&models.Product{ID: 1, StockQuantity: 2})
	router := setupProductRouter(store, &fakeLowStockPolicy{})

	req := httptest.NewRequest(http.MethodPut, "/products/1/reduceStock?quantity=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 2, store.products[1].StockQuantity)
}

func TestReduceStockToZeroDeletesProduct(t *testing.T) {
	store := newFakeProductStore(&models.Product{ID: 1, StockQuantity: 4})
	router := setupProductRouter(store, &fakeLowStockPolicy{})

	req := httptest.NewRequest(http.MethodPut, "/products/1/reduceStock?quantity=4", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(0), resp["remainingStock"])
	assert.Equal(t, true, resp["productDeleted"])
	assert.NotContains(t, store.products, int64(1))
}

func TestReduceStockUnknownProduct(t *testing.T) {
	router := setupProductRouter(newFakeProductStore(), &fakeLowStockPolicy{})

	req := httptest.NewRequest(http.MethodPut, "/products/99/reduceStock?quantity=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReduceStockRejectsNonPositiveQuantity(t *testing.T) {
	store := newFakeProductStore(&models.Product{ID: 1, StockQuantity: 10})
	router := setupProductRouter(store, &fakeLowStockPolicy{})

	for _, q := range []string{"0", "-2", "abc", ""} {
		req := httptest.NewRequest(http.MethodPut, "/products/1/reduceStock?quantity="+q, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "quantity=%q", q)
	}
	assert.Equal(t, 10, store.products[1].StockQuantity)
}

func TestCreateProductRunsLowStockCheck(t *testing.T) {
	store := newFakeProductStore()
	lowStock := &fakeLowStockPolicy{}
	router := setupProductRouter(store, lowStock)

	body := []byte(`{"name":"Widget","price":9.99,"stockQuantity":2}`)
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, lowStock.checked, 1)
	assert.Equal(t, "Widget", lowStock.checked[0].Name)
}

func TestRestockProduct(t *testing.T) {
	store := newFakeProductStore(&models.Product{ID: 1, StockQuantity: 2})
	router := setupProductRouter(store, &fakeLowStockPolicy{})

	body := []byte(`{"quantity":8}`)
	req := httptest.NewRequest(http.MethodPatch, "/products/1/restock", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, store.products[1].StockQuantity)
}

func TestGetProductNotFound(t *testing.T) {
	router := setupProductRouter(newFakeProductStore(), &fakeLowStockPolicy{})

	req := httptest.NewRequest(http.MethodGet, "/products/5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
