package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_cart/product-service/internal/domain"
	"github.com/fjod/go_cart/product-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoMock struct {
	products []*domain.Product
	err      error
}

func (m repoMock) GetAllProducts(context.Context) ([]*domain.Product, error) {
	return m.products, m.err
}

func (m repoMock) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

var catalog = []*domain.Product{
	{ID: 1, Title: "Runner", Price: 199.9, Image: "https://img/1.jpg"},
	{ID: 2, Title: "Walker", Price: 139.9, Image: "https://img/2.jpg"},
}

func serve(t *testing.T, repo repoMock, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(NewProductHandler(repo, time.Second, nil))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

func TestList(t *testing.T) {
	recorder := serve(t, repoMock{products: catalog}, "/products/")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `[
		{"id":1,"title":"Runner","price":199.9,"image":"https://img/1.jpg"},
		{"id":2,"title":"Walker","price":139.9,"image":"https://img/2.jpg"}
	]`, recorder.Body.String())
}

func TestList_RepoError(t *testing.T) {
	recorder := serve(t, repoMock{err: errors.New("db locked")}, "/products/")

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestGet(t *testing.T) {
	recorder := serve(t, repoMock{products: catalog}, "/products/2")

	require.Equal(t, http.StatusOK, recorder.Code)
	var p domain.Product
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&p))
	assert.Equal(t, int64(2), p.ID)
	assert.Equal(t, "Walker", p.Title)
}

func TestGet_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "unknown", path: "/products/99", wantStatus: http.StatusNotFound},
		{name: "not a number", path: "/products/abc", wantStatus: http.StatusBadRequest},
		{name: "zero", path: "/products/0", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := serve(t, repoMock{products: catalog}, tt.path)
			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}
