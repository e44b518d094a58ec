package user_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/billing-service/internal/billing"
	"github.com/noah-isme/billing-service/internal/store/memory"
	"github.com/noah-isme/billing-service/internal/user"
)

func TestCreateNormalisesAndStores(t *testing.T) {
	svc := &user.Service{Store: memory.New()}
	u, err := svc.Create(context.Background(), user.CreateInput{Name: "  Grace ", Email: " Grace@Example.com"})
	require.NoError(t, err)
	require.Equal(t, "Grace", u.Name)
	require.Equal(t, "grace@example.com", u.Email)
	require.NotNil(t, u.Cart)
	require.Empty(t, u.Cart)

	got, err := svc.Get(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}

func TestCreateRejectsMissingFields(t *testing.T) {
	svc := &user.Service{Store: memory.New()}
	_, err := svc.Create(context.Background(), user.CreateInput{Name: " ", Email: "nope"})
	require.ErrorIs(t, err, billing.ErrValidation)
}

func TestHandlers(t *testing.T) {
	h := &user.Handler{Svc: &user.Service{Store: memory.New()}}
	r := chi.NewRouter()
	r.Post("/users", h.Create)
	r.Get("/users/{userId}", h.Get)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"Lin","email":"lin@example.com"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data billing.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+resp.Data.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"Lin"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":{"code":"VALIDATION_ERROR","message":"invalid user","details":[{"field":"email","rule":"required"}]}}`, rec.Body.String())
}
