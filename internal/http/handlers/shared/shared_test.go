package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newSharedTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, rec
}

func TestNormalizePagination(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, 20},
		{3, 50, 3, 50},
		{-1, 500, 1, 100},
	}
	for _, tc := range cases {
		page, size := NormalizePagination(tc.page, tc.size)
		if page != tc.wantPage || size != tc.wantSize {
			t.Fatalf("NormalizePagination(%d,%d) = %d,%d", tc.page, tc.size, page, size)
		}
	}
}

func TestQueryPagination(t *testing.T) {
	c, _ := newSharedTestContext("/orders?page=2&page_size=5")
	page, size := QueryPagination(c)
	if page != 2 || size != 5 {
		t.Fatalf("unexpected pagination %d/%d", page, size)
	}
}

func TestGetCustomerID(t *testing.T) {
	c, rec := newSharedTestContext("/cart")
	if _, ok := GetCustomerID(c); ok {
		t.Fatalf("expected missing customer to fail")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	c, _ = newSharedTestContext("/cart")
	c.Set(CustomerIDKey, uint(42))
	id, ok := GetCustomerID(c)
	if !ok || id != 42 {
		t.Fatalf("expected customer 42, got %d ok=%v", id, ok)
	}
}

func TestParseUintParam(t *testing.T) {
	c, rec := newSharedTestContext("/orders/abc")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	if _, ok := ParseUintParam(c, "id"); ok {
		t.Fatalf("expected invalid id to fail")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	c, _ = newSharedTestContext("/orders/7")
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	id, ok := ParseUintParam(c, "id")
	if !ok || id != 7 {
		t.Fatalf("expected 7, got %d", id)
	}
}
