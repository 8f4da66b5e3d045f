package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nextchow/internal/cache"
	"github.com/nextchow/internal/config"
	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/models"
	"github.com/nextchow/internal/provider"

	"github.com/gin-gonic/gin"
)

type routerTestEnv struct {
	engine    *gin.Engine
	container *provider.Container
	token     string
	customer  models.Customer
	vendor    models.VendorProfile
	menuA     models.Menu
	menuB     models.Menu
	packaging models.Packaging

	mu       sync.Mutex
	gateway  []map[string]interface{}
	failNext bool
}

func setupRouterTest(t *testing.T, name string) *routerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := &routerTestEnv{}

	paystack := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		_ = json.Unmarshal(body, &payload)
		env.mu.Lock()
		env.gateway = append(env.gateway, payload)
		fail := env.failNext
		env.failNext = false
		env.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"status":false,"message":"upstream down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/AC1","access_code":"AC1","reference":"REF1"}}`))
	}))
	t.Cleanup(paystack.Close)

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := models.OpenDB("sqlite", dsn, "silent", models.DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.Server.Mode = "debug"
	cfg.UserJWT.SecretKey = "router-test-secret"
	cfg.UserJWT.Issuer = "nextchow"
	cfg.Cart.MaxPacks = constants.DefaultMaxCartPacks
	cfg.Checkout.Currency = "NGN"
	cfg.Paystack.SecretKey = "sk_test_router"
	cfg.Paystack.BaseURL = paystack.URL
	cfg.Paystack.CallbackURL = "https://nextchow.test/payments/callback"
	cfg.Paystack.TimeoutSeconds = 2
	cfg.Metrics.Enabled = true

	container, err := provider.NewContainerWithDB(context.Background(), cfg, db, cache.NewStore(nil))
	if err != nil {
		t.Fatalf("new container failed: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Close(context.Background())
	})
	env.container = container

	vendor := models.VendorProfile{StoreName: "Mama Put", Location: models.NewGeoPoint(7.186, 8.894)}
	if err := db.Create(&vendor).Error; err != nil {
		t.Fatalf("create vendor failed: %v", err)
	}
	env.vendor = vendor
	env.customer = models.Customer{
		FirstName: "Ada",
		LastName:  "Obi",
		Email:     "ada@example.com",
		Location:  models.NewGeoPoint(7.200, 8.900),
		Status:    constants.CustomerStatusActive,
	}
	if err := db.Create(&env.customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	env.menuA = models.Menu{VendorID: vendor.ID, Name: "Jollof Rice", Price: models.NewMoney(500), IsAvailable: true}
	env.menuB = models.Menu{VendorID: vendor.ID, Name: "Plantain", Price: models.NewMoney(300), IsAvailable: true}
	env.packaging = models.Packaging{VendorID: vendor.ID, Name: "Takeaway Box", Price: models.NewMoney(200)}
	for _, record := range []interface{}{&env.menuA, &env.menuB, &env.packaging} {
		if err := db.Create(record).Error; err != nil {
			t.Fatalf("create catalog entry failed: %v", err)
		}
	}

	token, _, err := container.CustomerAuthService.GenerateCustomerJWT(&env.customer, time.Hour)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	env.token = token
	env.engine = SetupRouter(cfg, container)
	return env
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (env *routerTestEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	return env.doWithToken(t, env.token, method, path, body)
}

func (env *routerTestEnv) doWithToken(t *testing.T, token, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	var resp envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
		}
	}
	return w, resp
}

func (env *routerTestEnv) scenarioPack() gin.H {
	return gin.H{
		"packaging_id": env.packaging.ID,
		"items": []gin.H{
			{"menu_id": env.menuA.ID, "quantity": 2},
			{"menu_id": env.menuB.ID, "quantity": 1},
		},
	}
}

func TestCheckoutFlowOverHTTP(t *testing.T) {
	env := setupRouterTest(t, "router_checkout")

	w, resp := env.do(t, http.MethodPost, "/cart/add-pack", env.scenarioPack())
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("add-pack failed: %d %s", w.Code, w.Body.String())
	}
	var cart struct {
		TotalPrice string        `json:"total_price"`
		Packs      []interface{} `json:"packs"`
	}
	_ = json.Unmarshal(resp.Data, &cart)
	if cart.TotalPrice != "1500.00" || len(cart.Packs) != 1 {
		t.Fatalf("unexpected cart: %s", string(resp.Data))
	}

	w, resp = env.do(t, http.MethodPost, "/cart/checkout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("checkout failed: %d %s", w.Code, w.Body.String())
	}
	var result struct {
		PaymentURL string `json:"payment_url"`
		Reference  string `json:"reference"`
		Order      struct {
			ID                  uint    `json:"id"`
			TotalPrice          string  `json:"total_price"`
			Status              string  `json:"status"`
			EstimatedDistanceKM float64 `json:"estimated_distance"`
		} `json:"order"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatalf("decode checkout result failed: %v", err)
	}
	if result.Reference != "REF1" || result.PaymentURL != "https://checkout.paystack.com/AC1" {
		t.Fatalf("unexpected payment result: %+v", result)
	}
	if result.Order.TotalPrice != "1500.00" || result.Order.Status != constants.OrderStatusPending {
		t.Fatalf("unexpected order: %+v", result.Order)
	}
	if result.Order.EstimatedDistanceKM != 1.68 {
		t.Fatalf("expected distance 1.68, got %v", result.Order.EstimatedDistanceKM)
	}

	env.mu.Lock()
	if len(env.gateway) != 1 || env.gateway[0]["amount"] != "150000" || env.gateway[0]["email"] != "ada@example.com" {
		env.mu.Unlock()
		t.Fatalf("unexpected gateway payload: %+v", env.gateway)
	}
	env.mu.Unlock()

	w, resp = env.do(t, http.MethodGet, "/cart", nil)
	_ = json.Unmarshal(resp.Data, &cart)
	if w.Code != http.StatusOK || len(cart.Packs) != 0 {
		t.Fatalf("expected empty cart after checkout, got %s", w.Body.String())
	}

	w, resp = env.do(t, http.MethodGet, "/orders", nil)
	var orders []map[string]interface{}
	_ = json.Unmarshal(resp.Data, &orders)
	if w.Code != http.StatusOK || len(orders) != 1 {
		t.Fatalf("expected one order, got %s", w.Body.String())
	}

	w, _ = env.do(t, http.MethodGet, fmt.Sprintf("/orders/%d", result.Order.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get order failed: %d", w.Code)
	}
	w, _ = env.do(t, http.MethodGet, "/orders/by-status/pending", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list by status failed: %d %s", w.Code, w.Body.String())
	}

	metricsReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mw := httptest.NewRecorder()
	env.engine.ServeHTTP(mw, metricsReq)
	if !strings.Contains(mw.Body.String(), `nextchow_checkout_attempts_total{result="success"} 1`) {
		t.Fatalf("expected checkout success metric, got:\n%s", mw.Body.String())
	}
}

func TestCheckoutGatewayFailureKeepsCartOverHTTP(t *testing.T) {
	env := setupRouterTest(t, "router_gateway_fail")
	if w, _ := env.do(t, http.MethodPost, "/cart/add-pack", env.scenarioPack()); w.Code != http.StatusOK {
		t.Fatalf("add-pack failed: %d", w.Code)
	}
	env.mu.Lock()
	env.failNext = true
	env.mu.Unlock()

	w, resp := env.do(t, http.MethodPost, "/cart/checkout", nil)
	if w.Code != http.StatusInternalServerError || resp.Success || resp.Error != "payment_initiation_failed" {
		t.Fatalf("expected payment_initiation_failed 500, got %d %s", w.Code, w.Body.String())
	}

	var cart struct {
		Packs []interface{} `json:"packs"`
	}
	_, resp = env.do(t, http.MethodGet, "/cart", nil)
	_ = json.Unmarshal(resp.Data, &cart)
	if len(cart.Packs) != 1 {
		t.Fatalf("cart must survive a failed checkout, got %s", string(resp.Data))
	}

	w, resp = env.do(t, http.MethodPost, "/cart/checkout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("retry checkout failed: %d %s", w.Code, w.Body.String())
	}
	var result struct {
		Resumed bool `json:"resumed"`
	}
	_ = json.Unmarshal(resp.Data, &result)
	if !result.Resumed {
		t.Fatalf("expected retry to resume the pending order")
	}
}

func TestCartErrorsOverHTTP(t *testing.T) {
	env := setupRouterTest(t, "router_cart_errors")

	w, resp := env.do(t, http.MethodPost, "/cart/checkout", nil)
	if w.Code != http.StatusBadRequest || resp.Error != "empty_cart" {
		t.Fatalf("expected empty_cart 400, got %d %s", w.Code, w.Body.String())
	}

	w, resp = env.do(t, http.MethodPost, "/cart/add-pack", gin.H{
		"items": []gin.H{{"menu_id": 99999, "quantity": 1}},
	})
	if w.Code != http.StatusBadRequest || resp.Error != "reference_not_found" || !strings.Contains(resp.Message, "99999") {
		t.Fatalf("expected reference_not_found naming the id, got %d %s", w.Code, w.Body.String())
	}

	w, resp = env.do(t, http.MethodDelete, "/cart/pack/0", nil)
	if w.Code != http.StatusNotFound || resp.Error != "cart_not_found" {
		t.Fatalf("expected cart_not_found 404, got %d %s", w.Code, w.Body.String())
	}

	if w, _ = env.do(t, http.MethodPost, "/cart/add-pack", env.scenarioPack()); w.Code != http.StatusOK {
		t.Fatalf("add-pack failed: %d", w.Code)
	}
	w, resp = env.do(t, http.MethodDelete, "/cart/pack/5", nil)
	if w.Code != http.StatusBadRequest || resp.Error != "index_out_of_range" {
		t.Fatalf("expected index_out_of_range 400, got %d %s", w.Code, w.Body.String())
	}
	w, resp = env.do(t, http.MethodDelete, "/cart/pack/abc", nil)
	if w.Code != http.StatusBadRequest || resp.Error != "index_out_of_range" {
		t.Fatalf("expected index_out_of_range 400 for non-integer, got %d %s", w.Code, w.Body.String())
	}
	w, _ = env.do(t, http.MethodDelete, "/cart/pack/0", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove pack failed: %d", w.Code)
	}
}

func TestCartCapacityOverHTTP(t *testing.T) {
	env := setupRouterTest(t, "router_capacity")
	for i := 0; i < constants.DefaultMaxCartPacks; i++ {
		if w, _ := env.do(t, http.MethodPost, "/cart/add-pack", env.scenarioPack()); w.Code != http.StatusOK {
			t.Fatalf("add-pack %d failed: %d", i, w.Code)
		}
	}
	w, resp := env.do(t, http.MethodPost, "/cart/add-pack", env.scenarioPack())
	if w.Code != http.StatusBadRequest || resp.Error != "capacity_exceeded" {
		t.Fatalf("expected capacity_exceeded 400, got %d %s", w.Code, w.Body.String())
	}
}

func TestAuthAndPublicRoutes(t *testing.T) {
	env := setupRouterTest(t, "router_auth")

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/vendors/%d/menus", env.menuA.VendorID), nil)
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Jollof Rice") {
		t.Fatalf("expected vendor menus, got %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/vendors/99999/menus", nil)
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown vendor, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected healthy, got %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/payments/webhook/paystack", strings.NewReader(`{"event":"charge.success"}`))
	req.Header.Set("X-Paystack-Signature", "deadbeef")
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "webhook_signature_invalid") {
		t.Fatalf("expected signature rejection, got %d %s", w.Code, w.Body.String())
	}
}

func TestVendorOrderStatusOverHTTP(t *testing.T) {
	env := setupRouterTest(t, "router_vendor_status")

	if w, _ := env.do(t, http.MethodPost, "/cart/add-pack", env.scenarioPack()); w.Code != http.StatusOK {
		t.Fatalf("add-pack failed: %d %s", w.Code, w.Body.String())
	}
	w, resp := env.do(t, http.MethodPost, "/cart/checkout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("checkout failed: %d %s", w.Code, w.Body.String())
	}
	var result struct {
		Order struct {
			ID uint `json:"id"`
		} `json:"order"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil || result.Order.ID == 0 {
		t.Fatalf("decode checkout result failed: %v %s", err, string(resp.Data))
	}
	path := fmt.Sprintf("/vendor/orders/%d/status", result.Order.ID)

	// 顾客 Token 不能访问商家接口
	if w, _ := env.do(t, http.MethodPatch, path, gin.H{"status": "Preparing"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for customer token, got %d %s", w.Code, w.Body.String())
	}

	vendorToken, _, err := env.container.VendorAuthService.GenerateVendorJWT(&env.vendor, time.Hour)
	if err != nil {
		t.Fatalf("generate vendor token failed: %v", err)
	}
	w, resp = env.doWithToken(t, vendorToken, http.MethodPatch, path, gin.H{"status": "Delivered"})
	if w.Code != http.StatusBadRequest || resp.Error != "order_status_invalid" {
		t.Fatalf("expected pending -> delivered rejection, got %d %s", w.Code, w.Body.String())
	}
	w, resp = env.doWithToken(t, vendorToken, http.MethodPatch, path, gin.H{"status": "preparing"})
	if w.Code != http.StatusOK {
		t.Fatalf("vendor status update failed: %d %s", w.Code, w.Body.String())
	}
	var order struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(resp.Data, &order)
	if order.Status != constants.OrderStatusPreparing {
		t.Fatalf("expected Preparing, got %s", string(resp.Data))
	}

	other := models.VendorProfile{StoreName: "Buka Hut", Location: models.NewGeoPoint(7.3, 8.9)}
	if err := env.container.DB.Create(&other).Error; err != nil {
		t.Fatalf("create vendor failed: %v", err)
	}
	otherToken, _, err := env.container.VendorAuthService.GenerateVendorJWT(&other, time.Hour)
	if err != nil {
		t.Fatalf("generate vendor token failed: %v", err)
	}
	if w, _ := env.doWithToken(t, otherToken, http.MethodPatch, path, gin.H{"status": "Ready"}); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another vendor, got %d %s", w.Code, w.Body.String())
	}
}

func TestMultiVendorCartIsBadRequestOverHTTP(t *testing.T) {
	env := setupRouterTest(t, "router_multi_vendor")

	other := models.VendorProfile{StoreName: "Suya Spot", Location: models.NewGeoPoint(7.3, 8.9)}
	if err := env.container.DB.Create(&other).Error; err != nil {
		t.Fatalf("create vendor failed: %v", err)
	}
	suya := models.Menu{VendorID: other.ID, Name: "Suya", Price: models.NewMoney(700), IsAvailable: true}
	if err := env.container.DB.Create(&suya).Error; err != nil {
		t.Fatalf("create menu failed: %v", err)
	}

	if w, _ := env.do(t, http.MethodPost, "/cart/add-pack", env.scenarioPack()); w.Code != http.StatusOK {
		t.Fatalf("add-pack failed: %d %s", w.Code, w.Body.String())
	}
	w, resp := env.do(t, http.MethodPost, "/cart/add-pack", gin.H{
		"items": []gin.H{{"menu_id": suya.ID, "quantity": 1}},
	})
	if w.Code != http.StatusBadRequest || resp.Error != "multi_vendor_cart_unsupported" {
		t.Fatalf("expected multi_vendor_cart_unsupported 400, got %d %s", w.Code, w.Body.String())
	}
}
