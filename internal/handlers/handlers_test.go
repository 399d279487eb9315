package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
	"github.com/developia-II/storefront-backend/internal/adapters/repository/memory"
	"github.com/developia-II/storefront-backend/internal/models"
	"github.com/developia-II/storefront-backend/internal/notify"
	"github.com/developia-II/storefront-backend/internal/services/aggregation"
	"github.com/developia-II/storefront-backend/internal/services/catalog"
	"github.com/developia-II/storefront-backend/internal/services/discount"
	"github.com/developia-II/storefront-backend/internal/services/ordering"
	"github.com/developia-II/storefront-backend/internal/services/reviews"
	"github.com/developia-II/storefront-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

type fakeUploader struct {
	err  error
	name string
}

func (f *fakeUploader) Upload(_ context.Context, file io.Reader, filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	f.name = filename
	return "https://res.cloudinary.com/demo/" + filename, nil
}

type harness struct {
	router   *gin.Engine
	repos    repository.Set
	svc      *Services
	uploader *fakeUploader
	admin    string
	customer string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()

	repos := memory.NewSet(memory.NewStore())
	coupons := discount.NewService(repos.Coupons, log, "EGP")
	ratings := aggregation.NewRatingService(repos.Reviews, repos.Products, log)
	uploader := &fakeUploader{}
	svc := &Services{
		Catalog:   catalog.NewService(repos.Documents, log),
		Coupons:   coupons,
		Orders:    ordering.NewService(repos, coupons, &notify.LogNotifier{Log: log}, ordering.Config{AdminEmail: "admin@example.com", Currency: "EGP"}, log),
		Reports:   aggregation.NewReportService(repos.Orders, repos.Contacts, aggregation.GroupByEmailThenPhone),
		Reviews:   reviews.NewService(repos.Reviews, repos.Products, ratings, log),
		Uploader:  uploader,
		JWTSecret: testSecret,
		Log:       log,
	}

	router := gin.New()
	SetupRoutes(router, svc)

	admin, err := utils.GenerateToken(primitive.NewObjectID().Hex(), "admin", testSecret, time.Hour)
	require.NoError(t, err)
	customer, err := utils.GenerateToken(primitive.NewObjectID().Hex(), "customer", testSecret, time.Hour)
	require.NoError(t, err)

	t.Cleanup(func() {
		svc.Orders.Wait()
		svc.Reviews.Wait()
	})
	return &harness{router: router, repos: repos, svc: svc, uploader: uploader, admin: admin, customer: customer}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func (h *harness) seedProduct(t *testing.T, doc bson.M) primitive.ObjectID {
	t.Helper()
	created, err := h.repos.Documents.Insert(context.Background(), models.CollectionProducts, doc)
	require.NoError(t, err)
	return created["_id"].(primitive.ObjectID)
}

func TestListProducts_Envelope(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 5; i++ {
		h.seedProduct(t, bson.M{"title_en": "Chair", "price": float64(100 * (i + 1)), "status": "active"})
	}
	h.seedProduct(t, bson.M{"title_en": "Table", "price": 50.0, "status": "draft"})

	w, body := h.do(t, http.MethodGet, "/api/v1/products?status=active&price[gte]=200&sort=price&limit=3&fields=title_en,price", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, 3.0, body["count"])
	assert.Equal(t, 4.0, body["total"])
	assert.Equal(t, map[string]any{"page": 1.0, "limit": 3.0}, body["pagination"])

	data := body["data"].([]any)
	require.Len(t, data, 3)
	first := data[0].(map[string]any)
	assert.Equal(t, 200.0, first["price"])
	assert.NotContains(t, first, "status")
	assert.Contains(t, first, "_id")
}

func TestListProducts_InvalidFilter(t *testing.T) {
	h := newHarness(t)
	w, body := h.do(t, http.MethodGet, "/api/v1/products?price[between]=1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILTER", body["code"])
}

func TestGetRecord(t *testing.T) {
	h := newHarness(t)
	id := h.seedProduct(t, bson.M{"title_en": "Lamp"})

	w, body := h.do(t, http.MethodGet, "/api/v1/products/"+id.Hex(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lamp", body["data"].(map[string]any)["title_en"])

	w, _ = h.do(t, http.MethodGet, "/api/v1/products/"+primitive.NewObjectID().Hex(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = h.do(t, http.MethodGet, "/api/v1/products/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", body["code"])
}

func TestAdminCRUD_RequiresAdmin(t *testing.T) {
	h := newHarness(t)
	payload := map[string]any{"name_en": "Acme", "featured": true}

	w, _ := h.do(t, http.MethodPost, "/api/v1/admin/clients", "", payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = h.do(t, http.MethodPost, "/api/v1/admin/clients", h.customer, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := h.do(t, http.MethodPost, "/api/v1/admin/clients", h.admin, payload)
	require.Equal(t, http.StatusCreated, w.Code)
	id := body["data"].(map[string]any)["_id"].(string)

	w, body = h.do(t, http.MethodPut, "/api/v1/admin/clients/"+id, h.admin, map[string]any{"name_en": "Acme Ltd"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Acme Ltd", body["data"].(map[string]any)["name_en"])

	w, body = h.do(t, http.MethodGet, "/api/v1/clients?featured=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["total"])

	w, _ = h.do(t, http.MethodDelete, "/api/v1/admin/clients/"+id, h.admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(t, http.MethodDelete, "/api/v1/admin/clients/"+id, h.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func createCoupon(t *testing.T, h *harness, code string, extra map[string]any) {
	t.Helper()
	payload := map[string]any{
		"code":          code,
		"discountType":  "percentage",
		"discountValue": 20,
		"validFrom":     time.Now().Add(-24 * time.Hour).Format(time.RFC3339),
		"validUntil":    time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}
	for k, v := range extra {
		payload[k] = v
	}
	w, body := h.do(t, http.MethodPost, "/api/v1/admin/coupons", h.admin, payload)
	require.Equal(t, http.StatusCreated, w.Code, body)
}

func TestCoupons_ValidateAndApply(t *testing.T) {
	h := newHarness(t)
	createCoupon(t, h, "save20", map[string]any{"maxDiscount": 100, "minOrderAmount": 200, "usageLimit": 1})

	w, body := h.do(t, http.MethodPost, "/api/v1/coupons/validate", "", map[string]any{"code": "SAVE20", "orderTotal": 300})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"valid": true, "discount": 60.0}, body["data"])

	w, body = h.do(t, http.MethodPost, "/api/v1/coupons/validate", "", map[string]any{"code": "save20", "orderTotal": 150})
	require.Equal(t, http.StatusOK, w.Code)
	result := body["data"].(map[string]any)
	assert.Equal(t, false, result["valid"])
	assert.Contains(t, result["reason"], "200")

	w, body = h.do(t, http.MethodPost, "/api/v1/coupons/validate", "", map[string]any{"code": "NOPE", "orderTotal": 150})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "COUPON_NOT_FOUND", body["code"])

	w, body = h.do(t, http.MethodPost, "/api/v1/coupons/apply", "", map[string]any{"code": "SAVE20"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["data"].(map[string]any)["newUsedCount"])

	w, body = h.do(t, http.MethodPost, "/api/v1/coupons/apply", "", map[string]any{"code": "SAVE20"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "COUPON_USAGE_EXHAUSTED", body["code"])
	assert.Equal(t, false, body["data"].(map[string]any)["ok"])

	w, _ = h.do(t, http.MethodPost, "/api/v1/admin/coupons", h.admin, map[string]any{
		"code": "SAVE20", "discountType": "fixed", "discountValue": 5,
		"validFrom": time.Now().Format(time.RFC3339), "validUntil": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func orderPayload(coupon string) map[string]any {
	return map[string]any{
		"customer": map[string]any{"name": "Sara", "email": "sara@example.com", "phone": "0100"},
		"items": []map[string]any{
			{"name": "Chair", "price": 150, "quantity": 2},
			{"name": "Lamp", "price": 150, "quantity": 1},
		},
		"shippingCost": 30,
		"couponCode":   coupon,
	}
}

func TestOrders_PlaceAndReport(t *testing.T) {
	h := newHarness(t)
	createCoupon(t, h, "SAVE20", nil)

	w, body := h.do(t, http.MethodPost, "/api/v1/orders", "", orderPayload(""))
	require.Equal(t, http.StatusCreated, w.Code, body)
	order := body["data"].(map[string]any)
	assert.True(t, strings.HasPrefix(order["orderNumber"].(string), "ORD-"))
	assert.Equal(t, 450.0, order["subtotal"])
	assert.Equal(t, 480.0, order["total"])
	assert.Equal(t, "pending", order["status"])

	w, body = h.do(t, http.MethodPost, "/api/v1/orders", "", orderPayload("save20"))
	require.Equal(t, http.StatusCreated, w.Code, body)
	assert.Equal(t, 90.0, body["data"].(map[string]any)["discount"])
	assert.Equal(t, 390.0, body["data"].(map[string]any)["total"])
	secondID := body["data"].(map[string]any)["id"].(string)

	w, body = h.do(t, http.MethodPost, "/api/v1/orders", "", map[string]any{"customer": map[string]any{"name": "x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ORDER", body["code"])

	w, body = h.do(t, http.MethodPut, "/api/v1/admin/orders/"+secondID, h.admin, map[string]any{"status": "delivered"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "delivered", body["data"].(map[string]any)["status"])

	w, body = h.do(t, http.MethodGet, "/api/v1/admin/orders/stats", h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := body["data"].([]any)
	require.Len(t, stats, 2)
	assert.Equal(t, "delivered", stats[0].(map[string]any)["status"])
	assert.Equal(t, 390.0, stats[0].(map[string]any)["total"])

	w, body = h.do(t, http.MethodGet, "/api/v1/admin/orders/customers", h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	customers := body["data"].([]any)
	require.Len(t, customers, 1)
	assert.Equal(t, 2.0, customers[0].(map[string]any)["orderCount"])
	assert.Equal(t, 870.0, customers[0].(map[string]any)["totalSpent"])

	w, body = h.do(t, http.MethodGet, "/api/v1/admin/orders?status=pending", h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["total"])
}

func TestOrders_GuestDiscountIgnored(t *testing.T) {
	h := newHarness(t)

	payload := orderPayload("")
	payload["discount"] = 480
	w, body := h.do(t, http.MethodPost, "/api/v1/orders", "", payload)
	require.Equal(t, http.StatusCreated, w.Code, body)
	order := body["data"].(map[string]any)
	assert.Equal(t, 450.0, order["subtotal"])
	assert.Equal(t, 480.0, order["total"])
	assert.Empty(t, order["couponCode"])
}

func TestContactRequests(t *testing.T) {
	h := newHarness(t)

	w, body := h.do(t, http.MethodPost, "/api/v1/contact", "", map[string]any{
		"type": "quotation", "name": "Omar", "email": "omar@example.com", "message": "Need 20 desks",
	})
	require.Equal(t, http.StatusCreated, w.Code, body)
	req := body["data"].(map[string]any)
	assert.True(t, strings.HasPrefix(req["requestNumber"].(string), "REQ-"))
	assert.Equal(t, "new", req["status"])
	id := req["id"].(string)

	w, _ = h.do(t, http.MethodPut, "/api/v1/admin/contact-requests/"+id+"/status", h.admin, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = h.do(t, http.MethodPut, "/api/v1/admin/contact-requests/"+id+"/status", h.admin, map[string]any{"status": "replied"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "replied", body["data"].(map[string]any)["status"])

	w, body = h.do(t, http.MethodGet, "/api/v1/admin/contact-requests/stats", h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{map[string]any{"status": "replied", "count": 1.0}}, body["data"])
}

func TestReviews_RollupThroughHTTP(t *testing.T) {
	h := newHarness(t)
	productID := h.seedProduct(t, bson.M{"title_en": "Sofa"})
	payload := map[string]any{"product": productID.Hex(), "rating": 4, "comment": "Comfy", "name": "Sara"}

	w, _ := h.do(t, http.MethodPost, "/api/v1/reviews", "", payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := h.do(t, http.MethodPost, "/api/v1/reviews", h.customer, payload)
	require.Equal(t, http.StatusCreated, w.Code, body)
	reviewID := body["data"].(map[string]any)["id"].(string)

	w, _ = h.do(t, http.MethodPost, "/api/v1/reviews", h.customer, payload)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = h.do(t, http.MethodPost, "/api/v1/reviews", h.admin, map[string]any{"product": productID.Hex(), "rating": 2})
	require.Equal(t, http.StatusCreated, w.Code)
	h.svc.Reviews.Wait()

	w, body = h.do(t, http.MethodGet, "/api/v1/products/"+productID.Hex(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	product := body["data"].(map[string]any)
	assert.Equal(t, 2.0, product["ratingsQuantity"])
	assert.Equal(t, 3.0, product["ratingsAverage"])

	w, body = h.do(t, http.MethodGet, "/api/v1/products/"+productID.Hex()+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"], 2)

	w, _ = h.do(t, http.MethodDelete, "/api/v1/reviews/"+reviewID, h.customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	h.svc.Reviews.Wait()

	p, err := h.repos.Products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.RatingsQuantity)
	assert.Equal(t, 2.0, p.RatingsAverage)
}

func multipartImage(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	h := newHarness(t)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	upload := func(filename string, content []byte) *httptest.ResponseRecorder {
		body, contentType := multipartImage(t, filename, content)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+h.admin)
		w := httptest.NewRecorder()
		h.router.ServeHTTP(w, req)
		return w
	}

	w := upload("sofa.png", png)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "https://res.cloudinary.com/demo/sofa.png")
	assert.Contains(t, w.Body.String(), "image/png")

	w = upload("notes.png", []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	h.uploader.err = errors.New("cloudinary down")
	w = upload("sofa.png", png)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRoutesWithoutStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
