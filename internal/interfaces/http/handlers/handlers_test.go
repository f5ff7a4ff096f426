package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/report"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/domain/wallet"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/dbtest"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type apiFixture struct {
	db     *gorm.DB
	engine *gin.Engine
	tokens *auth.JWTManager
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	models := append(user.Models(), catalog.Models()...)
	models = append(models, cart.Models()...)
	models = append(models, &coupon.Coupon{})
	models = append(models, wallet.Models()...)
	models = append(models, order.Models()...)
	db := dbtest.Open(t, models...)
	log := logger.Discard()

	tokens := auth.NewJWTManager(config.JWTConfig{
		Secret:             "0123456789abcdef0123456789abcdef",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
	}, "storefront")

	authHandler := NewAuthHandler(user.NewService(db, log, auth.NewPasswordManager(bcrypt.MinCost), tokens))
	carts := cart.NewService(db, log, nil, 5)
	cartHandler := NewCartHandler(carts)
	orderHandler := NewOrderHandler(order.NewService(db, log, nil, wallet.NewService(db, log, nil), carts, order.CountSequencer{}, config.StoreConfig{}))
	reportHandler := NewReportHandler(report.NewService(db, log))

	r := gin.New()
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)
	protected := r.Group("", middleware.AuthMiddleware(tokens))
	protected.GET("/auth/profile", authHandler.GetProfile)
	protected.POST("/cart/items", cartHandler.AddToCart)
	protected.GET("/reports/sales", reportHandler.SalesReport)
	protected.PUT("/admin/orders/:id/status", orderHandler.UpdateOrderStatus)

	return &apiFixture{db: db, engine: r, tokens: tokens}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *middleware.ErrorBody `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRegisterLoginAndProfile(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email":            "kavya@example.com",
		"password":         "tailor42",
		"confirm_password": "tailor42",
		"first_name":       "Kavya",
		"last_name":        "Iyer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email":            "kavya@example.com",
		"password":         "tailor42",
		"confirm_password": "tailor42",
		"first_name":       "Kavya",
		"last_name":        "Iyer",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "kavya@example.com", "password": "wrong-pass1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "kavya@example.com", "password": "tailor42"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &login))
	require.NotEmpty(t, login.AccessToken)

	w = f.do(t, http.MethodGet, "/auth/profile", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile user.User
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &profile))
	assert.Equal(t, "kavya@example.com", profile.Email)
}

func TestAddToCartValidationAndStockErrors(t *testing.T) {
	f := newAPIFixture(t)

	u := user.User{Email: "dev@example.com", Password: "hash", IsActive: true}
	require.NoError(t, f.db.Create(&u).Error)
	category := catalog.Category{Name: "Shirts", NormalizedName: "shirts", IsActive: true}
	require.NoError(t, f.db.Create(&category).Error)
	p := catalog.Product{
		Name:          "Oxford Shirt",
		CategoryID:    category.ID,
		OriginalPrice: 1200,
		SalePrice:     1200,
		IsListed:      true,
		Variants:      []catalog.Variant{{Size: "M", Stock: 2}},
	}
	require.NoError(t, f.db.Create(&p).Error)

	pair, err := f.tokens.IssuePair(u.ID, u.Email, false)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/cart/items", pair.AccessToken, gin.H{"product_id": p.ID, "size": "   ", "quantity": 1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperror.CodeValidation, env.Error.Code)
	assert.NotEmpty(t, env.Error.Details)

	w = f.do(t, http.MethodPost, "/cart/items", pair.AccessToken, gin.H{"product_id": p.ID, "size": "M", "quantity": 3})
	require.Equal(t, http.StatusBadRequest, w.Code)
	env = decode(t, w)
	assert.Equal(t, apperror.CodeInsufficientStock, env.Error.Code)
	assert.Equal(t, apperror.ReasonOutOfStock, env.Error.Reason)

	w = f.do(t, http.MethodPost, "/cart/items", pair.AccessToken, gin.H{"product_id": p.ID, "size": "M", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got cart.Cart
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, int64(2400), got.TotalAmount)
	assert.Equal(t, int64(2400), got.FinalAmount)

	w = f.do(t, http.MethodPost, "/cart/items", "", gin.H{"product_id": p.ID, "size": "M", "quantity": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSalesReportRejectsBadDates(t *testing.T) {
	f := newAPIFixture(t)
	pair, err := f.tokens.IssuePair(1, "root@example.com", true)
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/reports/sales?from=01-02-2026", pair.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/reports/sales?from=2026-03-10&to=2026-03-01", pair.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrderStatusReportsInvalidTransition(t *testing.T) {
	f := newAPIFixture(t)
	pair, err := f.tokens.IssuePair(1, "root@example.com", true)
	require.NoError(t, err)

	o := order.Order{
		OrderCode:     "ORD2603050001",
		UserID:        7,
		AddressID:     1,
		PaymentMethod: order.PaymentMethodCOD,
		PaymentStatus: order.PaymentStatusPending,
		Status:        order.OrderStatusShipped,
		TotalAmount:   300,
		AmountPaid:    300,
		RefundStatus:  order.RefundStatusNotApplicable,
	}
	require.NoError(t, f.db.Create(&o).Error)
	path := "/admin/orders/" + fmt.Sprint(o.ID) + "/status"

	w := f.do(t, http.MethodPut, path, pair.AccessToken, gin.H{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperror.CodeStateConflict, env.Error.Code)
	assert.Equal(t, apperror.ReasonInvalidTransition, env.Error.Reason)

	w = f.do(t, http.MethodPut, path, pair.AccessToken, gin.H{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, decode(t, w).Error.Code)

	w = f.do(t, http.MethodPut, path, pair.AccessToken, gin.H{"status": "delivered"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCustomValidators(t *testing.T) {
	type sample struct {
		Method string `binding:"payment_method"`
		Code   string `binding:"coupon_code"`
		Size   string `binding:"size"`
	}

	valid := []sample{
		{Method: "cod", Code: "SAVE20", Size: "XL"},
		{Method: "wallet", Code: "welcome10", Size: "32"},
	}
	for _, p := range valid {
		assert.NoError(t, binding.Validator.ValidateStruct(p), "%+v", p)
	}

	invalid := []sample{
		{Method: "card", Code: "SAVE20", Size: "M"},
		{Method: "online", Code: "AB", Size: "M"},
		{Method: "online", Code: "SAVE-20", Size: "M"},
		{Method: "online", Code: "SAVE20", Size: "EXTRA-LARGE"},
	}
	for _, p := range invalid {
		assert.Error(t, binding.Validator.ValidateStruct(p), "%+v", p)
	}
}
