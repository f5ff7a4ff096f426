// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

// Handlers groups every HTTP handler the API mounts
type Handlers struct {
	Auth      *handlers.AuthHandler
	Addresses *handlers.AddressHandler
	Users     *handlers.UserAdminHandler
	Products  *handlers.ProductHandler
	Uploads   *handlers.UploadHandler
	Category  *handlers.CategoryHandler
	Offers    *handlers.OfferHandler
	Coupons   *handlers.CouponHandler
	Cart      *handlers.CartHandler
	Checkout  *handlers.CheckoutHandler
	Orders    *handlers.OrderHandler
	Payments  *handlers.PaymentHandler
	Wallet    *handlers.WalletHandler
	Wishlist  *handlers.WishlistHandler
	Reports   *handlers.ReportHandler
}

// SetupRoutes mounts the public, customer and admin groups on rg
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, tokens *auth.JWTManager) {
	requireAuth := middleware.AuthMiddleware(tokens)

	SetupAuthRoutes(rg, h, requireAuth)
	SetupCatalogRoutes(rg, h)

	user := rg.Group("")
	user.Use(requireAuth)
	SetupUserRoutes(user, h)

	admin := rg.Group("/admin")
	admin.Use(requireAuth, middleware.AdminMiddleware())
	SetupAdminRoutes(admin, h)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, h *Handlers, requireAuth gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.RefreshToken)

		protected := authGroup.Group("")
		protected.Use(requireAuth)
		{
			protected.GET("/profile", h.Auth.GetProfile)
			protected.PUT("/profile", h.Auth.UpdateProfile)
			protected.PUT("/password", h.Auth.ChangePassword)
		}
	}
}

// SetupCatalogRoutes sets up the public catalog
func SetupCatalogRoutes(rg *gin.RouterGroup, h *Handlers) {
	products := rg.Group("/products")
	{
		products.GET("", h.Products.ListProducts)
		products.GET("/:id", h.Products.GetProduct)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", h.Category.ListCategories)
		categories.GET("/:id", h.Category.GetCategory)
		categories.GET("/:id/products", h.Products.ListCategoryProducts)
	}
}

// SetupUserRoutes sets up routes for signed-in customers
func SetupUserRoutes(rg *gin.RouterGroup, h *Handlers) {
	addresses := rg.Group("/addresses")
	{
		addresses.GET("", h.Addresses.ListAddresses)
		addresses.POST("", h.Addresses.CreateAddress)
		addresses.GET("/:id", h.Addresses.GetAddress)
		addresses.PUT("/:id", h.Addresses.UpdateAddress)
		addresses.DELETE("/:id", h.Addresses.DeleteAddress)
		addresses.PUT("/:id/default", h.Addresses.SetDefaultAddress)
	}

	cartGroup := rg.Group("/cart")
	{
		cartGroup.GET("", h.Cart.GetCart)
		cartGroup.POST("/items", h.Cart.AddToCart)
		cartGroup.PUT("/items/:id", h.Cart.UpdateCartItem)
		cartGroup.DELETE("/items/:id", h.Cart.RemoveCartItem)
		cartGroup.POST("/coupon", h.Cart.ApplyCoupon)
		cartGroup.DELETE("/coupon", h.Cart.RemoveCoupon)
		cartGroup.GET("/validate", h.Cart.ValidateCart)
	}

	rg.GET("/coupons/available", h.Coupons.ListAvailable)

	checkoutGroup := rg.Group("/checkout")
	{
		checkoutGroup.GET("", h.Checkout.GetSummary)
		checkoutGroup.POST("", h.Checkout.PlaceOrder)
	}

	orders := rg.Group("/orders")
	{
		orders.GET("", h.Orders.ListOrders)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.POST("/:id/cancel", h.Orders.CancelOrder)
		orders.POST("/:id/items/:itemId/cancel", h.Orders.CancelOrderItem)
		orders.POST("/:id/return", h.Orders.RequestReturn)
	}

	payments := rg.Group("/payments")
	{
		payments.POST("/verify", h.Payments.VerifyPayment)
		payments.POST("/:orderId/retry", h.Payments.RetryPayment)
		payments.POST("/:orderId/failure", h.Payments.ReportFailure)
	}

	walletGroup := rg.Group("/wallet")
	{
		walletGroup.GET("", h.Wallet.GetWallet)
		walletGroup.GET("/transactions", h.Wallet.ListTransactions)
		walletGroup.POST("/topup", h.Wallet.CreateTopUp)
		walletGroup.POST("/topup/verify", h.Wallet.VerifyTopUp)
	}

	wishlistGroup := rg.Group("/wishlist")
	{
		wishlistGroup.GET("", h.Wishlist.GetWishlist)
		wishlistGroup.POST("", h.Wishlist.AddToWishlist)
		wishlistGroup.GET("/:productId", h.Wishlist.CheckWishlist)
		wishlistGroup.DELETE("/:productId", h.Wishlist.RemoveFromWishlist)
		wishlistGroup.POST("/:productId/move-to-cart", h.Wishlist.MoveToCart)
	}
}

// SetupAdminRoutes sets up admin routes; rg already requires an admin token
func SetupAdminRoutes(rg *gin.RouterGroup, h *Handlers) {
	products := rg.Group("/products")
	{
		products.GET("", h.Products.AdminListProducts)
		products.POST("", h.Products.CreateProduct)
		products.GET("/:id", h.Products.AdminGetProduct)
		products.PUT("/:id", h.Products.UpdateProduct)
		products.PATCH("/:id/listing", h.Products.SetListing)
		products.DELETE("/:id", h.Products.DeleteProduct)
		products.POST("/:id/images", h.Uploads.UploadProductImage)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", h.Category.ListCategories)
		categories.POST("", h.Category.CreateCategory)
		categories.GET("/:id", h.Category.GetCategory)
		categories.PUT("/:id", h.Category.UpdateCategory)
		categories.PATCH("/:id/status", h.Category.SetActive)
		categories.DELETE("/:id", h.Category.DeleteCategory)
	}

	offers := rg.Group("/offers")
	{
		offers.GET("", h.Offers.ListOffers)
		offers.POST("", h.Offers.CreateOffer)
		offers.GET("/:id", h.Offers.GetOffer)
		offers.PUT("/:id", h.Offers.UpdateOffer)
		offers.DELETE("/:id", h.Offers.DeleteOffer)
	}

	coupons := rg.Group("/coupons")
	{
		coupons.GET("", h.Coupons.ListCoupons)
		coupons.POST("", h.Coupons.CreateCoupon)
		coupons.GET("/:id", h.Coupons.GetCoupon)
		coupons.PUT("/:id", h.Coupons.UpdateCoupon)
		coupons.DELETE("/:id", h.Coupons.DeleteCoupon)
	}

	orders := rg.Group("/orders")
	{
		orders.GET("", h.Orders.AdminListOrders)
		orders.GET("/:id", h.Orders.AdminGetOrder)
		orders.PUT("/:id/status", h.Orders.UpdateOrderStatus)
		orders.POST("/:id/return", h.Orders.HandleReturn)
	}

	users := rg.Group("/users")
	{
		users.GET("", h.Users.ListUsers)
		users.PUT("/:id/status", h.Users.UpdateUserStatus)
	}

	reports := rg.Group("/reports")
	{
		reports.GET("/sales", h.Reports.SalesReport)
		reports.GET("/dashboard", h.Reports.Dashboard)
	}
}
