// internal/interfaces/http/handlers/upload.go
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// UploadHandler accepts product image uploads
type UploadHandler struct {
	products *catalog.ProductService
	maxSize  int64
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(products *catalog.ProductService, maxSize int64) *UploadHandler {
	return &UploadHandler{products: products, maxSize: maxSize}
}

// UploadProductImage handles POST /admin/products/:id/images with a multipart "image" field
func (h *UploadHandler) UploadProductImage(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		respondError(c, apperror.Validation("no image file provided"))
		return
	}
	defer file.Close()

	if h.maxSize > 0 && header.Size > h.maxSize {
		respondError(c, apperror.Validation("image exceeds size limit"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, apperror.Wrap(apperror.CodeValidation, err, "failed to read image"))
		return
	}

	image, err := h.products.AddProductImage(c.Request.Context(), productID, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Image uploaded successfully", image)
}
