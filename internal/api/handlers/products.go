package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/internal/repository"
)

// ProductResponse represents a catalog product
type ProductResponse struct {
	ID                     string   `json:"id"`
	Title                  string   `json:"title"`
	Images                 []string `json:"images"`
	Price                  string   `json:"price"`
	DiscountPrice          *string  `json:"discount_price,omitempty"`
	WholesalePrice         *string  `json:"wholesale_price,omitempty"`
	SalePrice              string   `json:"sale_price"`
	Quantity               string   `json:"quantity"`
	UnitsPerCarton         *int     `json:"units_per_carton,omitempty"`
	WholesaleOrderQuantity *string  `json:"wholesale_order_quantity,omitempty"`
	InStock                bool     `json:"in_stock"`
}

func productResponse(p *domain.Product) ProductResponse {
	resp := ProductResponse{
		ID:                     p.ID.String(),
		Title:                  p.Title,
		Images:                 p.Images,
		Price:                  p.Price.StringFixed(2),
		SalePrice:              p.RegularSalePrice().StringFixed(2),
		Quantity:               p.Quantity,
		UnitsPerCarton:         p.UnitsPerCarton,
		WholesaleOrderQuantity: p.WholesaleOrderQuantity,
		InStock:                p.InStock,
	}
	if p.DiscountPrice != nil {
		discount := p.DiscountPrice.StringFixed(2)
		resp.DiscountPrice = &discount
	}
	if p.WholesalePrice != nil {
		wholesale := p.WholesalePrice.StringFixed(2)
		resp.WholesalePrice = &wholesale
	}
	return resp
}

// HandleListProducts handles GET /v1/products
func HandleListProducts(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := parsePaging(c)

		products, err := repos.Products.List(c.Request.Context(), limit, offset)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		responses := make([]ProductResponse, len(products))
		for i, p := range products {
			responses[i] = productResponse(p)
		}

		c.JSON(http.StatusOK, gin.H{
			"products": responses,
			"limit":    limit,
			"offset":   offset,
		})
	}
}

// HandleGetProduct handles GET /v1/products/:id
func HandleGetProduct(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		product, err := repos.Products.GetByID(c.Request.Context(), productID)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, productResponse(product))
	}
}
