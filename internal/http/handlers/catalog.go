package handlers

import (
	"net/http"
	"strconv"

	"storebot/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

func (h *Handler) ListCategories(c *gin.Context) {
	cats, err := h.Engine.Catalog().ListCategories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var cat domain.Category
	if err := c.BindJSON(&cat); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if cat.Name == "" || cat.DisplayName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and display_name are required"})
		return
	}
	if err := h.Engine.Catalog().CreateCategory(c.Request.Context(), &cat); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": cat})
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}
	var cat domain.Category
	if err := c.BindJSON(&cat); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	cat.ID = id
	if err := h.Engine.Catalog().UpdateCategory(c.Request.Context(), &cat); err != nil {
		if err == pgx.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

func (h *Handler) ListProducts(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Query("category_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category_id is required"})
		return
	}
	products, err := h.Engine.Catalog().ListProducts(c.Request.Context(), categoryID, false)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var p domain.Product
	if err := c.BindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	switch p.Kind {
	case domain.KindService, domain.KindGame, domain.KindSubscription:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be service, game or subscription"})
		return
	}
	if p.MinUnits < 1 {
		p.MinUnits = 1
	}
	if err := h.Engine.Catalog().CreateProduct(c.Request.Context(), &p); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": p})
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	var p domain.Product
	if err := c.BindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	p.ID = id
	if err := h.Engine.Catalog().UpdateProduct(c.Request.Context(), &p); err != nil {
		if err == pgx.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *Handler) ListVariants(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Query("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}
	variants, err := h.Engine.Catalog().ListVariants(c.Request.Context(), productID, false)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variants": variants})
}

func (h *Handler) CreateVariant(c *gin.Context) {
	var v domain.Variant
	if err := c.BindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if v.ProductID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}
	if err := h.Engine.Catalog().CreateVariant(c.Request.Context(), &v); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"variant": v})
}

func (h *Handler) DeleteVariant(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid variant id"})
		return
	}
	if err := h.Engine.Catalog().DeleteVariant(c.Request.Context(), id); err != nil {
		if err == pgx.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
