package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/traceleaf/dpp-backend/internal/dpp"
	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/services"
)

type ProductHandler struct {
	log            *logger.Logger
	productService services.ProductService
}

func NewProductHandler(log *logger.Logger, productService services.ProductService) *ProductHandler {
	return &ProductHandler{
		log:            log.With("handler", "ProductHandler"),
		productService: productService,
	}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req services.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, product)
}

func (h *ProductHandler) Get(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	product, err := h.productService.GetByID(c.Request.Context(), productID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, product)
}

func (h *ProductHandler) List(c *gin.Context) {
	status := dpp.Status(c.Query("status"))
	products, err := h.productService.List(c.Request.Context(), status)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"products": products})
}

func (h *ProductHandler) Update(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	var req services.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	product, err := h.productService.Update(c.Request.Context(), productID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, product)
}

func (h *ProductHandler) PassportLink(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	link, err := h.productService.PassportLink(c.Request.Context(), productID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"link": link})
}

func (h *ProductHandler) AttachDocument(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	var req services.DocumentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	doc, err := h.productService.AttachDocument(c.Request.Context(), productID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, doc)
}

func (h *ProductHandler) ListDocuments(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	docs, err := h.productService.ListDocuments(c.Request.Context(), productID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"documents": docs})
}
