package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/apierr"
	"github.com/traceleaf/dpp-backend/internal/dpp"
	"github.com/traceleaf/dpp-backend/internal/gs1"
	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/repos"
	"github.com/traceleaf/dpp-backend/internal/requestdata"
	"github.com/traceleaf/dpp-backend/internal/types"
)

// completionThreshold is the score below which a newly created passport
// starts as incomplete rather than draft.
const completionThreshold = 50

type ProductInput struct {
	GTIN             string           `json:"gtin"`
	SerialNumber     string           `json:"serial_number"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	Category         string           `json:"category"`
	ManufacturerName string           `json:"manufacturer_name"`
	CountryOfOrigin  string           `json:"country_of_origin"`
	SupplierName     string           `json:"supplier_name"`
	SupplierContact  string           `json:"supplier_contact"`
	Materials        []types.Material `json:"materials"`
}

type DocumentInput struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*types.Product, error)
	GetByID(ctx context.Context, productID uuid.UUID) (*types.Product, error)
	List(ctx context.Context, status dpp.Status) ([]*types.Product, error)
	Update(ctx context.Context, productID uuid.UUID, input ProductInput) (*types.Product, error)
	PassportLink(ctx context.Context, productID uuid.UUID) (string, error)
	AttachDocument(ctx context.Context, productID uuid.UUID, input DocumentInput) (*types.Document, error)
	ListDocuments(ctx context.Context, productID uuid.UUID) ([]*types.Document, error)
}

type productService struct {
	db          *gorm.DB
	log         *logger.Logger
	productRepo repos.ProductRepo
	docRepo     repos.DocumentRepo
}

func NewProductService(db *gorm.DB, baseLog *logger.Logger, productRepo repos.ProductRepo, docRepo repos.DocumentRepo) ProductService {
	return &productService{
		db:          db,
		log:         baseLog.With("service", "ProductService"),
		productRepo: productRepo,
		docRepo:     docRepo,
	}
}

func (ps *productService) Create(ctx context.Context, input ProductInput) (*types.Product, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	if rd.Role != dpp.RoleManufacturer && rd.Role != dpp.RoleAdmin {
		return nil, apierr.Forbidden("only manufacturers can create products")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apierr.Validation("product name is required")
	}
	if err := gs1.ValidateGTIN(strings.TrimSpace(input.GTIN)); err != nil {
		return nil, apierr.Validation("invalid gtin: %v", err)
	}

	materials, err := marshalMaterials(input.Materials)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	product := &types.Product{
		ID:               uuid.New(),
		GTIN:             strings.TrimSpace(input.GTIN),
		SerialNumber:     strings.TrimSpace(input.SerialNumber),
		Name:             strings.TrimSpace(input.Name),
		Description:      input.Description,
		Category:         input.Category,
		ManufacturerName: input.ManufacturerName,
		CountryOfOrigin:  input.CountryOfOrigin,
		SupplierName:     input.SupplierName,
		SupplierContact:  input.SupplierContact,
		Materials:        materials,
		CreatedBy:        rd.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	product.DPPCompletion = ps.completion(ctx, product, 0)
	if product.DPPCompletion < completionThreshold {
		product.DPPStatus = dpp.StatusIncomplete
	} else {
		product.DPPStatus = dpp.StatusDraft
	}

	if _, err := ps.productRepo.Create(ctx, nil, []*types.Product{product}); err != nil {
		return nil, fmt.Errorf("Failed to create product: %w", err)
	}
	return product, nil
}

func (ps *productService) GetByID(ctx context.Context, productID uuid.UUID) (*types.Product, error) {
	product, err := ps.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch product: %w", err)
	}
	if product == nil {
		return nil, apierr.NotFound("product %s not found", productID)
	}
	return product, nil
}

func (ps *productService) List(ctx context.Context, status dpp.Status) ([]*types.Product, error) {
	if status != "" && !dpp.ValidStatus(status) {
		return nil, apierr.Validation("unknown status filter %q", status)
	}
	products, err := ps.productRepo.List(ctx, nil, status)
	if err != nil {
		return nil, fmt.Errorf("Failed to list products: %w", err)
	}
	return products, nil
}

// Update rewrites the descriptive fields. It never touches dpp_status; the
// verification service owns every status write.
func (ps *productService) Update(ctx context.Context, productID uuid.UUID, input ProductInput) (*types.Product, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	if rd.Role != dpp.RoleManufacturer && rd.Role != dpp.RoleAdmin {
		return nil, apierr.Forbidden("only manufacturers can edit products")
	}
	product, err := ps.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch product: %w", err)
	}
	if product == nil {
		return nil, apierr.NotFound("product %s not found", productID)
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apierr.Validation("product name is required")
	}
	if err := gs1.ValidateGTIN(strings.TrimSpace(input.GTIN)); err != nil {
		return nil, apierr.Validation("invalid gtin: %v", err)
	}
	materials, err := marshalMaterials(input.Materials)
	if err != nil {
		return nil, err
	}

	product.GTIN = strings.TrimSpace(input.GTIN)
	product.SerialNumber = strings.TrimSpace(input.SerialNumber)
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Category = input.Category
	product.ManufacturerName = input.ManufacturerName
	product.CountryOfOrigin = input.CountryOfOrigin
	product.SupplierName = input.SupplierName
	product.SupplierContact = input.SupplierContact
	product.Materials = materials
	product.DPPCompletion = ps.completion(ctx, product, -1)

	updates := map[string]interface{}{
		"gtin":              product.GTIN,
		"serial_number":     product.SerialNumber,
		"name":              product.Name,
		"description":       product.Description,
		"category":          product.Category,
		"manufacturer_name": product.ManufacturerName,
		"country_of_origin": product.CountryOfOrigin,
		"supplier_name":     product.SupplierName,
		"supplier_contact":  product.SupplierContact,
		"materials":         product.Materials,
		"dpp_completion":    product.DPPCompletion,
	}
	if err := ps.productRepo.UpdateFields(ctx, nil, product.ID, updates); err != nil {
		return nil, fmt.Errorf("Failed to update product: %w", err)
	}
	return product, nil
}

func (ps *productService) PassportLink(ctx context.Context, productID uuid.UUID) (string, error) {
	product, err := ps.GetByID(ctx, productID)
	if err != nil {
		return "", err
	}
	link, err := gs1.DigitalLink(product.GTIN, product.SerialNumber)
	if err != nil {
		return "", apierr.Validation("product has no resolvable gtin: %v", err)
	}
	return link, nil
}

func (ps *productService) AttachDocument(ctx context.Context, productID uuid.UUID, input DocumentInput) (*types.Document, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.URL) == "" {
		return nil, apierr.Validation("document name and url are required")
	}
	product, err := ps.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch product: %w", err)
	}
	if product == nil {
		return nil, apierr.NotFound("product %s not found", productID)
	}

	doc := &types.Document{
		ID:          uuid.New(),
		ProductID:   product.ID,
		Name:        strings.TrimSpace(input.Name),
		ContentType: input.ContentType,
		URL:         strings.TrimSpace(input.URL),
		UploadedBy:  rd.UserID,
		CreatedAt:   time.Now(),
	}
	if _, err := ps.docRepo.Create(ctx, nil, []*types.Document{doc}); err != nil {
		return nil, fmt.Errorf("Failed to attach document: %w", err)
	}

	// Documents count toward completeness; refresh the informational score.
	completion := ps.completion(ctx, product, -1)
	if completion != product.DPPCompletion {
		if err := ps.productRepo.UpdateFields(ctx, nil, product.ID, map[string]interface{}{
			"dpp_completion": completion,
		}); err != nil {
			ps.log.Warn("Failed to refresh completion after document attach", "product_id", product.ID, "error", err)
		}
	}
	return doc, nil
}

func (ps *productService) ListDocuments(ctx context.Context, productID uuid.UUID) ([]*types.Document, error) {
	product, err := ps.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch product: %w", err)
	}
	if product == nil {
		return nil, apierr.NotFound("product %s not found", productID)
	}
	docs, err := ps.docRepo.ListByProductID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("Failed to list documents: %w", err)
	}
	return docs, nil
}

// completion scores filled field groups into an informational percentage.
// It never gates a transition. docCount < 0 means "look it up".
func (ps *productService) completion(ctx context.Context, product *types.Product, docCount int) int {
	score := 0
	// Identity: 30
	filled := 0
	for _, v := range []string{product.GTIN, product.Name, product.Category, product.Description} {
		if strings.TrimSpace(v) != "" {
			filled++
		}
	}
	score += filled * 30 / 4
	// Manufacturing origin: 20
	filled = 0
	for _, v := range []string{product.ManufacturerName, product.CountryOfOrigin} {
		if strings.TrimSpace(v) != "" {
			filled++
		}
	}
	score += filled * 20 / 2
	// Materials: 20
	if len(product.Materials) > 0 && string(product.Materials) != "null" && string(product.Materials) != "[]" {
		score += 20
	}
	// Supplier: 15
	filled = 0
	for _, v := range []string{product.SupplierName, product.SupplierContact} {
		if strings.TrimSpace(v) != "" {
			filled++
		}
	}
	score += filled * 15 / 2
	// Documents: 15
	if docCount < 0 && ps.docRepo != nil {
		docs, err := ps.docRepo.ListByProductID(ctx, nil, product.ID)
		if err != nil {
			ps.log.Warn("Failed to count documents for completion", "product_id", product.ID, "error", err)
			docCount = 0
		} else {
			docCount = len(docs)
		}
	}
	if docCount > 0 {
		score += 15
	}
	if score > 100 {
		score = 100
	}
	return score
}

func marshalMaterials(materials []types.Material) (datatypes.JSON, error) {
	if len(materials) == 0 {
		return nil, nil
	}
	total := 0.0
	for _, m := range materials {
		if strings.TrimSpace(m.Name) == "" {
			return nil, apierr.Validation("material entries require a name")
		}
		if m.Percentage < 0 || m.Percentage > 100 {
			return nil, apierr.Validation("material percentage must be between 0 and 100")
		}
		total += m.Percentage
	}
	if total > 100.0001 {
		return nil, apierr.Validation("material percentages exceed 100")
	}
	raw, err := json.Marshal(materials)
	if err != nil {
		return nil, fmt.Errorf("Failed to marshal materials: %w", err)
	}
	return datatypes.JSON(raw), nil
}
