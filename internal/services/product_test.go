package services

import (
	"context"
	"testing"

	"github.com/traceleaf/dpp-backend/internal/dpp"
	"github.com/traceleaf/dpp-backend/internal/types"
)

func fullProductInput() ProductInput {
	return ProductInput{
		GTIN:             "4006381333931",
		SerialNumber:     "SN-2041",
		Name:             "Trail Jacket",
		Description:      "Waterproof 3-layer shell",
		Category:         "apparel",
		ManufacturerName: "TraceLeaf Outdoor GmbH",
		CountryOfOrigin:  "DE",
		SupplierName:     "Alpine Textiles",
		SupplierContact:  "orders@alpinetextiles.example",
		Materials: []types.Material{
			{Name: "recycled polyester", Percentage: 80, Recycled: true},
			{Name: "elastane", Percentage: 20},
		},
	}
}

func TestCreateFullyFilledProductStartsAsDraft(t *testing.T) {
	env := newTestEnv(t)

	product, err := env.products.Create(ctxAs(dpp.RoleManufacturer), fullProductInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if product.DPPStatus != dpp.StatusDraft {
		t.Fatalf("status: want=%s got=%s", dpp.StatusDraft, product.DPPStatus)
	}
	if product.DPPCompletion < completionThreshold {
		t.Fatalf("completion %d below threshold %d", product.DPPCompletion, completionThreshold)
	}
}

func TestCreateSparseProductStartsAsIncomplete(t *testing.T) {
	env := newTestEnv(t)

	product, err := env.products.Create(ctxAs(dpp.RoleManufacturer), ProductInput{
		GTIN: "96385074",
		Name: "Unlabeled Tote",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if product.DPPStatus != dpp.StatusIncomplete {
		t.Fatalf("status: want=%s got=%s", dpp.StatusIncomplete, product.DPPStatus)
	}
	if product.DPPCompletion >= completionThreshold {
		t.Fatalf("completion %d should sit below threshold %d", product.DPPCompletion, completionThreshold)
	}
}

func TestCreateRejectsBadGTIN(t *testing.T) {
	env := newTestEnv(t)
	input := fullProductInput()
	input.GTIN = "4006381333932" // wrong check digit

	_, err := env.products.Create(ctxAs(dpp.RoleManufacturer), input)
	wantAPIStatus(t, err, 400)
}

func TestCreateRejectsMaterialsOverOneHundredPercent(t *testing.T) {
	env := newTestEnv(t)
	input := fullProductInput()
	input.Materials = []types.Material{
		{Name: "cotton", Percentage: 60},
		{Name: "polyester", Percentage: 55},
	}

	_, err := env.products.Create(ctxAs(dpp.RoleManufacturer), input)
	wantAPIStatus(t, err, 400)
}

func TestCreateForbiddenForVerifiers(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.products.Create(ctxAs(dpp.RoleVerifier), fullProductInput())
	wantAPIStatus(t, err, 403)
}

func TestUpdateNeverTouchesStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxAs(dpp.RoleManufacturer)

	product, err := env.products.Create(ctx, fullProductInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.verification.SubmitForVerification(ctx, product.ID); err != nil {
		t.Fatalf("SubmitForVerification: %v", err)
	}

	input := fullProductInput()
	input.Description = "Updated copy"
	if _, err := env.products.Update(ctx, product.ID, input); err != nil {
		t.Fatalf("Update: %v", err)
	}

	fetched, err := env.products.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.DPPStatus != dpp.StatusPendingVerification {
		t.Fatalf("update changed status: got %s", fetched.DPPStatus)
	}
	if fetched.Description != "Updated copy" {
		t.Fatalf("description not updated: got %q", fetched.Description)
	}
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.products.List(context.Background(), dpp.Status("archived"))
	wantAPIStatus(t, err, 400)
}

func TestPassportLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxAs(dpp.RoleManufacturer)

	product, err := env.products.Create(ctx, fullProductInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	link, err := env.products.PassportLink(ctx, product.ID)
	if err != nil {
		t.Fatalf("PassportLink: %v", err)
	}
	want := "https://id.gs1.org/01/04006381333931/21/SN-2041"
	if link != want {
		t.Fatalf("link: want=%s got=%s", want, link)
	}
}

func TestAttachDocumentRaisesCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := ctxAs(dpp.RoleManufacturer)

	product, err := env.products.Create(ctx, fullProductInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := product.DPPCompletion

	doc, err := env.products.AttachDocument(ctx, product.ID, DocumentInput{
		Name:        "bill-of-materials.pdf",
		ContentType: "application/pdf",
		URL:         "https://files.traceleaf.example/bom.pdf",
	})
	if err != nil {
		t.Fatalf("AttachDocument: %v", err)
	}
	if doc.ProductID != product.ID {
		t.Fatalf("document product id mismatch")
	}

	fetched, err := env.products.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.DPPCompletion <= before {
		t.Fatalf("completion did not rise: before=%d after=%d", before, fetched.DPPCompletion)
	}

	docs, err := env.products.ListDocuments(ctx, product.ID)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "bill-of-materials.pdf" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}
