package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"billing/internal/catalog"
	"billing/internal/domain"
	"billing/internal/excel"
	"billing/internal/repository"
	"billing/internal/service"
	"billing/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testServer struct {
	handler http.Handler
	mem     *store.Memory
	now     time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{mem: store.NewMemory(), now: time.Date(2026, 5, 4, 6, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return ts.now }

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	n := 0
	repo := repository.New(ts.mem, repository.Options{
		Now:    clock,
		Logger: logger,
		NewSuffix: func() string {
			n++
			return fmt.Sprintf("T%05d", n)
		},
	})
	svc := service.New(repo, catalog.Default(), service.Options{
		Company: domain.Company{Name: "SKY Enterprises and Decors"},
		Now:     clock,
		Logger:  logger,
	})
	ts.handler = NewRouter(NewHandler(svc, logger))
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func draftBody() map[string]any {
	return map[string]any{
		"client": map[string]any{"name": "Asha", "address": "12 MG Road", "phone": "9876543210"},
		"items": []map[string]any{
			{"name": "Soft Close Hinges", "category": "Hardware", "qty": 4, "price": 120},
			{"name": "MDF", "category": "Wooden Boards", "qty": 2, "sqft": 10, "rate": 250},
		},
		"discountEnabled": true,
		"discountPercent": 5,
		"discountFlat":    200,
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestQuoteInvoice(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/invoices/quote", draftBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Totals            domain.Totals `json:"totals"`
		GrandTotalDisplay string        `json:"grandTotalDisplay"`
		AmountWords       string        `json:"amountWords"`
	}
	decodeBody(t, rec, &resp)
	// 4*120 + 2*10*250 = 5480; 5% = 274; +200 flat
	assert.Equal(t, 5480.0, resp.Totals.SubTotal)
	assert.Equal(t, 474.0, resp.Totals.DiscountAmount)
	assert.Equal(t, "5006.00", resp.GrandTotalDisplay)
	assert.Equal(t, "Five Thousand Six Rupees Only", resp.AmountWords)

	keys, err := ts.mem.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys, "quoting saves nothing")
}

func TestCreateGetUpdateDelete(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/invoices", draftBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.RenderPayload
	decodeBody(t, rec, &created)
	assert.Equal(t, "INV-20260504060000-T00001", created.InvoiceNo)
	assert.Equal(t, "04/05/2026", created.Date)
	assert.Equal(t, "Monday", created.Day)
	assert.False(t, created.IsEdit)

	rec = ts.do(t, http.MethodGet, "/api/v1/invoices/"+created.InvoiceNo, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot domain.Snapshot
	decodeBody(t, rec, &snapshot)
	assert.Equal(t, "Asha", snapshot.Data.Client.Name)
	require.Len(t, snapshot.Data.Items, 2)
	assert.Equal(t, domain.PricingArea, snapshot.Data.Items[1].Mode)

	update := draftBody()
	update["discountFlat"] = 0
	ts.now = ts.now.Add(24 * time.Hour)
	rec = ts.do(t, http.MethodPut, "/api/v1/invoices/"+created.InvoiceNo, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.RenderPayload
	decodeBody(t, rec, &updated)
	assert.Equal(t, created.InvoiceNo, updated.InvoiceNo)
	assert.True(t, updated.IsEdit)
	assert.Equal(t, 5206.0, updated.GrandTotal)

	rec = ts.do(t, http.MethodGet, "/api/v1/invoices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []domain.Snapshot `json:"items"`
		Count int               `json:"count"`
	}
	decodeBody(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	rec = ts.do(t, http.MethodDelete, "/api/v1/invoices/"+created.InvoiceNo, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/v1/invoices/"+created.InvoiceNo, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/v1/invoices/"+created.InvoiceNo, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code, "deleting twice is a no-op")
}

func TestCreateInvoiceErrors(t *testing.T) {
	ts := newTestServer(t)

	missingClient := draftBody()
	missingClient["client"] = map[string]any{"name": "Asha"}

	duplicate := draftBody()
	duplicate["items"] = []map[string]any{
		{"name": "Hinge", "qty": 1, "price": 120},
		{"name": " hinge ", "qty": 2, "price": 120},
	}

	blankName := draftBody()
	blankName["items"] = []map[string]any{{"name": "  ", "qty": 1, "price": 10}}

	negative := draftBody()
	negative["items"] = []map[string]any{{"name": "Hinge", "qty": -1, "price": 10}}

	tests := []struct {
		name string
		body any
		code int
		want string
	}{
		{name: "missing address", body: missingClient, code: http.StatusBadRequest, want: "customer name and address"},
		{name: "no items", body: map[string]any{"client": map[string]any{"name": "A", "address": "B"}}, code: http.StatusBadRequest, want: "at least one product"},
		{name: "duplicate", body: duplicate, code: http.StatusConflict, want: "product already added"},
		{name: "blank item name", body: blankName, code: http.StatusBadRequest, want: "product name is required"},
		{name: "negative qty", body: negative, code: http.StatusBadRequest, want: "items[0].qty"},
		{name: "unknown field", body: map[string]any{"customer": "x"}, code: http.StatusBadRequest, want: "invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/invoices", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	keys, err := ts.mem.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestUpdateMissingInvoice(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPut, "/api/v1/invoices/INV-missing", draftBody())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewAndExport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/invoices", draftBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.RenderPayload
	decodeBody(t, rec, &created)

	rec = ts.do(t, http.MethodGet, "/api/v1/invoices/"+created.InvoiceNo+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var preview domain.RenderPayload
	decodeBody(t, rec, &preview)
	assert.Equal(t, created.AmountWords, preview.AmountWords)
	assert.Equal(t, "9876543210", preview.Client.Phone)

	rec = ts.do(t, http.MethodGet, "/api/v1/invoices/"+created.InvoiceNo+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, excel.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), created.InvoiceNo+".xlsx")

	file, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer file.Close()
	value, err := file.GetCellValue(excel.InvoiceSheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, created.InvoiceNo, value)
}

func TestPurgeInvoices(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/invoices", draftBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, ts.mem.Set(context.Background(), "invoice_broken", "{not json"))

	ts.now = ts.now.Add(31 * 24 * time.Hour)
	rec = ts.do(t, http.MethodPost, "/api/v1/invoices/purge", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":2}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/v1/invoices/purge", nil)
	assert.JSONEq(t, `{"removed":0}`, rec.Body.String())
}

func TestCatalogImport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var before struct {
		Groups []domain.CatalogGroup `json:"groups"`
		Count  int                   `json:"count"`
	}
	decodeBody(t, rec, &before)
	assert.Equal(t, 5, before.Count)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "catalog.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("category,name,price\nLighting,Profile LED Strip,650\nHardware,Soft Close Hinges,140\n"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/import", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"fileName":"catalog.csv","totalRows":2,"added":1,"updated":1}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/catalog", nil)
	var after struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &after)
	assert.Equal(t, 6, after.Count)
}

func TestItemIDsSurviveCreateAndUpdate(t *testing.T) {
	ts := newTestServer(t)

	body := draftBody()
	items := body["items"].([]map[string]any)
	items[0]["id"] = "row-hinge"
	rec := ts.do(t, http.MethodPost, "/api/v1/invoices", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.RenderPayload
	decodeBody(t, rec, &created)
	require.Len(t, created.Items, 2)
	assert.Equal(t, "row-hinge", created.Items[0].ID)
	assert.NotEmpty(t, created.Items[1].ID)

	items[1]["id"] = created.Items[1].ID
	rec = ts.do(t, http.MethodPut, "/api/v1/invoices/"+created.InvoiceNo, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.RenderPayload
	decodeBody(t, rec, &updated)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, "row-hinge", updated.Items[0].ID)
	assert.Equal(t, created.Items[1].ID, updated.Items[1].ID)
}

func TestItemQuantityAndPricingMode(t *testing.T) {
	ts := newTestServer(t)

	body := draftBody()
	body["discountEnabled"] = false
	body["discountFlat"] = 0
	body["items"] = []map[string]any{
		{"name": "Soft Close Hinges", "qty": 0, "price": 120},
		{"name": "Handle", "price": 80},
		{"name": "MDF", "category": "Wooden Boards", "qty": 2, "price": 900, "sqft": 10, "rate": 250, "pricingMode": "unit"},
	}
	rec := ts.do(t, http.MethodPost, "/api/v1/invoices/quote", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Items  []domain.LineItem `json:"items"`
		Totals domain.Totals     `json:"totals"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 3)
	assert.Zero(t, resp.Items[0].Qty, "explicit zero quantity is kept")
	assert.Equal(t, 1.0, resp.Items[1].Qty, "missing quantity defaults to one")
	assert.Equal(t, domain.PricingUnit, resp.Items[2].Mode)
	assert.Nil(t, resp.Items[2].Sqft)
	// 0*120 + 1*80 + 2*900
	assert.Equal(t, 1880.0, resp.Totals.SubTotal)

	body["items"] = []map[string]any{{"name": "Laminate", "price": 40, "pricingMode": "area"}}
	rec = ts.do(t, http.MethodPost, "/api/v1/invoices/quote", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "pricingMode")

	body["items"] = []map[string]any{{"name": "Laminate", "price": 40, "pricingMode": "bulk"}}
	rec = ts.do(t, http.MethodPost, "/api/v1/invoices/quote", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "items[0].pricingMode")
}
