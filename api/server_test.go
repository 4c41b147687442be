package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/investia/sectorscreen/internal/config"
	"github.com/investia/sectorscreen/internal/report"
	"github.com/investia/sectorscreen/internal/screener"
	"github.com/investia/sectorscreen/pkg/models"
)

// fakeSource implements datasource.DataSource for handler tests.
type fakeSource struct {
	industries   map[string]map[string]string
	companies    map[string][]models.IndustryCompany
	fundamentals map[string]*models.Fundamentals
	names        map[string]string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Sectors() map[string]string {
	return map[string]string{"Technology": "technology", "Energy": "energy"}
}

func (f *fakeSource) Industries(_ context.Context, sectorKey string) (map[string]string, error) {
	m, ok := f.industries[sectorKey]
	if !ok {
		return nil, fmt.Errorf("sector not found: %s", sectorKey)
	}
	return m, nil
}

func (f *fakeSource) Companies(_ context.Context, industryKey string, _ models.RankMethod) ([]models.IndustryCompany, error) {
	rows, ok := f.companies[industryKey]
	if !ok {
		return nil, fmt.Errorf("industry not found: %s", industryKey)
	}
	return rows, nil
}

func (f *fakeSource) Fundamentals(_ context.Context, ticker string) (*models.Fundamentals, error) {
	fund, ok := f.fundamentals[ticker]
	if !ok {
		return nil, fmt.Errorf("no fundamentals for %s", ticker)
	}
	return fund, nil
}

func (f *fakeSource) CompanyName(_ context.Context, ticker string) (string, error) {
	name, ok := f.names[ticker]
	if !ok {
		return "", fmt.Errorf("unknown ticker %s", ticker)
	}
	return name, nil
}

type fakeNews struct {
	items []models.NewsItem
	err   error
}

func (f *fakeNews) TickerNews(_ context.Context, _ string, limit int) ([]models.NewsItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func testServer(src *fakeSource, news NewsSource) *Server {
	return NewServer(&config.Config{}, src, news)
}

func defaultSource() *fakeSource {
	return &fakeSource{
		industries: map[string]map[string]string{
			"technology": {"Semiconductors": "semiconductors"},
		},
		companies: map[string][]models.IndustryCompany{
			"semiconductors": {
				{Symbol: "NVDA", Name: "NVIDIA", Rating: "Buy"},
				{Symbol: "AMD", Name: "AMD", Rating: "Hold"},
			},
		},
		fundamentals: map[string]*models.Fundamentals{
			"NVDA": {Ticker: "NVDA", Currency: "USD", MarketCap: models.Float(3_000_000_000_000)},
			"AMD":  {Ticker: "AMD", Currency: "USD", MarketCap: models.Float(200_000_000_000)},
		},
		names: map[string]string{
			"NVDA": "NVIDIA Corporation",
			"AMD":  "Advanced Micro Devices, Inc.",
		},
	}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func doRequest(t *testing.T, srv *Server, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHandleHealth(t *testing.T) {
	srv := testServer(defaultSource(), nil)
	rec := doRequest(t, srv, http.MethodGet, "/health", nil, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Error("expected success")
	}
}

func TestHandleSectors(t *testing.T) {
	srv := testServer(defaultSource(), nil)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/sectors", nil, "")

	resp := decodeResponse(t, rec)
	sectors, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data type %T", resp.Data)
	}
	if sectors["Technology"] != "technology" {
		t.Errorf("missing Technology sector: %v", sectors)
	}
}

func TestHandleIndustries(t *testing.T) {
	srv := testServer(defaultSource(), nil)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/sectors/technology/industries", nil, "")

	resp := decodeResponse(t, rec)
	industries, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data type %T", resp.Data)
	}
	if industries["Semiconductors"] != "semiconductors" {
		t.Errorf("unexpected industries: %v", industries)
	}
}

func TestHandleIndustriesUpstreamFailureIsEmptyMap(t *testing.T) {
	srv := testServer(defaultSource(), nil)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/sectors/unknown/industries", nil, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200 (degraded), got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	industries, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data type %T", resp.Data)
	}
	if len(industries) != 0 {
		t.Errorf("expected empty map, got %v", industries)
	}
}

func TestHandleScreen(t *testing.T) {
	srv := testServer(defaultSource(), nil)

	body, _ := json.Marshal(ScreenRequest{
		Industries: []models.Industry{{Name: "Semiconductors", Key: "semiconductors"}},
		Method:     "top",
	})
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/screen", bytes.NewBuffer(body), "application/json")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool           `json:"success"`
		Data    ScreenResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Count != 2 {
		t.Fatalf("expected 2 rows, got %d", resp.Data.Count)
	}
	// Sorted by market cap descending.
	if resp.Data.Rows[0].Ticker != "NVDA" {
		t.Errorf("first row: want NVDA, got %s", resp.Data.Rows[0].Ticker)
	}
	if resp.Data.Rows[0].Industry != "Semiconductors" {
		t.Errorf("industry tag missing: %+v", resp.Data.Rows[0])
	}
}

func TestHandleScreenBadMethod(t *testing.T) {
	srv := testServer(defaultSource(), nil)

	body := []byte(`{"industries":[{"name":"X","key":"x"}],"method":"sideways"}`)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/screen", bytes.NewBuffer(body), "application/json")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: want 400, got %d", rec.Code)
	}
}

func TestHandleScreenNoIndustries(t *testing.T) {
	srv := testServer(defaultSource(), nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/screen", bytes.NewBufferString(`{}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: want 400, got %d", rec.Code)
	}
}

func TestHandleScreenAllIndustriesForSector(t *testing.T) {
	srv := testServer(defaultSource(), nil)

	body := []byte(`{"sector_key":"technology","method":"top"}`)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/screen", bytes.NewBuffer(body), "application/json")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data ScreenResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Count != 2 {
		t.Errorf("expected the sector's industries to expand, got %d rows", resp.Data.Count)
	}
}

func TestHandleExport(t *testing.T) {
	srv := testServer(defaultSource(), nil)

	body, _ := json.Marshal(ScreenRequest{
		Industries: []models.Industry{{Name: "Semiconductors", Key: "semiconductors"}},
	})
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/screen/export?style=styled", bytes.NewBuffer(body), "application/json")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type: got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "styled") {
		t.Errorf("content disposition: got %q", cd)
	}

	table, err := report.ReadTable(rec.Body)
	if err != nil {
		t.Fatalf("exported file unreadable: %v", err)
	}
	if len(table) != 2 {
		t.Errorf("exported rows: want 2, got %d", len(table))
	}
}

// buildWorkbook renders a raw cell grid as xlsx bytes.
func buildWorkbook(t *testing.T, grid [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range grid {
		for j, cell := range row {
			ref, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue(sheet, ref, cell); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// buildMultipart assembles a multipart body from named file parts.
func buildMultipart(t *testing.T, parts map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, data := range parts {
		part, err := mw.CreateFormFile(field, field+".xlsx")
		if err != nil {
			t.Fatalf("create form file %s: %v", field, err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file %s: %v", field, err)
		}
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

// buildUpload creates a multipart body with an xlsx file in field "file".
func buildUpload(t *testing.T, grid [][]string) (*bytes.Buffer, string) {
	t.Helper()
	return buildMultipart(t, map[string][]byte{"file": buildWorkbook(t, grid)})
}

func TestHandleUpload(t *testing.T) {
	srv := testServer(defaultSource(), nil)

	body, contentType := buildUpload(t, [][]string{{"nvda"}, {"amd"}, {"nvda"}})
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/upload", body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data ScreenResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Deduplicated: nvda appears once.
	if resp.Data.Count != 2 {
		t.Fatalf("expected 2 rows after dedup, got %d", resp.Data.Count)
	}
	if resp.Data.Rows[0].Name != "NVIDIA Corporation" {
		t.Errorf("resolved name: got %q", resp.Data.Rows[0].Name)
	}
}

func TestHandleUploadMergeKeepsDuplicates(t *testing.T) {
	srv := testServer(defaultSource(), nil)

	existing := screener.Table{
		{Name: "NVIDIA Corporation", Ticker: "NVDA", Industry: "Semiconductors"},
		{Name: "Intel Corporation", Ticker: "INTC", Industry: "Semiconductors"},
	}
	var exportBuf bytes.Buffer
	if err := report.WriteXLSX(&exportBuf, existing); err != nil {
		t.Fatalf("write existing table: %v", err)
	}

	body, contentType := buildMultipart(t, map[string][]byte{
		"file":     buildWorkbook(t, [][]string{{"NVDA"}, {"AMD"}}),
		"existing": exportBuf.Bytes(),
	})
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/upload", body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data ScreenResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Existing rows first, then the fresh rows; NVDA appears in both sources
	// and both copies survive.
	if resp.Data.Count != 4 {
		t.Fatalf("expected 4 rows, got %d", resp.Data.Count)
	}
	wantOrder := []string{"NVDA", "INTC", "NVDA", "AMD"}
	for i, want := range wantOrder {
		if resp.Data.Rows[i].Ticker != want {
			t.Errorf("row %d: want %s, got %s", i, want, resp.Data.Rows[i].Ticker)
		}
	}
	// The existing copy keeps its exported fields; the fresh copy is enriched.
	if resp.Data.Rows[0].Industry != "Semiconductors" {
		t.Errorf("existing row lost its industry: %+v", resp.Data.Rows[0])
	}
	if resp.Data.Rows[2].Name != "NVIDIA Corporation" {
		t.Errorf("fresh row name: got %q", resp.Data.Rows[2].Name)
	}
}

func TestHandleUploadBadExistingTable(t *testing.T) {
	srv := testServer(defaultSource(), nil)

	body, contentType := buildMultipart(t, map[string][]byte{
		"file":     buildWorkbook(t, [][]string{{"NVDA"}}),
		"existing": []byte("not a workbook"),
	})
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/upload", body, contentType)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want 400, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !strings.Contains(resp.Error, "existing table") {
		t.Errorf("error message: got %q", resp.Error)
	}
}

func TestHandleUploadExtraColumn(t *testing.T) {
	srv := testServer(defaultSource(), nil)

	body, contentType := buildUpload(t, [][]string{{"NVDA", "oops"}})
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/upload", body, contentType)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want 400, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !strings.Contains(resp.Error, "exactly one ticker per row") {
		t.Errorf("error message: got %q", resp.Error)
	}
}

func TestHandleUploadNoTickers(t *testing.T) {
	srv := testServer(defaultSource(), nil)

	body, contentType := buildUpload(t, [][]string{{" "}, {""}})
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/upload", body, contentType)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want 400, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !strings.Contains(resp.Error, "no valid tickers") {
		t.Errorf("error message: got %q", resp.Error)
	}
}

func TestHandleNews(t *testing.T) {
	news := &fakeNews{items: []models.NewsItem{{Title: "Chips rally", Link: "https://example.com/1"}}}
	srv := testServer(defaultSource(), news)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/news/NVDA", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	items, ok := resp.Data.([]any)
	if !ok || len(items) != 1 {
		t.Errorf("unexpected news payload: %v", resp.Data)
	}
}

func TestHandleNewsUnconfigured(t *testing.T) {
	srv := testServer(defaultSource(), nil)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/news/NVDA", nil, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: want 503, got %d", rec.Code)
	}
}
