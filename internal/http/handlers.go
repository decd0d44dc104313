package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"billing/internal/excel"
	"billing/internal/lineitem"
	"billing/internal/pricing"
	"billing/internal/repository"
	"billing/internal/service"
	"billing/internal/words"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const maxUploadSize = 32 << 20

type Handler struct {
	svc      *service.Service
	validate *validator.Validate
	logger   logrus.FieldLogger
}

func NewHandler(svc *service.Service, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{svc: svc, validate: newValidator(), logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) Catalog(w http.ResponseWriter, _ *http.Request) {
	groups := h.svc.Catalog()
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups, "count": len(groups)})
}

func (h *Handler) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	entries, err := excel.ParseCatalogRows(header.Filename, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, updated, err := h.svc.ImportCatalog(entries)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fileName":  header.Filename,
		"totalRows": len(entries),
		"added":     added,
		"updated":   updated,
	})
}

func (h *Handler) QuoteInvoice(w http.ResponseWriter, r *http.Request) {
	session, ok := h.decodeSession(w, r, "")
	if !ok {
		return
	}
	totals := h.svc.Quote(session)
	amountWords, err := words.AmountInWords(pricing.DisplayAmount(totals.GrandTotal))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":             session.Items().Items(),
		"totals":            totals,
		"grandTotalDisplay": pricing.FormatAmount(totals.GrandTotal),
		"amountWords":       amountWords,
	})
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	session, ok := h.decodeSession(w, r, "")
	if !ok {
		return
	}
	payload, err := h.svc.Generate(r.Context(), session)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceNo, err := parseInvoiceNo(chi.URLParam(r, "invoiceNo"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, ok := h.decodeSession(w, r, invoiceNo)
	if !ok {
		return
	}
	payload, err := h.svc.Generate(r.Context(), session)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	limit, err := parseOptionalInt(r.URL.Query().Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.svc.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceNo, err := parseInvoiceNo(chi.URLParam(r, "invoiceNo"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snapshot, err := h.svc.Get(r.Context(), invoiceNo)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) PreviewInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceNo, err := parseInvoiceNo(chi.URLParam(r, "invoiceNo"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload, err := h.svc.Preview(r.Context(), invoiceNo)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) ExportInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceNo, err := parseInvoiceNo(chi.URLParam(r, "invoiceNo"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload, err := h.svc.Preview(r.Context(), invoiceNo)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteInvoice(&buf, payload); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", excel.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", payload.InvoiceNo+".xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceNo, err := parseInvoiceNo(chi.URLParam(r, "invoiceNo"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Delete(r.Context(), invoiceNo); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) PurgeInvoices(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.PurgeExpired(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// decodeSession decodes and validates a draft body and replays it into a
// session. It writes the error response itself and reports whether to go on.
func (h *Handler) decodeSession(w http.ResponseWriter, r *http.Request, editingNo string) (*service.Session, bool) {
	var req invoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "invalid request body",
			"details": validationDetails(err),
		})
		return nil, false
	}
	session, err := h.svc.BuildSession(r.Context(), req.toData(), editingNo)
	if err != nil {
		h.writeServiceError(w, r, err)
		return nil, false
	}
	return session, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *lineitem.ValidationError
	switch {
	case errors.Is(err, lineitem.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "field": vErr.Field})
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "invoice not found")
	default:
		h.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err,
		}).Error("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func parseOptionalInt(raw string, defaultValue int) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %s", raw)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("value cannot be negative")
	}
	return parsed, nil
}

func parseInvoiceNo(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" || strings.ContainsAny(value, "/ ") {
		return "", fmt.Errorf("invalid invoice number")
	}
	return value, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
