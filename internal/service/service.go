package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"billing/internal/catalog"
	"billing/internal/domain"
	"billing/internal/lineitem"
	"billing/internal/pricing"
	"billing/internal/repository"
	"billing/internal/words"

	"github.com/sirupsen/logrus"
)

const notAvailable = "N/A"

type Options struct {
	Company  domain.Company
	Location *time.Location
	Now      func() time.Time
	NewID    func() string
	Logger   logrus.FieldLogger
}

type Service struct {
	repo    *repository.InvoiceRepository
	catalog *catalog.Catalog
	company domain.Company
	loc     *time.Location
	now     func() time.Time
	newID   func() string
	logger  logrus.FieldLogger
}

func New(repo *repository.InvoiceRepository, cat *catalog.Catalog, opts Options) *Service {
	s := &Service{
		repo:    repo,
		catalog: cat,
		company: opts.Company,
		loc:     opts.Location,
		now:     opts.Now,
		newID:   opts.NewID,
		logger:  opts.Logger,
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		s.logger = discard
	}
	return s
}

func (s *Service) Company() domain.Company {
	return s.company
}

func (s *Service) NewSession() *Session {
	return NewSession(s.newID)
}

// StartEdit loads a saved invoice into a fresh session. Generating from that
// session overwrites the same invoice number.
func (s *Service) StartEdit(ctx context.Context, invoiceNo string) (*Session, error) {
	snapshot, err := s.repo.Load(ctx, strings.TrimSpace(invoiceNo))
	if err != nil {
		return nil, err
	}
	session := s.NewSession()
	session.LoadDraft(snapshot.Data)
	session.editingInvoiceNo = snapshot.InvoiceNo
	return session, nil
}

// BuildSession replays submitted invoice data through a session so the line
// item rules apply to every item. A non-empty editingNo must name a saved
// invoice.
func (s *Service) BuildSession(ctx context.Context, data domain.InvoiceData, editingNo string) (*Session, error) {
	session := s.NewSession()
	if editingNo = strings.TrimSpace(editingNo); editingNo != "" {
		if _, err := s.repo.Load(ctx, editingNo); err != nil {
			return nil, err
		}
		session.editingInvoiceNo = editingNo
	}

	session.SetClient(ClientPatch{
		Name:    &data.Client.Name,
		Address: &data.Client.Address,
		Phone:   &data.Client.Phone,
	})
	session.SetDiscountEnabled(data.DiscountEnabled)
	session.SetDiscountPercent(data.DiscountPercent)
	session.SetDiscountFlat(data.DiscountFlat)
	session.SetProjectDescription(data.ProjectDescriptionEnabled, data.ProjectDescription)

	editor := session.Items()
	for idx, item := range data.Items {
		editor.SetTemp(patchFromItem(item))
		if err := editor.Commit(); err != nil {
			return nil, fmt.Errorf("item %d: %w", idx+1, err)
		}
	}
	return session, nil
}

// Generate validates the session, saves it and returns the printable payload.
// The session's editing context is cleared after a successful save.
func (s *Service) Generate(ctx context.Context, session *Session) (domain.RenderPayload, error) {
	client := session.Client()
	if strings.TrimSpace(client.Name) == "" || strings.TrimSpace(client.Address) == "" {
		return domain.RenderPayload{}, &lineitem.ValidationError{
			Err:     lineitem.ErrValidation,
			Field:   "client",
			Details: "customer name and address are required",
		}
	}
	if len(session.Items().Items()) == 0 {
		return domain.RenderPayload{}, &lineitem.ValidationError{
			Err:     lineitem.ErrValidation,
			Field:   "items",
			Details: "add at least one product",
		}
	}

	editingNo := session.EditingInvoiceNo()
	snapshot, err := s.repo.Save(ctx, session.Data(s.company), session.Totals(), editingNo)
	if err != nil {
		return domain.RenderPayload{}, err
	}
	session.editingInvoiceNo = ""

	s.logger.WithFields(logrus.Fields{
		"invoice_no": snapshot.InvoiceNo,
		"edit":       editingNo != "",
		"items":      len(snapshot.Data.Items),
	}).Info("invoice saved")

	return s.render(snapshot, s.now(), editingNo != "")
}

// Preview renders a saved invoice dated at its creation time.
func (s *Service) Preview(ctx context.Context, invoiceNo string) (domain.RenderPayload, error) {
	snapshot, err := s.repo.Load(ctx, strings.TrimSpace(invoiceNo))
	if err != nil {
		return domain.RenderPayload{}, err
	}
	date := snapshot.CreatedAt.Time
	if snapshot.CreatedAt.IsZero() {
		date = s.now()
	}
	return s.render(snapshot, date, false)
}

func (s *Service) Get(ctx context.Context, invoiceNo string) (domain.Snapshot, error) {
	return s.repo.Load(ctx, strings.TrimSpace(invoiceNo))
}

// List returns saved invoices newest first.
func (s *Service) List(ctx context.Context) ([]domain.Snapshot, error) {
	snapshots, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		a, b := snapshots[i].CreatedAt.Time, snapshots[j].CreatedAt.Time
		if !a.Equal(b) {
			return a.After(b)
		}
		return snapshots[i].InvoiceNo > snapshots[j].InvoiceNo
	})
	return snapshots, nil
}

func (s *Service) Delete(ctx context.Context, invoiceNo string) error {
	return s.repo.Delete(ctx, strings.TrimSpace(invoiceNo))
}

func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	return s.repo.PurgeExpired(ctx)
}

// Quote returns the session's totals without saving anything.
func (s *Service) Quote(session *Session) domain.Totals {
	return session.Totals()
}

func (s *Service) Catalog() []domain.CatalogGroup {
	return s.catalog.Groups()
}

func (s *Service) ImportCatalog(entries []domain.CatalogEntry) (added, updated int, err error) {
	if len(entries) == 0 {
		return 0, 0, &lineitem.ValidationError{
			Err:     lineitem.ErrValidation,
			Field:   "file",
			Details: "catalog file has no data rows",
		}
	}
	added, updated = s.catalog.Merge(entries)
	s.logger.WithFields(logrus.Fields{"added": added, "updated": updated}).Info("catalog imported")
	return added, updated, nil
}

// render builds the presentation payload. Totals are recomputed from the
// stored items and discounts; the cached totals are not trusted.
func (s *Service) render(snapshot domain.Snapshot, date time.Time, isEdit bool) (domain.RenderPayload, error) {
	data := snapshot.Data
	totals := pricing.ComputeTotals(data.Items, data.DiscountPercent, data.DiscountFlat)

	amountWords, err := words.AmountInWords(pricing.DisplayAmount(totals.GrandTotal))
	if err != nil {
		return domain.RenderPayload{}, fmt.Errorf("invoice %s: %w", snapshot.InvoiceNo, err)
	}

	rows := make([]domain.RenderRow, 0, len(data.Items))
	for idx, item := range data.Items {
		row := domain.RenderRow{
			Index:       idx + 1,
			Name:        item.Name,
			Description: item.Description,
			Category:    item.Category,
			Qty:         item.Qty,
			Rate:        pricing.UnitRate(item),
			Total:       pricing.ItemTotal(item),
		}
		if area, ok := pricing.AreaQuantity(item); ok {
			row.Area = &area
		}
		rows = append(rows, row)
	}

	local := date.In(s.loc)
	return domain.RenderPayload{
		Company:  data.Company,
		TagLine:  data.TagLine,
		Location: data.Location,
		Phone:    data.Phone,
		Client: domain.ClientDetail{
			Name:    orNotAvailable(data.Client.Name),
			Address: orNotAvailable(data.Client.Address),
			Phone:   orNotAvailable(data.Client.Phone),
		},
		Items:                     data.Items,
		Rows:                      rows,
		DiscountPercent:           totals.DiscountPercent,
		DiscountFlat:              totals.DiscountFlat,
		ProjectDescriptionEnabled: data.ProjectDescriptionEnabled,
		ProjectDescription:        data.ProjectDescription,
		InvoiceNo:                 snapshot.InvoiceNo,
		Date:                      local.Format("02/01/2006"),
		Day:                       local.Weekday().String(),
		SubTotal:                  totals.SubTotal,
		PercentDiscountAmount:     totals.PercentAmount,
		DiscountAmount:            totals.DiscountAmount,
		GrandTotal:                totals.GrandTotal,
		GrandTotalDisplay:         pricing.FormatAmount(totals.GrandTotal),
		AmountWords:               amountWords,
		IsEdit:                    isEdit,
	}, nil
}

// patchFromItem replays a submitted item through the editor. The submitted
// qty is taken as is; defaulting a missing qty is the caller's job.
func patchFromItem(item domain.LineItem) lineitem.ItemPatch {
	patch := lineitem.ItemPatch{
		ID:          &item.ID,
		Name:        &item.Name,
		Description: &item.Description,
		Category:    &item.Category,
		Qty:         &item.Qty,
		Price:       &item.Price,
		Sqft:        item.Sqft,
		Rate:        item.Rate,
		ClearArea:   true,
	}
	if item.Mode != "" {
		patch.Mode = &item.Mode
	}
	return patch
}

func orNotAvailable(value string) string {
	if value = strings.TrimSpace(value); value == "" {
		return notAvailable
	}
	return value
}
