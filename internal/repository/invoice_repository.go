package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"billing/internal/domain"
	"billing/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrCorruptRecord = errors.New("corrupt invoice record")
)

const (
	KeyPrefix        = "invoice_"
	DefaultRetention = 30 * 24 * time.Hour

	newNumberAttempts = 3
)

type Options struct {
	Retention           time.Duration
	RefreshExpiryOnEdit bool
	Now                 func() time.Time
	// NewSuffix returns the random tail of new invoice numbers.
	NewSuffix func() string
	Logger    logrus.FieldLogger
}

// InvoiceRepository persists invoice snapshots as JSON under invoice_<no>.
type InvoiceRepository struct {
	store         store.Store
	retention     time.Duration
	refreshOnEdit bool
	now           func() time.Time
	newSuffix     func() string
	logger        logrus.FieldLogger
}

func New(s store.Store, opts Options) *InvoiceRepository {
	r := &InvoiceRepository{
		store:         s,
		retention:     opts.Retention,
		refreshOnEdit: opts.RefreshExpiryOnEdit,
		now:           opts.Now,
		newSuffix:     opts.NewSuffix,
		logger:        opts.Logger,
	}
	if r.retention <= 0 {
		r.retention = DefaultRetention
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newSuffix == nil {
		r.newSuffix = randomSuffix
	}
	if r.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		r.logger = discard
	}
	return r
}

func Key(invoiceNo string) string {
	return KeyPrefix + invoiceNo
}

func (r *InvoiceRepository) Retention() time.Duration {
	return r.retention
}

// NewInvoiceNumber builds INV-<timestamp>-<suffix>. Uniqueness is best effort.
func (r *InvoiceRepository) NewInvoiceNumber() string {
	return fmt.Sprintf("INV-%s-%s", r.now().Format("20060102150405"), r.newSuffix())
}

// Save writes a snapshot. A non-empty editingNo overwrites that invoice and
// keeps its creation and expiry times; otherwise a new number is minted.
func (r *InvoiceRepository) Save(
	ctx context.Context,
	data domain.InvoiceData,
	totals domain.Totals,
	editingNo string,
) (domain.Snapshot, error) {
	now := r.now()
	snapshot := domain.Snapshot{
		CreatedAt:  domain.NewTimestamp(now),
		ExpiryTime: domain.NewTimestamp(now.Add(r.retention)),
		Data:       data,
		Totals:     totals,
	}

	editingNo = strings.TrimSpace(editingNo)
	if editingNo != "" {
		snapshot.InvoiceNo = editingNo
		existing, err := r.read(ctx, Key(editingNo))
		switch {
		case err == nil:
			snapshot.CreatedAt = existing.CreatedAt
			if !r.refreshOnEdit {
				snapshot.ExpiryTime = existing.ExpiryTime
			}
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrCorruptRecord):
		default:
			return domain.Snapshot{}, err
		}
	} else {
		invoiceNo, err := r.mintNumber(ctx)
		if err != nil {
			return domain.Snapshot{}, err
		}
		snapshot.InvoiceNo = invoiceNo
	}

	if err := r.write(ctx, snapshot); err != nil {
		return domain.Snapshot{}, err
	}
	return snapshot, nil
}

func (r *InvoiceRepository) mintNumber(ctx context.Context) (string, error) {
	var invoiceNo string
	for attempt := 0; attempt < newNumberAttempts; attempt++ {
		invoiceNo = r.NewInvoiceNumber()
		_, exists, err := r.store.Get(ctx, Key(invoiceNo))
		if err != nil {
			return "", fmt.Errorf("check invoice number %s: %w", invoiceNo, err)
		}
		if !exists {
			return invoiceNo, nil
		}
	}
	return invoiceNo, nil
}

// Load returns ErrNotFound for missing or expired invoices.
func (r *InvoiceRepository) Load(ctx context.Context, invoiceNo string) (domain.Snapshot, error) {
	snapshot, err := r.read(ctx, Key(invoiceNo))
	if err != nil {
		return domain.Snapshot{}, err
	}
	if r.expired(snapshot, r.now()) {
		return domain.Snapshot{}, fmt.Errorf("invoice %s expired: %w", invoiceNo, ErrNotFound)
	}
	return snapshot, nil
}

// Delete is a no-op for unknown invoice numbers.
func (r *InvoiceRepository) Delete(ctx context.Context, invoiceNo string) error {
	if err := r.store.Remove(ctx, Key(invoiceNo)); err != nil {
		return fmt.Errorf("delete invoice %s: %w", invoiceNo, err)
	}
	return nil
}

// List returns every readable, unexpired snapshot in key order. Corrupt
// records are skipped.
func (r *InvoiceRepository) List(ctx context.Context) ([]domain.Snapshot, error) {
	keys, err := r.invoiceKeys(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	snapshots := make([]domain.Snapshot, 0, len(keys))
	for _, key := range keys {
		snapshot, err := r.read(ctx, key)
		if err != nil {
			if errors.Is(err, ErrCorruptRecord) {
				r.logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("skipping corrupt invoice record")
				continue
			}
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if r.expired(snapshot, now) {
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// PurgeExpired removes expired and unparseable records and returns how many
// were removed.
func (r *InvoiceRepository) PurgeExpired(ctx context.Context) (int, error) {
	keys, err := r.invoiceKeys(ctx)
	if err != nil {
		return 0, err
	}

	now := r.now()
	removed := 0
	for _, key := range keys {
		snapshot, err := r.read(ctx, key)
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case errors.Is(err, ErrCorruptRecord):
		case err != nil:
			return removed, err
		case !r.expired(snapshot, now):
			continue
		}

		if err := r.store.Remove(ctx, key); err != nil {
			return removed, fmt.Errorf("purge %s: %w", key, err)
		}
		removed++
	}

	if removed > 0 {
		r.logger.WithField("removed", removed).Info("purged expired invoices")
	}
	return removed, nil
}

// ImportRaw stores an externally produced snapshot after checking it parses.
// invoiceNo fills in a record that lacks its own number.
func (r *InvoiceRepository) ImportRaw(ctx context.Context, invoiceNo, raw string) (domain.Snapshot, error) {
	snapshot, err := r.decode(Key(invoiceNo), raw)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := r.write(ctx, snapshot); err != nil {
		return domain.Snapshot{}, err
	}
	return snapshot, nil
}

func (r *InvoiceRepository) invoiceKeys(ctx context.Context) ([]string, error) {
	keys, err := r.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoice keys: %w", err)
	}
	filtered := keys[:0:0]
	for _, key := range keys {
		if strings.HasPrefix(key, KeyPrefix) {
			filtered = append(filtered, key)
		}
	}
	return filtered, nil
}

func (r *InvoiceRepository) read(ctx context.Context, key string) (domain.Snapshot, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return r.decode(key, raw)
}

func (r *InvoiceRepository) decode(key, raw string) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, key, err)
	}
	if strings.TrimSpace(snapshot.InvoiceNo) == "" {
		snapshot.InvoiceNo = strings.TrimPrefix(key, KeyPrefix)
	}
	if snapshot.InvoiceNo == "" {
		return domain.Snapshot{}, fmt.Errorf("%w: %s: missing invoice number", ErrCorruptRecord, key)
	}
	if snapshot.ExpiryTime.IsZero() && !snapshot.CreatedAt.IsZero() {
		snapshot.ExpiryTime = domain.NewTimestamp(snapshot.CreatedAt.Add(r.retention))
	}
	return snapshot, nil
}

func (r *InvoiceRepository) write(ctx context.Context, snapshot domain.Snapshot) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode invoice %s: %w", snapshot.InvoiceNo, err)
	}
	if err := r.store.Set(ctx, Key(snapshot.InvoiceNo), string(body)); err != nil {
		return fmt.Errorf("save invoice %s: %w", snapshot.InvoiceNo, err)
	}
	return nil
}

// expired reports whether the expiry time has passed. Records with no
// timestamps at all never expire.
func (r *InvoiceRepository) expired(snapshot domain.Snapshot, now time.Time) bool {
	if snapshot.ExpiryTime.IsZero() {
		return false
	}
	return now.After(snapshot.ExpiryTime.Time)
}

func randomSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}
