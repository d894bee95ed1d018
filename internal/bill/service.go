package bill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zombor/bill-scanner/internal/categorize"
	"github.com/zombor/bill-scanner/internal/items"
	"github.com/zombor/bill-scanner/internal/ocr"
	"github.com/zombor/bill-scanner/internal/pricing"
	"github.com/zombor/bill-scanner/internal/recommend"
	"github.com/zombor/bill-scanner/internal/vision"
)

// ErrInvalidImage marks uploads that cannot be decoded into a bill image.
// Handlers report these as client errors rather than server failures.
var ErrInvalidImage = errors.New("invalid image")

// IDGenerator generates unique IDs for bills and shopping lists
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// TextExtractor recognizes text lines across preprocessed image variants
type TextExtractor interface {
	Extract(ctx context.Context, variants []vision.Variant) ([]ocr.Detection, error)
}

// QuoteProvider returns platform quotes for one item, ascending by price
type QuoteProvider interface {
	Quotes(ctx context.Context, name string, originalPrice float64, qty, category string) []pricing.Quote
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles bill operations
type Service struct {
	db          DB
	storage     Storage
	extractor   TextExtractor
	categorizer categorize.Categorizer
	suggester   categorize.ListSuggester
	quotes      QuoteProvider
	idGenerator IDGenerator
	timeSource  TimeSource
	debugDir    string

	// rng feeds the insight trend jitter, guarded because rand.Rand is
	// not safe for concurrent use
	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates a new Service with default ID generator and time source.
// debugDir may be empty to disable OCR overlay dumps.
func NewService(db DB, storage Storage, extractor TextExtractor, categorizer categorize.Categorizer, suggester categorize.ListSuggester, quotes QuoteProvider, rng *rand.Rand, debugDir string) *Service {
	return NewServiceWithDeps(db, storage, extractor, categorizer, suggester, quotes, rng, debugDir, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, extractor TextExtractor, categorizer categorize.Categorizer, suggester categorize.ListSuggester, quotes QuoteProvider, rng *rand.Rand, debugDir string, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		extractor:   extractor,
		categorizer: categorizer,
		suggester:   suggester,
		quotes:      quotes,
		idGenerator: idGen,
		timeSource:  timeSrc,
		debugDir:    debugDir,
		rng:         rng,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	// Get the extension
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Remove special characters, keep only alphanumeric, spaces, hyphens, and underscores
	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	// Replace multiple spaces with single space
	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	// Trim spaces
	base = strings.TrimSpace(base)

	// Truncate to reasonable length (50 chars for base, plus extension)
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	// If base is empty after sanitization, use a default
	if base == "" {
		base = "bill"
	}

	return base + ext
}

// ProcessBill stores an uploaded bill image, recognizes and categorizes its
// items, prices each one across platforms and saves the resulting bill
func (s *Service) ProcessBill(ctx context.Context, filename string, data []byte, contentType string, userID string) (*Analysis, error) {
	// Generate unique ID
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	// Sanitize filename to clean up phone-generated long filenames
	cleanFilename := sanitizeFilename(filename)

	// Save file to storage
	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	img, err := vision.Decode(data, contentType)
	if err != nil {
		slog.Error("Failed to decode bill image",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved file since the upload is unusable
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	detections, err := s.extractor.Extract(ctx, vision.Preprocess(img))
	if err != nil {
		slog.Error("Failed to extract text", "filename", filename, "error", err)
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	if s.debugDir != "" {
		overlayPath := filepath.Join(s.debugDir, id+"_overlay.png")
		if err := ocr.SaveOverlay(img, detections, overlayPath); err != nil {
			slog.Warn("Failed to save OCR overlay", "path", overlayPath, "error", err)
		}
	}

	texts := make([]string, 0, len(detections))
	for _, d := range detections {
		texts = append(texts, d.Text)
	}

	rawItems := items.ParseItems(texts)
	if len(rawItems) == 0 {
		slog.Warn("No items parsed from bill, scanning raw text for amounts", "filename", filename, "detections", len(detections))
		rawItems = items.FallbackItems(strings.Join(texts, " "))
	}

	categorized, err := s.categorizer.CategorizeItems(ctx, rawItems)
	if err != nil {
		slog.Error("Failed to categorize items", "filename", filename, "error", err)
		categorized = categorize.FallbackItems(rawItems)
	}

	var total float64
	for _, item := range categorized {
		total += item.Price
	}

	bill := &Bill{
		ID:          id,
		UserID:      userID,
		UploadDate:  now,
		TotalAmount: total,
		Items:       categorized,
		Status:      "completed",
		Filename:    savedPath,
		ContentType: contentType,
	}

	itemQuotes := make([]ItemQuotes, 0, len(categorized))
	var totalSavings float64
	for _, item := range categorized {
		if item.Price <= 0 {
			continue
		}

		qty := item.Quantity
		if qty == "" {
			qty = "1"
		}
		category := item.Category
		if category == "" {
			category = "Other"
		}

		quotes := s.quotes.Quotes(ctx, item.Name, item.Price, qty, category)
		if len(quotes) == 0 {
			continue
		}

		best := quotes[0].Price
		for _, q := range quotes[1:] {
			if q.Price < best {
				best = q.Price
			}
		}
		maxSavings := item.Price - best
		totalSavings += maxSavings

		itemQuotes = append(itemQuotes, ItemQuotes{
			Name:                 item.Name,
			Category:             category,
			OriginalPrice:        item.Price,
			PlatformPrices:       quotes,
			BestPrice:            best,
			MaxSavings:           maxSavings,
			RecommendedPlatforms: recommend.Recommend(category, quotes, pricing.DeliveryTimes()),
		})
	}

	// Save to database
	if err := s.db.SaveBill(bill); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving bill: %w", err)
	}

	return &Analysis{
		Bill:                  bill,
		ItemsWithPrices:       itemQuotes,
		TotalSavingsPotential: totalSavings,
	}, nil
}

// GetBill retrieves one of a user's bills by ID
func (s *Service) GetBill(id, userID string) (*Bill, error) {
	bill, err := s.db.GetBill(id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}
	if bill.UserID != userID {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return bill, nil
}

// ListBills returns the user's bills, newest first
func (s *Service) ListBills(userID string) ([]*Bill, error) {
	bills, err := s.db.ListBills(userID)
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	return bills, nil
}

// DeleteBill removes a bill and its stored image
func (s *Service) DeleteBill(id, userID string) error {
	bill, err := s.db.GetBill(id)
	if err != nil {
		return fmt.Errorf("getting bill for deletion: %w", err)
	}
	if bill.UserID != userID {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	// Delete file
	if bill.Filename != "" {
		if err := s.storage.Delete(bill.Filename); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete file", "filename", bill.Filename, "error", err)
		}
	}

	// Delete from database
	if err := s.db.DeleteBill(id); err != nil {
		return fmt.Errorf("deleting bill: %w", err)
	}
	return nil
}

// GetBillImage retrieves the stored upload for a bill
func (s *Service) GetBillImage(id, userID string) ([]byte, string, error) {
	bill, err := s.db.GetBill(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting bill: %w", err)
	}
	if bill.UserID != userID {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	data, err := s.storage.Get(bill.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting bill image: %w", err)
	}

	return data, bill.ContentType, nil
}
