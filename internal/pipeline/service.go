package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nuworks/agentia/internal/archive"
	"github.com/nuworks/agentia/internal/document"
	"github.com/nuworks/agentia/internal/models"
	"github.com/nuworks/agentia/internal/order"
	"github.com/nuworks/agentia/internal/script"
	"github.com/nuworks/agentia/internal/storage"
	"github.com/nuworks/agentia/pkg/textextract"
)

// OrderLogger records packaged orders and generation calls. audit.Service
// implements it against Postgres.
type OrderLogger interface {
	LogOrder(ctx context.Context, entry models.OrderLog) error
	LogLLMUsage(ctx context.Context, record models.LLMUsageLog) error
}

type Options struct {
	Storage storage.Storage
	Bucket  string
	DropURL string
	Logger  OrderLogger
	Style   script.Style
}

// Service runs one submission at a time through extraction, generation and
// packaging. It holds no per-submission state.
type Service struct {
	extractor document.TextExtractor
	generator *script.Generator
	builder   *order.Builder
	packager  *archive.Packager
	storage   storage.Storage
	bucket    string
	dropURL   string
	logger    OrderLogger
	style     script.Style
	now       func() time.Time
}

func NewService(extractor document.TextExtractor, generator *script.Generator, builder *order.Builder, packager *archive.Packager, opts Options) *Service {
	style := opts.Style
	if style.Language == "" {
		style = script.DefaultStyle()
	}
	return &Service{
		extractor: extractor,
		generator: generator,
		builder:   builder,
		packager:  packager,
		storage:   opts.Storage,
		bucket:    opts.Bucket,
		dropURL:   opts.DropURL,
		logger:    opts.Logger,
		style:     style,
		now:       time.Now,
	}
}

// DraftResult is the generated script the operator reviews before packaging.
type DraftResult struct {
	Fields         order.FormFields
	Extracted      *textextract.ExtractedText
	Script         script.Result
	ExtractedChars int
}

// Draft validates the submission, extracts the document text and asks the
// backend for a script. Only validation problems are returned as errors;
// unreadable documents and backend failures are reported in Script.
func (s *Service) Draft(ctx context.Context, fields order.FormFields, doc *document.Asset) (*DraftResult, error) {
	fields = fields.Normalize()
	if err := fields.Validate(doc != nil); err != nil {
		return nil, err
	}
	if err := s.builder.Check(fields); err != nil {
		return nil, err
	}

	extracted := s.extractor.Extract(ctx, doc)
	result := s.generator.Generate(ctx, extracted.Content, s.style)

	s.logUsage(ctx, fields, result)

	return &DraftResult{
		Fields:         fields,
		Extracted:      extracted,
		Script:         result,
		ExtractedChars: utf8.RuneCountInString(extracted.Content),
	}, nil
}

// Order is a packaged submission.
type Order struct {
	ID            uuid.UUID
	Record        *order.Record
	Archive       *archive.Archive
	Location      string
	DropURL       string
	DeliveryError string
}

// Finalize builds the record from the edited script and packages it with the
// uploaded assets. Delivery to storage is best effort: the archive is still
// returned when the upload fails.
func (s *Service) Finalize(ctx context.Context, fields order.FormFields, finalScript string, logo, doc *document.Asset) (*Order, error) {
	fields = fields.Normalize()
	if err := validateFinal(fields, finalScript, doc); err != nil {
		return nil, err
	}

	rec, err := s.builder.Build(fields, finalScript, s.now())
	if err != nil {
		return nil, err
	}

	arc, err := s.packager.Package(rec, logo, doc)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:      uuid.New(),
		Record:  rec,
		Archive: arc,
		DropURL: s.dropURL,
	}

	if s.storage != nil {
		key := storage.ObjectKey(rec.Date, arc.Filename)
		if err := s.storage.Upload(ctx, s.bucket, key, arc.Data, archive.ContentType); err != nil {
			slog.WarnContext(ctx, "order archive delivery failed", "order_id", o.ID, "key", key, "error", err)
			o.DeliveryError = err.Error()
		} else {
			o.Location = s.storage.ObjectURL(s.bucket, key)
		}
	}

	slog.InfoContext(ctx, "order packaged",
		"order_id", o.ID,
		"project_id", rec.ProjectID,
		"archive", arc.Filename,
		"bytes", len(arc.Data),
		"entries", arc.Entries,
		"delivered", o.Location != "",
	)

	if s.logger != nil {
		entry := models.OrderLog{
			ID:           o.ID,
			ProjectID:    rec.ProjectID,
			CompanyName:  rec.CompanyName,
			OrderDate:    rec.Date,
			BackgroundID: rec.BackgroundID,
			AvatarID:     rec.AvatarID,
			BGMID:        rec.BGMID,
			ScriptChars:  utf8.RuneCountInString(rec.Script),
			ArchiveName:  arc.Filename,
			ArchiveBytes: len(arc.Data),
			Entries:      arc.Entries,
			Location:     o.Location,
		}
		if err := s.logger.LogOrder(ctx, entry); err != nil {
			slog.WarnContext(ctx, "failed to log order", "order_id", o.ID, "error", err)
		}
	}

	return o, nil
}

// validateFinal extends the form checks with the edited script, which must
// not be blank.
func validateFinal(fields order.FormFields, finalScript string, doc *document.Asset) error {
	var missing []string
	if err := fields.Validate(doc != nil); err != nil {
		var ve *order.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		missing = append(missing, ve.Missing...)
	}
	if strings.TrimSpace(finalScript) == "" {
		missing = append(missing, "script")
	}
	if len(missing) > 0 {
		return &order.ValidationError{Missing: missing}
	}
	return nil
}

func (s *Service) logUsage(ctx context.Context, fields order.FormFields, res script.Result) {
	if s.logger == nil || res.Status == script.StatusUnreadable {
		return
	}
	metadata, _ := json.Marshal(map[string]any{
		"project_id":  fields.ProjectID,
		"input_chars": res.InputChars,
		"truncated":   res.Truncated,
	})
	record := models.LLMUsageLog{
		Provider:     res.Provider,
		Model:        res.Model,
		Status:       string(res.Status),
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		TotalTokens:  res.InputTokens + res.OutputTokens,
		CostUSD:      res.CostUSD,
		LatencyMs:    res.LatencyMs,
		Endpoint:     "scripts",
		Metadata:     metadata,
	}
	if err := s.logger.LogLLMUsage(ctx, record); err != nil {
		slog.WarnContext(ctx, "failed to log LLM usage", "error", err)
	}
}

// EnsureStorage creates the delivery bucket when the backend supports it.
func (s *Service) EnsureStorage(ctx context.Context) error {
	e, ok := s.storage.(storage.BucketEnsurer)
	if !ok {
		return nil
	}
	return e.EnsureBucket(ctx, s.bucket)
}

func (s *Service) Catalog() *order.Catalog { return s.builder.Catalog() }

func (s *Service) DropURL() string { return s.dropURL }
