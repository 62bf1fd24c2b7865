package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bridgekit/mentiond/internal/domain"
)

var tracer = otel.Tracer("usecase")

// ReceiveInput is one inbound webmention notification as seen at the
// protocol boundary.
type ReceiveInput struct {
	Method     string
	RemoteAddr string
	Source     string
	Target     string
}

// Receipt is the protocol-facing outcome: an HTTP status and a JSON
// body. Nothing else escapes the pipeline.
type Receipt struct {
	Status int
	Body   map[string]any
}

// ReceiveUsecase runs the inbound pipeline: rate limit, validation,
// fetch, extraction, sanitization, storage. Every exit is a Receipt;
// no step retries and a failed receipt leaves no storage side effect.
type ReceiveUsecase struct {
	limiter   RateLimiter
	fetcher   SourceFetcher
	extractor Extractor
	sanitizer Sanitizer
	mentions  MentionStore
	pages     domain.PageResolver
	logger    *slog.Logger

	allowedSources []string
	languages      []string

	now func() time.Time
}

func NewReceiveUsecase(
	limiter RateLimiter,
	fetcher SourceFetcher,
	extractor Extractor,
	sanitizer Sanitizer,
	mentions MentionStore,
	pages domain.PageResolver,
	logger *slog.Logger,
	allowedSources []string,
	languages []string,
) *ReceiveUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiveUsecase{
		limiter:        limiter,
		fetcher:        fetcher,
		extractor:      extractor,
		sanitizer:      sanitizer,
		mentions:       mentions,
		pages:          pages,
		logger:         logger,
		allowedSources: allowedSources,
		languages:      languages,
		now:            time.Now,
	}
}

// Handle runs the pipeline for one notification.
func (uc *ReceiveUsecase) Handle(ctx context.Context, in ReceiveInput) Receipt {
	ctx, span := tracer.Start(ctx, "Receive.Handle")
	defer span.End()

	page, err := uc.admit(ctx, in)
	if err != nil {
		return receiptFor(err)
	}

	html, err := uc.fetcher.Fetch(ctx, in.Source)
	if err != nil {
		// Internal detail stays in the log; clients get a generic failure.
		uc.logger.Warn("failed to fetch source", slog.String("source", in.Source), slog.String("error", err.Error()))
		return receiptFor(err)
	}

	interaction := uc.extractor.Extract(html, in.Source)

	mention := domain.Webmention{
		ID:          GenerateID(),
		Source:      in.Source,
		Target:      in.Target,
		Type:        interaction.Type,
		Author:      interaction.Author,
		Content:     uc.sanitizer.Sanitize(interaction.Content),
		Published:   interaction.Published,
		Received:    uc.now().UTC().Format(time.RFC3339),
		OriginalURL: interaction.OriginalURL,
	}

	if err := uc.mentions.Save(ctx, page.Slug(), mention); err != nil {
		uc.logger.Error("failed to store webmention", slog.String("slug", page.Slug()), slog.String("error", err.Error()))
		return receiptFor(err)
	}

	span.SetAttributes(
		attribute.String("webmention.type", string(mention.Type)),
		attribute.String("webmention.slug", page.Slug()),
	)
	uc.logger.Info("received webmention",
		slog.String("type", string(mention.Type)),
		slog.String("slug", page.Slug()),
		slog.String("id", mention.ID),
	)

	return Receipt{
		Status: http.StatusAccepted,
		Body:   map[string]any{"status": "Accepted", "id": mention.ID},
	}
}

// admit runs every pre-fetch check and resolves the target page.
// Failures come back as typed domain errors for receiptFor to map.
func (uc *ReceiveUsecase) admit(ctx context.Context, in ReceiveInput) (domain.Page, error) {
	if in.Method != http.MethodPost {
		return nil, domain.ValidationError{Status: http.StatusMethodNotAllowed, Reason: "Method Not Allowed"}
	}

	allowed, err := uc.limiter.Allow(ctx, in.RemoteAddr)
	if err != nil {
		uc.logger.Error("rate limiter failure", slog.String("error", err.Error()))
		return nil, err
	}
	if !allowed {
		return nil, domain.RateLimitedError{}
	}

	if in.Source == "" || in.Target == "" {
		return nil, domain.ValidationError{Status: http.StatusBadRequest, Reason: "Missing source or target"}
	}

	if !validURL(in.Source) || !validURL(in.Target) {
		return nil, domain.ValidationError{Status: http.StatusBadRequest, Reason: "Invalid URL"}
	}

	if !uc.sourceAllowed(in.Source) {
		return nil, domain.ValidationError{Status: http.StatusForbidden, Reason: "Source not allowed"}
	}

	page, err := uc.findPage(ctx, in.Target)
	if err != nil {
		uc.logger.Error("page lookup failure", slog.String("target", in.Target), slog.String("error", err.Error()))
		return nil, err
	}
	if page == nil {
		return nil, domain.ValidationError{Status: http.StatusBadRequest, Reason: "Target not found"}
	}

	return page, nil
}

// receiptFor maps the error taxonomy onto protocol receipts. Anything
// untyped is an internal failure and stays opaque to the client.
func receiptFor(err error) Receipt {
	var v domain.ValidationError
	switch {
	case errors.As(err, &v):
		return reject(v.Status, v.Reason)
	case errors.Is(err, domain.ErrRateLimited):
		return reject(http.StatusTooManyRequests, "Too Many Requests")
	case errors.Is(err, domain.ErrFetch):
		return reject(http.StatusBadRequest, "Failed to fetch source")
	default:
		return reject(http.StatusInternalServerError, "Internal Server Error")
	}
}

// GenerateID returns a fresh mention identifier, wm_ plus twelve hex
// characters. Idempotent redelivery detection is by source, not id.
func GenerateID() string {
	var b [6]byte
	rand.Read(b[:])
	return "wm_" + hex.EncodeToString(b[:])
}

func reject(status int, message string) Receipt {
	return Receipt{Status: status, Body: map[string]any{"error": message}}
}

// validURL accepts absolute http(s) URLs with a host.
func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// sourceAllowed matches the source host against the allow-list,
// exactly or as a subdomain of an allowed suffix.
func (uc *ReceiveUsecase) sourceAllowed(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	host := u.Hostname()

	for _, allowed := range uc.allowedSources {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// findPage resolves the target URL to a local page, stripping a locale
// path prefix first when the site is multilingual.
func (uc *ReceiveUsecase) findPage(ctx context.Context, target string) (domain.Page, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, lang := range uc.languages {
		prefix := "/" + lang + "/"
		if strings.HasPrefix(path, prefix) {
			path = strings.TrimPrefix(path, "/"+lang)
			break
		}
	}

	return uc.pages.FindByPath(ctx, path)
}
