package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bridgekit/mentiond/internal/domain"
	"github.com/bridgekit/mentiond/internal/fetch"
)

// bridgeTarget is the generic target for plain publish notifications;
// the bridge derives everything else from the source page itself.
const bridgeTarget = "https://fed.brid.gy/"

// SendService notifies the federation bridge that a local page was
// published or replies to a remote post. One attempt, no retries, and
// it never raises: every path returns a SendResult.
type SendService struct {
	endpoint   string
	maxPostAge time.Duration
	client     *http.Client
	logger     *slog.Logger

	now func() time.Time
}

func NewSendService(endpoint string, maxPostAgeDays int, timeout time.Duration, logger *slog.Logger) *SendService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendService{
		endpoint:   endpoint,
		maxPostAge: time.Duration(maxPostAgeDays) * 24 * time.Hour,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// Send notifies the bridge about a freshly published page. Pages over
// the age cap or carrying the opt-out marker fail before any network
// call.
func (s *SendService) Send(ctx context.Context, page domain.Page) domain.SendResult {
	ctx, span := tracer.Start(ctx, "Send.Send")
	defer span.End()

	if age := s.now().Sub(page.Date()); age > s.maxPostAge {
		days := int(s.maxPostAge.Hours() / 24)
		return domain.SendResult{Success: false, Message: fmt.Sprintf("Post too old (>%d days)", days)}
	}

	if page.NoBridge() {
		return domain.SendResult{Success: false, Message: "nobridge is set"}
	}

	span.SetAttributes(attribute.String("webmention.source", page.URL()))
	return s.post(ctx, page.URL(), bridgeTarget)
}

// SendReply notifies the bridge that page replies to a remote post.
// Replies skip the age check: a reply is current whenever it is made.
func (s *SendService) SendReply(ctx context.Context, page domain.Page, replyToURL string) domain.SendResult {
	ctx, span := tracer.Start(ctx, "Send.SendReply")
	defer span.End()

	if page.NoBridge() {
		return domain.SendResult{Success: false, Message: "nobridge is set"}
	}

	return s.post(ctx, page.URL(), replyToURL)
}

func (s *SendService) post(ctx context.Context, source, target string) domain.SendResult {
	form := url.Values{}
	form.Set("source", source)
	form.Set("target", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.SendResult{Success: false, Message: "Exception: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", fetch.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("webmention send failed", slog.String("source", source), slog.String("error", err.Error()))
		return domain.SendResult{Success: false, Message: "Exception: " + err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusAccepted {
		return domain.SendResult{Success: true, Message: "Webmention sent successfully"}
	}

	detail := strings.TrimSpace(string(body))
	if detail == "" {
		detail = "No response"
	}
	s.logger.Warn("webmention rejected by bridge",
		slog.String("source", source),
		slog.Int("status", resp.StatusCode),
	)
	return domain.SendResult{Success: false, Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, detail)}
}
