package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bridgekit/mentiond/internal/domain"
	"github.com/bridgekit/mentiond/internal/pages"
	"github.com/bridgekit/mentiond/internal/usecase"
)

var (
	sendReplyTo string
	sendForce   bool
)

var sendCmd = &cobra.Command{
	Use:   "send <slug>",
	Short: "Notify the federation bridge about a page",
	Long:  "Sends a webmention for the page to the bridge endpoint. A page that already carries a published marker is skipped unless --force is given; the marker is set after a successful send.",
	Args:  cobra.ExactArgs(1),
	RunE:  sendAction,
}

func init() {
	sendCmd.Flags().StringVar(&sendReplyTo, "reply-to", "", "send as a reply to this remote post URL")
	sendCmd.Flags().BoolVar(&sendForce, "force", false, "send even when the published marker is already set")
}

func sendAction(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	slug := args[0]

	index, err := pages.Load(cfg.Site.PagesFile, cfg.Site.BaseURL)
	if err != nil {
		return err
	}

	page, err := index.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if page == nil {
		return errors.Errorf("unknown page %q", slug)
	}

	if page.PublishedAt() != "" && !sendForce {
		fmt.Printf("skipped: already sent at %s\n", page.PublishedAt())
		return nil
	}

	sender := usecase.NewSendService(
		cfg.Send.Endpoint,
		cfg.Send.MaxPostAgeDays,
		cfg.SendTimeoutDuration(),
		logger,
	)

	replyTo := sendReplyTo
	if replyTo == "" {
		replyTo = page.ReplyTo()
	}

	var result domain.SendResult
	if replyTo != "" {
		result = sender.SendReply(ctx, page, replyTo)
	} else {
		result = sender.Send(ctx, page)
	}

	if !result.Success {
		return errors.New(result.Message)
	}

	ts := time.Now().UTC().Format(time.RFC3339)
	if err := page.SetPublishedAt(ctx, ts); err != nil {
		logger.Warn("sent but failed to record the marker", slog.String("error", err.Error()))
	}
	fmt.Println(result.Message)
	return nil
}
