package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kaabmedia/Vdubscards/internal/config"
	"github.com/kaabmedia/Vdubscards/internal/datamodels/subscriber"
	"github.com/kaabmedia/Vdubscards/internal/infra/mq"
)

var emailRe = regexp.MustCompile(`.+@.+\..+`)

// NewsletterService records signups. Only validation can fail the
// request; the webhook forward, the CSV audit line and the queue event
// are all best effort.
type NewsletterService struct {
	cfg       config.NewsletterConfig
	publisher *mq.Publisher
	http      *http.Client
}

func NewNewsletterService(cfg config.NewsletterConfig, publisher *mq.Publisher) *NewsletterService {
	return &NewsletterService{
		cfg:       cfg,
		publisher: publisher,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Signup validates the address and fans it out to the configured sinks.
func (s *NewsletterService) Signup(ctx context.Context, email, topic string) error {
	email = strings.TrimSpace(email)
	if !emailRe.MatchString(email) {
		return badRequest("invalid email address")
	}

	s.forward(ctx, email, topic)
	s.appendCSV(email, topic)
	s.publisher.Publish(ctx, subscriber.SignupEvent{
		ID:     uuid.NewString(),
		Email:  email,
		Topic:  topic,
		Source: "storefront",
		TS:     time.Now().Unix(),
	})
	return nil
}

func (s *NewsletterService) forward(ctx context.Context, email, topic string) {
	if s.cfg.WebhookURL == "" {
		return
	}
	body, _ := json.Marshal(map[string]string{"email": email, "topic": topic})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := s.http.Do(req)
	if err != nil {
		zap.L().Debug("newsletter webhook failed", zap.Error(err))
		return
	}
	res.Body.Close()
}

func (s *NewsletterService) appendCSV(email, topic string) {
	dir := s.cfg.DataDir
	if dir == "" {
		dir = ".data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		zap.L().Debug("newsletter audit dir failed", zap.Error(err))
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "newsletter.csv"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		zap.L().Debug("newsletter audit open failed", zap.Error(err))
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s,%s,%s\n", time.Now().UTC().Format(time.RFC3339), email, topic)
}
