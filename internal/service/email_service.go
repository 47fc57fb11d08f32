package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/models"
)

// sesAPI is the subset of the SES v2 client used here
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	log        *logger.Logger
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service that skips every send.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, log *logger.Logger) (*EmailService, error) {
	log = log.With("service", "EmailService")
	if fromEmail == "" {
		log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{log: log}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("email service enabled", "from", fromEmail, "region", awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, log), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, appBaseURL string, log *logger.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		enabled:    true,
		log:        log,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.enabled
}

// SendCoachCommentEmail tells a learner that a coach commented on a round
func (s *EmailService) SendCoachCommentEmail(ctx context.Context, toEmail, toName string, sub *models.Submission) error {
	if !s.IsEnabled() {
		return nil
	}
	if sub == nil || sub.CoachComment == nil {
		return nil
	}

	summaryURL := fmt.Sprintf("%s/summary?scene=%d", s.appBaseURL, sub.SceneN)
	subject := fmt.Sprintf("Your coach commented on Scene %d, Round %d", sub.SceneN, sub.RoundN)
	greeting := "Hi"
	if toName != "" {
		greeting = "Hi " + toName
	}

	textBody := fmt.Sprintf(`%s,

Your coach left a comment on Scene %d, Round %d:

%s

Your sentences:
  1. %s
  2. %s

See all your rounds: %s
`, greeting, sub.SceneN, sub.RoundN, *sub.CoachComment, deref(sub.Sentence1Built), deref(sub.Sentence2Built), summaryURL)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <p>%s,</p>
  <p>Your coach left a comment on <strong>Scene %d, Round %d</strong>:</p>
  <blockquote style="border-left: 4px solid #667eea; margin: 0; padding-left: 12px;">%s</blockquote>
  <p>Your sentences:</p>
  <ol>
    <li>%s</li>
    <li>%s</li>
  </ol>
  <p><a href="%s">See all your rounds</a></p>
</body>
</html>`,
		html.EscapeString(greeting), sub.SceneN, sub.RoundN,
		html.EscapeString(*sub.CoachComment),
		html.EscapeString(deref(sub.Sentence1Built)), html.EscapeString(deref(sub.Sentence2Built)),
		html.EscapeString(summaryURL))

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	messageID := ""
	if result != nil && result.MessageId != nil {
		messageID = *result.MessageId
	}
	s.log.Info("email sent", "subject", subject, "message_id", messageID)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
