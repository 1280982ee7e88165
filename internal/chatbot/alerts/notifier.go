// internal/chatbot/alerts/notifier.go
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/models"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	EmailEnabled   bool
	TopicEnabled   bool
	FromEmail      string
	SecurityEmails []string
	TopicArn       string
}

// Notifier sends security alerts. Delivery failures are logged and dropped.
type Notifier struct {
	config *Config
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

func NewNotifier(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config: config,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "alerts"}),
	}
}

// AccountLocked reports a lockout by e-mail and on the alert topic.
func (n *Notifier) AccountLocked(ctx context.Context, username string, until time.Time) {
	subject := fmt.Sprintf("[VAHAN Chatbot] Account locked: %s", username)
	body := fmt.Sprintf("The account %q was locked after repeated failed login attempts.\nLocked until: %s UTC",
		username, until.UTC().Format(time.RFC1123))

	if n.config.EmailEnabled && len(n.config.SecurityEmails) > 0 {
		if err := n.sendEmail(ctx, subject, body); err != nil {
			n.logger.Error("lockout email failed", map[string]interface{}{
				"username": username,
				"error":    err.Error(),
			})
		}
	}
	n.publish(ctx, subject, body, "account_locked")
}

// AccessDenied reports a question rejected by jurisdiction scoping.
func (n *Notifier) AccessDenied(ctx context.Context, caller models.Caller, question string) {
	subject := fmt.Sprintf("[VAHAN Chatbot] Access denied for %s", caller.Username)
	body := fmt.Sprintf("User %s (%s, %s) asked outside their jurisdiction:\n%s",
		caller.Username, caller.Role, caller.Region(), question)
	n.publish(ctx, subject, body, "access_denied")
}

func (n *Notifier) sendEmail(ctx context.Context, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: n.config.SecurityEmails,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *Notifier) publish(ctx context.Context, subject, body, kind string) {
	if !n.config.TopicEnabled || n.config.TopicArn == "" {
		return
	}
	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.config.TopicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	})
	if err != nil {
		n.logger.Error("alert publish failed", map[string]interface{}{
			"kind":  kind,
			"error": err.Error(),
		})
	}
}
