// internal/alerts/notifier.go
package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/logger"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// NotifierConfig controls alert delivery channels.
type NotifierConfig struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	EmailTo      []string
	SMSTo        []string
	AWSRegion    string
	Timeout      time.Duration
}

// Notifier delivers alert summaries over SES email and, for down devices,
// SNS SMS.
type Notifier struct {
	config    *NotifierConfig
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

// NewNotifier builds a notifier with real AWS clients.
func NewNotifier(ctx context.Context, config *NotifierConfig, log logger.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Notifier{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"component": "alert-notifier"}),
		sesClient: ses.NewFromConfig(awsCfg),
		snsClient: sns.NewFromConfig(awsCfg),
	}, nil
}

// NewNotifierWithClients builds a notifier over injected clients.
func NewNotifierWithClients(config *NotifierConfig, log logger.Logger, sesClient SESService, snsClient SNSService) *Notifier {
	return &Notifier{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"component": "alert-notifier"}),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

// Notify delivers one evaluation result. A summary with nothing down and
// nothing stale is not sent. SMS goes out only when at least one device is
// down; staleness alone is not worth waking anyone up.
func (n *Notifier) Notify(ctx context.Context, summary models.AlertSummary) (*models.Notification, error) {
	if summary.Down == 0 && summary.Stale == 0 {
		return nil, nil
	}

	if n.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.config.Timeout)
		defer cancel()
	}

	subject := fmt.Sprintf("device alerts: %d down, %d stale", summary.Down, summary.Stale)
	body := renderBody(summary)
	sentAt := time.Now().UTC().Format(time.RFC3339)

	notification := &models.Notification{
		ID:     uuid.New().String(),
		Type:   "device_down",
		Status: models.NotificationStatusDisabled,
		SentAt: sentAt,
		Payload: map[string]interface{}{
			"down":  summary.Down,
			"stale": summary.Stale,
		},
		CreatedAt: sentAt,
	}
	if summary.Down == 0 {
		notification.Type = "device_stale"
	}

	emailSent := false
	smsSent := false

	if n.config.EmailEnabled && len(n.config.EmailTo) > 0 {
		if err := n.sendEmail(ctx, subject, body); err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error": err,
			})
			notification.Status = models.NotificationStatusFailed
			return notification, fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
		}
		notification.Channel = "email"
		emailSent = true
	}

	if n.config.SMSEnabled && len(n.config.SMSTo) > 0 && summary.Down > 0 {
		for _, phone := range n.config.SMSTo {
			if err := n.sendSMS(ctx, phone, subject); err != nil {
				n.logger.Error("SMS send failed", map[string]interface{}{
					"error": err,
					"phone": phone,
				})
				notification.Status = models.NotificationStatusFailed
				return notification, fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
			}
		}
		notification.Channel = "sms"
		smsSent = true
	}

	if emailSent || smsSent {
		notification.Status = models.NotificationStatusSent
	}

	n.logger.Info("alert notification processed", map[string]interface{}{
		"notificationId": notification.ID,
		"status":         notification.Status,
		"down":           summary.Down,
		"stale":          summary.Stale,
	})
	return notification, nil
}

func renderBody(summary models.AlertSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Alert evaluation at %s\n\n", summary.EvaluatedAt)
	if summary.Down > 0 {
		fmt.Fprintf(&b, "Down (%d): %s\n", summary.Down, strings.Join(summary.DownNames, ", "))
	}
	if summary.Stale > 0 {
		fmt.Fprintf(&b, "Stale (%d): %s\n", summary.Stale, strings.Join(summary.StaleNames, ", "))
	}
	return b.String()
}

func (n *Notifier) sendEmail(ctx context.Context, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: n.config.EmailTo,
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

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
