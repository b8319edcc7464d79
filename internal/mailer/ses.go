// internal/mailer/ses.go
package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appErrors "github.com/relaycrm/outreach-backend/internal/errors"
	"github.com/relaycrm/outreach-backend/internal/model"
	"github.com/relaycrm/outreach-backend/internal/vault"
)

// OutgoingMessage is the fully rendered message handed to the provider.
type OutgoingMessage struct {
	To       string
	Subject  string
	BodyHTML string
	BodyText string
	// CorrelationTags are attached as SES message tags so provider events
	// can be joined back to the org and queue item downstream.
	CorrelationTags map[string]string
}

// Sender transmits messages for one org and returns the provider-assigned
// message id.
type Sender interface {
	Send(ctx context.Context, msg *OutgoingMessage) (string, error)
}

// SESMailer builds per-org senders backed by AWS SES, using credentials
// decrypted from the vault.
type SESMailer struct {
	vault *vault.Vault
}

func NewSESMailer(v *vault.Vault) *SESMailer {
	return &SESMailer{vault: v}
}

// BuildSender decrypts the org's credentials and constructs an SES-backed
// sender. Missing or undecryptable credentials are tenant-fatal: the caller
// must skip every queue item of this org for the cycle, not fail them one by
// one.
func (m *SESMailer) BuildSender(ctx context.Context, org *model.OrgSettings) (Sender, error) {
	if org.SESAccessKeyEncrypted == "" || org.SESSecretKeyEncrypted == "" {
		return nil, appErrors.NewMissingCredentials(org.OrgID)
	}

	accessKey, err := m.vault.Decrypt(org.SESAccessKeyEncrypted)
	if err != nil {
		return nil, fmt.Errorf("org %d: decrypt access key: %w", org.OrgID, err)
	}
	secretKey, err := m.vault.Decrypt(org.SESSecretKeyEncrypted)
	if err != nil {
		return nil, fmt.Errorf("org %d: decrypt secret key: %w", org.OrgID, err)
	}

	region := org.SESRegion
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("org %d: load AWS config: %w", org.OrgID, err)
	}

	return &sesSender{client: sesv2.NewFromConfig(cfg), org: org}, nil
}

type sesSender struct {
	client *sesv2.Client
	org    *model.OrgSettings
}

func (s *sesSender) Send(ctx context.Context, msg *OutgoingMessage) (string, error) {
	org := s.org

	from := org.FromEmail
	if org.FromName != "" {
		from = fmt.Sprintf("%s <%s>", org.FromName, org.FromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.BodyHTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	if msg.BodyText != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(msg.BodyText), Charset: aws.String("UTF-8")}
	}
	if org.ReplyTo != "" {
		input.ReplyToAddresses = []string{org.ReplyTo}
	}
	if org.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(org.ConfigurationSet)
	}

	for name, value := range msg.CorrelationTags {
		input.EmailTags = append(input.EmailTags, types.MessageTag{
			Name:  aws.String(SanitizeTag(name)),
			Value: aws.String(SanitizeTag(value)),
		})
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return "", err
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	return messageID, nil
}
