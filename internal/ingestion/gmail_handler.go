package ingestion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailHandler downloads metric tables attached to Gmail messages
type GmailHandler struct {
	service  *gmail.Service
	inboxDir string
}

// GmailOptions configures where OAuth material is read from
type GmailOptions struct {
	CredentialsPath string
	TokenPath       string
	// Prompt receives the consent URL and returns the pasted authorization
	// code; it is only used when no cached token exists.
	Prompt func(authURL string) (string, error)
}

// NewGmailHandler creates a new Gmail handler
func NewGmailHandler(ctx context.Context, inboxDir string, opts GmailOptions) (*GmailHandler, error) {
	b, err := os.ReadFile(opts.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client, err := getClient(ctx, config, opts)
	if err != nil {
		return nil, err
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}

	return &GmailHandler{
		service:  srv,
		inboxDir: inboxDir,
	}, nil
}

// getClient retrieves a cached token or runs the consent flow, then returns the client
func getClient(ctx context.Context, config *oauth2.Config, opts GmailOptions) (*http.Client, error) {
	tok, err := tokenFromFile(opts.TokenPath)
	if err != nil {
		if opts.Prompt == nil {
			return nil, fmt.Errorf("no cached Gmail token at %s: %w", opts.TokenPath, err)
		}
		tok, err = getTokenFromWeb(ctx, config, opts.Prompt)
		if err != nil {
			return nil, err
		}
		if err := saveToken(opts.TokenPath, tok); err != nil {
			return nil, err
		}
	}
	return config.Client(ctx, tok), nil
}

// getTokenFromWeb requests a token through the consent page
func getTokenFromWeb(ctx context.Context, config *oauth2.Config, prompt func(string) (string, error)) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	authCode, err := prompt(authURL)
	if err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, strings.TrimSpace(authCode))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// tokenFromFile retrieves a token from a local file
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// saveToken saves a token to a file path
func saveToken(path string, token *oauth2.Token) error {
	log.Info().Str("path", path).Msg("saving Gmail credential file")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// FetchAttachments downloads CSV and XLSX attachments of messages with the subject.
// It returns the paths written into the inbox directory.
func (gh *GmailHandler) FetchAttachments(ctx context.Context, subject string) ([]string, error) {
	// Ensure inbox directory exists
	if err := os.MkdirAll(gh.inboxDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create inbox directory: %w", err)
	}

	user := "me"
	query := fmt.Sprintf("subject:%s has:attachment", subject)

	r, err := gh.service.Users.Messages.List(user).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	if len(r.Messages) == 0 {
		return nil, fmt.Errorf("no messages found with subject: %s", subject)
	}

	var saved []string
	for _, msg := range r.Messages {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		message, err := gh.service.Users.Messages.Get(user, msg.Id).Context(ctx).Do()
		if err != nil {
			log.Warn().Err(err).Str("message", msg.Id).Msg("unable to retrieve message")
			continue
		}

		for _, part := range attachmentParts(message.Payload) {
			attachment, err := gh.service.Users.Messages.Attachments.Get(user, msg.Id, part.Body.AttachmentId).Context(ctx).Do()
			if err != nil {
				log.Warn().Err(err).Str("file", part.Filename).Msg("unable to retrieve attachment")
				continue
			}

			data, err := base64.URLEncoding.DecodeString(attachment.Data)
			if err != nil {
				log.Warn().Err(err).Str("file", part.Filename).Msg("unable to decode attachment")
				continue
			}

			// Prefix with the message id so equal file names from different senders survive
			name := fmt.Sprintf("%s_%s", msg.Id, filepath.Base(part.Filename))
			path, err := gh.save(name, strings.NewReader(string(data)))
			if err != nil {
				log.Warn().Err(err).Str("file", name).Msg("unable to write attachment")
				continue
			}

			log.Info().Str("file", name).Str("from", extractSenderName(message)).Msg("downloaded attachment")
			saved = append(saved, path)
		}
	}

	return saved, nil
}

func (gh *GmailHandler) save(name string, r io.Reader) (string, error) {
	return NewFileHandler(gh.inboxDir).SaveUploadedFile(name, r)
}

// attachmentParts walks the MIME tree and returns parts carrying a supported table
func attachmentParts(part *gmail.MessagePart) []*gmail.MessagePart {
	if part == nil {
		return nil
	}
	var out []*gmail.MessagePart
	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" && IsSupported(part.Filename) {
		out = append(out, part)
	}
	for _, child := range part.Parts {
		out = append(out, attachmentParts(child)...)
	}
	return out
}

// extractSenderName extracts the sender's name from email headers
func extractSenderName(message *gmail.Message) string {
	if message.Payload == nil {
		return "Unknown"
	}
	for _, header := range message.Payload.Headers {
		if header.Name == "From" {
			// Parse "Name <email@example.com>" format
			from := header.Value
			if idx := strings.Index(from, "<"); idx > 0 {
				return strings.TrimSpace(from[:idx])
			}
			// If no name, use email prefix
			if idx := strings.Index(from, "@"); idx > 0 {
				return from[:idx]
			}
			return "Unknown"
		}
	}
	return "Unknown"
}
