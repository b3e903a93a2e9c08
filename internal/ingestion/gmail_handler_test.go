package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
)

func TestExtractSenderName(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{from: "Ayşe Yılmaz <ayse@example.com>", want: "Ayşe Yılmaz"},
		{from: "hr@example.com", want: "hr"},
		{from: "garbage", want: "Unknown"},
	}

	for _, tt := range tests {
		msg := &gmail.Message{Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{{Name: "From", Value: tt.from}},
		}}
		assert.Equal(t, tt.want, extractSenderName(msg), tt.from)
	}

	assert.Equal(t, "Unknown", extractSenderName(&gmail.Message{}))
}

func TestAttachmentParts(t *testing.T) {
	payload := &gmail.MessagePart{
		Parts: []*gmail.MessagePart{
			{Filename: "", Body: &gmail.MessagePartBody{}},
			{Filename: "metrics.csv", Body: &gmail.MessagePartBody{AttachmentId: "a1"}},
			{Filename: "photo.png", Body: &gmail.MessagePartBody{AttachmentId: "a2"}},
			{Parts: []*gmail.MessagePart{
				{Filename: "batch.xlsx", Body: &gmail.MessagePartBody{AttachmentId: "a3"}},
				{Filename: "inline.csv", Body: &gmail.MessagePartBody{}},
			}},
		},
	}

	parts := attachmentParts(payload)
	require.Len(t, parts, 2)
	assert.Equal(t, "metrics.csv", parts[0].Filename)
	assert.Equal(t, "batch.xlsx", parts[1].Filename)
	assert.Nil(t, attachmentParts(nil))
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{AccessToken: "abc", TokenType: "Bearer", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, saveToken(path, tok))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.AccessToken)
	assert.True(t, tok.Expiry.Equal(loaded.Expiry))
}

func TestNewGmailHandlerWithoutCredentials(t *testing.T) {
	_, err := NewGmailHandler(context.Background(), t.TempDir(), GmailOptions{
		CredentialsPath: filepath.Join(t.TempDir(), "credentials.json"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to read credentials file")
}
