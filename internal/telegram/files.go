package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-telegram/bot"
)

// DownloadFile fetches an attachment from Telegram by file id. The
// operator console proxies evidence screenshots through this.
func DownloadFile(ctx context.Context, b *bot.Bot, fileID string) ([]byte, string, error) {
	file, err := b.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("get file: %w", err)
	}

	fileURL := b.FileDownloadLink(file)

	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file data: %w", err)
	}

	return data, file.FilePath, nil
}

// FileProxy exposes Telegram attachments to the operator console.
type FileProxy struct {
	b *bot.Bot
}

func NewFileProxy(b *bot.Bot) *FileProxy {
	return &FileProxy{b: b}
}

func (p *FileProxy) Fetch(ctx context.Context, fileID string) ([]byte, string, error) {
	data, _, err := DownloadFile(ctx, p.b, fileID)
	if err != nil {
		return nil, "", err
	}
	return data, http.DetectContentType(data), nil
}
