package editor

import (
	"context"
	"log/slog"

	"github.com/use-agent/cardpost/driver"
	"github.com/use-agent/cardpost/models"
)

// Inject replaces the editor content with body and leaves the caret on a
// fresh empty line below it, where product cards are appended.
func Inject(ctx context.Context, page driver.Page, editor driver.Element, body string) error {
	if err := editor.Focus(ctx); err != nil {
		return models.NewPostError(models.ErrCodeEditor, "failed to focus editor", err)
	}
	if err := page.Press(ctx, "Control+a"); err != nil {
		return models.NewPostError(models.ErrCodeEditor, "failed to select editor content", err)
	}
	if err := page.InsertText(ctx, body); err != nil {
		return models.NewPostError(models.ErrCodeEditor, "failed to insert body", err)
	}
	for i := 0; i < 2; i++ {
		if err := page.Press(ctx, "Enter"); err != nil {
			return models.NewPostError(models.ErrCodeEditor, "failed to open a new line", err)
		}
	}
	slog.Info("body injected", "chars", len([]rune(body)))
	return nil
}

// Length is the editor's serialized size, used to detect whether an
// insertion changed anything. Errors count as zero.
func Length(ctx context.Context, editor driver.Element) int {
	html, err := editor.HTML(ctx)
	if err != nil {
		slog.Debug("editor html unavailable", "error", err)
		return 0
	}
	return len(html)
}
