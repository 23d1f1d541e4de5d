package ai

import (
	"context"
	"fmt"
	"strings"

	"album-pulse/internal/models"
	"album-pulse/shared/config"

	"google.golang.org/genai"
)

// Commentator writes a short prose read of the day's analytics for the
// email digest. Entirely optional; the digest goes out without it when
// no Gemini key is configured or the call fails.
type Commentator struct {
	client *genai.Client
	model  string
	album  string
	artist string
}

func NewCommentator(cfg *config.Config) (*Commentator, error) {
	ctx := context.Background()

	// Configure client with API key
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Commentator{
		client: client,
		model:  cfg.AI.Model,
		album:  cfg.Album.Title,
		artist: cfg.Album.Artist,
	}, nil
}

// Commentary asks the model for a few sentences about today's numbers.
func (c *Commentator) Commentary(ctx context.Context, report *models.DigestReport) (string, error) {
	if report == nil || len(report.Rows) == 0 {
		return "", fmt.Errorf("report has no rows")
	}

	prompt := c.buildPrompt(report)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate commentary: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

func (c *Commentator) buildPrompt(report *models.DigestReport) string {
	var sb strings.Builder
	for _, r := range report.Rows {
		sb.WriteString(fmt.Sprintf("%02d %s | views=%s delta=%s views/day=%s score=%s repeat=%s words=%s\n",
			r.TrackNumber, r.TrackName,
			promptInt(r.Views), promptInt(r.ViewsDelta), promptFloat(r.ViewsPerDay),
			promptFloat(r.EngagementScore), promptStr(r.RepeatRatioBucket), promptStr(r.WordCountBucket)))
	}

	return fmt.Sprintf(`You are writing a short daily note for a fan tracking the album "%s" by %s on YouTube.

Per-track numbers (n/a means no matched video or no data yet):
%s
Write 3-4 plain sentences: which tracks are pulling ahead, which are slowing down, and anything notable in the engagement scores. No bullet points, no headings, no hype.`,
		c.album, c.artist, sb.String())
}

func promptInt(p *int64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *p)
}

func promptFloat(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *p)
}

func promptStr(p *string) string {
	if p == nil {
		return "n/a"
	}
	return *p
}
