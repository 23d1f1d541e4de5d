// Package youtube wraps the YouTube Data API v3 calls the collector
// needs: enumerating an album playlist, resolving it by title when no
// playlist id is configured, and reading cumulative stats for a batch
// of videos. All endpoints used here accept plain API-key auth.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"album-pulse/shared/config"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	batchSize = 50

	defaultVideosURL = "https://www.googleapis.com/youtube/v3/videos"
)

type Client struct {
	service    *youtube.Service
	config     *config.YouTubeConfig
	httpClient *http.Client
	videosURL  string
}

func NewClient(cfg *config.YouTubeConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("youtube api key is required")
	}

	service, err := youtube.NewService(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{
		service:    service,
		config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		videosURL:  defaultVideosURL,
	}, nil
}

// PlaylistEntry is one video as listed in the album playlist.
type PlaylistEntry struct {
	VideoID     string
	Title       string
	PublishedAt *time.Time
}

// PlaylistEntries returns every video in the playlist, following
// pagination to the end.
func (c *Client) PlaylistEntries(ctx context.Context, playlistID string) ([]PlaylistEntry, error) {
	var entries []PlaylistEntry
	pageToken := ""

	for {
		call := c.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(batchSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list playlist %s: %w", playlistID, err)
		}

		for _, item := range resp.Items {
			entry := PlaylistEntry{
				VideoID: item.ContentDetails.VideoId,
				Title:   item.Snippet.Title,
			}
			if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
				t = t.UTC()
				entry.PublishedAt = &t
			}
			entries = append(entries, entry)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return entries, nil
}

// FindAlbumPlaylist searches the channel's playlists for the album
// title. Official release playlists carry OLAK5uy-prefixed ids, which
// breaks ties between similarly named results.
func (c *Client) FindAlbumPlaylist(ctx context.Context, channelID, albumTitle string) (string, error) {
	resp, err := c.service.Search.List([]string{"snippet"}).
		ChannelId(channelID).
		Q(albumTitle).
		Type("playlist").
		MaxResults(10).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to search playlists: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("no playlists found for %q on channel %s", albumTitle, channelID)
	}

	albumNorm := NormalizeTitle(albumTitle)
	best := ""
	bestScore := -1
	for _, item := range resp.Items {
		pid := item.Id.PlaylistId
		titleNorm := NormalizeTitle(item.Snippet.Title)

		score := 0
		if strings.Contains(titleNorm, albumNorm) {
			score += 50
		}
		if strings.HasPrefix(pid, "OLAK5uy") {
			score += 30
		}
		if strings.Contains(titleNorm, "album") || strings.Contains(titleNorm, "release") {
			score += 10
		}
		if score > bestScore {
			bestScore = score
			best = pid
		}
	}
	return best, nil
}

// VideoDetails carries duration and cumulative counters for one video.
type VideoDetails struct {
	ID              string
	Title           string
	ChannelTitle    string
	PublishedAt     *time.Time
	DurationSeconds int
	Views           int64
	Likes           *int64
	Comments        *int64
}

// videoItem mirrors the videos.list resource. The statistics counters
// are decoded as string pointers because the API omits likeCount and
// commentCount when the uploader hides them; the typed client would
// collapse that absence into zero, and a hidden counter must reach the
// store as null, not as a fabricated 0.
type videoItem struct {
	ID      string `json:"id"`
	Snippet *struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
		PublishedAt  string `json:"publishedAt"`
	} `json:"snippet"`
	ContentDetails *struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics *struct {
		ViewCount    string  `json:"viewCount"`
		LikeCount    *string `json:"likeCount"`
		CommentCount *string `json:"commentCount"`
	} `json:"statistics"`
}

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

// VideoDetailsByID reads stats and content details for the given
// videos, batching requests at the API's 50-id limit. Videos the API
// does not return (deleted, private) are simply absent from the map.
func (c *Client) VideoDetailsByID(ctx context.Context, videoIDs []string) (map[string]VideoDetails, error) {
	details := make(map[string]VideoDetails, len(videoIDs))

	for i := 0; i < len(videoIDs); i += batchSize {
		end := i + batchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}

		items, err := c.listVideos(ctx, videoIDs[i:end])
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			details[item.ID] = item.details()
		}
	}

	return details, nil
}

func (c *Client) listVideos(ctx context.Context, ids []string) ([]videoItem, error) {
	q := url.Values{}
	q.Set("key", c.config.APIKey)
	q.Set("part", "snippet,contentDetails,statistics")
	q.Set("id", strings.Join(ids, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.videosURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build videos request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("videos.list returned %s", resp.Status)
	}

	var out videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode videos response: %w", err)
	}
	return out.Items, nil
}

func (it videoItem) details() VideoDetails {
	d := VideoDetails{ID: it.ID}
	if it.Snippet != nil {
		d.Title = it.Snippet.Title
		d.ChannelTitle = it.Snippet.ChannelTitle
		if t, err := time.Parse(time.RFC3339, it.Snippet.PublishedAt); err == nil {
			t = t.UTC()
			d.PublishedAt = &t
		}
	}
	if it.ContentDetails != nil {
		d.DurationSeconds = parseDurationSeconds(it.ContentDetails.Duration)
	}
	if it.Statistics != nil {
		d.Views, _ = strconv.ParseInt(it.Statistics.ViewCount, 10, 64)
		d.Likes = parseNullCount(it.Statistics.LikeCount)
		d.Comments = parseNullCount(it.Statistics.CommentCount)
	}
	return d
}

// parseNullCount keeps an absent counter absent.
func parseNullCount(s *string) *int64 {
	if s == nil {
		return nil
	}
	n, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

var durationRe = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// parseDurationSeconds converts an ISO 8601 duration like "PT2H15M30S"
// into seconds. Unparseable input counts as zero.
func parseDurationSeconds(duration string) int {
	if duration == "" {
		return 0
	}

	matches := durationRe.FindStringSubmatch(duration)
	if len(matches) == 0 {
		return 0
	}

	totalSeconds := 0
	for i, mult := range []int{3600, 60, 1} {
		if matches[i+1] == "" {
			continue
		}
		if n, err := strconv.Atoi(matches[i+1]); err == nil {
			totalSeconds += n * mult
		}
	}
	return totalSeconds
}

var (
	nonTitleRe   = regexp.MustCompile(`[^a-z0-9\s']`)
	titleSpaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeTitle lowercases a title and strips everything except
// letters, digits, spaces and apostrophes so that "Pretty Flacko 2
// (Official Video)" still contains "pretty flacko 2".
func NormalizeTitle(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "’", "'")
	s = nonTitleRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(titleSpaceRe.ReplaceAllString(s, " "))
}
