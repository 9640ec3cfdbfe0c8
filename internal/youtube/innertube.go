package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	pathVisitorID     = "/youtubei/v1/visitor_id"
	pathPlayer        = "/youtubei/v1/player"
	pathNext          = "/youtubei/v1/next"
	pathGetTranscript = "/youtubei/v1/get_transcript"

	userAgentChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"
	maxResponseSize = 3 * 1024 * 1024
)

var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

// Client talks to the YouTube Innertube web API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client rooted at baseURL (normally https://www.youtube.com).
// Request deadlines come from the caller's context.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// NewSession obtains visitor data for subsequent calls. A rejected visitor
// request falls back to locally generated visitor data; transport failures
// are returned.
func (c *Client) NewSession(ctx context.Context) (Session, error) {
	visitorData := generateVisitorData()
	data, err := c.post(ctx, pathVisitorID, map[string]any{
		"context": webContext(visitorData),
	}, visitorData)
	if err != nil {
		var statusErr *statusError
		if !errors.As(err, &statusErr) {
			return nil, fmt.Errorf("create session: %w", err)
		}
		slog.Warn("innertube visitor request rejected, using generated visitor data", "status", statusErr.code)
		return &session{client: c, visitorData: visitorData}, nil
	}

	var resp ytVisitorResp
	if err := json.Unmarshal(data, &resp); err == nil && resp.ResponseContext.VisitorData != "" {
		visitorData = resp.ResponseContext.VisitorData
	}
	return &session{client: c, visitorData: visitorData}, nil
}

type session struct {
	client      *Client
	visitorData string
}

func (s *session) GetInfo(ctx context.Context, videoID string) (*VideoInfo, error) {
	data, err := s.client.post(ctx, pathPlayer, map[string]any{
		"videoId":        videoID,
		"context":        webContext(s.visitorData),
		"racyCheckOk":    true,
		"contentCheckOk": true,
	}, s.visitorData)
	if err != nil {
		return nil, fmt.Errorf("/player: %w", err)
	}

	var resp ytPlayerResp
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	if resp.VideoDetails == nil {
		reason := "no video details"
		if resp.PlayabilityStatus != nil && resp.PlayabilityStatus.Reason != "" {
			reason = resp.PlayabilityStatus.Reason
		}
		return nil, fmt.Errorf("%w: %s", ErrVideoUnavailable, reason)
	}

	d := resp.VideoDetails
	basic := BasicInfo{
		ID:     videoID,
		Title:  d.Title,
		Author: d.Author,
	}
	if n, err := strconv.Atoi(d.LengthSeconds); err == nil {
		basic.DurationSeconds = n
	}
	if _, err := strconv.ParseUint(d.ViewCount, 10, 64); err == nil {
		basic.ViewCount = d.ViewCount
	}
	if thumbs := d.Thumbnail.Thumbnails; len(thumbs) > 0 {
		basic.ThumbnailURL = thumbs[len(thumbs)-1].URL
	}

	return &VideoInfo{
		Basic:      basic,
		Transcript: &transcriptAccessor{session: s, videoID: videoID},
	}, nil
}

type transcriptAccessor struct {
	session *session
	videoID string
}

// Segments resolves the transcript panel token via /next and then loads the
// segments from /get_transcript.
func (a *transcriptAccessor) Segments(ctx context.Context) ([]Segment, error) {
	s := a.session
	nextData, err := s.client.post(ctx, pathNext, map[string]any{
		"videoId": a.videoID,
		"context": webContext(s.visitorData),
	}, s.visitorData)
	if err != nil {
		return nil, fmt.Errorf("/next: %w", err)
	}

	token, err := extractTranscriptToken(nextData)
	if err != nil {
		return nil, err
	}

	data, err := s.client.post(ctx, pathGetTranscript, map[string]any{
		"params":  token,
		"context": webContext(s.visitorData),
	}, s.visitorData)
	if err != nil {
		return nil, fmt.Errorf("/get_transcript: %w", err)
	}

	var resp ytGetTranscriptResp
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return parseSegments(resp), nil
}

func extractTranscriptToken(data []byte) (string, error) {
	m := getTranscriptRE.FindSubmatch(data)
	if len(m) < 2 {
		return "", ErrNoTranscript
	}
	decoded, err := url.QueryUnescape(string(m[1]))
	if err != nil {
		return string(m[1]), nil
	}
	return decoded, nil
}

func parseSegments(resp ytGetTranscriptResp) []Segment {
	var out []Segment
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		segs := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range segs {
			r := seg.TranscriptSegmentRenderer
			if r == nil {
				continue
			}
			var sb strings.Builder
			for _, run := range r.Snippet.Runs {
				sb.WriteString(run.Text)
			}
			start, _ := strconv.ParseInt(r.StartMs, 10, 64)
			out = append(out, Segment{Text: sb.String(), StartMs: start})
		}
	}
	return out
}

type statusError struct {
	code    int
	snippet string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.code, e.snippet)
}

func (c *Client) post(ctx context.Context, path string, payload any, visitorData string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path+"?prettyPrint=false", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", userAgentChrome)
	req.Header.Set("X-Youtube-Client-Name", "1")
	req.Header.Set("X-Youtube-Client-Version", ytWebVersion)
	req.Header.Set("X-Goog-Visitor-Id", visitorData)
	req.Header.Set("Origin", "https://www.youtube.com")
	req.Header.Set("Referer", "https://www.youtube.com/")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &statusError{code: resp.StatusCode, snippet: string(snippet)}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}

func webContext(visitorData string) map[string]any {
	return map[string]any{
		"client": ytWebClientCtx{
			ClientName:    "WEB",
			ClientVersion: ytWebVersion,
			VisitorData:   visitorData,
			Hl:            "en",
			Gl:            "US",
		},
	}
}

// generateVisitorData creates a random 11-char visitor id.
func generateVisitorData() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	b := make([]byte, 11)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))]
	}
	return string(b)
}
