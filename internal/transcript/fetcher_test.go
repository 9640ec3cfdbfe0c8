package transcript

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/af-corp/thoth/internal/config"
	"github.com/af-corp/thoth/internal/types"
	"github.com/af-corp/thoth/internal/youtube"
)

type fakeProvider struct {
	sessionDelay time.Duration
	sessionErr   error

	basic     youtube.BasicInfo
	infoDelay time.Duration
	infoErr   error

	noAccessor bool
	segments   []youtube.Segment
	segDelay   time.Duration
	segErr     error

	segCalls int
}

// wait blocks for d without looking at ctx, like a provider that ignores cancellation.
func wait(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func (p *fakeProvider) NewSession(ctx context.Context) (youtube.Session, error) {
	wait(p.sessionDelay)
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	return p, nil
}

func (p *fakeProvider) GetInfo(ctx context.Context, id string) (*youtube.VideoInfo, error) {
	wait(p.infoDelay)
	if p.infoErr != nil {
		return nil, p.infoErr
	}
	info := &youtube.VideoInfo{Basic: p.basic}
	if !p.noAccessor {
		info.Transcript = p
	}
	return info, nil
}

func (p *fakeProvider) Segments(ctx context.Context) ([]youtube.Segment, error) {
	p.segCalls++
	wait(p.segDelay)
	return p.segments, p.segErr
}

func testConfig() func() config.TranscriptConfig {
	return func() config.TranscriptConfig {
		return config.TranscriptConfig{
			InitTimeout:       50 * time.Millisecond,
			InfoTimeout:       50 * time.Millisecond,
			TranscriptTimeout: 50 * time.Millisecond,
			MaxDuration:       time.Hour,
			MaxChars:          8000,
		}
	}
}

func stageCode(t *testing.T, err error) types.ErrorCode {
	t.Helper()
	var se *types.StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StageError, got %T: %v", err, err)
	}
	return se.Code
}

func TestFetcher_Success(t *testing.T) {
	p := &fakeProvider{
		basic:    youtube.BasicInfo{Title: "Talk", Author: "Someone", DurationSeconds: 600},
		segments: segs("first part", "", "second part"),
	}
	f := NewFetcher(p, testConfig(), nil)

	res, err := f.Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Text != "first part second part" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Metadata.Title != "Talk" || res.Metadata.DurationSeconds != 600 {
		t.Errorf("metadata = %+v", res.Metadata)
	}
	if res.Truncated {
		t.Error("did not expect truncation")
	}
}

func TestFetcher_Truncates(t *testing.T) {
	p := &fakeProvider{
		basic:    youtube.BasicInfo{Title: "Long"},
		segments: segs(strings.Repeat("x", 9000)),
	}
	res, err := NewFetcher(p, testConfig(), nil).Fetch(context.Background(), "id")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Text) != 8000 || !res.Truncated {
		t.Errorf("len = %d, truncated = %v", len(res.Text), res.Truncated)
	}
}

func TestFetcher_Errors(t *testing.T) {
	tests := []struct {
		name string
		p    *fakeProvider
		want types.ErrorCode
	}{
		{"session timeout", &fakeProvider{sessionDelay: 300 * time.Millisecond}, types.ErrUpstreamInitTimeout},
		{"session failure", &fakeProvider{sessionErr: errors.New("dns")}, types.ErrUnknown},
		{"info timeout", &fakeProvider{infoDelay: 300 * time.Millisecond}, types.ErrUpstreamInfoTimeout},
		{"info failure", &fakeProvider{infoErr: youtube.ErrVideoUnavailable}, types.ErrUnknown},
		{"too long", &fakeProvider{basic: youtube.BasicInfo{DurationSeconds: 3601}}, types.ErrVideoTooLong},
		{"no accessor", &fakeProvider{noAccessor: true}, types.ErrTranscriptUnavailable},
		{"transcript timeout", &fakeProvider{segDelay: 300 * time.Millisecond}, types.ErrTranscriptUnavailable},
		{"transcript failure", &fakeProvider{segErr: youtube.ErrNoTranscript}, types.ErrTranscriptUnavailable},
		{"empty transcript", &fakeProvider{segments: segs(" ", "")}, types.ErrNoTranscriptContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			_, err := NewFetcher(tt.p, testConfig(), nil).Fetch(context.Background(), "id")
			if got := stageCode(t, err); got != tt.want {
				t.Errorf("code = %s, want %s (err %v)", got, tt.want, err)
			}
			if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
				t.Errorf("stage did not time out promptly: %v", elapsed)
			}
		})
	}
}

func TestFetcher_TooLongSkipsTranscript(t *testing.T) {
	p := &fakeProvider{basic: youtube.BasicInfo{DurationSeconds: 7200}, segments: segs("x")}
	_, err := NewFetcher(p, testConfig(), nil).Fetch(context.Background(), "id")
	if stageCode(t, err) != types.ErrVideoTooLong {
		t.Fatalf("unexpected error %v", err)
	}
	if p.segCalls != 0 {
		t.Error("transcript must not be requested for a video over the limit")
	}
}

func TestFetcher_CallerCancelled(t *testing.T) {
	p := &fakeProvider{infoDelay: 200 * time.Millisecond}
	cfg := func() config.TranscriptConfig {
		c := testConfig()()
		c.InfoTimeout = time.Second
		return c
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewFetcher(p, cfg, nil).Fetch(ctx, "id")
	if got := stageCode(t, err); got != types.ErrCallerDisconnected {
		t.Errorf("code = %s, want %s", got, types.ErrCallerDisconnected)
	}
}
