// Package artwork resolves and decodes album cover images.
package artwork

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jfmyers9/nowplayer/internal/music"
)

// ErrNoArtwork is returned when a track has no resolvable cover image.
// Only these misses are cached; other failures are retried on the next call.
var ErrNoArtwork = errors.New("no artwork available")

// maxImageBytes caps downloaded images
const maxImageBytes = 10 << 20

// Resolver finds cover images for tracks. It prefers the URL reported by the
// player and, when enabled, falls back to the iTunes Search API. Decoded
// images are cached per artist and album.
type Resolver struct {
	lookup   bool
	client   *http.Client
	endpoint string

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewResolver creates a Resolver. lookup enables iTunes searches for tracks
// the player reports without artwork.
func NewResolver(lookup bool) *Resolver {
	return &Resolver{
		lookup: lookup,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		endpoint: "https://itunes.apple.com/search",
		cache:    make(map[string]image.Image),
	}
}

type itunesResponse struct {
	Results []itunesResult `json:"results"`
}

type itunesResult struct {
	ArtworkURL100 string `json:"artworkUrl100"`
}

// Artwork returns the decoded cover image of track
func (r *Resolver) Artwork(ctx context.Context, track *music.Track) (image.Image, error) {
	if track == nil {
		return nil, ErrNoArtwork
	}

	key := track.Artist + "|" + track.Album
	r.mu.Lock()
	img, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		if img == nil {
			return nil, ErrNoArtwork
		}
		return img, nil
	}

	img, err := r.resolve(ctx, track)
	if err != nil && !errors.Is(err, ErrNoArtwork) {
		return nil, err
	}

	// A track without artwork is searched once
	r.mu.Lock()
	r.cache[key] = img
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return img, nil
}

func (r *Resolver) resolve(ctx context.Context, track *music.Track) (image.Image, error) {
	artURL := track.ArtworkURL
	if artURL == "" && r.lookup {
		found, err := r.search(ctx, track.Artist, track.Album, track.Name)
		if err != nil {
			return nil, err
		}
		artURL = found
	}
	if artURL == "" {
		return nil, ErrNoArtwork
	}

	rc, err := r.open(ctx, artURL)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, _, err := image.Decode(io.LimitReader(rc, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}
	return img, nil
}

// open reads a file:// path or downloads an http(s) URL
func (r *Resolver) open(ctx context.Context, raw string) (io.ReadCloser, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid artwork url %q: %w", raw, err)
	}

	switch u.Scheme {
	case "file":
		f, err := os.Open(u.Path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoArtwork, u.Path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open artwork: %w", err)
		}
		return f, nil
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download artwork: %w", err)
		}
		switch resp.StatusCode {
		case http.StatusOK:
			return resp.Body, nil
		case http.StatusNotFound, http.StatusGone:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: HTTP %d", ErrNoArtwork, resp.StatusCode)
		default:
			resp.Body.Close()
			return nil, fmt.Errorf("failed to download artwork: HTTP %d", resp.StatusCode)
		}
	default:
		return nil, fmt.Errorf("unsupported artwork url scheme %q", u.Scheme)
	}
}

// search queries the album entity first and falls back to the song entity,
// which finds singles that are not listed as albums. Returns "" when neither
// has a result.
func (r *Resolver) search(ctx context.Context, artist, album, name string) (string, error) {
	if album != "" {
		u, err := r.fetchURL(ctx, artist+" "+album, "album")
		if err != nil || u != "" {
			return u, err
		}
	}
	return r.fetchURL(ctx, artist+" "+name, "song")
}

func (r *Resolver) fetchURL(ctx context.Context, term, entity string) (string, error) {
	query := url.Values{
		"term":   {term},
		"entity": {entity},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", r.endpoint, query.Encode()), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create search request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("artwork search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("artwork search failed: HTTP %d", resp.StatusCode)
	}

	var result itunesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(result.Results) == 0 || result.Results[0].ArtworkURL100 == "" {
		return "", nil
	}

	// 600x600 is plenty for a terminal
	return strings.Replace(result.Results[0].ArtworkURL100, "100x100bb", "600x600bb", 1), nil
}
