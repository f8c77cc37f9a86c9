package vellum

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.Gray{Y: 200})
	require.NoError(t, png.Encode(f, img))
}

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}

func TestResourceResolvesAgainstDocument(t *testing.T) {
	doc := mustURL(t, "https://example.org/art/scene.svg")
	r, err := NewResource("../img/a.png", doc)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/img/a.png", r.URL.String())
	assert.Equal(t, ResourcePending, r.State())
	assert.Equal(t, "pending", r.State().String())

	_, err = NewResource("http://[::1", nil)
	assert.Error(t, err)
}

func TestResourceDataURL(t *testing.T) {
	r, err := NewResource(pngDataURL(t, 3, 2), nil)
	require.NoError(t, err)
	assert.True(t, errors.Is(r.Resolved(), ErrUnresolvedResource))
	assert.Equal(t, "resource(data:...)", r.String())

	require.NoError(t, r.Load(context.Background(), DataFetcher{}, EmbeddedResourceSecurity{}))
	assert.Equal(t, ResourceReady, r.State())
	assert.NoError(t, r.Resolved())
	w, h := r.Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)

	require.NoError(t, r.Load(context.Background(), nil, NoLoadResourceSecurity{}), "a ready resource is not reloaded")
}

func TestParseDataURLPlain(t *testing.T) {
	out, err := parseDataURL(mustURL(t, "data:text/plain,hello%20world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(out))

	_, err = parseDataURL(mustURL(t, "data:text/plain"))
	assert.Error(t, err)
	_, err = parseDataURL(mustURL(t, "data:;base64,!!!"))
	assert.Error(t, err)
}

func TestResourceDeniedByNoLoad(t *testing.T) {
	r, err := NewResource(pngDataURL(t, 1, 1), nil)
	require.NoError(t, err)
	err = r.Load(context.Background(), DataFetcher{}, NoLoadResourceSecurity{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResourceDenied))
	assert.True(t, errors.Is(err, ErrUnresolvedResource))
	assert.Equal(t, ResourceDenied, r.State())
	assert.True(t, errors.Is(r.Resolved(), ErrUnresolvedResource))
	assert.True(t, errors.Is(r.Err(), ErrResourceDenied))
	assert.NotContains(t, err.Error(), "base64", "data URLs are redacted")
}

func TestResourceDecodeFailure(t *testing.T) {
	r, err := NewResource("data:text/plain,not-an-image", nil)
	require.NoError(t, err)
	err = r.Load(context.Background(), DataFetcher{}, AllowAllResourceSecurity{})
	assert.True(t, errors.Is(err, ErrUnresolvedResource))
	assert.Equal(t, ResourceFailed, r.State())
	assert.Nil(t, r.Image())
	assert.Nil(t, r.EbitenImage())
}

func TestResourceFileFetcher(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "tile.png"), 4, 5)

	r, err := NewResource("tile.png", nil)
	require.NoError(t, err)
	require.NoError(t, r.Load(context.Background(), DefaultFetcher(dir), SameOriginResourceSecurity{}))
	w, h := r.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 5, h)

	missing, err := NewResource("nope.png", nil)
	require.NoError(t, err)
	err = missing.Load(context.Background(), DefaultFetcher(dir), nil)
	assert.True(t, errors.Is(err, ErrUnresolvedResource))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFetchersHonorContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FileFetcher{}.Fetch(ctx, mustURL(t, "a.png"))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = DataFetcher{}.Fetch(ctx, mustURL(t, "data:,x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcherSchemes(t *testing.T) {
	ctx := context.Background()
	_, err := FileFetcher{}.Fetch(ctx, mustURL(t, "https://example.org/a.png"))
	assert.Error(t, err)
	_, err = DataFetcher{}.Fetch(ctx, mustURL(t, "file:///a.png"))
	assert.Error(t, err)
	_, err = HTTPFetcher{}.Fetch(ctx, mustURL(t, "ftp://example.org/a.png"))
	assert.Error(t, err)
	_, err = DefaultFetcher("").Fetch(ctx, mustURL(t, "gopher://example.org/a"))
	assert.Error(t, err)
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/ok.png" {
			http.NotFound(w, req)
			return
		}
		img := image.NewGray(image.Rect(0, 0, 2, 2))
		_ = png.Encode(w, img)
	}))
	defer srv.Close()

	doc := mustURL(t, srv.URL+"/doc.svg")
	r, err := NewResource("ok.png", doc)
	require.NoError(t, err)
	require.NoError(t, r.Load(context.Background(), DefaultFetcher(""), SameOriginResourceSecurity{}))
	assert.Equal(t, ResourceReady, r.State())

	bad, err := NewResource("missing.png", doc)
	require.NoError(t, err)
	err = bad.Load(context.Background(), DefaultFetcher(""), SameOriginResourceSecurity{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestSecurityPolicies(t *testing.T) {
	doc := mustURL(t, "https://example.org/scene.svg")
	data := mustURL(t, "data:,x")
	same := mustURL(t, "https://example.org/a.png")
	other := mustURL(t, "https://cdn.example.net/a.png")
	local := mustURL(t, "a.png")

	cases := []struct {
		name    string
		sec     ResourceSecurity
		res     *url.URL
		doc     *url.URL
		allowed bool
	}{
		{"none/data", NoLoadResourceSecurity{}, data, doc, false},
		{"embedded/data", EmbeddedResourceSecurity{}, data, doc, true},
		{"embedded/same", EmbeddedResourceSecurity{}, same, doc, false},
		{"same/data", SameOriginResourceSecurity{}, data, doc, true},
		{"same/same", SameOriginResourceSecurity{}, same, doc, true},
		{"same/other", SameOriginResourceSecurity{}, other, doc, false},
		{"same/other allowed", SameOriginResourceSecurity{AllowedHosts: []string{"CDN.example.net"}}, other, doc, true},
		{"same/local no doc", SameOriginResourceSecurity{}, local, nil, true},
		{"same/remote no doc", SameOriginResourceSecurity{}, same, nil, false},
		{"same/nil", SameOriginResourceSecurity{}, nil, doc, false},
		{"all/other", AllowAllResourceSecurity{}, other, doc, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.sec.CheckLoadExternalResource(c.res, c.doc)
			if c.allowed {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrResourceDenied), "err = %v", err)
			}
		})
	}
}

func TestParseResourceSecurity(t *testing.T) {
	for name, want := range map[string]ResourceSecurity{
		"none":        NoLoadResourceSecurity{},
		"embedded":    EmbeddedResourceSecurity{},
		"":            SameOriginResourceSecurity{AllowedHosts: []string{"h"}},
		"Same-Origin": SameOriginResourceSecurity{AllowedHosts: []string{"h"}},
		"any":         AllowAllResourceSecurity{},
	} {
		got, err := ParseResourceSecurity(name, []string{"h"})
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseResourceSecurity("paranoid", nil)
	assert.Error(t, err)
}

func TestNewImageResourceIsReady(t *testing.T) {
	r := NewImageResource(image.NewGray(image.Rect(0, 0, 7, 3)))
	assert.NoError(t, r.Resolved())
	w, h := r.Size()
	assert.Equal(t, 7, w)
	assert.Equal(t, 3, h)
	assert.Equal(t, "resource(inline)", r.String())
}
