package vellum

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/gif" // register decoders
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp" // register decoders
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ResourceState is the load state of a Resource.
type ResourceState uint8

const (
	ResourcePending ResourceState = iota // not loaded yet
	ResourceReady                        // decoded and usable
	ResourceFailed                       // fetch or decode failed
	ResourceDenied                       // refused by the security policy
)

var resourceStateNames = [...]string{"pending", "ready", "failed", "denied"}

func (s ResourceState) String() string {
	if int(s) < len(resourceStateNames) {
		return resourceStateNames[s]
	}
	return "unknown"
}

// Resource is external image content referenced by an ImageNode or an
// ImageFilter. It is loaded outside the tree with Load; the tree only asks
// whether it is ready. After a load completes, call Invalidate on the nodes
// that use it.
type Resource struct {
	URL      *url.URL
	Document *url.URL

	state ResourceState
	err   error
	img   image.Image
	ebImg *ebiten.Image
}

// NewResource returns a pending resource for ref resolved against the
// document URL. document may be nil for standalone references.
func NewResource(ref string, document *url.URL) (*Resource, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, errors.Wrapf(err, "parse resource reference %q", ref)
	}
	if document != nil {
		u = document.ResolveReference(u)
	}
	return &Resource{URL: u, Document: document}, nil
}

// NewImageResource returns a resource that is already ready with img.
func NewImageResource(img image.Image) *Resource {
	return &Resource{state: ResourceReady, img: img}
}

// State returns the load state.
func (r *Resource) State() ResourceState { return r.state }

// Err returns the error of a failed or denied load.
func (r *Resource) Err() error { return r.err }

// Resolved returns nil when the resource is ready, or an error wrapping
// ErrUnresolvedResource describing why it is not.
func (r *Resource) Resolved() error {
	switch r.state {
	case ResourceReady:
		return nil
	case ResourcePending:
		return errors.Wrapf(ErrUnresolvedResource, "%s: not loaded", r)
	default:
		return unresolved(r.err, r.String())
	}
}

// Image returns the decoded image, or nil when not ready.
func (r *Resource) Image() image.Image { return r.img }

// EbitenImage returns the image as a GPU texture, created on first use.
func (r *Resource) EbitenImage() *ebiten.Image {
	if r.img == nil {
		return nil
	}
	if r.ebImg == nil {
		if eb, ok := r.img.(*ebiten.Image); ok {
			r.ebImg = eb
		} else {
			r.ebImg = ebiten.NewImageFromImage(r.img)
		}
	}
	return r.ebImg
}

// Size returns the pixel size of the decoded image, or zero.
func (r *Resource) Size() (w, h int) {
	if r.img == nil {
		return 0, 0
	}
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

func (r *Resource) String() string {
	if r.URL == nil {
		return "resource(inline)"
	}
	if r.URL.Scheme == "data" {
		return "resource(data:...)"
	}
	return "resource(" + r.URL.String() + ")"
}

// Load checks the reference against sec, fetches it with f and decodes
// it. A denial leaves the resource in ResourceDenied with an error
// wrapping ErrResourceDenied. Load blocks; run it outside paint.
func (r *Resource) Load(ctx context.Context, f Fetcher, sec ResourceSecurity) error {
	if r.state == ResourceReady {
		return nil
	}
	if r.URL == nil {
		return r.fail(ResourceFailed, errors.New("resource has no URL"))
	}
	if sec == nil {
		sec = SameOriginResourceSecurity{}
	}
	if err := sec.CheckLoadExternalResource(r.URL, r.Document); err != nil {
		logger().Info("resource load denied", "resource", r.String(), "err", err)
		return r.fail(ResourceDenied, err)
	}
	rc, err := f.Fetch(ctx, r.URL)
	if err != nil {
		return r.fail(ResourceFailed, errors.Wrapf(err, "fetch %s", r))
	}
	defer func() { _ = rc.Close() }()

	img, format, err := image.Decode(rc)
	if err != nil {
		return r.fail(ResourceFailed, errors.Wrapf(err, "decode %s", r))
	}
	r.img = img
	r.ebImg = nil
	r.err = nil
	r.state = ResourceReady
	logger().Debug("resource loaded", "resource", r.String(), "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return nil
}

func (r *Resource) fail(state ResourceState, err error) error {
	r.state = state
	r.err = err
	return unresolved(err, r.String())
}

// --- Fetchers ---

// Fetcher opens the content behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error)
}

// FileFetcher reads file: URLs and bare paths. Relative paths are
// resolved against Dir.
type FileFetcher struct {
	Dir string
}

// Fetch opens the file named by u.
func (f FileFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return nil, errors.Errorf("file fetcher: unsupported scheme %q", u.Scheme)
	}
	p := filepath.FromSlash(u.Path)
	if !filepath.IsAbs(p) && f.Dir != "" {
		p = filepath.Join(f.Dir, p)
	}
	file, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrap(err, "file fetcher")
	}
	return file, nil
}

// HTTPFetcher downloads http and https URLs.
type HTTPFetcher struct {
	Client *http.Client // nil means http.DefaultClient
}

// Fetch issues a GET for u and returns the body on a 2xx status.
func (f HTTPFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("http fetcher: unsupported scheme %q", u.Scheme)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "http fetcher")
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "http fetcher")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, errors.Errorf("http fetcher: %s: status %s", u, resp.Status)
	}
	return resp.Body, nil
}

// DataFetcher decodes RFC 2397 data: URLs.
type DataFetcher struct{}

// Fetch returns the payload of a data: URL.
func (DataFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u.Scheme != "data" {
		return nil, errors.Errorf("data fetcher: unsupported scheme %q", u.Scheme)
	}
	payload, err := parseDataURL(u)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

// parseDataURL returns the decoded payload of u.
func parseDataURL(u *url.URL) ([]byte, error) {
	raw := u.Opaque
	if raw == "" {
		raw = strings.TrimPrefix(u.String(), "data:")
	}
	meta, data, ok := strings.Cut(raw, ",")
	if !ok {
		return nil, errors.New("data fetcher: missing comma")
	}
	if strings.HasSuffix(meta, ";base64") {
		out, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, errors.Wrap(err, "data fetcher")
		}
		return out, nil
	}
	s, err := url.PathUnescape(data)
	if err != nil {
		return nil, errors.Wrap(err, "data fetcher")
	}
	return []byte(s), nil
}

// MultiFetcher dispatches on the URL scheme. The empty scheme selects the
// "file" entry.
type MultiFetcher map[string]Fetcher

// DefaultFetcher returns a fetcher for file, data, http and https URLs.
func DefaultFetcher(dir string) MultiFetcher {
	h := HTTPFetcher{}
	return MultiFetcher{
		"file":  FileFetcher{Dir: dir},
		"data":  DataFetcher{},
		"http":  h,
		"https": h,
	}
}

// Fetch forwards to the fetcher registered for u's scheme.
func (m MultiFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	scheme := u.Scheme
	if scheme == "" {
		scheme = "file"
	}
	f, ok := m[scheme]
	if !ok {
		return nil, errors.Errorf("no fetcher for scheme %q", scheme)
	}
	return f.Fetch(ctx, u)
}

// --- Security ---

// ResourceSecurity decides whether a document may load an external
// resource. A refusal is an error wrapping ErrResourceDenied.
type ResourceSecurity interface {
	CheckLoadExternalResource(resource, document *url.URL) error
}

// NoLoadResourceSecurity refuses every external resource.
type NoLoadResourceSecurity struct{}

// CheckLoadExternalResource always fails.
func (NoLoadResourceSecurity) CheckLoadExternalResource(resource, _ *url.URL) error {
	return errors.Wrapf(ErrResourceDenied, "no external resource allowed: %s", redact(resource))
}

// EmbeddedResourceSecurity allows only content embedded in the document
// (data: URLs).
type EmbeddedResourceSecurity struct{}

// CheckLoadExternalResource allows data: URLs only.
func (EmbeddedResourceSecurity) CheckLoadExternalResource(resource, _ *url.URL) error {
	if resource != nil && resource.Scheme == "data" {
		return nil
	}
	return errors.Wrapf(ErrResourceDenied, "only embedded resources allowed: %s", redact(resource))
}

// SameOriginResourceSecurity allows embedded content, resources from the
// document's own origin, and resources from the listed extra hosts. A
// document without a URL may load local files.
type SameOriginResourceSecurity struct {
	AllowedHosts []string
}

// CheckLoadExternalResource applies the same-origin rule.
func (s SameOriginResourceSecurity) CheckLoadExternalResource(resource, document *url.URL) error {
	if resource == nil {
		return errors.Wrap(ErrResourceDenied, "nil resource URL")
	}
	if resource.Scheme == "data" {
		return nil
	}
	for _, h := range s.AllowedHosts {
		if strings.EqualFold(h, resource.Hostname()) {
			return nil
		}
	}
	if document == nil {
		if resource.Scheme == "" || resource.Scheme == "file" {
			return nil
		}
		return errors.Wrapf(ErrResourceDenied, "%s: no document origin", redact(resource))
	}
	if strings.EqualFold(resource.Scheme, document.Scheme) &&
		strings.EqualFold(resource.Host, document.Host) {
		return nil
	}
	return errors.Wrapf(ErrResourceDenied, "%s: not same origin as %s", redact(resource), redact(document))
}

// AllowAllResourceSecurity allows every resource.
type AllowAllResourceSecurity struct{}

// CheckLoadExternalResource always succeeds.
func (AllowAllResourceSecurity) CheckLoadExternalResource(_, _ *url.URL) error { return nil }

// ParseResourceSecurity maps a policy name ("none", "embedded",
// "same-origin", "any") to a policy.
func ParseResourceSecurity(name string, allowedHosts []string) (ResourceSecurity, error) {
	switch strings.ToLower(name) {
	case "none", "no-load":
		return NoLoadResourceSecurity{}, nil
	case "embedded":
		return EmbeddedResourceSecurity{}, nil
	case "", "same-origin":
		return SameOriginResourceSecurity{AllowedHosts: allowedHosts}, nil
	case "any", "all":
		return AllowAllResourceSecurity{}, nil
	}
	return nil, errors.Errorf("unknown resource security policy %q", name)
}

// redact shortens data: URLs in messages.
func redact(u *url.URL) string {
	if u == nil {
		return "<nil>"
	}
	if u.Scheme == "data" {
		return "data:..."
	}
	return u.String()
}
