// Package vcsprobe checks that declared version control URLs answer the Git smart HTTP
// discovery request. Probes are best effort: every failure becomes a warning issue.
package vcsprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ortelius/gost-sbom/model"
	"github.com/ortelius/gost-sbom/util"
)

// Defaults for a Prober.
const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxRedirects = 3
)

const uploadPackContentType = "application/x-git-upload-pack-advertisement"

var (
	errUnsafeAddress  = errors.New("address is not public")
	errUnsafeRedirect = errors.New("redirect target is not an https hostname")
)

// Target is one vcs external reference found in a document.
type Target struct {
	URL           string
	Path          string
	ComponentName string
}

// Prober runs reachability checks.
type Prober struct {
	client       *http.Client
	timeout      time.Duration
	maxRedirects int
	maxInFlight  int
	logger       *zap.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient makes every check use client instead of a per-call pooled transport.
// The client's own dialer is used as is.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Prober) {
		p.client = client
	}
}

// WithTimeout sets the per-probe deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithMaxRedirects sets how many redirect hops a probe follows.
func WithMaxRedirects(n int) Option {
	return func(p *Prober) {
		if n >= 0 {
			p.maxRedirects = n
		}
	}
}

// WithMaxInFlight caps concurrent probes; zero means unbounded.
func WithMaxInFlight(n int) Option {
	return func(p *Prober) {
		if n >= 0 {
			p.maxInFlight = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProber returns a Prober with a 5 second timeout and 3 redirect hops.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CollectTargets returns every vcs external reference with a non-empty url in the tree.
func CollectTargets(components []cdx.Component) []Target {
	var targets []Target

	util.WalkComponents(components, util.ComponentsPath, func(comp *cdx.Component, path string) bool {
		if comp.ExternalReferences == nil {
			return true
		}
		for i, ref := range *comp.ExternalReferences {
			if ref.Type != cdx.ERTypeVCS || ref.URL == "" {
				continue
			}
			targets = append(targets, Target{
				URL:           ref.URL,
				Path:          util.IndexPath(path+".externalReferences", i) + ".url",
				ComponentName: util.DisplayName(comp),
			})
		}
		return true
	})

	return targets
}

// Check probes every vcs reference in doc.
func (p *Prober) Check(ctx context.Context, doc *model.Document) []model.ValidationIssue {
	return p.CheckTargets(ctx, CollectTargets(doc.ComponentList()))
}

// CheckTargets yields exactly one issue per target. Unsafe URLs are rejected without
// network access; safe URLs sharing a normalized form are probed once. Probes run
// concurrently and a failing probe never cancels its siblings.
func (p *Prober) CheckTargets(ctx context.Context, targets []Target) []model.ValidationIssue {
	issues := make([]model.ValidationIssue, len(targets))
	if len(targets) == 0 {
		return issues
	}

	client, release := p.newClient()
	defer release()

	type probe struct {
		url     string
		targets []int
		result  outcome
	}

	var probes []*probe
	byURL := map[string]*probe{}

	for i, target := range targets {
		if !IsSafeURL(target.URL) {
			issues[i] = model.ValidationIssue{
				Level: model.LevelWarning,
				Message: fmt.Sprintf("VCS URL for component '%s' was not checked: only HTTPS URLs with a hostname "+
					"(HTTPS-only / hostname-only) are probed: %s", target.ComponentName, target.URL),
				Path: target.Path,
			}
			continue
		}

		key := NormalizeRepoURL(target.URL)
		pr, ok := byURL[key]
		if !ok {
			pr = &probe{url: target.URL}
			byURL[key] = pr
			probes = append(probes, pr)
		}
		pr.targets = append(pr.targets, i)
	}

	var g errgroup.Group
	if p.maxInFlight > 0 {
		g.SetLimit(p.maxInFlight)
	}
	for _, pr := range probes {
		pr := pr
		g.Go(func() error {
			pr.result = p.checkURL(ctx, client, pr.url)
			return nil
		})
	}
	// failures are recorded as outcomes; every goroutine returns nil
	_ = g.Wait()

	for _, pr := range probes {
		for _, i := range pr.targets {
			issues[i] = pr.result.issue(targets[i], p.timeout)
		}
	}

	return issues
}

// newClient builds the client for one CheckTargets call. Its idle connections are
// closed by release.
func (p *Prober) newClient() (*http.Client, func()) {
	if p.client != nil {
		client := *p.client
		client.CheckRedirect = p.checkRedirect
		return &client, func() {}
	}

	dialer := &net.Dialer{
		Timeout: p.timeout,
		Control: guardDial,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: p.timeout,
		MaxIdleConnsPerHost: 4,
	}
	client := &http.Client{
		Transport:     transport,
		CheckRedirect: p.checkRedirect,
	}
	return client, transport.CloseIdleConnections
}

func (p *Prober) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > p.maxRedirects {
		return fmt.Errorf("stopped after %d redirects", p.maxRedirects)
	}
	if !IsSafeURL(req.URL.String()) {
		return fmt.Errorf("%s: %w", req.URL.Redacted(), errUnsafeRedirect)
	}
	return nil
}

// guardDial runs after name resolution, so it sees the address actually dialed.
func guardDial(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%s: %w", host, errUnsafeAddress)
	}
	return nil
}

type outcomeKind int

const (
	outcomeAccessible outcomeKind = iota
	outcomeBadResponse
	outcomeTimeout
	outcomeConnect
	outcomeBlocked
	outcomeFailed
)

type outcome struct {
	kind        outcomeKind
	status      int
	contentType string
	err         error
}

func (p *Prober) checkURL(ctx context.Context, client *http.Client, repoURL string) outcome {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, InfoRefsURL(repoURL), nil)
	if err != nil {
		return outcome{kind: outcomeFailed, err: err}
	}
	req.Header.Set("User-Agent", "git/2.0 (gost-sbom)")

	resp, err := client.Do(req)
	if err != nil {
		p.logger.Debug("vcs probe failed", zap.String("url", repoURL), zap.Error(err))
		return classify(err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusOK && strings.Contains(contentType, uploadPackContentType) {
		return outcome{kind: outcomeAccessible, status: resp.StatusCode}
	}
	return outcome{kind: outcomeBadResponse, status: resp.StatusCode, contentType: contentType}
}

func classify(err error) outcome {
	var netErr net.Error
	var opErr *net.OpError

	switch {
	case errors.Is(err, errUnsafeRedirect):
		return outcome{kind: outcomeBlocked, err: err}
	case errors.Is(err, errUnsafeAddress):
		return outcome{kind: outcomeConnect, err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return outcome{kind: outcomeTimeout, err: err}
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return outcome{kind: outcomeConnect, err: err}
	default:
		return outcome{kind: outcomeFailed, err: err}
	}
}

func (o outcome) issue(target Target, timeout time.Duration) model.ValidationIssue {
	issue := model.ValidationIssue{Level: model.LevelWarning, Path: target.Path}
	name := target.ComponentName

	switch o.kind {
	case outcomeAccessible:
		issue.Level = model.LevelInfo
		issue.Message = fmt.Sprintf("VCS repository accessible for component '%s': %s", name, target.URL)
	case outcomeBadResponse:
		if o.status == http.StatusOK {
			issue.Message = fmt.Sprintf("VCS URL for component '%s' returned HTTP %d with content-type %q, "+
				"not a git repository: %s", name, o.status, o.contentType, target.URL)
		} else {
			issue.Message = fmt.Sprintf("VCS URL for component '%s' returned HTTP %d: %s", name, o.status, target.URL)
		}
	case outcomeTimeout:
		issue.Message = fmt.Sprintf("VCS URL check for component '%s' hit a timeout after %s: %s", name, timeout, target.URL)
	case outcomeConnect:
		issue.Message = fmt.Sprintf("VCS URL for component '%s': could not connect to %s", name, target.URL)
	case outcomeBlocked:
		issue.Message = fmt.Sprintf("VCS URL for component '%s' was not checked: %v", name, o.err)
	default:
		issue.Message = fmt.Sprintf("VCS URL check for component '%s' failed: %v", name, o.err)
	}
	return issue
}
