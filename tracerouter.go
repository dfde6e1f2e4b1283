/*
Package tracerouter holds the application level constants and the
process-wide configuration for the trace router service.
*/
package tracerouter

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

const (
	// AppName is the name the binary and the logging sender report as.
	AppName = "trace-router"

	// BuildVersion is the version reported by the info endpoint and the
	// command line tool.
	BuildVersion = "1.0.0"

	// TraceViewerPath is the path of the trace viewer's entry page,
	// relative to wherever the viewer is served from.
	TraceViewerPath = "/trace/index.html"

	// TraceQueryParam is the query parameter the trace viewer reads the
	// trace archive URL from.
	TraceQueryParam = "trace"

	// DefaultTraceAttachmentName is the report name the playwright trace
	// archive is attached under.
	DefaultTraceAttachmentName = "Test Tracing"

	DefaultViewerHost     = "localhost"
	DefaultViewerPort     = 8080
	DefaultServicePort    = 8000
	DefaultRequestTimeout = 30 * time.Second
)

// Config holds the process-wide configuration for the trace router
// service. It is populated once at startup, validated, and read-only
// afterwards; handlers receive it by injection and never mutate it.
type Config struct {
	// AllureServer is the base URL of the allure report server that
	// lookups are delegated to. Required.
	AllureServer string

	// RoutingDomain, when set, is the public domain used to compose
	// viewer URLs instead of the local viewer host and port.
	RoutingDomain string

	// ViewerHost and ViewerPort locate the trace viewer when no routing
	// domain is configured.
	ViewerHost string
	ViewerPort int

	// RouterHost and RouterPort are the bind address for the service
	// itself.
	RouterHost string
	RouterPort int

	// RequestTimeout bounds each outbound allure server request.
	RequestTimeout time.Duration

	// AttachmentName is the report name of the trace attachment.
	AttachmentName string
}

// Validate normalizes the configuration, filling unset fields with
// defaults, and returns an error if it cannot be used to run the
// service.
func (c *Config) Validate() error {
	catcher := grip.NewBasicCatcher()

	c.AllureServer = strings.TrimRight(strings.TrimSpace(c.AllureServer), "/")
	if c.AllureServer == "" {
		catcher.Add(errors.New("must specify an allure server url"))
	} else if !strings.HasPrefix(c.AllureServer, "http") {
		catcher.Add(errors.Errorf("allure server url '%s' is malformed, must start with 'http'", c.AllureServer))
	}

	c.RoutingDomain = strings.TrimRight(strings.TrimPrefix(strings.TrimPrefix(c.RoutingDomain, "https://"), "http://"), "/")

	if c.ViewerHost == "" {
		c.ViewerHost = DefaultViewerHost
	}
	if c.ViewerPort == 0 {
		c.ViewerPort = DefaultViewerPort
	}
	if c.ViewerPort < 0 || c.ViewerPort > 65535 {
		catcher.Add(errors.Errorf("viewer port %d is out of range", c.ViewerPort))
	}

	if c.RouterPort == 0 {
		c.RouterPort = DefaultServicePort
	}
	if c.RouterPort < 0 || c.RouterPort > 65535 {
		catcher.Add(errors.Errorf("router port %d is out of range", c.RouterPort))
	}

	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}

	if c.AttachmentName == "" {
		c.AttachmentName = DefaultTraceAttachmentName
	}

	return catcher.Resolve()
}

// ViewerBaseURL returns the URL of the trace viewer's entry page. When a
// routing domain is configured it takes precedence over the local viewer
// host and port.
func (c *Config) ViewerBaseURL() string {
	if c.RoutingDomain != "" {
		return fmt.Sprintf("https://%s%s", c.RoutingDomain, TraceViewerPath)
	}

	return fmt.Sprintf("http://%s:%d%s", c.ViewerHost, c.ViewerPort, TraceViewerPath)
}

// RedirectTarget composes the viewer URL a client should be redirected
// to in order to open the given trace archive.
func (c *Config) RedirectTarget(traceURL string) string {
	return fmt.Sprintf("%s?%s=%s", c.ViewerBaseURL(), TraceQueryParam, url.QueryEscape(traceURL))
}
