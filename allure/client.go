package allure

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evergreen-ci/utility"
	"github.com/go-resty/resty/v2"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// servicePath is the URL prefix the allure-docker-service API is
// mounted under on the report server.
const servicePath = "/allure-docker-service"

var (
	// ErrTestNotFound indicates the report server was reachable but no
	// result matched the requested project, suite, and test.
	ErrTestNotFound = errors.New("test not found")

	// ErrNoTraceAttachment indicates a matching test was found but none
	// of its attachments is a playwright trace.
	ErrNoTraceAttachment = errors.New("no trace attachment")
)

// Client queries an allure report server for test results and resolves
// the location of their trace attachments. A Client is safe for
// concurrent use and holds no per-request state.
type Client struct {
	baseURL        string
	attachmentName string
	http           *http.Client
	resty          *resty.Client
}

// NewClient constructs a Client for the report server at baseURL. Every
// outbound request is bounded by timeout; attachmentName is the report
// name trace archives are attached under.
func NewClient(baseURL string, timeout time.Duration, attachmentName string) *Client {
	httpClient := utility.GetHTTPClient()
	httpClient.Timeout = timeout

	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		attachmentName: attachmentName,
		http:           httpClient,
	}
	c.resty = resty.NewWithClient(httpClient).SetBaseURL(c.baseURL)

	return c
}

// Close returns the underlying http client to the shared pool.
func (c *Client) Close() { utility.PutHTTPClient(c.http) }

// FindTraceURL resolves the absolute URL of the playwright trace
// archive attached to the named test in the project's latest report.
// Returns an error wrapping ErrTestNotFound or ErrNoTraceAttachment
// when resolution fails for a reason other than reaching the server.
func (c *Client) FindTraceURL(ctx context.Context, project, suite, test string) (string, error) {
	node, err := c.findTest(ctx, project, suite, test)
	if err != nil {
		return "", err
	}

	tc, err := c.getTestCase(ctx, project, node.UID)
	if err != nil {
		return "", err
	}

	att := tc.TraceAttachment(c.attachmentName)
	if att == nil {
		return "", errors.Wrapf(ErrNoTraceAttachment, "test '%s/%s/%s'", project, suite, test)
	}

	return c.resolveAttachmentURL(project, att.Source), nil
}

func (c *Client) findTest(ctx context.Context, project, suite, test string) (*SuiteNode, error) {
	endpoint := fmt.Sprintf("%s/projects/%s/reports/latest/data/suites.json", servicePath, url.PathEscape(project))
	grip.Debug(message.Fields{
		"message": "fetching suites tree",
		"project": project,
		"url":     c.baseURL + endpoint,
	})

	root := &SuiteNode{}
	resp, err := c.resty.R().SetContext(ctx).SetResult(root).Get(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching suites for project '%s'", project)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, errors.Wrapf(ErrTestNotFound, "project '%s' has no report", project)
	}
	if resp.IsError() {
		return nil, errors.Errorf("fetching suites for project '%s': got status '%s'", project, resp.Status())
	}

	node := root.FindTest(suite, test)
	if node == nil {
		return nil, errors.Wrapf(ErrTestNotFound, "test '%s/%s/%s'", project, suite, test)
	}

	return node, nil
}

func (c *Client) getTestCase(ctx context.Context, project, uid string) (*TestCase, error) {
	endpoint := fmt.Sprintf("%s/projects/%s/reports/latest/data/test-cases/%s.json", servicePath, url.PathEscape(project), url.PathEscape(uid))
	grip.Debug(message.Fields{
		"message": "fetching test case",
		"project": project,
		"uid":     uid,
		"url":     c.baseURL + endpoint,
	})

	tc := &TestCase{}
	resp, err := c.resty.R().SetContext(ctx).SetResult(tc).Get(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching test case '%s' for project '%s'", uid, project)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, errors.Wrapf(ErrTestNotFound, "test case '%s' in project '%s'", uid, project)
	}
	if resp.IsError() {
		return nil, errors.Errorf("fetching test case '%s' for project '%s': got status '%s'", uid, project, resp.Status())
	}

	return tc, nil
}

// resolveAttachmentURL turns an attachment source reference into an
// absolute URL. Absolute references pass through unchanged, rooted
// paths resolve against the server base, and bare filenames resolve
// under the latest report's attachments directory.
func (c *Client) resolveAttachmentURL(project, source string) string {
	if u, err := url.Parse(source); err == nil && u.IsAbs() {
		return source
	}

	if strings.HasPrefix(source, "/") {
		return c.baseURL + source
	}

	return fmt.Sprintf("%s%s/projects/%s/reports/latest/data/attachments/%s", c.baseURL, servicePath, url.PathEscape(project), source)
}
