package allure

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testServer  = "http://allure.test"
	testProject = "2511040101"
	testSuite   = "TestSuitePaginationScansList"
	testName    = "test_scans_list_artifact_pagination"

	suitesURL   = testServer + "/allure-docker-service/projects/" + testProject + "/reports/latest/data/suites.json"
	testCaseURL = testServer + "/allure-docker-service/projects/" + testProject + "/reports/latest/data/test-cases/uid-1.json"
)

type ClientSuite struct {
	client *Client

	suite.Suite
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.client = NewClient(testServer, 10*time.Second, "Test Tracing")
	httpmock.ActivateNonDefault(s.client.http)
}

func (s *ClientSuite) TearDownTest() {
	httpmock.DeactivateAndReset()
	s.client.Close()
}

func (s *ClientSuite) registerSuites() {
	httpmock.RegisterResponder(http.MethodGet, suitesURL,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, testSuitesTree()))
}

func (s *ClientSuite) registerTestCase(tc *TestCase) {
	httpmock.RegisterResponder(http.MethodGet, testCaseURL,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, tc))
}

func (s *ClientSuite) TestResolvesRelativeAttachment() {
	s.registerSuites()
	s.registerTestCase(&TestCase{
		UID: "uid-1",
		AfterStages: []Stage{{
			Name:        "teardown",
			Attachments: []Attachment{{Name: "Test Tracing", Source: "abc123-attachment.zip", Type: "application/zip"}},
		}},
	})

	traceURL, err := s.client.FindTraceURL(context.Background(), testProject, testSuite, testName)
	s.Require().NoError(err)
	s.Equal(testServer+"/allure-docker-service/projects/"+testProject+"/reports/latest/data/attachments/abc123-attachment.zip", traceURL)
	s.Equal(2, httpmock.GetTotalCallCount())
}

func (s *ClientSuite) TestResolvesRootedAttachment() {
	s.registerSuites()
	s.registerTestCase(&TestCase{
		UID:       "uid-1",
		TestStage: &Stage{Attachments: []Attachment{{Name: "Test Tracing", Source: "/attachments/abc123"}}},
	})

	traceURL, err := s.client.FindTraceURL(context.Background(), testProject, testSuite, testName)
	s.Require().NoError(err)
	s.Equal(testServer+"/attachments/abc123", traceURL)
}

func (s *ClientSuite) TestResolvesAbsoluteAttachment() {
	s.registerSuites()
	s.registerTestCase(&TestCase{
		UID:       "uid-1",
		TestStage: &Stage{Attachments: []Attachment{{Name: "Test Tracing", Source: "https://cdn.allure.test/traces/abc123.zip"}}},
	})

	traceURL, err := s.client.FindTraceURL(context.Background(), testProject, testSuite, testName)
	s.Require().NoError(err)
	s.Equal("https://cdn.allure.test/traces/abc123.zip", traceURL)
}

func (s *ClientSuite) TestMissingProjectReport() {
	httpmock.RegisterResponder(http.MethodGet, suitesURL,
		httpmock.NewStringResponder(http.StatusNotFound, "not found"))

	_, err := s.client.FindTraceURL(context.Background(), testProject, testSuite, testName)
	s.Equal(ErrTestNotFound, errors.Cause(err))
}

func (s *ClientSuite) TestMissingTest() {
	s.registerSuites()

	_, err := s.client.FindTraceURL(context.Background(), testProject, testSuite, "test_does_not_exist")
	s.Equal(ErrTestNotFound, errors.Cause(err))
	s.Equal(1, httpmock.GetTotalCallCount())
}

func (s *ClientSuite) TestMissingTraceAttachment() {
	s.registerSuites()
	s.registerTestCase(&TestCase{
		UID:       "uid-1",
		TestStage: &Stage{Attachments: []Attachment{{Name: "Screenshot", Source: "def456.png", Type: "image/png"}}},
	})

	_, err := s.client.FindTraceURL(context.Background(), testProject, testSuite, testName)
	s.Equal(ErrNoTraceAttachment, errors.Cause(err))
}

func (s *ClientSuite) TestUpstreamServerError() {
	httpmock.RegisterResponder(http.MethodGet, suitesURL,
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := s.client.FindTraceURL(context.Background(), testProject, testSuite, testName)
	s.Error(err)
	s.NotEqual(ErrTestNotFound, errors.Cause(err))
}

func (s *ClientSuite) TestMalformedUpstreamPayload() {
	resp := httpmock.NewStringResponse(http.StatusOK, "{not json")
	resp.Header.Set("Content-Type", "application/json")
	httpmock.RegisterResponder(http.MethodGet, suitesURL, httpmock.ResponderFromResponse(resp))

	_, err := s.client.FindTraceURL(context.Background(), testProject, testSuite, testName)
	s.Error(err)
	s.NotEqual(ErrTestNotFound, errors.Cause(err))
	s.NotEqual(ErrNoTraceAttachment, errors.Cause(err))
}

func (s *ClientSuite) TestSlowServerTimesOut() {
	s.client.http.Timeout = 20 * time.Millisecond
	httpmock.RegisterResponder(http.MethodGet, suitesURL,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, testSuitesTree()).Delay(300*time.Millisecond))

	start := time.Now()
	_, err := s.client.FindTraceURL(context.Background(), testProject, testSuite, testName)
	s.Require().Error(err)
	s.Less(time.Since(start), 250*time.Millisecond)

	var netErr net.Error
	s.Require().True(errors.As(err, &netErr))
	s.True(netErr.Timeout())
}

func (s *ClientSuite) TestUnreachableServer() {
	httpmock.RegisterResponder(http.MethodGet, suitesURL,
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := s.client.FindTraceURL(context.Background(), testProject, testSuite, testName)
	s.Error(err)

	urlErr := &url.Error{}
	s.True(errors.As(err, &urlErr))
}

func TestNewClientNormalizesBaseURL(t *testing.T) {
	client := NewClient(testServer+"/", time.Second, "Test Tracing")
	defer client.Close()

	assert.Equal(t, testServer, client.baseURL)
}

func TestResolveAttachmentURL(t *testing.T) {
	client := NewClient(testServer, time.Second, "Test Tracing")
	defer client.Close()

	for name, test := range map[string]struct {
		source   string
		expected string
	}{
		"BareFilename": {
			source:   "abc123-attachment.zip",
			expected: testServer + "/allure-docker-service/projects/p1/reports/latest/data/attachments/abc123-attachment.zip",
		},
		"RootedPath": {
			source:   "/attachments/abc123",
			expected: testServer + "/attachments/abc123",
		},
		"AbsoluteURL": {
			source:   "https://cdn.allure.test/traces/abc123.zip",
			expected: "https://cdn.allure.test/traces/abc123.zip",
		},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, test.expected, client.resolveAttachmentURL("p1", test.source))
		})
	}
}
