package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/scontrino/internal/pipeline"
	"github.com/MeKo-Tech/scontrino/internal/recognizer"
	"github.com/MeKo-Tech/scontrino/internal/scanner"
	"github.com/MeKo-Tech/scontrino/internal/server"
)

// HTTPTestServerWrapper runs the receipt API on an httptest server with a
// scripted recognizer.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server
}

func (testCtx *TestContext) startTestHTTPServer(r recognizer.Recognizer, cfg server.Config) error {
	testCtx.stopTestHTTPServer()

	p, err := pipeline.NewBuilder().WithRecognizer(r).Build()
	if err != nil {
		return err
	}
	srv, err := server.NewServer(cfg, scanner.New(p, scanner.WithValidation(true)))
	if err != nil {
		return err
	}
	testCtx.HTTPTestServer = &HTTPTestServerWrapper{
		Server:     httptest.NewServer(srv.Handler()),
		TestServer: srv,
	}
	return nil
}

func (testCtx *TestContext) stopTestHTTPServer() {
	if testCtx.HTTPTestServer == nil {
		return
	}
	testCtx.HTTPTestServer.Server.Close()
	_ = testCtx.HTTPTestServer.TestServer.Close()
	testCtx.HTTPTestServer = nil
}

func (testCtx *TestContext) aReceiptServerReadingTheSampleReceipt() error {
	return testCtx.startTestHTTPServer(recognizer.Static{Tokens: SampleTokens}, server.Config{CORSOrigin: "*"})
}

func (testCtx *TestContext) aReceiptServerWhoseRecognizerIsExhausted() error {
	r := recognizer.Static{Err: fmt.Errorf("engine pool: %w", recognizer.ErrResourceExhausted)}
	return testCtx.startTestHTTPServer(r, server.Config{CORSOrigin: "*"})
}

func (testCtx *TestContext) aReceiptServerLimitedToRequestsPerMinute(n int) error {
	return testCtx.startTestHTTPServer(recognizer.Static{Tokens: SampleTokens},
		server.Config{CORSOrigin: "*", RateLimitPerMinute: n})
}

func (testCtx *TestContext) serverURL(path string) (string, error) {
	if testCtx.HTTPTestServer == nil {
		return "", errors.New("no server running")
	}
	return testCtx.HTTPTestServer.Server.URL + path, nil
}

func (testCtx *TestContext) do(req *http.Request) error {
	resp, err := testCtx.HTTPTestServer.Server.Client().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(body)
	testCtx.LastHTTPHeaders = map[string]string{}
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

func (testCtx *TestContext) iGET(path string) error {
	url, err := testCtx.serverURL(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return testCtx.do(req)
}

func (testCtx *TestContext) iUploadTo(file, path string) error {
	url, err := testCtx.serverURL(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(file) //nolint:gosec // G304: scenario file
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", filepath.Base(file))
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testCtx.do(req)
}

func (testCtx *TestContext) iPOSTTokensTo(path string, table *godog.Table) error {
	url, err := testCtx.serverURL(path)
	if err != nil {
		return err
	}
	var tokens []string
	for _, row := range table.Rows {
		tokens = append(tokens, row.Cells[0].Value)
	}
	payload, err := json.Marshal(server.ParseRequest{Tokens: tokens})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return testCtx.do(req)
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, expected string) error {
	got := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]
	if got != expected {
		return fmt.Errorf("header %s = %q, expected %q", name, got, expected)
	}
	return nil
}

func (testCtx *TestContext) theResponseJSONFieldShouldBe(path, expected string) error {
	return jsonFieldEquals(testCtx.LastHTTPResponse, path, expected)
}

func (testCtx *TestContext) theResponseShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, expected) {
		return fmt.Errorf("response does not contain %q: %s", expected, testCtx.LastHTTPResponse)
	}
	return nil
}

// RegisterServerSteps registers the HTTP API steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a receipt server reading the sample receipt$`, testCtx.aReceiptServerReadingTheSampleReceipt)
	sc.Step(`^a receipt server whose recognizer is exhausted$`, testCtx.aReceiptServerWhoseRecognizerIsExhausted)
	sc.Step(`^a receipt server limited to (\d+) requests? per minute$`, testCtx.aReceiptServerLimitedToRequestsPerMinute)

	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUploadTo)
	sc.Step(`^I POST these tokens to "([^"]*)":$`, testCtx.iPOSTTokensTo)

	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseJSONFieldShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
}
