package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/scontrino/internal/pipeline"
	"github.com/MeKo-Tech/scontrino/internal/recognizer"
	"github.com/MeKo-Tech/scontrino/internal/scanner"
	"github.com/MeKo-Tech/scontrino/internal/testutil"
)

var receiptTokens = []string{
	"REPARTO 1", "QUANTITA", "2", "TOTALE", "4,50",
	"REPARTO 2", "QUANTITA", "1", "TOTALE", "8,00",
	"REPARTO TOTALE", "12,50",
	"PEZZI", "3",
	"07-03-2024",
}

func newTestServer(t *testing.T, r recognizer.Recognizer, cfg Config) *Server {
	t.Helper()
	p, err := pipeline.NewBuilder().WithRecognizer(r).Build()
	require.NoError(t, err)
	srv, err := NewServer(cfg, scanner.New(p, scanner.WithValidation(true)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func receiptPNG(t *testing.T) []byte {
	t.Helper()
	img, _ := testutil.RenderReceipt(testutil.DefaultReceiptScene())
	return testutil.EncodePNG(t, img)
}

func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no image"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/receipts/scan", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
