package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/scontrino/internal/testutil"
)

// SampleTokens is the token stream of a two-department receipt with all
// seven fields present.
var SampleTokens = []string{
	"REPARTO 1", "QUANTITA", "2", "TOTALE", "4,50",
	"REPARTO 2", "QUANTITA", "1", "TOTALE", "8,00",
	"REPARTO TOTALE", "12,50",
	"PEZZI", "3",
	"07-03-2024",
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o600)
}

func (testCtx *TestContext) aTokenFileWithTheSampleReceipt(path string) error {
	return writeFile(path, []byte(strings.Join(SampleTokens, "\n")+"\n"))
}

func (testCtx *TestContext) aTokenFileContaining(path string, doc *godog.DocString) error {
	return writeFile(path, []byte(doc.Content+"\n"))
}

func (testCtx *TestContext) aReceiptPhoto(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	img, _ := testutil.RenderReceipt(testutil.DefaultReceiptScene())
	return imaging.Save(img, path)
}

func (testCtx *TestContext) aCorruptImage(path string) error {
	return writeFile(path, []byte("this is not an image"))
}

func (testCtx *TestContext) aDirectoryWithReceiptPhotos(dir string, n int) error {
	for i := 1; i <= n; i++ {
		if err := testCtx.aReceiptPhoto(filepath.Join(dir, fmt.Sprintf("receipt-%02d.png", i))); err != nil {
			return err
		}
	}
	return nil
}

func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	return testCtx.SetEnvVar(name, value)
}

// RegisterFixtureSteps registers steps that create input files.
func (testCtx *TestContext) RegisterFixtureSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a token file "([^"]*)" with the sample receipt$`, testCtx.aTokenFileWithTheSampleReceipt)
	sc.Step(`^a token file "([^"]*)" containing:$`, testCtx.aTokenFileContaining)
	sc.Step(`^a receipt photo "([^"]*)"$`, testCtx.aReceiptPhoto)
	sc.Step(`^a corrupt image "([^"]*)"$`, testCtx.aCorruptImage)
	sc.Step(`^a directory "([^"]*)" with (\d+) receipt photos$`, testCtx.aDirectoryWithReceiptPhotos)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
}
