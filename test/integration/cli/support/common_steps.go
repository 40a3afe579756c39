package support

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/scontrino/cmd/scontrino/cmd"
)

// iRunCommand executes a command line against a fresh command tree. The
// leading program name is optional.
func (testCtx *TestContext) iRunCommand(command string) error {
	args := strings.Fields(command)
	if len(args) > 0 && args[0] == "scontrino" {
		args = args[1:]
	}
	return testCtx.execute(args, nil)
}

func (testCtx *TestContext) iRunCommandWithInput(command string, doc *godog.DocString) error {
	args := strings.Fields(command)
	if len(args) > 0 && args[0] == "scontrino" {
		args = args[1:]
	}
	return testCtx.execute(args, strings.NewReader(doc.Content+"\n"))
}

func (testCtx *TestContext) execute(args []string, stdin *strings.Reader) error {
	root := cmd.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	start := time.Now()
	testCtx.LastCommand = strings.Join(args, " ")
	testCtx.LastError = root.ExecuteContext(ctx)
	testCtx.LastDuration = time.Since(start)
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("command %q failed: %w\nstderr: %s", testCtx.LastCommand, testCtx.LastError, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("command %q succeeded, expected failure\noutput: %s", testCtx.LastCommand, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastOutput, expected) {
		return fmt.Errorf("output does not contain %q\noutput: %s", expected, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(unexpected string) error {
	if strings.Contains(testCtx.LastOutput, unexpected) {
		return fmt.Errorf("output unexpectedly contains %q", unexpected)
	}
	return nil
}

func (testCtx *TestContext) theErrorShouldMention(expected string) error {
	if testCtx.LastError == nil {
		return errors.New("no error occurred")
	}
	if !strings.Contains(strings.ToLower(testCtx.LastError.Error()), strings.ToLower(expected)) {
		return fmt.Errorf("error %q does not mention %q", testCtx.LastError, expected)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	var v any
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &v); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\noutput: %s", err, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidCSVWithRows(rows int) error {
	return checkCSV(testCtx.LastOutput, rows)
}

func checkCSV(data string, rows int) error {
	records, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	if err != nil {
		return fmt.Errorf("not valid CSV: %w", err)
	}
	if len(records) != rows+1 {
		return fmt.Errorf("expected %d data rows, got %d", rows, len(records)-1)
	}
	return nil
}

func (testCtx *TestContext) theJSONFieldShouldBe(path, expected string) error {
	return jsonFieldEquals(testCtx.LastOutput, path, expected)
}

// jsonFieldEquals looks up a dotted path ("record.totale", "images.0.file")
// and compares its rendering with expected.
func jsonFieldEquals(doc, path, expected string) error {
	var v any
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return fmt.Errorf("not valid JSON: %w", err)
	}
	for _, key := range strings.Split(path, ".") {
		switch node := v.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return fmt.Errorf("field %q not found in %s", key, path)
			}
			v = next
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return fmt.Errorf("index %q out of range in %s", key, path)
			}
			v = node[i]
		default:
			return fmt.Errorf("cannot descend into %s at %q", path, key)
		}
	}

	var got string
	switch x := v.(type) {
	case string:
		got = x
	case float64:
		got = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		got = fmt.Sprint(x)
	}
	if got != expected {
		return fmt.Errorf("%s = %q, expected %q", path, got, expected)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file %s does not exist: %w", path, err)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(path, expected string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: scenario file
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), expected) {
		return fmt.Errorf("file %s does not contain %q", path, expected)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldBeValidCSVWithRows(path string, rows int) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: scenario file
	if err != nil {
		return err
	}
	return checkCSV(string(data), rows)
}

// RegisterCommonSteps registers command execution and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^I run "([^"]*)" with input:$`, testCtx.iRunCommandWithInput)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)

	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the output should be valid CSV with (\d+) rows?$`, testCtx.theOutputShouldBeValidCSVWithRows)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)

	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the file "([^"]*)" should be valid CSV with (\d+) rows?$`, testCtx.theFileShouldBeValidCSVWithRows)
}
