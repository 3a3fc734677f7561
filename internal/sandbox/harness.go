package sandbox

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The JavaScript harnesses run inside the sandbox process. They capture
// console output as tagged lines and report a single JSON document on
// stdout, so the Go side never has to scrape free-form text.

const jsRunHarness = `"use strict";
const fs = require("fs");

const lines = [];
let ok = true;

function render(args) {
  return args.map(arg => {
    if (typeof arg === "object" && arg !== null) {
      try {
        return JSON.stringify(arg, null, 2);
      } catch (err) {
        return String(arg);
      }
    }
    return String(arg);
  }).join(" ");
}

const capture = channel => (...args) => {
  lines.push({ channel, text: render(args) });
};
console.log = capture("log");
console.warn = capture("warn");
console.error = capture("error");

const source = fs.readFileSync("program.js", "utf8");
try {
  new Function(source)();
} catch (err) {
  ok = false;
  lines.push({ channel: "error", text: "Error: " + err.message });
}

process.stdout.write(JSON.stringify({ ok, lines }));
`

const jsTestHarness = `"use strict";
const fs = require("fs");

const silent = () => {};
console.log = silent;
console.warn = silent;
console.error = silent;

function report(passed, message) {
  process.stdout.write(JSON.stringify({ passed, message: message || "" }));
}

const source = fs.readFileSync("program.js", "utf8");
const test = fs.readFileSync("test.js", "utf8");

try {
  const result = new Function(source + "\n" + test)();
  if (result && typeof result.then === "function") {
    result.then(() => report(true)).catch(err => report(false, err.message));
  } else {
    report(true);
  }
} catch (err) {
  report(false, err.message);
}
`

type jsRunReport struct {
	OK    bool         `json:"ok"`
	Lines []OutputLine `json:"lines"`
}

type jsTestReport struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// parseRunReport decodes the run harness output. Anything that is not the
// expected JSON document (interpreter startup failure, OOM kill) becomes a
// failed run with the raw output on the error channel.
func parseRunReport(stdout, stderr string) (bool, []OutputLine) {
	var report jsRunReport
	if err := json.Unmarshal([]byte(stdout), &report); err == nil {
		return report.OK, report.Lines
	}

	var lines []OutputLine
	for _, l := range splitLines(stdout) {
		lines = append(lines, OutputLine{Channel: ChannelLog, Text: l})
	}
	for _, l := range splitLines(stderr) {
		lines = append(lines, OutputLine{Channel: ChannelError, Text: l})
	}
	return false, lines
}

func parseTestReport(stdout string) (bool, string) {
	var report jsTestReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		return false, fmt.Sprintf("test harness produced no result: %s", strings.TrimSpace(stdout))
	}
	return report.Passed, report.Message
}

// pythonLines converts plain interpreter output into tagged lines
func pythonLines(stdout, stderr string) []OutputLine {
	var lines []OutputLine
	for _, l := range splitLines(stdout) {
		lines = append(lines, OutputLine{Channel: ChannelLog, Text: l})
	}
	for _, l := range splitLines(stderr) {
		lines = append(lines, OutputLine{Channel: ChannelError, Text: l})
	}
	return lines
}

// pythonFailureMessage extracts the final exception line from a traceback
func pythonFailureMessage(stderr string) string {
	ls := splitLines(stderr)
	if len(ls) == 0 {
		return "test failed"
	}
	return ls[len(ls)-1]
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
