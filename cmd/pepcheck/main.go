// Command pepcheck is a standalone operability check for the PDP/PEP/secure
// data-access pipeline: given a subject and a resource, it runs the whole
// enforcement path end to end — evaluate against a PDP client, compile the
// response into an AccessScope, and render that scope as a SQL WHERE
// condition in every supported dialect — and prints what it did at each
// stage. It talks to a real PDP over HTTP when --pdp-url is given, or to an
// in-process canned client otherwise, so the pipeline can be exercised
// before any PDP plugin is wired up.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stdout)
		return 2
	}

	switch args[1] {
	case "check":
		return runCheckCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage: pepcheck <command> [arguments]")
	_, _ = fmt.Fprintln(w, "\nCommands:")
	_, _ = fmt.Fprintln(w, "  check   Evaluate one access request end-to-end and print the compiled scope")
}
