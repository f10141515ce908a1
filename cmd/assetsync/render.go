// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/assetsync/assetsync/internal/issue"
)

// issueStyle is the glamour style used for remediation guides.
const issueStyle = "dark"

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// issueOf returns the guide an ActionableError in err's chain points at.
func issueOf(err error) (issue.Id, bool) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue, true
	}
	return 0, false
}

// renderIssue writes the guide for id to w. Unknown ids write nothing.
func renderIssue(w io.Writer, id issue.Id) {
	is := issue.Get(id)
	if is == nil {
		return
	}
	rendered, err := is.Render(issueStyle)
	if err != nil {
		rendered = string(is.MarkdownMsg())
	}
	fmt.Fprint(w, rendered)
}

// reportError prints the guide attached to err, if any, then err itself.
func reportError(w io.Writer, err error, verbose bool) {
	if id, ok := issueOf(err); ok {
		renderIssue(w, id)
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
}

// humanSize formats a byte count with binary units.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
