package docgenpdf

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/docfold/go-docgen/docgen"
)

// WKHTMLTOPDFEngine invokes wkhtmltopdf for HTML-to-PDF conversion. Markup
// is piped through stdin and the PDF read back from stdout, so no temporary
// files are involved.
type WKHTMLTOPDFEngine struct {
	// Command overrides the binary name. Empty means "wkhtmltopdf" from PATH.
	Command string
	Args    []string
	Env     []string
	Timeout time.Duration
}

// Render executes wkhtmltopdf. Page size, orientation, background, scale
// and margin options translate to the matching command line flags; BaseURL
// is injected into the markup the same way the Chromium engine does it.
// ExternalAssetsPolicy has no wkhtmltopdf equivalent and is ignored.
func (e WKHTMLTOPDFEngine) Render(ctx context.Context, req docgen.PDFRequest) ([]byte, error) {
	cmdPath := strings.TrimSpace(e.Command)
	if cmdPath == "" {
		cmdPath = "wkhtmltopdf"
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cmdCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := append([]string{}, e.Args...)
	args = append(args, wkhtmltopdfArgs(req.Options)...)
	args = append(args, "-", "-")
	cmd := exec.CommandContext(cmdCtx, cmdPath, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	cmd.Stdin = bytes.NewReader(injectBaseURL(req.HTML, req.Options.BaseURL))

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := cmdCtx.Err(); ctxErr != nil {
			err = ctxErr
		}
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = "wkhtmltopdf failed"
		}
		return nil, renderError(message, err)
	}
	return stdout.Bytes(), nil
}

func wkhtmltopdfArgs(opts docgen.PDFOptions) []string {
	var args []string
	if opts.PageSize != "" {
		args = append(args, "--page-size", opts.PageSize)
	}
	if opts.Landscape != nil && *opts.Landscape {
		args = append(args, "--orientation", "Landscape")
	}
	if opts.PrintBackground != nil && !*opts.PrintBackground {
		args = append(args, "--no-background")
	}
	if opts.Scale != 0 && opts.Scale != 1 {
		args = append(args, "--zoom", strconv.FormatFloat(opts.Scale, 'f', -1, 64))
	}
	if opts.MarginTop != "" {
		args = append(args, "--margin-top", opts.MarginTop)
	}
	if opts.MarginBottom != "" {
		args = append(args, "--margin-bottom", opts.MarginBottom)
	}
	if opts.MarginLeft != "" {
		args = append(args, "--margin-left", opts.MarginLeft)
	}
	if opts.MarginRight != "" {
		args = append(args, "--margin-right", opts.MarginRight)
	}
	return args
}
