package docgenpdf

import (
	"os/exec"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/docfold/go-docgen/docgen"
)

var browserCandidates = []string{
	"chromium-browser",
	"chromium",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
}

// FindBrowser returns the first Chrome or Chromium executable found on PATH.
func FindBrowser() (string, bool) {
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// ResolveBrowser returns a path to a usable Chromium executable. A browser
// already on PATH wins; otherwise a compatible build is downloaded into
// rod's cache (~/.cache/rod/browser on Unix, %APPDATA%\rod\browser on
// Windows) and reused on later runs. Feed the result to
// ChromiumEngine.BrowserPath.
func ResolveBrowser() (string, error) {
	if path, ok := FindBrowser(); ok {
		return path, nil
	}
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", docgen.NewError(docgen.KindInternal, "download chromium", err)
	}
	return path, nil
}
