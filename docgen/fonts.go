package docgen

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// FontLocator finds a TTF file for the rendering engine so non-latin text
// keeps glyph coverage. The assets dir wins over system font locations.
// GOOS, WindowsDir and HomeDir exist for tests; zero values resolve to the
// running platform.
type FontLocator struct {
	AssetsDir  string
	GOOS       string
	WindowsDir string
	HomeDir    string
}

// Find returns the first candidate font file that exists, or "".
func (l FontLocator) Find() string {
	if l.AssetsDir != "" {
		for _, name := range []string{"DejaVuSans.ttf", "Roboto-Regular.ttf"} {
			p := filepath.Join(l.AssetsDir, name)
			if fileExists(p) {
				return p
			}
		}
	}
	for _, p := range l.systemCandidates() {
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// CSS builds the style rules injected ahead of rendering: an @font-face
// rule pointing at the located file, or the plain family stack when no
// file was found.
func (l FontLocator) CSS() string {
	return FontCSS(l.Find())
}

func (l FontLocator) systemCandidates() []string {
	goos := l.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	switch goos {
	case "windows":
		dir := l.WindowsDir
		if dir == "" {
			dir = os.Getenv("WINDIR")
		}
		if dir == "" {
			dir = `C:\Windows`
		}
		fonts := filepath.Join(dir, "Fonts")
		return []string{
			filepath.Join(fonts, "DejaVuSans.ttf"),
			filepath.Join(fonts, "Roboto-Regular.ttf"),
			filepath.Join(fonts, "arial.ttf"),
			filepath.Join(fonts, "segoeui.ttf"),
		}
	case "darwin":
		return []string{
			"/System/Library/Fonts/Supplemental/DejaVuSans.ttf",
			"/Library/Fonts/DejaVuSans.ttf",
			"/Library/Fonts/Roboto-Regular.ttf",
			"/System/Library/Fonts/Supplemental/Arial.ttf",
		}
	default:
		home := l.HomeDir
		if home == "" {
			home, _ = os.UserHomeDir()
		}
		out := []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/roboto/hinted/Roboto-Regular.ttf",
		}
		if home != "" {
			out = append(out, filepath.Join(home, ".local", "share", "fonts", "DejaVuSans.ttf"))
		}
		return out
	}
}

const fontFallbackCSS = "html, body { font-family: 'DejaVu Sans', 'Roboto', 'Arial', 'Segoe UI', sans-serif; }"

// FontCSS renders the @font-face rule for fontPath, or the fallback family
// stack when fontPath is empty.
func FontCSS(fontPath string) string {
	if fontPath == "" {
		return fontFallbackCSS
	}

	abs, err := filepath.Abs(fontPath)
	if err != nil {
		abs = fontPath
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}

	return fmt.Sprintf(`@font-face {
  font-family: 'AppCyrillic';
  src: url('%s');
  font-weight: normal;
  font-style: normal;
}
html, body { font-family: 'AppCyrillic', 'DejaVu Sans', 'Roboto', 'Arial', 'Segoe UI', sans-serif; }`, u.String())
}

// InjectStyleTag inserts a <style> block into markup, right after the
// opening <head> tag when one exists, inside a fresh head after <html>
// otherwise, and prepended as a last resort.
func InjectStyleTag(markup []byte, css string) []byte {
	css = strings.TrimSpace(css)
	if css == "" {
		return markup
	}

	styleTag := "<style>\n" + css + "\n</style>"
	lower := strings.ToLower(string(markup))

	if headIdx := strings.Index(lower, "<head"); headIdx >= 0 {
		if end := strings.Index(lower[headIdx:], ">"); end >= 0 {
			insertPos := headIdx + end + 1
			return append(append([]byte{}, markup[:insertPos]...), append([]byte(styleTag), markup[insertPos:]...)...)
		}
	}

	if htmlIdx := strings.Index(lower, "<html"); htmlIdx >= 0 {
		if end := strings.Index(lower[htmlIdx:], ">"); end >= 0 {
			insertPos := htmlIdx + end + 1
			injected := "<head>" + styleTag + "</head>"
			return append(append([]byte{}, markup[:insertPos]...), append([]byte(injected), markup[insertPos:]...)...)
		}
	}

	return append([]byte(styleTag), markup...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
