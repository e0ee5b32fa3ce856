// Package docgenpdf provides the PDF rendering engines for go-docgen.
//
// ChromiumEngine drives a shared headless Chromium tab over the DevTools
// protocol and is the default. WKHTMLTOPDFEngine shells out to wkhtmltopdf
// for hosts without a browser. Both implement docgen.PDFEngine and honor
// the same docgen.PDFOptions. ResolveBrowser locates or downloads a
// Chromium binary for hosts where none is installed.
package docgenpdf
