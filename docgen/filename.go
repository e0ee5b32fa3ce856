package docgen

import (
	"path/filepath"
	"strings"
	"time"
)

// FilenameTimestampLayout gives output names second resolution in the
// clock's local time. Two runs with the same inputs inside the same
// wall-clock second produce the same name, so the later write wins; the
// scheme accepts that limit rather than guessing a disambiguator.
const FilenameTimestampLayout = "20060102_150405"

// OutputFilename computes the artifact name for a run. Identifier-bearing
// document types produce invoice_<id>_<timestamp>.pdf; everything else
// produces <dataset>_<template>_<timestamp>.pdf from the source base names.
func OutputFilename(docType DocumentType, identifier, datasetName, templateName string, now time.Time) string {
	ts := now.Format(FilenameTimestampLayout)
	if docType.RequiresIdentifier() {
		return "invoice_" + SanitizeIdentifier(identifier) + "_" + ts + ".pdf"
	}
	return stem(datasetName) + "_" + stem(templateName) + "_" + ts + ".pdf"
}

// SanitizeIdentifier makes an identifier safe for filenames: path
// separators become hyphens and surrounding whitespace is dropped.
func SanitizeIdentifier(id string) string {
	id = strings.TrimSpace(id)
	id = strings.ReplaceAll(id, "/", "-")
	id = strings.ReplaceAll(id, "\\", "-")
	return id
}

func stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
