//go:build race

package pdfinfo

const raceEnabled = true
