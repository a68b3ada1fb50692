//go:build !race

package pdfinfo

const raceEnabled = false
