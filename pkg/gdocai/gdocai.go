// Package gdocai recognizes PDFs with a Google Document AI OCR processor.
//
// The package sends the raw PDF bytes to Document AI and converts the response
// into a small model of pages, lines and tokens. Lines and tokens do not carry
// their text inline: each has a text anchor of one or more offset ranges into
// the document's shared text buffer, a bounding polygon in normalized [0,1]
// page coordinates and a confidence score. Tokens belong to a line when their
// anchor lies inside the line's anchor.
//
// Main Functions:
//
// - NewClient: Creates a Client for a processor
// - Client.Recognize: Sends a PDF to Document AI and converts the result
// - DocumentFromProto: Converts a Document AI response to a Document
// - Document.AnchorText: Resolves a text anchor against the text buffer
// - Page.TokensIn: Finds the tokens of a line by anchor containment
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - Application Default Credentials, or a credentials file in Config
package gdocai
