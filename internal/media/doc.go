// Package media defines the content entries the classifier works on.
//
// An Entry is the upstream tuple (kind, title, year, source id). Year is an
// explicit optional so that "no year" never collides with a real year value.
// The package also decodes entry streams from JSON lines or TSV files.
package media
