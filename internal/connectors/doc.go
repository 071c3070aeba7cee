// Package connectors provides the HTTP clients that fetch raw attraction
// data, plus the rate limiting they share. Each sub-package implements one
// of the PlaceSource or DescriptionSource ports.
package connectors
