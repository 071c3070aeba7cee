// Package normalisers provides implementations of the PlaceNormaliser and
// DescriptionNormaliser interfaces. Each normaliser knows the wire format
// of one upstream source and maps it onto domain.CanonicalRecord fields.
package normalisers
