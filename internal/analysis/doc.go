// Package analysis extracts frequency content from the metric series of a
// run. A sloshing tank shows up as a peak in the kinetic energy spectrum.
package analysis
