// Package pid defines the particle kinds the comboer reasons about, with the
// charge, mass and vertex properties that decide how each kind is grouped.
package pid
