// Package reaction describes hypothesised reactions as ordered steps linked
// into a decay chain, plus the topology queries the comboer needs: detected
// particles per step, missing decay products and vertex grouping.
package reaction
