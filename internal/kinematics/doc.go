// Package kinematics provides the reference collaborators the comboer is run
// with: target geometry, RF-bunch timing, a charged-track vertexer and an
// invariant-mass window cutter.
//
// Distances are in cm, times in ns, energies and momenta in GeV.
package kinematics
