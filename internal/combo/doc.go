// Package combo builds every admissible grouping ("combo") of an event's
// detected particles that can satisfy a set of reaction hypotheses.
//
// Reactions are analysed once into interned grouping shapes (Info) tagged with
// a decay hypothesis and a vertex-z bin (Use). Per event, combos are built in
// three stages: charged tracks only, then neutrals whose kinematics do not
// depend on the vertex, then the remaining neutrals once the charged combo has
// placed the vertex. Groupings of N identical things are built vertically by
// extending groups of N-1; heterogeneous groupings are built horizontally by
// extending an all-but-one subset. Every result is memoised per stage, use and
// charged context, so work shared between reactions is done once.
//
// Timing, vertexing and invariant-mass cuts are delegated to collaborators;
// see package kinematics for the reference implementations.
package combo
