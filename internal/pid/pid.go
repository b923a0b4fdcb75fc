package pid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPID is returned when a particle name does not match any known kind.
var ErrUnknownPID = errors.New("unknown particle kind")

// PID identifies a particle kind. The zero value is Unknown, which is also
// used as the "no decay hypothesis" tag on combo uses.
type PID uint8

const (
	Unknown PID = iota
	Gamma
	Positron
	Electron
	MuonPlus
	MuonMinus
	PiZero
	PiPlus
	PiMinus
	KLong
	KPlus
	KMinus
	Neutron
	Proton
	AntiProton
	KShort
	Eta
	Lambda
	SigmaPlus
	SigmaZero
	SigmaMinus
	XiZero
	XiMinus
	OmegaMinus
	AntiNeutron
	AntiLambda
	Omega
	EtaPrime
	Phi
	JPsi
	Deuteron
	numPIDs
)

type properties struct {
	name     string
	charge   int
	mass     float64 // GeV
	detached bool    // decays far enough from its production point to form a separate vertex
}

var table = [numPIDs]properties{
	Unknown:     {name: "Unknown"},
	Gamma:       {name: "Gamma"},
	Positron:    {name: "e+", charge: 1, mass: 0.000510999},
	Electron:    {name: "e-", charge: -1, mass: 0.000510999},
	MuonPlus:    {name: "mu+", charge: 1, mass: 0.105658},
	MuonMinus:   {name: "mu-", charge: -1, mass: 0.105658},
	PiZero:      {name: "Pi0", mass: 0.134977},
	PiPlus:      {name: "Pi+", charge: 1, mass: 0.139570},
	PiMinus:     {name: "Pi-", charge: -1, mass: 0.139570},
	KLong:       {name: "KLong", mass: 0.497614},
	KPlus:       {name: "K+", charge: 1, mass: 0.493677},
	KMinus:      {name: "K-", charge: -1, mass: 0.493677},
	Neutron:     {name: "Neutron", mass: 0.939565},
	Proton:      {name: "Proton", charge: 1, mass: 0.938272},
	AntiProton:  {name: "AntiProton", charge: -1, mass: 0.938272},
	KShort:      {name: "KShort", mass: 0.497614, detached: true},
	Eta:         {name: "Eta", mass: 0.547862},
	Lambda:      {name: "Lambda", mass: 1.115683, detached: true},
	SigmaPlus:   {name: "Sigma+", charge: 1, mass: 1.18937, detached: true},
	SigmaZero:   {name: "Sigma0", mass: 1.192642},
	SigmaMinus:  {name: "Sigma-", charge: -1, mass: 1.197449, detached: true},
	XiZero:      {name: "Xi0", mass: 1.31486, detached: true},
	XiMinus:     {name: "Xi-", charge: -1, mass: 1.32171, detached: true},
	OmegaMinus:  {name: "Omega-", charge: -1, mass: 1.67245, detached: true},
	AntiNeutron: {name: "AntiNeutron", mass: 0.939565},
	AntiLambda:  {name: "AntiLambda", mass: 1.115683, detached: true},
	Omega:       {name: "omega", mass: 0.78265},
	EtaPrime:    {name: "EtaPrime", mass: 0.95778},
	Phi:         {name: "phi", mass: 1.019461},
	JPsi:        {name: "J/psi", mass: 3.0969},
	Deuteron:    {name: "Deuteron", charge: 1, mass: 1.875613},
}

var byName = func() map[string]PID {
	m := make(map[string]PID, numPIDs)
	for p := Unknown; p < numPIDs; p++ {
		m[strings.ToLower(table[p].name)] = p
	}
	return m
}()

// Parse resolves a particle name (case-insensitive) to its PID.
func Parse(name string) (PID, error) {
	p, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Unknown, fmt.Errorf("%w: %q", ErrUnknownPID, name)
	}
	return p, nil
}

func (p PID) props() properties {
	if p >= numPIDs {
		return table[Unknown]
	}
	return table[p]
}

func (p PID) String() string { return p.props().name }

// Charge returns the electric charge in units of e.
func (p PID) Charge() int { return p.props().charge }

// IsCharged reports whether the kind leaves a track rather than a shower.
func (p PID) IsCharged() bool { return p.Charge() != 0 }

// Mass returns the nominal mass in GeV.
func (p PID) Mass() float64 { return p.props().mass }

// IsMassiveNeutral reports whether the kind is a neutral hadron whose momentum
// can only be reconstructed from its flight time, which needs a precise vertex.
func (p PID) IsMassiveNeutral() bool {
	return p == Neutron || p == AntiNeutron || p == KLong
}

// IsDetachedVertex reports whether decays of this kind start a new vertex.
func (p PID) IsDetachedVertex() bool { return p.props().detached }

// MarshalText encodes the PID by name.
func (p PID) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a particle name.
func (p *PID) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ChargeContent classifies a grouping by the charges of its detected members.
type ChargeContent uint8

const (
	AllCharged ChargeContent = iota
	AllNeutral
	Mixed
)

func (c ChargeContent) String() string {
	switch c {
	case AllCharged:
		return "charged"
	case AllNeutral:
		return "neutral"
	default:
		return "mixed"
	}
}

// Merge combines the content of two parts of the same grouping.
func (c ChargeContent) Merge(o ChargeContent) ChargeContent {
	if c == o {
		return c
	}
	return Mixed
}
