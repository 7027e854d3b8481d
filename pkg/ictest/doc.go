// Package ictest implements the binary protocol spoken between the host and
// the IC tester firmware.
//
// # Overview
//
// A test is described by a validated descriptor (GateBatch, Mux, Counter,
// FlipFlopBatch or Analog). Descriptors are built once through New*
// constructors that resolve pin names through a Resolver and reject anything
// the wire format cannot carry. After construction a descriptor is immutable
// and Encode is total and deterministic.
//
// The device answers with free-form debug text around a binary reply frame:
//
//	[55][count][result...][FF]
//
// ScanCounted locates the first structurally consistent frame in a noisy
// buffer. DecodePassFail, DecodeValues and DecodeDemux turn the frame into
// per-item results.
//
// # Usage
//
//	g, err := ictest.NewGate(board, ictest.GateSpec{
//		Inputs:  []string{"D2", "D3"},
//		Outputs: []string{"D4"},
//		Truth:   []bool{false, false, false, true},
//	})
//	batch, err := ictest.NewGateBatch(g)
//	packet := batch.Encode()
//
//	// ... write packet, accumulate reply bytes ...
//
//	frame, err := ictest.ScanCounted(reply, ictest.MaxBatch)
//	res, err := ictest.DecodePassFail(frame, batch.Len())
//
// # Concurrency
//
// Everything in this package is a pure function over byte slices and is safe
// for concurrent use. Serializing exchanges on a transport is the caller's job
// (see package tester).
package ictest
