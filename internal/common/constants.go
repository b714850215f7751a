// Package common contains common constants and variables used across services
package common

const (
	// BpsDenominator is 100% expressed in basis points.
	BpsDenominator = 10_000

	// MaxDecimals is the largest token decimal count accepted by the pipeline.
	MaxDecimals = 255

	// HookDataWordSize is the width of one static ABI word.
	HookDataWordSize = 32
)
