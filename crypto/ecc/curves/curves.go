package curves

import (
	"fmt"

	"github.com/veilpoll/veilpoll/crypto/ecc"
	bjj_gnark "github.com/veilpoll/veilpoll/crypto/ecc/bjj_gnark"
	bjj_iden3 "github.com/veilpoll/veilpoll/crypto/ecc/bjj_iden3"
	"github.com/veilpoll/veilpoll/crypto/ecc/bn254"
)

const (
	CurveTypeBabyJubJub      = "bjj_gnark" // Default bjj curve type
	CurveTypeBabyJubJubGnark = "bjj_gnark"
	CurveTypeBabyJubJubIden3 = "bjj_iden3"
	CurveTypeBN254           = "bn254"
)

// New creates a new instance of a curve implementation based on the provided
// type string. The supported types are defined as constants in this package.
// If the type is not supported, it will panic.
func New(curveType string) ecc.Point {
	switch curveType {
	case CurveTypeBabyJubJubGnark:
		return bjj_gnark.New()
	case CurveTypeBN254:
		return bn254.New()
	case CurveTypeBabyJubJubIden3:
		return bjj_iden3.New()
	default:
		panic(fmt.Sprintf("unsupported curve type: %s", curveType))
	}
}

// Curves returns the type strings of every supported curve implementation.
func Curves() []string {
	return []string{
		CurveTypeBabyJubJubGnark,
		CurveTypeBabyJubJubIden3,
		CurveTypeBN254,
	}
}
