package catalog

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
)

// ErrUnknownReference is returned for a spectral type with no Pickles template.
var ErrUnknownReference = errors.New("unknown reference spectral type")

// PicklesSubdir is the layout of the Pickles (1998) UVILIB mirror below the
// reference directory.
const PicklesSubdir = "ftp.stsci.edu/cdbs/grid/pickles/dat_uvi"

// spectral type to pickles_N.fits. Where the library has several templates
// of one type the last one is used.
var pickles = map[string]int{
	"O5V":    1,
	"O9V":    2,
	"B0V":    3,
	"B1V":    4,
	"B3V":    5,
	"B57V":   6,
	"B8V":    7,
	"B9V":    8,
	"A0V":    9,
	"A2V":    10,
	"A3V":    11,
	"A5V":    12,
	"A7V":    13,
	"F0V":    14,
	"F2V":    15,
	"F5V":    17,
	"F6V":    19,
	"F8V":    22,
	"G0V":    25,
	"G2V":    26,
	"G5V":    29,
	"G8V":    30,
	"K0V":    32,
	"K2V":    33,
	"K3V":    34,
	"K4V":    35,
	"K5V":    36,
	"K7V":    37,
	"M0V":    38,
	"M1V":    39,
	"M2V":    40,
	"M2.5V":  41,
	"M3V":    42,
	"M4V":    43,
	"M5V":    44,
	"M6V":    45,
	"B2IV":   46,
	"B6IV":   47,
	"A0IV":   48,
	"A47IV":  49,
	"F02IV":  50,
	"F5IV":   51,
	"F8IV":   52,
	"G0IV":   53,
	"G2IV":   54,
	"G5IV":   55,
	"G8IV":   56,
	"K0IV":   57,
	"K1IV":   58,
	"K3IV":   59,
	"O8III":  60,
	"B12III": 61,
	"B3III":  62,
	"B5III":  63,
	"B9III":  64,
	"A0III":  65,
	"A3III":  66,
	"A5III":  67,
	"A7III":  68,
	"F0III":  69,
	"F2III":  70,
	"F5III":  71,
	"G0III":  72,
	"G5III":  75,
	"G8III":  77,
	"K0III":  80,
	"K1III":  83,
	"K2III":  86,
	"K3III":  89,
	"K4III":  92,
	"K5III":  94,
	"M0III":  95,
	"M1III":  96,
	"M2III":  97,
	"M3III":  98,
	"M4III":  99,
	"M5III":  100,
	"M6III":  101,
	"M7III":  102,
	"M8III":  103,
	"M9III":  104,
	"M10III": 105,
	"B2II":   106,
	"B5II":   107,
	"F0II":   108,
	"F2II":   109,
	"G5II":   110,
	"K01II":  111,
	"K34II":  112,
	"M3II":   113,
	"B0I":    114,
	"B1I":    115,
	"B3I":    116,
	"B5I":    117,
	"B8I":    118,
	"A0I":    119,
	"A2I":    120,
	"F0I":    121,
	"F5I":    122,
	"F8I":    123,
	"G0I":    124,
	"G2I":    125,
	"G5I":    126,
	"G8I":    127,
	"K2I":    128,
	"K3I":    129,
	"K4I":    130,
	"M2I":    131,
}

// ReferencePath returns the template file for a spectral type, e.g. "A0V".
func ReferencePath(dir, spectralType string) (string, error) {
	n, ok := pickles[spectralType]
	if !ok {
		return "", fmt.Errorf("%q: %w", spectralType, ErrUnknownReference)
	}
	return filepath.Join(dir, PicklesSubdir, fmt.Sprintf("pickles_%d.fits", n)), nil
}

// SpectralTypes lists the known reference spectral types in lexical order.
func SpectralTypes() []string {
	return slices.Sorted(maps.Keys(pickles))
}
