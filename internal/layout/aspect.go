// Package layout decides how each asset is fitted into the work rect of the
// canvas and how it moves during its segment.
package layout

// AspectClass is the fitting rule chosen for an asset.
type AspectClass int

const (
	// Wide assets are resized to the work height and overflow horizontally.
	Wide AspectClass = iota
	// Tall assets are resized to the work width and overflow vertically.
	Tall
	// SpecialBand assets are close to the work ratio. They are resized to an
	// oversized height and center-cropped back to the work height so a
	// horizontal pan still has room to move.
	SpecialBand
)

func (c AspectClass) String() string {
	switch c {
	case Wide:
		return "wide"
	case Tall:
		return "tall"
	case SpecialBand:
		return "special_band"
	default:
		return "unknown"
	}
}

// Reference tuning was done on a 504x890 frame: ratios in [0.540, 0.590]
// went through a 1100px intermediate height with a 105px crop on each side.
// The band and the oversize factor are kept relative to the work ratio so
// other canvas sizes behave the same way.
const (
	referenceRatio = 504.0 / 890.0

	DefaultBandLow        = 0.540 / referenceRatio
	DefaultBandHigh       = 0.590 / referenceRatio
	DefaultOversizeFactor = 1100.0 / 890.0
)

type Classifier struct {
	// BandLow and BandHigh bound asset_ratio/work_ratio for SpecialBand.
	BandLow        float64
	BandHigh       float64
	OversizeFactor float64
}

func DefaultClassifier() Classifier {
	return Classifier{
		BandLow:        DefaultBandLow,
		BandHigh:       DefaultBandHigh,
		OversizeFactor: DefaultOversizeFactor,
	}
}

// Classify compares the asset ratio against the work-area ratio. Degenerate
// sizes classify as Wide.
func (c Classifier) Classify(width, height, workW, workH int) AspectClass {
	if width <= 0 || height <= 0 || workW <= 0 || workH <= 0 {
		return Wide
	}
	assetRatio := float64(width) / float64(height)
	workRatio := float64(workW) / float64(workH)

	rel := assetRatio / workRatio
	if c.BandHigh > c.BandLow && rel >= c.BandLow && rel <= c.BandHigh {
		return SpecialBand
	}
	if assetRatio > workRatio {
		return Wide
	}
	return Tall
}
