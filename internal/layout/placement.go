package layout

import (
	"math"
	"math/rand"
	"time"

	"storyreel/internal/types"
)

const DefaultPanRange = 60.0

// Planner produces placement plans. It is not safe for concurrent use; one
// render owns one planner.
type Planner struct {
	Classifier Classifier
	PanRange   float64
	rng        *rand.Rand
}

// NewPlanner seeds the pan-direction choice. A zero seed uses the clock.
func NewPlanner(panRange float64, seed int64) *Planner {
	if panRange <= 0 {
		panRange = DefaultPanRange
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Planner{
		Classifier: DefaultClassifier(),
		PanRange:   panRange,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Plan fits asset into a work rect of size work.W x work.H for duration
// seconds. Videos are always centered and never pan, whatever the panning
// flag says. Assets without known dimensions fill the rect
// so a placeholder can take their place.
func (p *Planner) Plan(asset types.MediaAsset, duration float64, enablePanning bool, work types.Rect) types.PlacementPlan {
	if !asset.Decodable() {
		return fixedPlan(work.W, work.H, types.Point{}, duration)
	}
	if asset.IsVideo() {
		return p.coverCentered(asset, duration, work)
	}
	if !enablePanning {
		return p.fitWidth(asset, duration, work)
	}

	switch p.Classifier.Classify(asset.Width, asset.Height, work.W, work.H) {
	case SpecialBand:
		scaleH := roundInt(float64(work.H) * p.Classifier.OversizeFactor)
		scaleW := scaleTo(asset.Width, scaleH, asset.Height)
		plan := p.horizontal(scaleW, work, duration)
		plan.ScaleW, plan.ScaleH = scaleW, scaleH
		plan.CropW, plan.CropH = scaleW, work.H
		return plan
	case Wide:
		scaleW := scaleTo(asset.Width, work.H, asset.Height)
		plan := p.horizontal(scaleW, work, duration)
		plan.ScaleW, plan.ScaleH = scaleW, work.H
		return plan
	default:
		scaleH := scaleTo(asset.Height, work.W, asset.Width)
		plan := p.vertical(scaleH, work, duration)
		plan.ScaleW, plan.ScaleH = work.W, scaleH
		return plan
	}
}

// Letterbox fits the whole asset inside the work rect, centered, with the
// remainder left black.
func (p *Planner) Letterbox(asset types.MediaAsset, duration float64, work types.Rect) types.PlacementPlan {
	if !asset.Decodable() {
		return fixedPlan(work.W, work.H, types.Point{}, duration)
	}
	scale := math.Min(float64(work.W)/float64(asset.Width), float64(work.H)/float64(asset.Height))
	w := roundInt(float64(asset.Width) * scale)
	h := roundInt(float64(asset.Height) * scale)
	plan := fixedPlan(w, h, types.Point{
		X: math.Floor(float64(work.W-w) / 2),
		Y: math.Floor(float64(work.H-h) / 2),
	}, duration)
	plan.Letterbox = true
	return plan
}

func (p *Planner) fitWidth(asset types.MediaAsset, duration float64, work types.Rect) types.PlacementPlan {
	h := scaleTo(asset.Height, work.W, asset.Width)
	return fixedPlan(work.W, h, types.Point{}, duration)
}

func (p *Planner) coverCentered(asset types.MediaAsset, duration float64, work types.Rect) types.PlacementPlan {
	scale := math.Max(float64(work.W)/float64(asset.Width), float64(work.H)/float64(asset.Height))
	w := max(roundInt(float64(asset.Width)*scale), work.W)
	h := max(roundInt(float64(asset.Height)*scale), work.H)
	return fixedPlan(w, h, types.Point{
		X: -float64(w-work.W) / 2,
		Y: -float64(h-work.H) / 2,
	}, duration)
}

func (p *Planner) horizontal(resizedW int, work types.Rect, duration float64) types.PlacementPlan {
	overflow := float64(resizedW - work.W)
	if overflow <= 0 {
		return fixedPlan(resizedW, work.H, types.Point{}, duration)
	}
	travel := math.Min(p.PanRange, overflow/2)
	center := -overflow / 2

	plan := types.PlacementPlan{
		ResizedW: resizedW,
		ResizedH: work.H,
		Duration: duration,
	}
	if p.rng.Intn(2) == 0 {
		plan.Pattern = types.PanLeftToRight
		plan.Start = types.Point{X: center + travel/2}
		plan.End = types.Point{X: center - travel/2}
	} else {
		plan.Pattern = types.PanRightToLeft
		plan.Start = types.Point{X: center - travel/2}
		plan.End = types.Point{X: center + travel/2}
	}
	return plan
}

func (p *Planner) vertical(resizedH int, work types.Rect, duration float64) types.PlacementPlan {
	overflow := float64(resizedH - work.H)
	if overflow <= 0 {
		return fixedPlan(work.W, resizedH, types.Point{}, duration)
	}
	travel := math.Min(p.PanRange, overflow/2)
	center := -overflow / 2

	plan := types.PlacementPlan{
		ResizedW: work.W,
		ResizedH: resizedH,
		Duration: duration,
	}
	if p.rng.Intn(2) == 0 {
		plan.Pattern = types.PanTopToBottom
		plan.Start = types.Point{Y: center + travel/2}
		plan.End = types.Point{Y: center - travel/2}
	} else {
		plan.Pattern = types.PanBottomToTop
		plan.Start = types.Point{Y: center - travel/2}
		plan.End = types.Point{Y: center + travel/2}
	}
	return plan
}

func fixedPlan(w, h int, at types.Point, duration float64) types.PlacementPlan {
	return types.PlacementPlan{
		ScaleW:   w,
		ScaleH:   h,
		ResizedW: w,
		ResizedH: h,
		Start:    at,
		End:      at,
		Duration: duration,
		Pattern:  types.PanFixed,
	}
}

// scaleTo returns n*num/den rounded to the nearest pixel.
func scaleTo(n, num, den int) int {
	return roundInt(float64(n) * float64(num) / float64(den))
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
