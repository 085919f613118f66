package pathplan

import (
	"math"

	"sweepcore/density"
	"sweepcore/gridstore"
)

// Planner picks the next viewport movement from the current density map,
// per spec §4.10.
type Planner struct {
	Strategy Strategy

	blocked  []gridstore.Region
	critical []gridstore.Region
	resolved []gridstore.Region
}

// New returns a Planner using the given default strategy.
func New(strategy Strategy) *Planner {
	return &Planner{Strategy: strategy}
}

// ReportZone records an executor-side zone status update.
func (p *Planner) ReportZone(region gridstore.Region, status ZoneStatus) {
	switch status {
	case Resolved:
		p.resolved = append(p.resolved, region)
	case Blocked:
		p.blocked = append(p.blocked, region)
	case Critical:
		p.critical = append(p.critical, region)
	}
}

// Plan produces a MovementVector from the given hotspots and the current
// viewport center (in grid coordinates).
func (p *Planner) Plan(hotspots []density.Hotspot, viewportX, viewportY int) MovementVector {
	candidates := p.filterBlocked(hotspots)
	if len(candidates) == 0 {
		return MovementVector{Reasoning: "no candidate hotspots after filtering blocked zones"}
	}

	strategy := p.Strategy
	if strategy == Adaptive {
		strategy = chooseAdaptiveStrategy(candidates)
	}

	switch strategy {
	case HighestDensity:
		return p.highestDensity(candidates, viewportX, viewportY)
	case SlidingWindow:
		return p.slidingWindow(candidates, viewportX, viewportY)
	default:
		return p.barycenter(candidates, viewportX, viewportY)
	}
}

func (p *Planner) filterBlocked(hotspots []density.Hotspot) []density.Hotspot {
	var out []density.Hotspot
	for _, h := range hotspots {
		blocked := false
		for _, b := range p.blocked {
			if b.Contains(h.X, h.Y) {
				blocked = true
				break
			}
		}
		if !blocked {
			out = append(out, h)
		}
	}
	return out
}

func (p *Planner) boostedPriority(h density.Hotspot) float64 {
	priority := h.Density
	for _, c := range p.critical {
		if c.Contains(h.X, h.Y) {
			priority *= 1.5
			break
		}
	}
	return priority
}

// barycenter targets the weighted centroid of hotspots, weighted by
// density squared, per spec §4.10.
func (p *Planner) barycenter(hotspots []density.Hotspot, vx, vy int) MovementVector {
	var sumX, sumY, sumW float64
	for _, h := range hotspots {
		w := h.Density * h.Density
		sumX += float64(h.X) * w
		sumY += float64(h.Y) * w
		sumW += w
	}
	if sumW == 0 {
		return MovementVector{Reasoning: "barycenter: zero total weight"}
	}

	targetX := int(math.Round(sumX / sumW))
	targetY := int(math.Round(sumY / sumW))
	return p.vectorToward(targetX, targetY, vx, vy, maxStepSize, "barycenter: weighted centroid of hotspots")
}

// highestDensity targets the single densest hotspot.
func (p *Planner) highestDensity(hotspots []density.Hotspot, vx, vy int) MovementVector {
	best := hotspots[0]
	bestPriority := p.boostedPriority(best)
	for _, h := range hotspots[1:] {
		pr := p.boostedPriority(h)
		if pr > bestPriority {
			best = h
			bestPriority = pr
		}
	}
	return p.vectorToward(best.X, best.Y, vx, vy, maxStepSize, "highest_density: densest hotspot")
}

// slidingWindow restricts candidates to a window of +/-max_step around
// the viewport, maximizing density / (1 + distance/20), using a half
// step size.
func (p *Planner) slidingWindow(hotspots []density.Hotspot, vx, vy int) MovementVector {
	var best density.Hotspot
	bestScore := -1.0
	found := false

	for _, h := range hotspots {
		if absInt(h.X-vx) > maxStepSize || absInt(h.Y-vy) > maxStepSize {
			continue
		}
		dist := math.Hypot(float64(h.X-vx), float64(h.Y-vy))
		score := p.boostedPriority(h) / (1 + dist/20)
		if score > bestScore {
			best = h
			bestScore = score
			found = true
		}
	}
	if !found {
		return MovementVector{Reasoning: "sliding_window: no hotspot within window"}
	}

	return p.vectorToward(best.X, best.Y, vx, vy, maxStepSize/2, "sliding_window: best score within window")
}

func (p *Planner) vectorToward(targetX, targetY, vx, vy, clamp int, reason string) MovementVector {
	dx := targetX - vx
	dy := targetY - vy
	distance := math.Hypot(float64(dx), float64(dy))
	dx = clampInt(dx, clamp)
	dy = clampInt(dy, clamp)

	region := gridstore.NewRegion(targetX, targetY, 1, 1)
	return MovementVector{
		DX: dx, DY: dy,
		Priority:          priorityFromDistance(distance),
		Reasoning:         reason,
		TargetRegion:      &region,
		EstimatedDistance: distance,
	}
}

func priorityFromDistance(distance float64) float64 {
	if distance == 0 {
		return 1.0
	}
	return 1.0 / (1.0 + distance/100.0)
}

// chooseAdaptiveStrategy implements spec §4.10's Adaptive rule: heavy
// frontier density picks sliding window; sparse-but-peaked picks highest
// density; otherwise barycenter.
func chooseAdaptiveStrategy(hotspots []density.Hotspot) Strategy {
	if len(hotspots) == 0 {
		return Barycenter
	}

	var sum, max float64
	for _, h := range hotspots {
		sum += h.Density
		if h.Density > max {
			max = h.Density
		}
	}
	mean := sum / float64(len(hotspots))

	const denseCount = 15
	if len(hotspots) >= denseCount {
		return SlidingWindow
	}
	if max > 0 && mean/max < 0.3 {
		return HighestDensity
	}
	return Barycenter
}

func clampInt(v, limit int) int {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
