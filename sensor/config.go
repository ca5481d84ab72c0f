package sensor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/physics"
	"github.com/pkg/errors"
)

// DefaultIntersectionMatchPreventionCutoff rejects candidates whose contact
// normal with the owner leans more than roughly 41 degrees along the cast.
const DefaultIntersectionMatchPreventionCutoff = 0.75

var (
	ErrInvalidRange     = errors.New("sensor: cast range must be finite and non-negative")
	ErrInvalidDirection = errors.New("sensor: cast direction must be finite and non-zero")
	ErrInvalidOrigin    = errors.New("sensor: cast origin must be finite")
	ErrInvalidCutoff    = errors.New("sensor: intersection match prevention cutoff must be finite")
)

// Config is the immutable setup of a proximity sensor. CastOrigin and
// CastDirection are local to the sensing body.
type Config struct {
	CastOrigin    mgl64.Vec3
	CastDirection mgl64.Vec3
	CastRange     float64
	// CastShape, when set, makes the sensor sweep a shape instead of a ray.
	CastShape                         *physics.Shape
	IntersectionMatchPreventionCutoff float64
}

// DefaultConfig casts straight down -Y from the body origin with zero range.
func DefaultConfig() Config {
	return Config{
		CastDirection:                     mgl64.Vec3{0, -1, 0},
		IntersectionMatchPreventionCutoff: DefaultIntersectionMatchPreventionCutoff,
	}
}

// Validate normalizes the cast direction and rejects malformed settings.
func (c Config) Validate() (Config, error) {
	if math.IsNaN(c.CastRange) || math.IsInf(c.CastRange, 0) || c.CastRange < 0 {
		return c, errors.Wrapf(ErrInvalidRange, "got %v", c.CastRange)
	}
	dir, ok := common.Direction(c.CastDirection)
	if !ok {
		return c, errors.Wrapf(ErrInvalidDirection, "got %v", c.CastDirection)
	}
	c.CastDirection = dir
	if !common.IsFinite(c.CastOrigin) {
		return c, errors.Wrapf(ErrInvalidOrigin, "got %v", c.CastOrigin)
	}
	if math.IsNaN(c.IntersectionMatchPreventionCutoff) || math.IsInf(c.IntersectionMatchPreventionCutoff, 0) {
		return c, errors.Wrapf(ErrInvalidCutoff, "got %v", c.IntersectionMatchPreventionCutoff)
	}
	if c.CastShape != nil {
		if err := c.CastShape.Validate(); err != nil {
			return c, errors.Wrap(err, "sensor: cast shape")
		}
		shape := *c.CastShape
		c.CastShape = &shape
	}
	return c, nil
}
