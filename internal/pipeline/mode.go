// Package pipeline implements the per-frame stylization decision procedure.
package pipeline

// Mode is the stylization path for one frame, resolved once from the
// configuration flags instead of branching on booleans through the frame
// body.
type Mode int

const (
	// ModeSingle stylizes the camera frame with the primary style slot.
	ModeSingle Mode = iota
	// ModeInterpolate blends two style slots by the interpolation weight.
	ModeInterpolate
	// ModeNoiseSingle synthesizes textures from blurred noise, single style.
	ModeNoiseSingle
	// ModeNoiseInterpolate synthesizes textures from noise, two styles.
	ModeNoiseInterpolate
)

// ResolveMode maps the noise/interpolate flags to a Mode.
func ResolveMode(noise, interpolate bool) Mode {
	switch {
	case noise && interpolate:
		return ModeNoiseInterpolate
	case noise:
		return ModeNoiseSingle
	case interpolate:
		return ModeInterpolate
	default:
		return ModeSingle
	}
}

// Interpolated reports whether the mode mixes two style slots.
func (m Mode) Interpolated() bool {
	return m == ModeInterpolate || m == ModeNoiseInterpolate
}

// Synthetic reports whether the content image is generated noise rather than
// the camera frame.
func (m Mode) Synthetic() bool {
	return m == ModeNoiseSingle || m == ModeNoiseInterpolate
}

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeInterpolate:
		return "interpolate"
	case ModeNoiseSingle:
		return "noise"
	case ModeNoiseInterpolate:
		return "noise-interpolate"
	default:
		return "unknown"
	}
}
