package hook

const (
	MinTick = -887272
	MaxTick = 887272
)

// MinUsableTick is the lowest tick aligned to spacing.
func MinUsableTick(spacing int32) int32 {
	return (MinTick / spacing) * spacing
}

// MaxUsableTick is the highest tick aligned to spacing.
func MaxUsableTick(spacing int32) int32 {
	return (MaxTick / spacing) * spacing
}

// IsFullRange reports whether [lower, upper] is the canonical full range for
// spacing.
func IsFullRange(spacing, lower, upper int32) bool {
	return spacing > 0 && lower == MinUsableTick(spacing) && upper == MaxUsableTick(spacing)
}
