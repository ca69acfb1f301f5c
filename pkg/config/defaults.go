// Package config holds the machine configuration consumed by the toolpath
// emitter: axis offsets, tool geometry, feed rates and whether the end-face
// trim passes are cut.
package config

// Default tool and machine values.
const (
	DefaultEndmillRadius   = 3.0
	DefaultEndmillStep     = 1.0
	DefaultEndmillFeedRate = 300.0
	DefaultDrillFeedRate   = 100.0
	DefaultDrillPulling    = 30.0
	DefaultFeedRate        = 1000.0
	DefaultGap             = 40.0
)

// Default returns the configuration used when no file is given. Loading a
// file starts from these values, so a file only needs the keys it changes.
func Default() Config {
	return Config{
		Endmill: Endmill{
			Radius:   DefaultEndmillRadius,
			Step:     DefaultEndmillStep,
			FeedRate: DefaultEndmillFeedRate,
		},
		Drill: Drill{
			FeedRate: DefaultDrillFeedRate,
			Pulling:  DefaultDrillPulling,
		},
		FeedRate: DefaultFeedRate,
		Gap:      DefaultGap,
		Cut:      true,
	}
}
