package tui

import (
	"time"

	"swipedo/internal/store"
	"swipedo/internal/swipe"
)

// Terminal-scale defaults: one engine unit is one column.
const (
	defaultActionWidth       = 9
	defaultGap               = 1
	defaultVelocityThreshold = 40 // columns per second
	defaultFPS               = 60
	maxFrameStep             = 100 * time.Millisecond
	hapticFlash              = 180 * time.Millisecond
)

type settings struct {
	geometry    swipe.Geometry
	spring      swipe.SpringSpec
	frame       time.Duration
	showHaptics bool
}

func settingsFromConfig(cfg *store.Config) settings {
	s := settings{
		geometry: swipe.Geometry{
			ActionWidth:       defaultActionWidth,
			Gap:               defaultGap,
			VelocityThreshold: defaultVelocityThreshold,
		},
		spring:      swipe.DefaultSpring,
		frame:       time.Second / defaultFPS,
		showHaptics: true,
	}
	if cfg == nil {
		return s
	}
	if sc := cfg.Swipe; sc != nil {
		if sc.ActionWidth > 0 {
			s.geometry.ActionWidth = float64(sc.ActionWidth)
		}
		if sc.Gap > 0 {
			s.geometry.Gap = float64(sc.Gap)
		}
		if sc.VelocityThreshold > 0 {
			s.geometry.VelocityThreshold = sc.VelocityThreshold
		}
		if sc.DampingRatio > 0 {
			s.spring.DampingRatio = sc.DampingRatio
		}
		if sc.Stiffness > 0 {
			s.spring.Stiffness = sc.Stiffness
		}
	}
	if tc := cfg.TUI; tc != nil {
		if tc.FPS > 0 {
			s.frame = time.Second / time.Duration(min(tc.FPS, 240))
		}
		if tc.ShowHaptics != nil {
			s.showHaptics = *tc.ShowHaptics
		}
	}
	return s
}
