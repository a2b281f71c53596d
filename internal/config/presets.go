package config

import "sort"

// Presets are named starting points, each a full Config built by
// adjusting the defaults.
var Presets = map[string]func() *Config{
	"dambreak": DefaultConfig,
	"dambreak_small": func() *Config {
		c := DefaultConfig()
		c.Scene.Rows, c.Scene.Cols = 20, 5
		c.Force.Power = 0
		return c
	},
	"dambreak_wide": func() *Config {
		c := DefaultConfig()
		c.Domain.Width = 1400
		c.Scene.WidthFrac = 0.3
		c.Scene.Cols = 20
		return c
	},
	"random": func() *Config {
		c := DefaultConfig()
		c.Scene.Strategy = "random"
		c.Force.Power = 0
		return c
	},
	"stir": func() *Config {
		c := DefaultConfig()
		c.Scene.Strategy = "random"
		c.Force = ForceConfig{X: 350, Y: 350, Power: 2e8, Radius: 150}
		c.Run.Steps = 1000
		return c
	},
	"viscous": func() *Config {
		c := DefaultConfig()
		c.Solver.Viscosity = 60
		c.Force.Power = 0
		return c
	},
}

func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
