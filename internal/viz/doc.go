// Package viz renders a running universe in the terminal.
//
// Particles are plotted on a braille [Canvas], tinted by density, and
// driven by a Bubble Tea [Model]:
//
//   - [Model]: live view of one universe with an interactive force
//   - [NewPicker]: preset menu that launches a [Model]
//
// # Key Bindings
//
//	W/A/S/D - Move the force
//	P       - Spawn 5 particles in the top-left corner
//	O       - Despawn the 5 fastest particles
//	Space   - Pause/Resume simulation
//	R       - Reset to the initial layout
//	G       - Toggle the neighbour grid overlay
//	T       - Cycle color themes
//	Q       - Quit
package viz
