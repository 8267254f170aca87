// Package ui renders the control panel overlay with raygui.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Actions reports which controls were activated this frame. The driver
// applies them between simulation ticks.
type Actions struct {
	TogglePause bool
	Reset       bool
	SpawnSand   bool
	SpawnDust   bool
	Viscosity   float32
}

// ControlsPanel renders the left-side controls panel.
type ControlsPanel struct {
	x, y    float32
	width   float32
	visible bool
}

// NewControlsPanel creates a controls panel anchored at (x, y).
func NewControlsPanel(x, y, width float32) *ControlsPanel {
	return &ControlsPanel{x: x, y: y, width: width}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool { return c.visible }

// Draw renders the panel and returns the activated actions. Viscosity in
// the returned Actions always carries the slider's current value.
func (c *ControlsPanel) Draw(paused bool, viscosity float32) Actions {
	actions := Actions{Viscosity: viscosity}
	if !c.visible {
		return actions
	}

	const padding, rowHeight = float32(10), float32(28)
	inner := c.width - 2*padding

	rl.DrawRectangle(int32(c.x), int32(c.y), int32(c.width), int32(rowHeight*7+padding*2), rl.Color{R: 20, G: 24, B: 30, A: 210})

	x := c.x + padding
	y := c.y + padding

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += rowHeight

	pauseLabel := "Pause"
	if paused {
		pauseLabel = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: inner, Height: rowHeight - 6}, pauseLabel) {
		actions.TogglePause = true
	}
	y += rowHeight

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: inner, Height: rowHeight - 6}, "Reset") {
		actions.Reset = true
	}
	y += rowHeight

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: inner, Height: rowHeight - 6}, "Spawn sand") {
		actions.SpawnSand = true
	}
	y += rowHeight

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: inner, Height: rowHeight - 6}, "Spawn dust") {
		actions.SpawnDust = true
	}
	y += rowHeight

	rl.DrawText("Viscosity", int32(x), int32(y), 14, rl.Gray)
	y += rowHeight - 8
	actions.Viscosity = gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: inner - 50, Height: 18},
		"0", "0.2",
		viscosity, 0, 0.2,
	)
	rl.DrawText(fmt.Sprintf("%.2f", actions.Viscosity), int32(x+inner-44), int32(y), 14, rl.LightGray)

	return actions
}
