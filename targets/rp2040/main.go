//go:build rp2040

package main

import (
	"context"
	"machine"

	"tinygo.org/x/drivers/adxl345"

	"github.com/mikaelpatel/Cosa-sub003/core"
	"github.com/mikaelpatel/Cosa-sub003/protocol"
)

const (
	blinkMs  = 512
	sampleMs = 64
	flushMs  = 1024
	tiltRaw  = 180
)

// blinker toggles the board LED
type blinker struct {
	led machine.Pin
	on  bool
}

func (b *blinker) Run(t *core.Thread, kind uint8, value uint16) {
	switch t.Resume() {
	case 0:
		b.led.Configure(machine.PinConfig{Mode: machine.PinOutput})
		t.Delay(1, blinkMs)
	case 1:
		b.on = !b.on
		b.led.Set(b.on)
		t.Delay(1, blinkMs)
	}
}

// sampler polls the accelerometer and reports each sample as an event
type sampler struct {
	sensor  adxl345.Device
	events  *core.EventQueue
	report  core.Handler
	x, y, z int32
	count   uint16
}

func (s *sampler) Run(t *core.Thread, kind uint8, value uint16) {
	switch t.Resume() {
	case 0:
		s.sensor.Configure()
		t.Delay(1, sampleMs)
	case 1:
		x, y, z := s.sensor.ReadRawAcceleration()
		s.x, s.y, s.z = int32(x), int32(y), int32(z)
		s.count++
		s.events.Push(core.SampleCompletedType, s.report, s.count)
		t.Delay(1, sampleMs)
	}
}

func main() {
	machine.I2C0.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})
	machine.Serial.Configure(machine.UARTConfig{})

	k := core.New(core.Config{TickMs: core.BaseTick, Mode: core.ModeQueued, Trace: true})
	if err := k.Begin(); err != nil {
		return
	}

	// Count samples with the board tilted past about 45 degrees on x
	var tilted uint32
	s := &sampler{
		sensor: adxl345.New(machine.I2C0),
		events: k.Events(),
	}
	s.report = core.HandlerFunc(func(kind uint8, value uint16) {
		if s.x > tiltRaw || s.x < -tiltRaw {
			tilted++
		}
	})
	k.Spawn(&blinker{led: machine.LED})
	k.Spawn(s)

	var enc protocol.FrameEncoder
	k.Every(flushMs, func() {
		trace := k.Trace()
		trace.Record(core.TraceSample, core.SampleCompletedType, tilted, uint32(s.count))
		enc.WriteTrace(machine.Serial, trace.Records())
		trace.Clear()
	})

	k.Run(context.Background())
}
