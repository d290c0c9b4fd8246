package scene

import (
	"encoding/json"
	"fmt"
	"math"

	"omega3d.dev/omega3d/elements"
	"omega3d.dev/omega3d/vector"
)

// MeasureFeature yields the field points a scene-level measurement
// description contributes (spec 4.G): InitPoints seeds them at start,
// StepPoints is non-empty only for the tracer emitter. Moves reports
// whether the resulting Collection should be Lagrangian or Fixed
// (original_source/MeasureFeature.h's m_is_lagrangian).
type MeasureFeature interface {
	Enabled() bool
	Moves() bool
	InitPoints() elements.Packet3
	StepPoints() elements.Packet3
}

func decodeMeasureFeature(raw json.RawMessage) (MeasureFeature, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("scene: measurement feature: %w", err)
	}

	var f MeasureFeature
	switch head.Type {
	case "single point":
		f = &SinglePoint{Enabled_: true}
	case "tracer emitter":
		f = &TracerEmitter{Enabled_: true}
	case "tracer blob":
		f = &TracerBlob{Enabled_: true, Num: 32}
	case "tracer line":
		f = &TracerLine{Enabled_: true, Num: 10}
	case "measurement line":
		f = &MeasurementLine{Enabled_: true, Num: 10}
	default:
		return nil, fmt.Errorf("scene: measurement feature type %q not recognized", head.Type)
	}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("scene: measurement feature %q: %w", head.Type, err)
	}
	return f, nil
}

// SinglePoint is a single fixed probe (original_source/MeasureFeature.h
// SinglePoint, constructed with moves=false in main_batch's usage).
type SinglePoint struct {
	Center   [3]float32 `json:"center"`
	Enabled_ bool        `json:"enabled"`
}

func (f *SinglePoint) Enabled() bool { return f.Enabled_ }
func (f *SinglePoint) Moves() bool   { return false }

func (f *SinglePoint) InitPoints() elements.Packet3 {
	if !f.Enabled_ {
		return nil
	}
	return elements.Packet3{f.Center[0], f.Center[1], f.Center[2]}
}

func (f *SinglePoint) StepPoints() elements.Packet3 { return nil }

// TracerEmitter drops one tracer per step from a fixed point
// (original_source/MeasureFeature.h TracerEmitter: constructed
// moves=false — the emission point itself is immobile).
type TracerEmitter struct {
	Center   [3]float32 `json:"center"`
	Enabled_ bool        `json:"enabled"`
}

func (f *TracerEmitter) Enabled() bool                    { return f.Enabled_ }
func (f *TracerEmitter) Moves() bool                      { return false }
func (f *TracerEmitter) InitPoints() elements.Packet3     { return nil }

func (f *TracerEmitter) StepPoints() elements.Packet3 {
	if !f.Enabled_ {
		return nil
	}
	return elements.Packet3{f.Center[0], f.Center[1], f.Center[2]}
}

// TracerBlob is a disk of Lagrangian tracers of radius Radius
// (original_source/MeasureFeature.h TracerBlob, constructed moves=true).
type TracerBlob struct {
	Center   [3]float32 `json:"center"`
	Normal   [3]float32 `json:"normal"`
	Radius   float32    `json:"radius"`
	Num      int        `json:"num"`
	Enabled_ bool        `json:"enabled"`
}

func (f *TracerBlob) Enabled() bool { return f.Enabled_ }
func (f *TracerBlob) Moves() bool   { return true }

func (f *TracerBlob) InitPoints() elements.Packet3 {
	if !f.Enabled_ || f.Num <= 0 {
		return nil
	}
	center := vector.Vec3{f.Center[0], f.Center[1], f.Center[2]}
	normal := vector.Vec3{f.Normal[0], f.Normal[1], f.Normal[2]}
	if vector.LengthSq(normal) == 0 {
		normal = vector.Vec3{0, 0, 1}
	}
	normal = vector.Normalize(normal)
	b1, b2 := onb(normal)

	out := make(elements.Packet3, 0, 3*f.Num)
	for i := 0; i < f.Num; i++ {
		theta := 2 * math.Pi * float64(i) / float64(f.Num)
		r := f.Radius * float32(math.Sqrt(float64(i)/float64(f.Num)))
		ct, st := float32(math.Cos(theta)), float32(math.Sin(theta))
		p := vector.Add(center, vector.Scale(vector.Add(vector.Scale(b1, ct), vector.Scale(b2, st)), r))
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

func (f *TracerBlob) StepPoints() elements.Packet3 { return nil }

// TracerLine is a line of Num Lagrangian tracers from Center to End
// (original_source/MeasureFeature.h TracerLine, constructed moves=true).
type TracerLine struct {
	Center   [3]float32 `json:"center"`
	End      [3]float32 `json:"end"`
	Num      int        `json:"num"`
	Enabled_ bool        `json:"enabled"`
}

func (f *TracerLine) Enabled() bool { return f.Enabled_ }
func (f *TracerLine) Moves() bool   { return true }

func (f *TracerLine) InitPoints() elements.Packet3 { return samplesAlongLine(f.Center, f.End, f.Num, f.Enabled_) }
func (f *TracerLine) StepPoints() elements.Packet3 { return nil }

// MeasurementLine is a line of Num fixed probes
// (original_source/MeasureFeature.h MeasurementLine, constructed
// moves=false).
type MeasurementLine struct {
	Center   [3]float32 `json:"center"`
	End      [3]float32 `json:"end"`
	Num      int        `json:"num"`
	Enabled_ bool        `json:"enabled"`
}

func (f *MeasurementLine) Enabled() bool { return f.Enabled_ }
func (f *MeasurementLine) Moves() bool   { return false }

func (f *MeasurementLine) InitPoints() elements.Packet3 {
	return samplesAlongLine(f.Center, f.End, f.Num, f.Enabled_)
}
func (f *MeasurementLine) StepPoints() elements.Packet3 { return nil }

func samplesAlongLine(start, end [3]float32, num int, enabled bool) elements.Packet3 {
	if !enabled || num <= 0 {
		return nil
	}
	a := vector.Vec3{start[0], start[1], start[2]}
	b := vector.Vec3{end[0], end[1], end[2]}
	out := make(elements.Packet3, 0, 3*num)
	for i := 0; i < num; i++ {
		t := float32(0)
		if num > 1 {
			t = float32(i) / float32(num-1)
		}
		p := vector.Add(a, vector.Scale(vector.Sub(b, a), t))
		out = append(out, p[0], p[1], p[2])
	}
	return out
}
