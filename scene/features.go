package scene

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"omega3d.dev/omega3d/elements"
	"omega3d.dev/omega3d/vector"
)

// FlowFeature translates a scene-level description into particles (spec
// 4.G): InitParticles seeds the simulation once at start, StepParticles is
// called every step and is non-empty only for emitters. Enabled gates both
// — a disabled feature always returns an empty packet.
type FlowFeature interface {
	Enabled() bool
	InitParticles(ips float32) elements.Packet7
	StepParticles(ips float32) elements.Packet7
}

// decodeFlowFeature dispatches on the "type" discriminator (spec 9: "match,
// not virtual functions") into one of the six supported concrete types.
func decodeFlowFeature(raw json.RawMessage) (FlowFeature, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("scene: flow feature: %w", err)
	}

	var f FlowFeature
	switch head.Type {
	case "single particle":
		f = &SingleParticle{Enabled_: true}
	case "vortex blob":
		f = &VortexBlob{Enabled_: true}
	case "block of random":
		f = &BlockOfRandom{Enabled_: true}
	case "particle emitter":
		f = &ParticleEmitter{Enabled_: true}
	case "singular ring":
		f = &SingularRing{Enabled_: true}
	case "thick ring":
		f = &ThickRing{Enabled_: true}
	default:
		return nil, fmt.Errorf("scene: flow feature type %q not recognized", head.Type)
	}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("scene: flow feature %q: %w", head.Type, err)
	}
	return f, nil
}

// SingleParticle drops one particle at rest (original_source/FlowFeature.cpp
// SingleParticle).
type SingleParticle struct {
	Center   [3]float32 `json:"center"`
	Strength [3]float32 `json:"strength"`
	Enabled_ bool        `json:"enabled"`
}

func (f *SingleParticle) Enabled() bool { return f.Enabled_ }

func (f *SingleParticle) InitParticles(ips float32) elements.Packet7 {
	if !f.Enabled_ {
		return nil
	}
	return elements.Packet7{f.Center[0], f.Center[1], f.Center[2], f.Strength[0], f.Strength[1], f.Strength[2], 0}
}

func (f *SingleParticle) StepParticles(ips float32) elements.Packet7 { return nil }

// ParticleEmitter drops one particle per step from a fixed point
// (original_source/FlowFeature.cpp ParticleEmitter): the mirror image of
// SingleParticle, empty at init and one particle every StepParticles call.
type ParticleEmitter struct {
	Center   [3]float32 `json:"center"`
	Strength [3]float32 `json:"strength"`
	Enabled_ bool        `json:"enabled"`
}

func (f *ParticleEmitter) Enabled() bool                              { return f.Enabled_ }
func (f *ParticleEmitter) InitParticles(ips float32) elements.Packet7 { return nil }

func (f *ParticleEmitter) StepParticles(ips float32) elements.Packet7 {
	if !f.Enabled_ {
		return nil
	}
	return elements.Packet7{f.Center[0], f.Center[1], f.Center[2], f.Strength[0], f.Strength[1], f.Strength[2], 0}
}

// VortexBlob fills a ball of radius Radius (with transition thickness
// Softness) with particles on a cubic lattice of spacing ips, weighting the
// shell by a raised-cosine taper and renormalizing so the integrated
// strength equals Strength exactly (original_source/FlowFeature.cpp
// VortexBlob::init_particles).
type VortexBlob struct {
	Center   [3]float32 `json:"center"`
	Strength [3]float32 `json:"strength"`
	Radius   float32    `json:"radius"`
	Softness float32    `json:"softness"`
	Enabled_ bool        `json:"enabled"`
}

func (f *VortexBlob) Enabled() bool { return f.Enabled_ }

func (f *VortexBlob) InitParticles(ips float32) elements.Packet7 {
	if !f.Enabled_ || ips <= 0 {
		return nil
	}
	center := vector.Vec3{f.Center[0], f.Center[1], f.Center[2]}
	strength := vector.Vec3{f.Strength[0], f.Strength[1], f.Strength[2]}

	irad := int(1 + (f.Radius+0.5*f.Softness)/ips)
	type seed struct {
		pos vector.Vec3
		wgt float64
	}
	var seeds []seed
	var totWgt float64

	for i := -irad; i <= irad; i++ {
		for j := -irad; j <= irad; j++ {
			for k := -irad; k <= irad; k++ {
				dr := float32(math.Sqrt(float64(i*i+j*j+k*k))) * ips
				if dr >= f.Radius+0.5*f.Softness {
					continue
				}
				wgt := 1.0
				if f.Softness > 0 && dr > f.Radius-0.5*f.Softness {
					wgt = 0.5 - 0.5*math.Sin(math.Pi*float64(dr-f.Radius)/float64(f.Softness))
				}
				totWgt += wgt
				pos := vector.Add(center, vector.Vec3{ips * float32(i), ips * float32(j), ips * float32(k)})
				seeds = append(seeds, seed{pos, wgt})
			}
		}
	}
	if totWgt <= 0 {
		return nil
	}

	out := make(elements.Packet7, 0, 7*len(seeds))
	for _, s := range seeds {
		scale := float32(s.wgt / totWgt)
		str := vector.Scale(strength, scale)
		out = append(out, s.pos[0], s.pos[1], s.pos[2], str[0], str[1], str[2], 0)
	}
	return out
}

func (f *VortexBlob) StepParticles(ips float32) elements.Packet7 { return nil }

// BlockOfRandom drops Num particles uniform in a box, each strength uniform
// in +-MaxStrength/Num (original_source/FlowFeature.cpp BlockOfRandom).
type BlockOfRandom struct {
	Center      [3]float32 `json:"center"`
	Size        [3]float32 `json:"size"`
	MaxStrength float32    `json:"max strength"`
	Num         int        `json:"num"`
	Enabled_    bool        `json:"enabled"`
}

func (f *BlockOfRandom) Enabled() bool { return f.Enabled_ }

func (f *BlockOfRandom) InitParticles(ips float32) elements.Packet7 {
	if !f.Enabled_ || f.Num <= 0 {
		return nil
	}
	out := make(elements.Packet7, 0, 7*f.Num)
	for i := 0; i < f.Num; i++ {
		x := f.Center[0] + f.Size[0]*(rand.Float32()-0.5)
		y := f.Center[1] + f.Size[1]*(rand.Float32()-0.5)
		z := f.Center[2] + f.Size[2]*(rand.Float32()-0.5)
		sx := f.MaxStrength * (2*rand.Float32() - 1) / float32(f.Num)
		sy := f.MaxStrength * (2*rand.Float32() - 1) / float32(f.Num)
		sz := f.MaxStrength * (2*rand.Float32() - 1) / float32(f.Num)
		out = append(out, x, y, z, sx, sy, sz, 0)
	}
	return out
}

func (f *BlockOfRandom) StepParticles(ips float32) elements.Packet7 { return nil }

// onb builds an orthonormal basis (b1, b2) orthogonal to the given unit
// normal, used by SingularRing and ThickRing to lay particles out around a
// ring whose axis is the normal. Branchless per-quadrant construction
// (original_source's MathHelper.h branchlessONB), avoiding a degenerate
// basis when normal is close to any coordinate axis.
func onb(normal vector.Vec3) (b1, b2 vector.Vec3) {
	sign := float32(1)
	if normal[2] < 0 {
		sign = -1
	}
	a := -1 / (sign + normal[2])
	b := normal[0] * normal[1] * a
	b1 = vector.Vec3{1 + sign*normal[0]*normal[0]*a, sign * b, -sign * normal[0]}
	b2 = vector.Vec3{b, sign + normal[1]*normal[1]*a, -normal[1]}
	return
}

// SingularRing lays N particles around a circle of radius MajorRadius in
// the plane normal to Normal, with strength tangent to the ring scaled so
// the ring's total circulation equals Circulation
// (original_source/FlowFeature.cpp SingularRing).
type SingularRing struct {
	Center      [3]float32 `json:"center"`
	Normal      [3]float32 `json:"normal"`
	MajorRadius float32    `json:"major radius"`
	Circulation float32    `json:"circulation"`
	Enabled_    bool        `json:"enabled"`
}

func (f *SingularRing) Enabled() bool { return f.Enabled_ }

func (f *SingularRing) InitParticles(ips float32) elements.Packet7 {
	if !f.Enabled_ || ips <= 0 || f.MajorRadius <= 0 {
		return nil
	}
	center := vector.Vec3{f.Center[0], f.Center[1], f.Center[2]}
	normal := vector.Normalize(vector.Vec3{f.Normal[0], f.Normal[1], f.Normal[2]})
	b1, b2 := onb(normal)

	ndiam := int(1 + 2*math.Pi*float64(f.MajorRadius)/float64(ips))
	thisIPS := float32(2*math.Pi*float64(f.MajorRadius)) / float32(ndiam)

	out := make(elements.Packet7, 0, 7*ndiam)
	for i := 0; i < ndiam; i++ {
		theta := 2 * math.Pi * float64(i) / float64(ndiam)
		ct, st := float32(math.Cos(theta)), float32(math.Sin(theta))

		pos := vector.Add(center, vector.Scale(vector.Add(vector.Scale(b1, ct), vector.Scale(b2, st)), f.MajorRadius))
		tangent := vector.Sub(vector.Scale(b2, ct), vector.Scale(b1, st))
		str := vector.Scale(tangent, thisIPS*f.Circulation)

		out = append(out, pos[0], pos[1], pos[2], str[0], str[1], str[2], 0)
	}
	return out
}

func (f *SingularRing) StepParticles(ips float32) elements.Packet7 { return nil }

// ThickRing is a SingularRing whose core is resolved into a disk of
// particles at each azimuthal station, spanning MinorRadius, with
// per-particle strength scaled by (R + rho*cos(phi))/R to preserve
// circulation along the tube (original_source/FlowFeature.cpp ThickRing).
type ThickRing struct {
	Center      [3]float32 `json:"center"`
	Normal      [3]float32 `json:"normal"`
	MajorRadius float32    `json:"major radius"`
	MinorRadius float32    `json:"minor radius"`
	Circulation float32    `json:"circulation"`
	Enabled_    bool        `json:"enabled"`
}

func (f *ThickRing) Enabled() bool { return f.Enabled_ }

func (f *ThickRing) InitParticles(ips float32) elements.Packet7 {
	if !f.Enabled_ || ips <= 0 || f.MajorRadius <= 0 {
		return nil
	}

	type diskPt struct{ x, y, lenScale float32 }
	disk := []diskPt{{0, 0, 1}}
	nlayers := int(1 + f.MinorRadius/ips)
	for l := 1; l < nlayers; l++ {
		thisRad := float32(l) * ips
		nthis := int(1 + 2*math.Pi*float64(thisRad)/float64(ips))
		for i := 0; i < nthis; i++ {
			phi := 2 * math.Pi * float64(i) / float64(nthis)
			cphi, sphi := float32(math.Cos(phi)), float32(math.Sin(phi))
			disk = append(disk, diskPt{thisRad * cphi, thisRad * sphi, (f.MajorRadius + thisRad*cphi) / f.MajorRadius})
		}
	}

	center := vector.Vec3{f.Center[0], f.Center[1], f.Center[2]}
	normal := vector.Normalize(vector.Vec3{f.Normal[0], f.Normal[1], f.Normal[2]})
	b1, b2 := onb(normal)

	ndiam := int(1 + 2*math.Pi*float64(f.MajorRadius)/float64(ips))
	thisIPS := float32(2*math.Pi*float64(f.MajorRadius)) / float32(ndiam)

	out := make(elements.Packet7, 0, 7*ndiam*len(disk))
	for i := 0; i < ndiam; i++ {
		theta := 2 * math.Pi * float64(i) / float64(ndiam)
		ct, st := float32(math.Cos(theta)), float32(math.Sin(theta))
		tangent := vector.Sub(vector.Scale(b2, ct), vector.Scale(b1, st))

		for _, d := range disk {
			radial := vector.Scale(vector.Add(vector.Scale(b1, ct), vector.Scale(b2, st)), f.MajorRadius+d.x)
			pos := vector.Add(vector.Add(center, radial), vector.Scale(normal, d.y))

			sscale := d.lenScale * thisIPS * f.Circulation / float32(len(disk))
			str := vector.Scale(tangent, sscale)

			out = append(out, pos[0], pos[1], pos[2], str[0], str[1], str[2], 0)
		}
	}
	return out
}

func (f *ThickRing) StepParticles(ips float32) elements.Packet7 { return nil }
