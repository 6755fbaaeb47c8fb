package uvadvisor

import (
	"fmt"
	"math"
)

// Phototype is a Fitzpatrick-style skin type from 1 (very fair) to 6 (deeply pigmented).
type Phototype int

const (
	TypeI Phototype = iota + 1
	TypeII
	TypeIII
	TypeIV
	TypeV
	TypeVI
)

// PhototypeInfo is the display metadata for a phototype.
type PhototypeInfo struct {
	ID          Phototype `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
}

var phototypes = []PhototypeInfo{
	{ID: TypeI, Name: "Type I", Description: "Very fair skin, always burns, never tans", Color: "#f8d5c2"},
	{ID: TypeII, Name: "Type II", Description: "Fair skin, burns easily, tans minimally", Color: "#f3bd9c"},
	{ID: TypeIII, Name: "Type III", Description: "Medium skin, sometimes burns, gradually tans", Color: "#e5a887"},
	{ID: TypeIV, Name: "Type IV", Description: "Olive skin, rarely burns, tans easily", Color: "#c68863"},
	{ID: TypeV, Name: "Type V", Description: "Brown skin, very rarely burns, tans darkly", Color: "#a67358"},
	{ID: TypeVI, Name: "Type VI", Description: "Dark brown or black skin, never burns", Color: "#70483c"},
}

// Phototypes returns the catalogue in ascending order.
func Phototypes() []PhototypeInfo {
	out := make([]PhototypeInfo, len(phototypes))
	copy(out, phototypes)
	return out
}

// Valid reports whether p is within 1..6.
func (p Phototype) Valid() bool {
	return p >= TypeI && p <= TypeVI
}

// Info returns the display metadata. Invalid values yield Type I.
func (p Phototype) Info() PhototypeInfo {
	if !p.Valid() {
		return phototypes[0]
	}
	return phototypes[p-1]
}

// ParsePhototype validates an integer phototype.
func ParsePhototype(v int) (Phototype, error) {
	p := Phototype(v)
	if !p.Valid() {
		return 0, fmt.Errorf("skin type must be between 1 and 6, got %d", v)
	}
	return p, nil
}

// SnapPhototype rounds a continuous slider position to the nearest phototype.
func SnapPhototype(slider float64) Phototype {
	if math.IsNaN(slider) {
		return TypeI
	}
	idx := math.Round(slider)
	switch {
	case idx < float64(TypeI):
		return TypeI
	case idx > float64(TypeVI):
		return TypeVI
	default:
		return Phototype(idx)
	}
}
