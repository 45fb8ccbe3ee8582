package domain

// Coordinate represents a geographic coordinate (WGS 84).
// A spot either carries a full coordinate or none at all; a latitude without
// a longitude is treated as unresolved, which is why optional coordinates
// travel as *Coordinate rather than two nullable fields.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a four-corner bounding box around a center point.
type Bounds struct {
	NW Coordinate `json:"nw"`
	NE Coordinate `json:"ne"`
	SW Coordinate `json:"sw"`
	SE Coordinate `json:"se"`
}

// MinLat returns the southern edge of the box.
func (b Bounds) MinLat() float64 { return b.SW.Lat }

// MaxLat returns the northern edge of the box.
func (b Bounds) MaxLat() float64 { return b.NW.Lat }

// MinLng returns the western edge of the box.
func (b Bounds) MinLng() float64 { return b.NW.Lng }

// MaxLng returns the eastern edge of the box.
func (b Bounds) MaxLng() float64 { return b.NE.Lng }
