package body

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Box returns the four cushions of a rectangular table spanning min..max,
// rotated by rotation radians about its centre. Normals face inward.
func Box(min, max r2.Vec, rotation float64) ([]Wall, error) {
	if !(max.X > min.X) || !(max.Y > min.Y) {
		return nil, fmt.Errorf("%w: box %v..%v is empty", ErrInvalidGeometry, min, max)
	}
	b := r2.Box{Min: min, Max: max}
	center := b.Center()

	corners := []r2.Vec{
		min,
		{X: max.X, Y: min.Y},
		max,
		{X: min.X, Y: max.Y},
	}
	if rotation != 0 {
		rot := r2.NewRotation(rotation, center)
		for i, c := range corners {
			corners[i] = rot.Rotate(c)
		}
	}

	walls := make([]Wall, 0, 4)
	for i := range corners {
		w, err := NewSegment(corners[i], corners[(i+1)%len(corners)])
		if err != nil {
			return nil, err
		}
		walls = append(walls, w)
	}
	return walls, nil
}
