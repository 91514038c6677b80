package processor

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"github.com/oresund-atlas/bathyprep/utils"
)

// LoadLandPolygons reads the shoreline shapefile and keeps, in file order,
// every polygon whose envelope overlaps bbox.
func LoadLandPolygons(shpPath string, bbox utils.BoundingBox) ([]geom.Geom, error) {
	dec, err := shp.NewDecoder(shpPath)
	if err != nil {
		return nil, fmt.Errorf("opening shoreline shapefile %s: %v", shpPath, err)
	}
	defer dec.Close()

	var polys []geom.Geom
	for {
		g, _, more := dec.DecodeRowFields()
		if !more {
			break
		}
		if Overlaps(g, bbox) {
			polys = append(polys, g)
		}
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("reading shoreline shapefile %s: %v", shpPath, err)
	}
	return polys, nil
}

// LandFeatureCollection wraps land polygons as a GeoJSON FeatureCollection
// with empty properties, preserving their order.
func LandFeatureCollection(polys []geom.Geom) (*utils.FeatureCollection, error) {
	fc := utils.NewFeatureCollection()
	for _, p := range polys {
		if err := fc.AppendGeom(p, nil); err != nil {
			return nil, err
		}
	}
	return fc, nil
}
