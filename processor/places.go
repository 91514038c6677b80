package processor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom/encoding/shp"

	"github.com/oresund-atlas/bathyprep/utils"
)

// Attribute columns carried over from the Natural Earth populated places
// shapefile into the output properties.
var placesFields = []string{"NAME", "POP_MAX", "POP_MIN", "ADM0_A3", "FEATURECLA", "SCALERANK"}

// LoadPopulatedPlaces reads the populated places shapefile and returns a
// FeatureCollection with every place inside bbox, edges inclusive, in file
// order. Population and rank attributes are emitted as numbers.
func LoadPopulatedPlaces(shpPath string, bbox utils.BoundingBox) (*utils.FeatureCollection, error) {
	dec, err := shp.NewDecoder(shpPath)
	if err != nil {
		return nil, fmt.Errorf("opening places shapefile %s: %v", shpPath, err)
	}
	defer dec.Close()

	fc := utils.NewFeatureCollection()
	for {
		g, fields, more := dec.DecodeRowFields(placesFields...)
		if !more {
			break
		}
		if !Overlaps(g, bbox) {
			continue
		}

		properties := map[string]interface{}{
			"name":          fields["NAME"],
			"pop_max":       parseIntField(fields["POP_MAX"]),
			"pop_min":       parseIntField(fields["POP_MIN"]),
			"country_code":  fields["ADM0_A3"],
			"feature_class": fields["FEATURECLA"],
			"scale_rank":    parseIntField(fields["SCALERANK"]),
		}
		if err := fc.AppendGeom(g, properties); err != nil {
			return nil, err
		}
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("reading places shapefile %s: %v", shpPath, err)
	}
	return fc, nil
}

// parseIntField maps a numeric attribute column to an int, or nil when the
// column is missing or unparsable, so absent values never masquerade as a
// real zero in the output properties.
func parseIntField(s string) interface{} {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return v
}
