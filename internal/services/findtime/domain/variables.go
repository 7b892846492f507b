package domain

import (
	"sort"
	"strings"

	perr "findtime/internal/platform/errors"
)

// catalog maps ERA5 long names to the short names the grid tables store
var catalog = map[string]Variable{
	"2m_temperature":            {Short: "t2m", Unit: "K"},
	"snow_depth":                {Short: "sd", Unit: "m of water equivalent"},
	"snowfall":                  {Short: "sf", Unit: "m of water equivalent"},
	"snowmelt":                  {Short: "smlt", Unit: "m of water equivalent"},
	"surface_pressure":          {Short: "sp", Unit: "Pa"},
	"sea_surface_temperature":   {Short: "sst", Unit: "K"},
	"temperature_of_snow_layer": {Short: "tsn", Unit: "K"},
	"total_precipitation":       {Short: "tp", Unit: "m"},
	"ice_temperature_layer_1":   {Short: "istl1", Unit: "K"},
	"ice_temperature_layer_2":   {Short: "istl2", Unit: "K"},
	"ice_temperature_layer_3":   {Short: "istl3", Unit: "K"},
	"ice_temperature_layer_4":   {Short: "istl4", Unit: "K"},
}

// ShortName resolves a long or short variable name to its short form
func ShortName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if v, ok := catalog[n]; ok {
		return v.Short, nil
	}
	for _, v := range catalog {
		if v.Short == n {
			return n, nil
		}
	}
	return "", perr.WithField(perr.InvalidArgf("unknown variable %q", name), "variable")
}

// Variables lists the catalog sorted by long name
func Variables() []Variable {
	out := make([]Variable, 0, len(catalog))
	for name, v := range catalog {
		v.Name = name
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
