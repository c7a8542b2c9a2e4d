package tzresolve

import "sort"

// zoneEntry is the raw table row before sorting.  Rectangles are coarse on
// purpose: one or a few boxes per zone classify uploader locations well
// enough without shipping a polygon dataset.
type zoneEntry struct {
	zone           string
	minLat, maxLat float64
	minLon, maxLon float64
	priority       int
}

// zoneTable lists the supported regions.  Priority 1 marks small specific
// regions, larger numbers mark broad fallbacks that only apply when no
// tighter rectangle claims the point.
var zoneTable = []zoneEntry{
	// North America
	{"America/Los_Angeles", 32.5, 49.0, -125.0, -114.0, 1},
	{"America/Denver", 31.3, 49.0, -114.0, -102.0, 1},
	{"America/Chicago", 25.8, 49.0, -102.0, -87.0, 1},
	{"America/New_York", 24.5, 47.5, -87.0, -66.9, 1},
	{"America/Anchorage", 54.0, 71.5, -170.0, -130.0, 1},
	{"Pacific/Honolulu", 18.5, 22.5, -160.5, -154.5, 1},
	{"America/Vancouver", 49.0, 60.0, -139.0, -114.0, 2},
	{"America/Edmonton", 49.0, 60.0, -114.0, -101.4, 2},
	{"America/Winnipeg", 49.0, 60.0, -101.4, -89.0, 2},
	{"America/Toronto", 47.5, 62.0, -89.0, -74.3, 2},
	{"America/Mexico_City", 14.5, 29.0, -106.0, -86.7, 2},

	// South America
	{"America/Bogota", -4.2, 12.5, -79.1, -66.8, 1},
	{"America/Lima", -18.4, 0.0, -81.3, -68.7, 2},
	{"America/Sao_Paulo", -33.8, -2.0, -53.1, -34.7, 1},
	{"America/Argentina/Buenos_Aires", -55.1, -21.7, -73.6, -53.6, 2},
	{"America/Santiago", -56.0, -17.5, -75.7, -66.4, 3},

	// Europe
	{"Europe/Dublin", 51.4, 55.4, -10.5, -5.9, 1},
	{"Europe/London", 49.9, 58.7, -8.2, 1.8, 1},
	{"Europe/Lisbon", 36.9, 42.2, -9.6, -6.2, 1},
	{"Europe/Paris", 42.3, 51.1, -4.8, 8.2, 1},
	{"Europe/Madrid", 36.0, 43.8, -9.3, 3.3, 2},
	{"Europe/Berlin", 47.3, 55.1, 5.9, 15.0, 1},
	{"Europe/Rome", 36.6, 47.1, 6.6, 18.5, 2},
	{"Europe/Warsaw", 49.0, 54.9, 14.1, 24.2, 2},
	{"Europe/Stockholm", 55.3, 69.1, 11.1, 24.2, 1},
	{"Europe/Helsinki", 59.8, 70.1, 20.6, 31.6, 1},
	{"Europe/Athens", 34.8, 41.8, 19.4, 28.3, 1},
	{"Europe/Istanbul", 36.0, 42.1, 26.0, 44.8, 2},
	{"Europe/Kyiv", 44.4, 52.4, 22.1, 40.2, 2},
	{"Europe/Moscow", 52.4, 68.0, 31.0, 60.0, 2},

	// Africa
	{"Africa/Casablanca", 27.7, 35.9, -13.2, -1.0, 1},
	{"Africa/Cairo", 22.0, 31.7, 24.7, 36.9, 1},
	{"Africa/Lagos", 4.0, 13.9, 2.7, 14.7, 1},
	{"Africa/Nairobi", -4.7, 5.5, 33.9, 41.9, 1},
	{"Africa/Johannesburg", -34.9, -22.1, 16.4, 32.9, 1},

	// Middle East and Asia
	{"Asia/Jerusalem", 29.5, 33.3, 34.2, 35.9, 1},
	{"Asia/Riyadh", 16.4, 32.2, 34.5, 55.7, 2},
	{"Asia/Dubai", 22.6, 26.1, 51.6, 56.4, 1},
	{"Asia/Tehran", 25.1, 39.8, 44.0, 63.3, 2},
	{"Asia/Karachi", 23.7, 37.1, 60.9, 77.8, 2},
	{"Asia/Kolkata", 6.8, 35.5, 68.1, 97.4, 3},
	{"Asia/Dhaka", 20.7, 26.6, 88.6, 92.7, 1},
	{"Asia/Bangkok", 5.6, 20.5, 97.3, 105.6, 2},
	{"Asia/Jakarta", -8.8, 6.0, 95.0, 115.0, 2},
	{"Asia/Shanghai", 18.1, 53.6, 73.5, 134.8, 4},
	{"Asia/Hong_Kong", 22.1, 22.6, 113.8, 114.4, 1},
	{"Asia/Taipei", 21.9, 25.3, 120.0, 122.0, 1},
	{"Asia/Seoul", 33.1, 38.6, 126.0, 129.6, 1},
	{"Asia/Tokyo", 30.9, 45.5, 129.6, 145.8, 2},
	{"Asia/Singapore", 1.1, 1.5, 103.6, 104.1, 1},
	{"Asia/Manila", 5.0, 19.4, 117.2, 126.6, 2},

	// Oceania
	{"Australia/Perth", -35.2, -13.7, 112.9, 129.0, 1},
	{"Australia/Adelaide", -38.1, -26.0, 129.0, 141.0, 2},
	{"Australia/Melbourne", -39.2, -36.6, 141.0, 150.0, 1},
	{"Australia/Sydney", -37.5, -28.2, 141.0, 153.6, 2},
	{"Australia/Brisbane", -28.2, -10.7, 138.0, 153.6, 2},
	{"Pacific/Auckland", -47.3, -34.4, 166.4, 178.6, 1},
}

// buildBoxes converts the raw table into sorted rectangles: priority
// first, then area, so the most specific claim on a point always wins.
func buildBoxes() []zoneBox {
	out := make([]zoneBox, 0, len(zoneTable))
	for _, e := range zoneTable {
		out = append(out, zoneBox{
			zone:     e.zone,
			minLat:   e.minLat,
			maxLat:   e.maxLat,
			minLon:   e.minLon,
			maxLon:   e.maxLon,
			priority: e.priority,
			area:     (e.maxLat - e.minLat) * (e.maxLon - e.minLon),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority < out[j].priority
		}
		return out[i].area < out[j].area
	})
	return out
}
