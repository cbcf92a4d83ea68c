// Package domain scores and ranks Oahu dive sites from environmental data.
//
// # Data Sources
//
// Readings arrive pre-fetched in a RawSources bundle, keyed by station or
// site ID so assembly never performs I/O:
//
//	NDBC buoys        wave height/period/direction (51201 Waimea, 51202 Mokapu, 51212 Kalaeloa)
//	PacIOOS SWAN      nearshore wave model, fallback when the assigned buoy is offline
//	NWS gridpoints    hourly wind forecast per site
//	CO-OPS stations   tide predictions (1612340 Honolulu Harbor, 1612480 Mokuoloe)
//	USGS gages        stream discharge and trailing rainfall, runoff proxies for visibility
//	Hawaii DOH        brown water advisories per site
//	NWS alerts        high surf warnings per coast
//
// Heights are feet, periods seconds, wind speeds knots, discharge cubic
// feet per second. Adapters convert at the boundary; nothing in this
// package converts units.
//
// # Wave Power Index
//
// WPI = height² × period. Height dominates because entry hazard grows
// faster than linearly with face height; period separates long-interval
// ground swell from wind chop of the same height. The wave sub-score
// measures WPI against a ceiling derived from the site's safe threshold,
// so a site rated for 8ft surf tolerates far more raw energy than a
// 3ft-rated reef.
//
// # Safety Gates
//
// Three gates run before grading, in precedence order:
//
//	1. coast-wide high surf warning
//	2. site brown water advisory
//	3. wave height above the site's safe threshold
//
// The first gate that fires sets UnsafeReason and forces grade F with
// Diveable=false. The composite is still computed and reported for gated
// sites.
//
// # Unknown Data
//
// A missing reading is an explicit unknown, never a zero or a neutral
// default. Unknown sub-scores drop out of the weighted composite and
// their weight is renormalized over the rest; a site with all five
// sub-scores unknown is reported with insufficient-data status. This
// keeps a dead buoy from scoring like a flat ocean.
//
// # Grading
//
// Composite 0-100 maps to letters: A ≥85, B ≥70, C ≥55, D ≥40, F below.
// Grade F also applies to every gated or insufficient-data site.
//
// # Determinism
//
// Scoring and ranking are pure: same catalog, same readings, same report
// time, same output, independent of input order. The ranking comparator
// (diveable, composite desc, name asc) is a total order because catalog
// site names are unique.
package domain
