package models

import "sort"

// Residential MCM codes and their descriptions.
var ResidentialMCM = map[int]string{
	0:  "Residential Sector Average",
	11: "Detached",
	12: "Semi-Detached",
	13: "Terrace",
	14: "Bungalow",
	15: "Flat",
}

// Non-residential MCM codes and their descriptions.
var NonResidentialMCM = map[int]string{
	2:   "Retail",
	3:   "Offices",
	4:   "Warehouses",
	51:  "Leisure",
	521: "Playing Field",
	523: "Sports Centre",
	525: "Sports Stadium",
	526: "Marina",
	6:   "Public Buildings",
	8:   "Industry",
	910: "Car Park",
	960: "Substation",
	999: "Non-Residential Sector Average",
}

// ValidMCM reports whether code belongs to the taxonomy of the given class.
func ValidMCM(class PropertyClass, code int) bool {
	switch class {
	case Residential:
		_, ok := ResidentialMCM[code]
		return ok
	case NonResidential:
		_, ok := NonResidentialMCM[code]
		return ok
	default:
		return false
	}
}

// ClassifyMCM returns the property class a code belongs to.
// The two taxonomies are disjoint, so the result is unambiguous.
func ClassifyMCM(code int) (PropertyClass, bool) {
	if _, ok := ResidentialMCM[code]; ok {
		return Residential, true
	}
	if _, ok := NonResidentialMCM[code]; ok {
		return NonResidential, true
	}
	return "", false
}

// MCMCodes returns the sorted codes of a class.
func MCMCodes(class PropertyClass) []int {
	src := ResidentialMCM
	if class == NonResidential {
		src = NonResidentialMCM
	}
	codes := make([]int, 0, len(src))
	for code := range src {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}
