package registry

import (
	"slices"
	"strconv"
	"strings"
)

// District is one entry of the fixed district table.
type District struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// districtEntries is the fixed code to name mapping. Codes and names are part
// of the external contract of the input files.
var districtEntries = [...]District{
	{1001, "Phra Nakhon"},
	{1002, "Dusit"},
	{1003, "Nong Chok"},
	{1004, "Bang Rak"},
	{1005, "Bang Khen"},
	{1006, "Bang Kapi"},
	{1007, "Pathum Wan"},
	{1008, "Pom Prap Sattru Phai"},
	{1009, "Phra Khanong"},
	{1010, "Min Buri"},
	{1011, "Lat Krabang"},
	{1012, "Yan Nawa"},
	{1013, "Samphanthawong"},
	{1014, "Phaya Thai"},
	{1015, "Thon Buri"},
	{1016, "Bangkok Yai"},
	{1017, "Huai Khwang"},
	{1018, "Khlong San"},
	{1019, "Taling Chan"},
	{1020, "Bangkok Noi"},
	{1021, "Bang Khun Thian"},
	{1022, "Phasi Charoen"},
	{1023, "Nong Khaem"},
	{1024, "Rat Burana"},
	{1025, "Bang Phlat"},
	{1026, "Din Daeng"},
	{1027, "Bueng Kum"},
	{1028, "Sathon"},
	{1029, "Bang Sue"},
	{1030, "Chatuchak"},
	{1031, "Bang Kho Laem"},
	{1032, "Prawet"},
	{1033, "Khlong Toei"},
	{1034, "Suan Luang"},
	{1035, "Chom Thong"},
	{1036, "Don Mueang"},
	{1037, "Ratchathewi"},
	{1038, "Lat Phrao"},
	{1039, "Watthana"},
	{1040, "Bang Khae"},
	{1041, "Lak Si"},
	{1042, "Sai Mai"},
	{1043, "Khan Na Yao"},
	{1044, "Saphan Sung"},
	{1045, "Wang Thonglang"},
	{1046, "Khlong Sam Wa"},
	{1047, "Bang Na"},
	{1048, "Thawi Watthana"},
	{1049, "Thung Khru"},
	{1050, "Bang Bon"},
}

// DistrictTable resolves district codes and names. It is read-only after construction.
type DistrictTable struct {
	byCode map[int]string
	byName map[string]int
}

// NewDistrictTable builds the fixed district table.
func NewDistrictTable() *DistrictTable {
	t := &DistrictTable{
		byCode: make(map[int]string, len(districtEntries)),
		byName: make(map[string]int, len(districtEntries)),
	}
	for _, d := range districtEntries {
		t.byCode[d.Code] = d.Name
		t.byName[strings.ToLower(d.Name)] = d.Code
	}
	return t
}

// Name returns the district name for a code.
func (t *DistrictTable) Name(code int) (string, bool) {
	name, ok := t.byCode[code]
	return name, ok
}

// Code returns the district code for a name, ignoring case.
func (t *DistrictTable) Code(name string) (int, bool) {
	code, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// Len returns the number of known districts.
func (t *DistrictTable) Len() int {
	return len(t.byCode)
}

// All returns every district ordered by code.
func (t *DistrictTable) All() []District {
	out := make([]District, 0, len(t.byCode))
	for code, name := range t.byCode {
		out = append(out, District{Code: code, Name: name})
	}
	slices.SortFunc(out, func(a, b District) int { return a.Code - b.Code })
	return out
}

// ParseCode parses a raw dname cell, which may be a code ("1001", "1001.0")
// or a district name. Unknown names return false; unknown numeric codes are
// returned with ok=true so callers can keep them for city-wide totals.
func (t *DistrictTable) ParseCode(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f), true
	}
	return t.Code(raw)
}
