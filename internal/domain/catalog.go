package domain

import "strconv"

// Subjects offered by both dashboards.
var Subjects = []string{
	"Mathematics",
	"Physics",
	"Chemistry",
	"Biology",
	"Social Science",
}

// Classes returns the class options "1" through "10".
func Classes() []string {
	out := make([]string, 10)
	for i := range out {
		out[i] = strconv.Itoa(i + 1)
	}
	return out
}
