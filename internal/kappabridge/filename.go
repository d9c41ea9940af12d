package kappabridge

import (
	"path/filepath"
	"regexp"
	"strconv"
)

// curFilePattern matches measurement file names of the form
// "<temperature><optional run letter>.CUR", e.g. "700.CUR" or "50A.CUR".
// The extension is case-sensitive, as written by the instrument software.
var curFilePattern = regexp.MustCompile(`^(\d+)[AB]?\.CUR$`)

// FilenameTemperature extracts the target temperature encoded in a
// measurement file name. The optional A/B suffix distinguishes repeated
// runs at the same nominal temperature and is ignored. The second return
// value is false when the name does not follow the convention.
func FilenameTemperature(path string) (int, bool) {
	m := curFilePattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}

	temp, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return temp, true
}
