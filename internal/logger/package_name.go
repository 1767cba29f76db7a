package logger

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

type PackageNameResolver struct {
	BasePackage string
	Depth       int
}

// PackageName returns the path of the calling package relative to the base package,
// eg "internal/swap".
func (r *PackageNameResolver) PackageName() string {
	pc, _, _, _ := runtime.Caller(r.depth())
	pcName := runtime.FuncForPC(pc).Name()
	split := strings.SplitN(pcName, r.BasePackage, 2)
	var packageAfterBase string
	if len(split) < 2 {
		packageAfterBase = split[0]
	} else {
		packageAfterBase = strings.SplitN(split[1], ".", 2)[0]
	}
	return strings.Trim(packageAfterBase, "/")
}

func (r *PackageNameResolver) depth() int {
	// 2 because it's used from inside logging code. We want the caller of that.
	if r.Depth == 0 {
		return 2
	}
	return r.Depth
}

// Returns caller with last two directories.
// Meant for using in console for development - not performance optimized.
func consoleFormatCallerLastTwoDirs(i interface{}) string {
	c, _ := i.(string)
	if c == "" {
		return c
	}
	split := strings.Split(c, string(os.PathSeparator))
	if l := len(split); l > 2 {
		return fmt.Sprintf("%s/%s/%s", split[l-3], split[l-2], split[l-1])
	}
	return c
}
